package model

import (
	"strings"
	"time"

	"fleet-timesheet-backend/internal/apperr"
)

// Role is an operator's access profile.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
)

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleOperator }

// Operator is a person who runs machines, identified at login by a PIN.
type Operator struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	PIN       string    `json:"pin" yaml:"pin"`
	Role      Role      `json:"role" yaml:"role"`
	Active    bool      `json:"active" yaml:"active"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

// IsActiveAdmin reports whether o counts towards the active admin floor.
func (o Operator) IsActiveAdmin() bool { return o.Role == RoleAdmin && o.Active }

func (o *Operator) GetID() string { return o.ID }

func (o *Operator) Stamp(id string, at time.Time) {
	o.ID = id
	o.CreatedAt = at
}

func (o *Operator) Validate() error {
	var errs []error
	if strings.TrimSpace(o.Name) == "" {
		errs = append(errs, apperr.Required("name"))
	}
	if o.PIN == "" {
		errs = append(errs, apperr.Required("pin"))
	}
	if !o.Role.Valid() {
		errs = append(errs, apperr.Field("role", "must be admin or operator"))
	}
	return apperr.Validation("operator", errs...)
}

// OperatorPatch is a shallow partial update of an Operator.
type OperatorPatch struct {
	Name   *string `json:"name"`
	PIN    *string `json:"pin"`
	Role   *Role   `json:"role"`
	Active *bool   `json:"active"`
}

// Apply merges p into o.
func (p OperatorPatch) Apply(o *Operator) {
	if p.Name != nil {
		o.Name = *p.Name
	}
	if p.PIN != nil {
		o.PIN = *p.PIN
	}
	if p.Role != nil {
		o.Role = *p.Role
	}
	if p.Active != nil {
		o.Active = *p.Active
	}
}
