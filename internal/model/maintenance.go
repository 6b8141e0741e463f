package model

import (
	"strings"
	"time"

	"fleet-timesheet-backend/internal/apperr"
)

// MaintenanceType separates planned service from repairs.
type MaintenanceType string

const (
	MaintenancePreventive MaintenanceType = "preventive"
	MaintenanceCorrective MaintenanceType = "corrective"
)

func (t MaintenanceType) Valid() bool {
	return t == MaintenancePreventive || t == MaintenanceCorrective
}

// MaintenanceStatus is set by operators; it is never inferred.
type MaintenanceStatus string

const (
	StatusPending MaintenanceStatus = "pending"
	StatusDone    MaintenanceStatus = "done"
	StatusOverdue MaintenanceStatus = "overdue"
)

func (s MaintenanceStatus) Valid() bool {
	return s == StatusPending || s == StatusDone || s == StatusOverdue
}

// MaintenanceEvent is a service performed or scheduled on a machine.
type MaintenanceEvent struct {
	ID               string            `json:"id" yaml:"id"`
	MachineID        string            `json:"machineId" yaml:"machineId"`
	Type             MaintenanceType   `json:"type" yaml:"type"`
	Date             time.Time         `json:"date" yaml:"date"`
	HourMeter        float64           `json:"hourMeter" yaml:"hourMeter"`
	Description      string            `json:"description" yaml:"description"`
	Parts            *string           `json:"parts,omitempty" yaml:"parts,omitempty"`
	Cost             *float64          `json:"cost,omitempty" yaml:"cost,omitempty"`
	NextDueHourMeter *float64          `json:"nextDueHourMeter,omitempty" yaml:"nextDueHourMeter,omitempty"`
	NextDueDate      *time.Time        `json:"nextDueDate,omitempty" yaml:"nextDueDate,omitempty"`
	Status           MaintenanceStatus `json:"status" yaml:"status"`
	CreatedAt        time.Time         `json:"createdAt" yaml:"createdAt"`
}

func (e *MaintenanceEvent) GetID() string { return e.ID }

func (e *MaintenanceEvent) Stamp(id string, at time.Time) {
	e.ID = id
	e.CreatedAt = at
}

func (e *MaintenanceEvent) Validate() error {
	var errs []error
	if e.MachineID == "" {
		errs = append(errs, apperr.Required("machineId"))
	}
	if !e.Type.Valid() {
		errs = append(errs, apperr.Field("type", "must be preventive or corrective"))
	}
	if e.Date.IsZero() {
		errs = append(errs, apperr.Required("date"))
	}
	if strings.TrimSpace(e.Description) == "" {
		errs = append(errs, apperr.Required("description"))
	}
	if !e.Status.Valid() {
		errs = append(errs, apperr.Field("status", "must be pending, done or overdue"))
	}
	if e.Cost != nil && *e.Cost < 0 {
		errs = append(errs, apperr.Field("cost", "must not be negative"))
	}
	return apperr.Validation("maintenance event", errs...)
}

// MaintenancePatch is a shallow partial update of a MaintenanceEvent.
type MaintenancePatch struct {
	MachineID        *string             `json:"machineId"`
	Type             *MaintenanceType    `json:"type"`
	Date             *time.Time          `json:"date"`
	HourMeter        *float64            `json:"hourMeter"`
	Description      *string             `json:"description"`
	Parts            Nullable[string]    `json:"parts"`
	Cost             Nullable[float64]   `json:"cost"`
	NextDueHourMeter Nullable[float64]   `json:"nextDueHourMeter"`
	NextDueDate      Nullable[time.Time] `json:"nextDueDate"`
	Status           *MaintenanceStatus  `json:"status"`
}

// Apply merges p into e.
func (p MaintenancePatch) Apply(e *MaintenanceEvent) {
	if p.MachineID != nil {
		e.MachineID = *p.MachineID
	}
	if p.Type != nil {
		e.Type = *p.Type
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.HourMeter != nil {
		e.HourMeter = *p.HourMeter
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	p.Parts.applyTo(&e.Parts)
	p.Cost.applyTo(&e.Cost)
	p.NextDueHourMeter.applyTo(&e.NextDueHourMeter)
	p.NextDueDate.applyTo(&e.NextDueDate)
	if p.Status != nil {
		e.Status = *p.Status
	}
}
