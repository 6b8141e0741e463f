package model

import (
	"strings"
	"time"

	"fleet-timesheet-backend/internal/apperr"
)

// Site is a named work location shifts are attributed to.
type Site struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Address   *string   `json:"address,omitempty" yaml:"address,omitempty"`
	Active    bool      `json:"active" yaml:"active"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

func (s *Site) GetID() string { return s.ID }

func (s *Site) Stamp(id string, at time.Time) {
	s.ID = id
	s.CreatedAt = at
}

func (s *Site) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return apperr.Validation("site", apperr.Required("name"))
	}
	return nil
}

// SitePatch is a shallow partial update of a Site.
type SitePatch struct {
	Name    *string          `json:"name"`
	Address Nullable[string] `json:"address"`
	Active  *bool            `json:"active"`
}

func (p SitePatch) Apply(s *Site) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	p.Address.applyTo(&s.Address)
	if p.Active != nil {
		s.Active = *p.Active
	}
}
