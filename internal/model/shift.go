package model

import (
	"strings"
	"time"

	"fleet-timesheet-backend/internal/apperr"
)

// ShiftRecord is a closed work shift: who ran which machine, where, and for
// how many hour-meter hours.
type ShiftRecord struct {
	ID             string    `json:"id" yaml:"id"`
	MachineID      string    `json:"machineId" yaml:"machineId"`
	OperatorID     string    `json:"operatorId" yaml:"operatorId"`
	Site           string    `json:"site" yaml:"site"`
	StartedAt      time.Time `json:"startedAt" yaml:"startedAt"`
	EndedAt        time.Time `json:"endedAt" yaml:"endedAt"`
	StartHourMeter float64   `json:"startHourMeter" yaml:"startHourMeter"`
	EndHourMeter   float64   `json:"endHourMeter" yaml:"endHourMeter"`
	WorkedHours    float64   `json:"workedHours" yaml:"workedHours"`
	Notes          *string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt      time.Time `json:"createdAt" yaml:"createdAt"`
}

func (r *ShiftRecord) GetID() string { return r.ID }

func (r *ShiftRecord) Stamp(id string, at time.Time) {
	r.ID = id
	r.CreatedAt = at
}

func (r *ShiftRecord) Validate() error {
	var errs []error
	if r.MachineID == "" {
		errs = append(errs, apperr.Required("machineId"))
	}
	if r.OperatorID == "" {
		errs = append(errs, apperr.Required("operatorId"))
	}
	if strings.TrimSpace(r.Site) == "" {
		errs = append(errs, apperr.Required("site"))
	}
	if r.StartedAt.IsZero() {
		errs = append(errs, apperr.Required("startedAt"))
	}
	if r.EndedAt.IsZero() {
		errs = append(errs, apperr.Required("endedAt"))
	}
	return apperr.Validation("shift record", errs...)
}

// ShiftRecordPatch is the admin correction of a ShiftRecord. WorkedHours is
// only re-derived from the readings when Recompute is set.
type ShiftRecordPatch struct {
	MachineID      *string          `json:"machineId"`
	OperatorID     *string          `json:"operatorId"`
	Site           *string          `json:"site"`
	StartedAt      *time.Time       `json:"startedAt"`
	EndedAt        *time.Time       `json:"endedAt"`
	StartHourMeter *float64         `json:"startHourMeter"`
	EndHourMeter   *float64         `json:"endHourMeter"`
	WorkedHours    *float64         `json:"workedHours"`
	Notes          Nullable[string] `json:"notes"`
	Recompute      bool             `json:"recompute"`
}

// Apply merges p into r. It does not look at Recompute.
func (p ShiftRecordPatch) Apply(r *ShiftRecord) {
	if p.MachineID != nil {
		r.MachineID = *p.MachineID
	}
	if p.OperatorID != nil {
		r.OperatorID = *p.OperatorID
	}
	if p.Site != nil {
		r.Site = *p.Site
	}
	if p.StartedAt != nil {
		r.StartedAt = *p.StartedAt
	}
	if p.EndedAt != nil {
		r.EndedAt = *p.EndedAt
	}
	if p.StartHourMeter != nil {
		r.StartHourMeter = *p.StartHourMeter
	}
	if p.EndHourMeter != nil {
		r.EndHourMeter = *p.EndHourMeter
	}
	if p.WorkedHours != nil {
		r.WorkedHours = *p.WorkedHours
	}
	p.Notes.applyTo(&r.Notes)
}

// PendingShift is the in-progress shift of one operator. It lives in a side
// channel keyed by operator and is never part of the entity collections.
type PendingShift struct {
	OperatorID     string    `json:"operatorId"`
	MachineID      string    `json:"machineId"`
	Site           string    `json:"site"`
	StartHourMeter float64   `json:"startHourMeter"`
	StartedAt      time.Time `json:"startedAt"`
	// ObservedHourMeter is the machine hour-meter when the shift was opened.
	ObservedHourMeter float64 `json:"observedHourMeter"`
}
