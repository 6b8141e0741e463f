package model

import (
	"strings"
	"time"

	"fleet-timesheet-backend/internal/apperr"
)

// MachineType enumerates the equipment classes a machine can belong to.
type MachineType string

const (
	MachineExcavator       MachineType = "excavator"
	MachineBackhoe         MachineType = "backhoe"
	MachineWheelLoader     MachineType = "wheel-loader"
	MachineCrawlerTractor  MachineType = "crawler-tractor"
	MachineMotorGrader     MachineType = "motor-grader"
	MachineRollerCompactor MachineType = "roller-compactor"
	MachineDumpTruck       MachineType = "dump-truck"
	MachineWaterTruck      MachineType = "water-truck"
	MachineOther           MachineType = "other"
)

// MachineTypes lists every accepted MachineType in display order.
var MachineTypes = []MachineType{
	MachineExcavator,
	MachineBackhoe,
	MachineWheelLoader,
	MachineCrawlerTractor,
	MachineMotorGrader,
	MachineRollerCompactor,
	MachineDumpTruck,
	MachineWaterTruck,
	MachineOther,
}

// Valid reports whether t is one of MachineTypes.
func (t MachineType) Valid() bool {
	for _, known := range MachineTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Machine is a piece of heavy equipment with an authoritative hour-meter.
type Machine struct {
	ID               string      `json:"id" yaml:"id"`
	Name             string      `json:"name" yaml:"name"`
	Type             MachineType `json:"type" yaml:"type"`
	Plate            string      `json:"plate" yaml:"plate"`
	AssetTag         string      `json:"assetTag" yaml:"assetTag"`
	InitialHourMeter float64     `json:"initialHourMeter" yaml:"initialHourMeter"`
	CurrentHourMeter float64     `json:"currentHourMeter" yaml:"currentHourMeter"`
	Active           bool        `json:"active" yaml:"active"`
	CreatedAt        time.Time   `json:"createdAt" yaml:"createdAt"`
}

func (m *Machine) GetID() string { return m.ID }

func (m *Machine) Stamp(id string, at time.Time) {
	m.ID = id
	m.CreatedAt = at
}

func (m *Machine) Validate() error {
	var errs []error
	if strings.TrimSpace(m.Name) == "" {
		errs = append(errs, apperr.Required("name"))
	}
	if !m.Type.Valid() {
		errs = append(errs, apperr.Field("type", "is not a known machine type"))
	}
	if m.InitialHourMeter < 0 {
		errs = append(errs, apperr.Field("initialHourMeter", "must not be negative"))
	}
	if m.CurrentHourMeter < m.InitialHourMeter {
		errs = append(errs, apperr.Field("currentHourMeter", "must not be below the initial hour-meter"))
	}
	return apperr.Validation("machine", errs...)
}

// MachinePatch is a shallow partial update of a Machine. Nil fields are left untouched.
type MachinePatch struct {
	Name             *string      `json:"name"`
	Type             *MachineType `json:"type"`
	Plate            *string      `json:"plate"`
	AssetTag         *string      `json:"assetTag"`
	InitialHourMeter *float64     `json:"initialHourMeter"`
	CurrentHourMeter *float64     `json:"currentHourMeter"`
	Active           *bool        `json:"active"`
}

// Apply merges p into m.
func (p MachinePatch) Apply(m *Machine) {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Type != nil {
		m.Type = *p.Type
	}
	if p.Plate != nil {
		m.Plate = *p.Plate
	}
	if p.AssetTag != nil {
		m.AssetTag = *p.AssetTag
	}
	if p.InitialHourMeter != nil {
		m.InitialHourMeter = *p.InitialHourMeter
	}
	if p.CurrentHourMeter != nil {
		m.CurrentHourMeter = *p.CurrentHourMeter
	}
	if p.Active != nil {
		m.Active = *p.Active
	}
}
