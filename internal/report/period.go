package report

import (
	"context"
	"sort"
	"time"
)

// Filter restricts a period report. Nil bounds are open; both are inclusive.
type Filter struct {
	From      *time.Time `json:"from,omitempty"`
	To        *time.Time `json:"to,omitempty"`
	MachineID string     `json:"machineId,omitempty"`
}

func (f Filter) contains(t time.Time) bool {
	if f.From != nil && t.Before(*f.From) {
		return false
	}
	if f.To != nil && t.After(*f.To) {
		return false
	}
	return true
}

func (f Filter) matchesMachine(id string) bool {
	return f.MachineID == "" || f.MachineID == id
}

// Hours is the worked-hours total of one machine or operator.
type Hours struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Hours  float64 `json:"hours"`
	Shifts int     `json:"shifts"`
}

// Summary is the headline of a period report.
type Summary struct {
	TotalHours       float64 `json:"totalHours"`
	ShiftCount       int     `json:"shiftCount"`
	MaintenanceCount int     `json:"maintenanceCount"`
	MaintenanceCost  float64 `json:"maintenanceCost"`
	MachinesUsed     int     `json:"machinesUsed"`
}

// Period is the report of shifts and maintenance over a filter.
type Period struct {
	Filter      Filter            `json:"filter"`
	Summary     Summary           `json:"summary"`
	ByMachine   []Hours           `json:"byMachine"`
	ByOperator  []Hours           `json:"byOperator"`
	Shifts      []ShiftLine       `json:"shifts"`
	Maintenance []MaintenanceLine `json:"maintenance"`
}

// Period selects shifts by start time and maintenance by service date.
func (b *Builder) Period(ctx context.Context, f Filter) (Period, error) {
	snap, err := b.snapshot(ctx)
	if err != nil {
		return Period{}, err
	}

	p := Period{
		Filter:      f,
		Shifts:      make([]ShiftLine, 0),
		Maintenance: make([]MaintenanceLine, 0),
	}
	byMachine := map[string]*Hours{}
	byOperator := map[string]*Hours{}

	for _, r := range snap.shifts {
		if !f.matchesMachine(r.MachineID) || !f.contains(r.StartedAt) {
			continue
		}
		p.Shifts = append(p.Shifts, snap.shiftLine(r))
		p.Summary.TotalHours += r.WorkedHours
		p.Summary.ShiftCount++
		tally(byMachine, r.MachineID, snap.machineName(r.MachineID), r.WorkedHours)
		tally(byOperator, r.OperatorID, snap.operatorName(r.OperatorID), r.WorkedHours)
	}

	for _, e := range snap.maintenance {
		if !f.matchesMachine(e.MachineID) || !f.contains(e.Date) {
			continue
		}
		p.Maintenance = append(p.Maintenance, snap.maintenanceLine(e))
		p.Summary.MaintenanceCount++
		if e.Cost != nil {
			p.Summary.MaintenanceCost += *e.Cost
		}
	}

	p.ByMachine = sortedHours(byMachine)
	p.ByOperator = sortedHours(byOperator)
	p.Summary.MachinesUsed = len(p.ByMachine)
	return p, nil
}

func tally(m map[string]*Hours, id, name string, hours float64) {
	h, ok := m[id]
	if !ok {
		h = &Hours{ID: id, Name: name}
		m[id] = h
	}
	h.Hours += hours
	h.Shifts++
}

// sortedHours orders by hours descending, then name.
func sortedHours(m map[string]*Hours) []Hours {
	out := make([]Hours, 0, len(m))
	for _, h := range m {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hours != out[j].Hours {
			return out[i].Hours > out[j].Hours
		}
		return out[i].Name < out[j].Name
	})
	return out
}
