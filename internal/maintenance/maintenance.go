// Package maintenance classifies maintenance events for alerting and
// aggregates them for dashboards. The stored status is authoritative: nothing
// here promotes an event to overdue on its own.
package maintenance

import (
	"context"
	"sort"

	"fleet-timesheet-backend/internal/model"
	"fleet-timesheet-backend/internal/store"
)

// Urgency is the display classification of an attention-needed event.
type Urgency string

const (
	UrgencyPending Urgency = "pending"
	UrgencyOverdue Urgency = "overdue"
)

// IsAttentionNeeded reports whether the stored status is pending or overdue.
func IsAttentionNeeded(e model.MaintenanceEvent) bool {
	return e.Status == model.StatusPending || e.Status == model.StatusOverdue
}

// ClassifyUrgency reads the stored status only.
func ClassifyUrgency(e model.MaintenanceEvent) Urgency {
	if e.Status == model.StatusOverdue {
		return UrgencyOverdue
	}
	return UrgencyPending
}

// Counts holds attention counters and the cost total of a set of events.
type Counts struct {
	Pending   int     `json:"pending"`
	Overdue   int     `json:"overdue"`
	Done      int     `json:"done"`
	TotalCost float64 `json:"totalCost"`
}

func (c *Counts) add(e model.MaintenanceEvent) {
	switch e.Status {
	case model.StatusPending:
		c.Pending++
	case model.StatusOverdue:
		c.Overdue++
	case model.StatusDone:
		c.Done++
	}
	if e.Cost != nil {
		c.TotalCost += *e.Cost
	}
}

// Summary is the aggregation of a set of events, globally and per machine.
type Summary struct {
	Global    Counts            `json:"global"`
	ByMachine map[string]Counts `json:"byMachine"`
}

// Aggregate counts events by stored status. Absent cost counts as zero.
func Aggregate(events []model.MaintenanceEvent) Summary {
	s := Summary{ByMachine: make(map[string]Counts)}
	for _, e := range events {
		s.Global.add(e)
		c := s.ByMachine[e.MachineID]
		c.add(e)
		s.ByMachine[e.MachineID] = c
	}
	return s
}

// Attention is an attention-needed event with its urgency.
type Attention struct {
	Event   model.MaintenanceEvent `json:"event"`
	Urgency Urgency                `json:"urgency"`
}

// AttentionList returns the attention-needed events, overdue first, each
// group in stored order.
func AttentionList(events []model.MaintenanceEvent) []Attention {
	list := make([]Attention, 0)
	for _, e := range events {
		if IsAttentionNeeded(e) {
			list = append(list, Attention{Event: e, Urgency: ClassifyUrgency(e)})
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Urgency == UrgencyOverdue && list[j].Urgency != UrgencyOverdue
	})
	return list
}

// DueReminders lists the attention-needed events of machine whose next-due
// hour-meter has been reached. It is informational and never changes the
// stored status.
func DueReminders(events []model.MaintenanceEvent, machine model.Machine) []model.MaintenanceEvent {
	var due []model.MaintenanceEvent
	for _, e := range events {
		if e.MachineID != machine.ID || !IsAttentionNeeded(e) || e.NextDueHourMeter == nil {
			continue
		}
		if *e.NextDueHourMeter <= machine.CurrentHourMeter {
			due = append(due, e)
		}
	}
	return due
}

// MarkDone sets the stored status of event id to done.
func MarkDone(ctx context.Context, s *store.Store, id string) (model.MaintenanceEvent, error) {
	done := model.StatusDone
	return s.UpdateMaintenance(ctx, id, model.MaintenancePatch{Status: &done})
}
