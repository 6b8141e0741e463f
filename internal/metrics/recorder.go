// Package metrics exposes counters for the shift and maintenance engine.
// Components take a Recorder; NoopRecorder is the default when metrics are
// not wired.
package metrics

// ShiftEvent enumerates shift lifecycle transitions.
type ShiftEvent string

const (
	ShiftOpened    ShiftEvent = "opened"
	ShiftClosed    ShiftEvent = "closed"
	ShiftCancelled ShiftEvent = "cancelled"
	ShiftManual    ShiftEvent = "manual"
)

// RejectReason enumerates why a close or manual entry was refused.
type RejectReason string

const (
	RejectInvalidReading RejectReason = "invalid_reading"
	RejectConflict       RejectReason = "conflict"
)

// Recorder defines the observability hooks of the fleet core.
type Recorder interface {
	IncShift(event ShiftEvent)
	ObserveWorkedHours(machineType string, hours float64)
	IncRejectedReading(reason RejectReason)
	IncHourMeterOverwrite()
	IncReminder(success bool)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) IncShift(ShiftEvent)                {}
func (NoopRecorder) ObserveWorkedHours(string, float64) {}
func (NoopRecorder) IncRejectedReading(RejectReason)    {}
func (NoopRecorder) IncHourMeterOverwrite()             {}
func (NoopRecorder) IncReminder(bool)                   {}
