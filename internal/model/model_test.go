package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-timesheet-backend/internal/apperr"
)

func TestMaintenancePatch_NullableFields(t *testing.T) {
	cost := 250.0
	parts := "filter"
	event := MaintenanceEvent{Cost: &cost, Parts: &parts, Status: StatusPending}

	var patch MaintenancePatch
	require.NoError(t, json.Unmarshal([]byte(`{"cost": null, "status": "done"}`), &patch))
	patch.Apply(&event)

	assert.Nil(t, event.Cost, "explicit null clears the cost")
	require.NotNil(t, event.Parts, "absent key keeps parts")
	assert.Equal(t, "filter", *event.Parts)
	assert.Equal(t, StatusDone, event.Status)
}

func TestMaintenancePatch_SetToCopiesValue(t *testing.T) {
	var event MaintenanceEvent
	MaintenancePatch{NextDueHourMeter: SetTo(520.0)}.Apply(&event)
	require.NotNil(t, event.NextDueHourMeter)
	assert.Equal(t, 520.0, *event.NextDueHourMeter)

	MaintenancePatch{NextDueHourMeter: Cleared[float64]()}.Apply(&event)
	assert.Nil(t, event.NextDueHourMeter)
}

func TestMachineValidate(t *testing.T) {
	testCases := []struct {
		name   string
		m      Machine
		fields []string
	}{
		{"valid", Machine{Name: "Excavator 01", Type: MachineExcavator, InitialHourMeter: 10, CurrentHourMeter: 12}, nil},
		{"missing name and type", Machine{}, []string{"name", "type"}},
		{"current below initial", Machine{Name: "X", Type: MachineOther, InitialHourMeter: 100, CurrentHourMeter: 90}, []string{"currentHourMeter"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.m.Validate()
			if tc.fields == nil {
				assert.NoError(t, err)
				return
			}
			var ve *apperr.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.fields, ve.Fields())
		})
	}
}

func TestShiftRecordPatch_LeavesWorkedHoursAlone(t *testing.T) {
	record := ShiftRecord{StartHourMeter: 100, EndHourMeter: 150, WorkedHours: 50}
	end := 160.0
	ShiftRecordPatch{EndHourMeter: &end}.Apply(&record)

	assert.Equal(t, 160.0, record.EndHourMeter)
	assert.Equal(t, 50.0, record.WorkedHours)
}

func TestStamp(t *testing.T) {
	at := time.Date(2025, 3, 1, 7, 0, 0, 0, time.UTC)
	var s Site
	s.Stamp("site-1", at)
	assert.Equal(t, "site-1", s.GetID())
	assert.Equal(t, at, s.CreatedAt)
}
