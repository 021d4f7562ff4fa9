package models

import (
	"testing"
	"time"
)

func TestEventKey(t *testing.T) {
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{
			name:  "production event id wins",
			event: Event{ProductionEventID: "P1", EventID: "E1", SlotID: "S1"},
			want:  "P1",
		},
		{
			name:  "event id before slot id",
			event: Event{EventID: "E1", SlotID: "S1"},
			want:  "E1",
		},
		{
			name:  "slot id",
			event: Event{SlotID: "S1"},
			want:  "S1",
		},
		{
			name:  "composite fallback",
			event: Event{Type: EventTypeRehearsal, Date: date, Title: "Hamlet"},
			want:  "rehearsal|1717200000000|Hamlet",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Key(); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEventEnd(t *testing.T) {
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	start := date.Add(19 * time.Hour)

	allDay := Event{Date: date}
	if !allDay.AllDay() {
		t.Fatal("expected event without start time to be all-day")
	}
	if got := allDay.End(time.Hour); !got.Equal(date.AddDate(0, 0, 1)) {
		t.Errorf("all-day End() = %v, want next midnight", got)
	}

	timed := Event{Date: date, StartTime: &start}
	if got := timed.End(time.Hour); !got.Equal(start.Add(time.Hour)) {
		t.Errorf("timed End() without end = %v, want start+1h", got)
	}
}

func TestSlotCapacity(t *testing.T) {
	two := 2
	tests := []struct {
		name     string
		slot     Slot
		capacity int
		open     bool
	}{
		{name: "default capacity", slot: Slot{}, capacity: 1, open: true},
		{name: "default capacity taken", slot: Slot{CurrentSignups: 1}, capacity: 1, open: false},
		{name: "explicit capacity", slot: Slot{MaxSignups: &two, CurrentSignups: 1}, capacity: 2, open: true},
		{name: "over capacity", slot: Slot{MaxSignups: &two, CurrentSignups: 3}, capacity: 2, open: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.slot.Capacity(); got != tt.capacity {
				t.Errorf("Capacity() = %d, want %d", got, tt.capacity)
			}
			if got := tt.slot.IsOpen(); got != tt.open {
				t.Errorf("IsOpen() = %v, want %v", got, tt.open)
			}
		})
	}
}

func TestSlotValidate(t *testing.T) {
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	zero := 0

	valid := Slot{StartTime: start, EndTime: start.Add(15 * time.Minute)}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}

	inverted := Slot{StartTime: start, EndTime: start}
	if err := inverted.Validate(); err == nil {
		t.Error("Validate() expected error for end == start")
	}

	noCapacity := Slot{StartTime: start, EndTime: start.Add(time.Hour), MaxSignups: &zero}
	if err := noCapacity.Validate(); err == nil {
		t.Error("Validate() expected error for zero capacity")
	}
}

func TestWorkflowNext(t *testing.T) {
	tests := []struct {
		from    WorkflowStatus
		want    WorkflowStatus
		wantErr bool
	}{
		{from: "", want: WorkflowCasting},
		{from: WorkflowAuditioning, want: WorkflowCasting},
		{from: WorkflowCasting, want: WorkflowOfferingRoles},
		{from: WorkflowOfferingRoles, want: WorkflowRehearsing},
		{from: WorkflowRehearsing, want: WorkflowPerforming},
		{from: WorkflowPerforming, want: WorkflowCompleted},
		{from: WorkflowCompleted, want: WorkflowCompleted, wantErr: true},
		{from: "intermission", want: "intermission", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			got, err := tt.from.Next()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Next() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Next() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWorkflowLabel(t *testing.T) {
	if got := WorkflowOfferingRoles.Label(); got != "Offering Roles" {
		t.Errorf("Label() = %q, want %q", got, "Offering Roles")
	}
	if got := WorkflowStatus("custom").Label(); got != "custom" {
		t.Errorf("Label() for unknown = %q, want raw value", got)
	}
	if len(WorkflowStatuses()) != 6 {
		t.Errorf("expected 6 workflow stages")
	}
}
