package model

import (
	"encoding/json"
	"testing"
)

func TestUpdateTaskRequest_Description(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantSet   bool
		wantValue *string
	}{
		{"absent", `{"title":"t"}`, false, nil},
		{"null", `{"description":null}`, true, nil},
		{"value", `{"description":"notes"}`, true, ptr("notes")},
		{"empty", `{"description":""}`, true, ptr("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req UpdateTaskRequest
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("Unmarshal error: %v", err)
			}
			if req.Description.Set != tt.wantSet {
				t.Errorf("Set = %v, want %v", req.Description.Set, tt.wantSet)
			}
			switch {
			case tt.wantValue == nil && req.Description.Value != nil:
				t.Errorf("Value = %q, want nil", *req.Description.Value)
			case tt.wantValue != nil && (req.Description.Value == nil || *req.Description.Value != *tt.wantValue):
				t.Errorf("Value = %v, want %q", req.Description.Value, *tt.wantValue)
			}
		})
	}
}

func TestUpdateTaskRequest_DescriptionWrongType(t *testing.T) {
	var req UpdateTaskRequest
	if err := json.Unmarshal([]byte(`{"description":42}`), &req); err == nil {
		t.Fatal("expected an error for a numeric description")
	}
}

func TestTaskStatusNormalize(t *testing.T) {
	tests := map[TaskStatus]TaskStatus{
		"todo":          StatusTodo,
		" In_Progress ": StatusInProgress,
		"DONE":          StatusDone,
		"later":         "LATER",
	}
	for in, want := range tests {
		if got := in.Normalize(); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func ptr[T any](v T) *T { return &v }
