package models

import (
	"reflect"
	"strings"
	"testing"
)

// gormTag extracts the gorm tag from a struct field.
func gormTag(t *testing.T, typ reflect.Type, fieldName string) string {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	return f.Tag.Get("gorm")
}

// assertGormTag checks that a struct field's gorm tag contains the expected value.
func assertGormTag(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	tag := gormTag(t, typ, fieldName)
	if !strings.Contains(tag, expected) {
		t.Errorf("%s.%s gorm tag = %q, want to contain %q", typ.Name(), fieldName, tag, expected)
	}
}

// assertFieldType checks that a struct field has the expected Go type.
func assertFieldType(t *testing.T, typ reflect.Type, fieldName, expectedType string) {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	got := f.Type.String()
	if got != expectedType {
		t.Errorf("%s.%s type = %q, want %q", typ.Name(), fieldName, got, expectedType)
	}
}

func TestTask_Fields(t *testing.T) {
	typ := reflect.TypeOf(Task{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "ProjectID", "not null")
	assertGormTag(t, typ, "Name", "not null")
	assertGormTag(t, typ, "Description", "type:text")
	assertGormTag(t, typ, "Status", "size:16")
	assertGormTag(t, typ, "Status", "default:pending")
	assertGormTag(t, typ, "Status", "index")
	assertGormTag(t, typ, "PhaseOrder", "uniqueIndex:uq_task_position")
	assertGormTag(t, typ, "StepOrder", "uniqueIndex:uq_task_position")
	assertGormTag(t, typ, "TaskOrder", "uniqueIndex:uq_task_position")
	assertGormTag(t, typ, "IsLoaded", "default:false")
	assertGormTag(t, typ, "EscalationReason", "type:text")

	assertFieldType(t, typ, "StartedAt", "*time.Time")
	assertFieldType(t, typ, "CompletedAt", "*time.Time")
	assertFieldType(t, typ, "EscalatedAt", "*time.Time")
	assertFieldType(t, typ, "EscalationReason", "*string")
	assertFieldType(t, typ, "ParentTaskID", "*uint")
	assertFieldType(t, typ, "Deadline", "*time.Time")
	assertFieldType(t, typ, "Category", "*string")
}

func TestProjectTaskAssignment_Fields(t *testing.T) {
	typ := reflect.TypeOf(ProjectTaskAssignment{})

	assertGormTag(t, typ, "TaskID", "uniqueIndex:uq_task_crew")
	assertGormTag(t, typ, "CrewID", "uniqueIndex:uq_task_crew")
	assertGormTag(t, typ, "RoleID", "not null")
}

func TestValidStatus(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{StatusPending, true},
		{StatusOngoing, true},
		{StatusCompleted, true},
		{StatusEscalated, true},
		{"done", false},
		{"", false},
		{"PENDING", false},
	}
	for _, tt := range tests {
		if got := ValidStatus(tt.status); got != tt.want {
			t.Errorf("ValidStatus(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestValidCategory(t *testing.T) {
	for _, c := range []string{CategoryMonitor, CategoryCoordinate, CategoryExecute} {
		if !ValidCategory(c) {
			t.Errorf("ValidCategory(%q) = false, want true", c)
		}
	}
	if ValidCategory("review") {
		t.Error("ValidCategory(\"review\") = true, want false")
	}
}
