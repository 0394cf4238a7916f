package validator

import (
	"strings"
	"testing"
	"time"
)

func intPtr(n int) *int { return &n }

func taskRules() map[string]FieldRule {
	return map[string]FieldRule{
		"name":     {Type: FieldTypeString, Required: true, MaxLength: 200},
		"status":   {Type: FieldTypeEnum, Required: true, Enum: []string{"open", "in_progress", "blocked", "done"}},
		"priority": {Type: FieldTypeInteger, Required: true, Min: intPtr(0), Max: intPtr(5)},
		"due_date": {Type: FieldTypeDate},
	}
}

func TestValidateRowAcceptsValidRow(t *testing.T) {
	v := NewRowValidator()

	result := v.ValidateRow(map[string]any{
		"name":     "Fix pump",
		"status":   "open",
		"priority": int64(3),
		"due_date": time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
	}, taskRules())

	if !result.IsValid {
		t.Fatalf("expected valid row, got errors: %+v", result.Errors)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("expected no warnings, got: %+v", result.Warnings)
	}
}

func TestValidateRowRequiredFieldMissing(t *testing.T) {
	v := NewRowValidator()

	result := v.ValidateRow(map[string]any{
		"status":   "open",
		"priority": int64(1),
	}, taskRules())

	if result.IsValid {
		t.Fatal("expected missing name to invalidate the row")
	}
	found := false
	for _, e := range result.Errors {
		if e.Field == "name" && strings.Contains(e.Message, "required") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected required-field error for name, got: %+v", result.Errors)
	}
}

func TestValidateRowEnumViolation(t *testing.T) {
	v := NewRowValidator()

	result := v.ValidateRow(map[string]any{
		"name":     "Fix pump",
		"status":   "paused",
		"priority": int64(1),
	}, taskRules())

	if result.IsValid {
		t.Fatal("expected unknown status to invalidate the row")
	}
	if !strings.Contains(result.Errors[0].Message, "is not one of") {
		t.Fatalf("unexpected error message: %s", result.Errors[0].Message)
	}
}

func TestValidateRowIntegerBounds(t *testing.T) {
	v := NewRowValidator()

	result := v.ValidateRow(map[string]any{
		"name":     "Fix pump",
		"status":   "open",
		"priority": int64(9),
	}, taskRules())
	if result.IsValid {
		t.Fatal("expected priority above maximum to invalidate the row")
	}

	result = v.ValidateRow(map[string]any{
		"name":     "Fix pump",
		"status":   "open",
		"priority": int64(-1),
	}, taskRules())
	if result.IsValid {
		t.Fatal("expected priority below minimum to invalidate the row")
	}
}

func TestValidateRowIntegerAcceptsLosslessFloat(t *testing.T) {
	v := NewRowValidator()

	result := v.ValidateRow(map[string]any{
		"name":     "Fix pump",
		"status":   "open",
		"priority": float64(2),
	}, taskRules())
	if !result.IsValid {
		t.Fatalf("expected whole float to pass integer check, got: %+v", result.Errors)
	}

	result = v.ValidateRow(map[string]any{
		"name":     "Fix pump",
		"status":   "open",
		"priority": 2.5,
	}, taskRules())
	if result.IsValid {
		t.Fatal("expected fractional float to fail integer check")
	}
}

func TestValidateRowDateFormats(t *testing.T) {
	v := NewRowValidator()

	result := v.ValidateRow(map[string]any{
		"name":     "Fix pump",
		"status":   "open",
		"priority": int64(1),
		"due_date": "2024-06-15",
	}, taskRules())
	if !result.IsValid {
		t.Fatalf("expected date string to validate, got: %+v", result.Errors)
	}

	result = v.ValidateRow(map[string]any{
		"name":     "Fix pump",
		"status":   "open",
		"priority": int64(1),
		"due_date": "15/06/2024",
	}, taskRules())
	if result.IsValid {
		t.Fatal("expected unrecognized date format to invalidate the row")
	}
}

func TestValidateRowUnknownFieldRejected(t *testing.T) {
	v := NewRowValidator()

	result := v.ValidateRow(map[string]any{
		"name":     "Fix pump",
		"status":   "open",
		"priority": int64(1),
		"severity": "high",
	}, taskRules())

	if result.IsValid {
		t.Fatal("expected unknown field to invalidate the row")
	}
}

func TestValidateRowLengthWarning(t *testing.T) {
	v := NewRowValidator()

	result := v.ValidateRow(map[string]any{
		"name":     strings.Repeat("x", 201),
		"status":   "open",
		"priority": int64(1),
	}, taskRules())

	if !result.IsValid {
		t.Fatalf("expected overlong name to stay valid, got errors: %+v", result.Errors)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected one warning, got: %+v", result.Warnings)
	}
	if result.Warnings[0].Field != "name" {
		t.Errorf("expected warning on name, got %s", result.Warnings[0].Field)
	}
}
