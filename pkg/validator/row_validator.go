package validator

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FieldType enumerates the value types tabular imports can carry.
type FieldType string

const (
	FieldTypeString  FieldType = "STRING"
	FieldTypeInteger FieldType = "INTEGER"
	FieldTypeDate    FieldType = "DATE"
	FieldTypeEnum    FieldType = "ENUM"
)

// FieldRule describes how one column of an imported row is validated.
type FieldRule struct {
	Type      FieldType `json:"type"`
	Required  bool      `json:"required"`
	Enum      []string  `json:"enum,omitempty"`
	Min       *int      `json:"min,omitempty"`
	Max       *int      `json:"max,omitempty"`
	MaxLength int       `json:"maxLength,omitempty"`
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// ValidationResult represents the result of validation
type ValidationResult struct {
	IsValid  bool              `json:"is_valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []ValidationError `json:"warnings"`
}

// RowValidator checks coerced row values against field rules before they
// are handed to storage.
type RowValidator struct{}

// NewRowValidator creates a new row validator
func NewRowValidator() *RowValidator {
	return &RowValidator{}
}

// ValidateRow validates one row of coerced values against the rule set.
// Errors make the row invalid; warnings flag suspect values that are still
// acceptable for insert.
func (rv *RowValidator) ValidateRow(values map[string]any, rules map[string]FieldRule) ValidationResult {
	result := ValidationResult{
		IsValid:  true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	for fieldName, rule := range rules {
		value, exists := values[fieldName]

		if rule.Required && (!exists || value == nil) {
			result.IsValid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   fieldName,
				Message: fmt.Sprintf("required field '%s' is missing", fieldName),
			})
			continue
		}

		if !exists || value == nil {
			continue
		}

		if err := rv.validateFieldType(fieldName, value, rule); err != nil {
			result.IsValid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   fieldName,
				Message: err.Error(),
				Value:   value,
			})
			continue
		}

		if warn := rv.validateBounds(fieldName, value, rule); warn != nil {
			result.Warnings = append(result.Warnings, *warn)
		}
	}

	for fieldName := range values {
		if _, exists := rules[fieldName]; !exists {
			result.IsValid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   fieldName,
				Message: fmt.Sprintf("field '%s' is not defined in the rule set", fieldName),
				Value:   values[fieldName],
			})
		}
	}

	return result
}

func (rv *RowValidator) validateFieldType(fieldName string, value any, rule FieldRule) error {
	switch rule.Type {
	case FieldTypeString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("field '%s' must be a string, got %T", fieldName, value)
		}
	case FieldTypeInteger:
		n, ok := rv.asInteger(value)
		if !ok {
			return fmt.Errorf("field '%s' must be an integer, got %T", fieldName, value)
		}
		if rule.Min != nil && n < int64(*rule.Min) {
			return fmt.Errorf("field '%s' value %d is less than minimum %d", fieldName, n, *rule.Min)
		}
		if rule.Max != nil && n > int64(*rule.Max) {
			return fmt.Errorf("field '%s' value %d is greater than maximum %d", fieldName, n, *rule.Max)
		}
	case FieldTypeDate:
		switch v := value.(type) {
		case time.Time:
			// already parsed; accept value
		case string:
			if _, err := time.Parse("2006-01-02", v); err != nil {
				return fmt.Errorf("field '%s' must be a valid date (2006-01-02): %v", fieldName, err)
			}
		default:
			return fmt.Errorf("field '%s' must be a date, got %T", fieldName, value)
		}
	case FieldTypeEnum:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("field '%s' must be a string, got %T", fieldName, value)
		}
		for _, allowed := range rule.Enum {
			if strVal == allowed {
				return nil
			}
		}
		return fmt.Errorf("field '%s' value '%s' is not one of [%s]", fieldName, strVal, strings.Join(rule.Enum, ", "))
	default:
		return fmt.Errorf("unknown field type: %s", rule.Type)
	}
	return nil
}

// validateBounds flags values that pass type checks but look suspect.
func (rv *RowValidator) validateBounds(fieldName string, value any, rule FieldRule) *ValidationError {
	if rule.MaxLength <= 0 {
		return nil
	}
	strVal, ok := value.(string)
	if !ok {
		return nil
	}
	if len(strVal) > rule.MaxLength {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("field '%s' length %d exceeds %d characters", fieldName, len(strVal), rule.MaxLength),
			Value:   strVal,
		}
	}
	return nil
}

func (rv *RowValidator) asInteger(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
		return 0, false
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
