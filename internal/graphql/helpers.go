package graphql

import (
	"encoding/json"
	"time"
)

// stringArg reads an optional string argument, returning "" when absent.
func stringArg(args map[string]interface{}, name string) string {
	if v, ok := args[name].(string); ok {
		return v
	}
	return ""
}

// intArg reads an optional Int argument. Values arrive as int64 from the
// parser or as json.Number / float64 when bound through variables.
func intArg(args map[string]interface{}, name string) int {
	switch v := args[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return int(n)
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

// formatDate renders a date-only field, nil when unset.
func formatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}
