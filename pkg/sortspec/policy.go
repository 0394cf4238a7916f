package sortspec

import "fmt"

// Policy controls how compilation reacts to specification violations.
type Policy int

const (
	// Lenient logs each violation and drops the offending token (or, for
	// critical violations, the whole specification), continuing with
	// whatever remains.
	Lenient Policy = iota
	// Strict turns the first violation into a returned error.
	Strict
)

func (p Policy) String() string {
	if p == Strict {
		return "strict"
	}
	return "lenient"
}

// ParsePolicy maps a configuration string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "lenient":
		return Lenient, nil
	case "strict":
		return Strict, nil
	default:
		return Lenient, fmt.Errorf("unknown sort policy %q", s)
	}
}

// Logger receives lenient-mode warnings. Implementations must be safe for
// concurrent use; the compiler tolerates a nil Logger and swallows panics
// from broken sinks, so logging can never fail a compilation.
type Logger interface {
	Warnf(format string, args ...any)
}

// LoggerFunc adapts a printf-style function to the Logger interface.
type LoggerFunc func(format string, args ...any)

func (f LoggerFunc) Warnf(format string, args ...any) { f(format, args...) }
