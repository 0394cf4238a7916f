package sortspec

import "fmt"

// ViolationKind enumerates the ways a sort specification can break the
// rules declared by its source.
type ViolationKind int

const (
	// ViolationDisallowedField flags a field that is not on the source's
	// allow-list.
	ViolationDisallowedField ViolationKind = iota
	// ViolationUnknownRelation flags a related field whose relation name is
	// not declared on the source.
	ViolationUnknownRelation
	// ViolationMultipleCustomScopes flags a custom-scope specification that
	// tries to combine the scope with further comma-separated fields.
	ViolationMultipleCustomScopes
)

// Violation reports an invalid element of a sort specification. In strict
// mode violations are returned as errors; in lenient mode they are logged
// and the offending element is skipped. Critical violations discard the
// whole specification regardless of which element triggered them.
type Violation struct {
	Kind ViolationKind
	// Field is the offending field identifier. For critical violations it
	// holds the whole specification, since no single field can be blamed.
	Field string
	// Spec is the raw specification the violation was found in.
	Spec string
}

func (v *Violation) Error() string {
	switch v.Kind {
	case ViolationUnknownRelation:
		return fmt.Sprintf("unknown relation in sort field %q", v.Field)
	case ViolationMultipleCustomScopes:
		return fmt.Sprintf("custom sort scope cannot be combined with other fields: %q", v.Field)
	default:
		return fmt.Sprintf("disallowed sort field %q", v.Field)
	}
}

// Critical reports whether the violation poisons the entire specification
// rather than just its own token.
func (v *Violation) Critical() bool {
	return v.Kind == ViolationMultipleCustomScopes
}

// MissingScopeError reports a custom sort field that passed the allow-list
// but has no scope registered for it. This is a configuration bug, not bad
// caller input, so it is returned as an error in both policy modes.
type MissingScopeError struct {
	Field string
}

func (e *MissingScopeError) Error() string {
	return fmt.Sprintf("no custom sort scope registered for %q", e.Field)
}
