package sortspec

// Direction represents ordering direction for a sort field.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection maps a raw direction string to a Direction. Only the exact
// lowercase literals "asc" and "desc" are recognized; anything else,
// including case variants and empty strings, falls back to Asc.
func ParseDirection(s string) Direction {
	switch s {
	case string(Asc):
		return Asc
	case string(Desc):
		return Desc
	default:
		return Asc
	}
}

// SQL returns the SQL keyword for the direction.
func (d Direction) SQL() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// NullsDirective returns the NULLS placement used for related-field
// ordering: ascending sorts push NULL rows to the end, descending sorts
// pull them to the front.
func (d Direction) NullsDirective() string {
	if d == Desc {
		return "NULLS FIRST"
	}
	return "NULLS LAST"
}
