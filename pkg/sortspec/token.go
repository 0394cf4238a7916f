package sortspec

import "strings"

// Token is one parsed element of a sort specification: a field identifier
// and the direction requested for it.
type Token struct {
	Field     string
	Direction Direction
}

// Parse splits a raw sort specification into ordered tokens. The raw string
// is split on commas; each piece is trimmed and split on its first colon
// into a field half and a direction half. Pieces whose field half trims to
// empty are dropped. Token order is preserved and becomes ORDER BY
// precedence. Parse never fails; validation happens during compilation.
func Parse(raw string) []Token {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	pieces := strings.Split(raw, ",")
	tokens := make([]Token, 0, len(pieces))
	for _, piece := range pieces {
		field, dir := splitToken(piece)
		if field == "" {
			continue
		}
		tokens = append(tokens, Token{Field: field, Direction: dir})
	}
	return tokens
}

// splitToken separates one spec piece into its trimmed field name and
// parsed direction.
func splitToken(piece string) (string, Direction) {
	field := piece
	dir := ""
	if idx := strings.Index(piece, ":"); idx >= 0 {
		field = piece[:idx]
		dir = piece[idx+1:]
	}
	return strings.TrimSpace(field), ParseDirection(strings.TrimSpace(dir))
}
