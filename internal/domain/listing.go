package domain

// DefaultPageSize applies when a listing request omits its limit.
const DefaultPageSize = 50

// MaxPageSize caps how many rows one listing request may return.
const MaxPageSize = 500

// ListParams carries the caller-controlled parts of a collection read. Sort
// is the raw sort specification exactly as supplied; validation happens in
// the sort compiler, not here.
type ListParams struct {
	Sort   string
	Limit  int
	Offset int
}

// Clamped returns a copy with the limit and offset forced into range.
func (p ListParams) Clamped() ListParams {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// TaskPage is one page of a task listing along with the total number of
// rows the query matched.
type TaskPage struct {
	Items      []Task `json:"items"`
	TotalCount int    `json:"total_count"`
	Limit      int    `json:"limit"`
	Offset     int    `json:"offset"`
}
