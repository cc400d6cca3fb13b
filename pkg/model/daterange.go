package model

import "time"

// DateRange is a closed interval: both boundary instants belong to it.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange returns nil unless both boundaries are present.
func NewDateRange(start, end *time.Time) *DateRange {
	if start == nil || end == nil {
		return nil
	}
	return &DateRange{Start: *start, End: *end}
}

// Valid reports whether start is strictly before end.
func (r DateRange) Valid() bool {
	return r.Start.Before(r.End)
}

// Overlaps uses inclusive boundaries, so a stay ending on the day another
// begins counts as overlapping.
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.Start.After(other.End) && !r.End.Before(other.Start)
}
