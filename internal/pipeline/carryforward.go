package pipeline

import (
	"strings"

	"icndb/internal"
)

// GroupSlot reconstructs merged-cell grouping from a flat export: the
// identifying value appears only on the first row of a group and applies to
// every following row until a new value shows up. One slot tracks one
// grouped column.
type GroupSlot struct {
	current *string
}

// Advance feeds one raw cell to the slot and returns the value in effect
// for the row. opened is true when the cell started (or reopened) a group;
// blank cells and the subtotal sentinel leave the slot untouched. Before
// any group has opened the effective value is nil.
func (s *GroupSlot) Advance(raw string) (current *string, opened bool) {
	v := strings.TrimSpace(raw)
	if v == "" || v == internal.SubtotalMarker {
		return s.current, false
	}
	s.current = &v
	return s.current, true
}
