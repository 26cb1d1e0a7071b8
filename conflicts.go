package integrations

import "time"

// ClassifyOverlap compares an external event with a manual block. It returns
// false when the two ranges do not overlap. Ranges are half-open.
func ClassifyOverlap(event ExternalEvent, block ManualBlock) (string, bool) {
	return classifyRanges(event.Start, event.End, block.Start, block.End)
}

func classifyRanges(evStart, evEnd, blStart, blEnd time.Time) (string, bool) {
	// event ends after block starts AND event starts before block ends
	if !evEnd.After(blStart) || !evStart.Before(blEnd) {
		return "", false
	}
	switch {
	case !blStart.After(evStart) && !blEnd.Before(evEnd):
		return OverlapComplete, true
	case !evStart.After(blStart) && !evEnd.Before(blEnd):
		return OverlapContained, true
	default:
		return OverlapPartial, true
	}
}

// Total is the number of reported conflicts and overlaps.
func (r CalendarConflicts) Total() int {
	return len(r.Conflicts) + len(r.Overlaps)
}

// HasConflicts reports whether anything collides.
func (r CalendarConflicts) HasConflicts() bool {
	return r.Total() > 0
}

// Normalize fills in missing overlap types from the event and block ranges
// and makes nil lists empty.
func (r CalendarConflicts) Normalize() CalendarConflicts {
	r.Conflicts = normalizeConflicts(r.Conflicts)
	r.Overlaps = normalizeConflicts(r.Overlaps)
	return r
}

func normalizeConflicts(in []Conflict) []Conflict {
	out := make([]Conflict, len(in))
	for i, c := range in {
		if c.OverlapType == "" {
			if t, ok := ClassifyOverlap(c.ExternalEvent, c.ManualBlock); ok {
				c.OverlapType = t
			}
		}
		out[i] = c
	}
	return out
}
