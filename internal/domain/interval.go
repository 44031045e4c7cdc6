package domain

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Precision is the resolution at which instants are stored. Postgres
// timestamptz keeps microseconds.
const Precision = time.Microsecond

// NewInterval normalises both ends to UTC at Precision, so validation, overlap
// checks and the persisted row all see the same instants.
func NewInterval(start, end time.Time) Interval {
	return Interval{Start: normalize(start), End: normalize(end)}
}

func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(Precision)
}

// Valid reports whether the interval has positive length.
func (i Interval) Valid() bool {
	return i.Start.Before(i.End)
}

// Overlaps reports whether the two intervals share any instant. Touching
// intervals (one ends exactly where the other starts) do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && i.End.After(other.Start)
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}
