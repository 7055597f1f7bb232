package usage

import (
	"context"
	"time"
)

// DayLayout is the storage format of Day.
const DayLayout = "2006-01-02"

// Day is a UTC calendar date in DayLayout format.
type Day string

// DayOf returns the UTC day containing t.
func DayOf(t time.Time) Day {
	return Day(t.UTC().Format(DayLayout))
}

// ParseDay validates s and returns it as a Day.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return "", ErrInvalidDay
	}
	return DayOf(t), nil
}

func (d Day) String() string {
	return string(d)
}

// Start returns midnight UTC of d.
func (d Day) Start() time.Time {
	t, err := time.Parse(DayLayout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// Next returns the following calendar day.
func (d Day) Next() Day {
	return DayOf(d.Start().AddDate(0, 0, 1))
}

// Ledger stores per-(key, day) counters.
type Ledger interface {
	// IncrementAndGet creates the (key, day) counter at zero if absent,
	// increments it by one and returns the new value, atomically.
	IncrementAndGet(ctx context.Context, key string, day Day) (int64, error)

	// Count returns the current counter value without changing it.
	// Missing counters read as zero.
	Count(ctx context.Context, key string, day Day) (int64, error)
}
