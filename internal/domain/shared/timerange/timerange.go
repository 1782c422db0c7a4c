package timerange

import (
	"errors"
	"math"
	"time"
)

var ErrInvalidRange = errors.New("timerange: return must be after pickup")

// TimeRange represents a half-open rental window [Pickup, Return).
type TimeRange struct {
	Pickup time.Time
	Return time.Time
}

func New(pickup, ret time.Time) (TimeRange, error) {
	tr := TimeRange{Pickup: pickup.UTC(), Return: ret.UTC()}
	if err := tr.Validate(); err != nil {
		return TimeRange{}, err
	}
	return tr, nil
}

func (tr TimeRange) Validate() error {
	if tr.Pickup.IsZero() || tr.Return.IsZero() {
		return ErrInvalidRange
	}
	if !tr.Return.After(tr.Pickup) {
		return ErrInvalidRange
	}
	return nil
}

// Hours returns the billed duration, rounded up to whole hours.
func (tr TimeRange) Hours() int {
	return int(math.Ceil(tr.Return.Sub(tr.Pickup).Hours()))
}

// Overlaps reports half-open interval intersection: touching endpoints do not overlap.
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return tr.Pickup.Before(other.Return) && other.Pickup.Before(tr.Return)
}

func (tr TimeRange) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(tr.Pickup) && t.Before(tr.Return)
}
