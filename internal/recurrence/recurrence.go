// Package recurrence turns a recurring cost or booking into concrete
// occurrence dates. It is pure date math; persisting the occurrences and the
// watermark is the services layer's job.
package recurrence

import (
	"fmt"
	"iter"
	"time"

	"pos-backend/internal/models"
	"pos-backend/internal/timeutil"
)

// Nth returns the n-th occurrence of the pattern counted from anchor
// (n = 0 is the anchor itself). Monthly occurrences are always derived from
// the anchor, so a series starting on the 31st clamps to the 30th in April
// and returns to the 31st in May. Days are counted in the business location
// whatever zone the anchor was read in.
func Nth(anchor time.Time, pattern models.RecurrencePattern, n int) time.Time {
	anchor = timeutil.InLocation(anchor)
	switch pattern {
	case models.PatternWeekly:
		return anchor.AddDate(0, 0, 7*n)
	case models.PatternBiweekly:
		return anchor.AddDate(0, 0, 14*n)
	case models.PatternMonthly:
		return timeutil.AddMonthsClamped(anchor, n)
	}
	return anchor
}

// Occurrence is one generated instance of a recurring root
type Occurrence struct {
	ParentID string
	Index    int
	Date     time.Time
}

// Schedule is a recurring root reduced to what the generator needs
type Schedule struct {
	RootID string
	Anchor time.Time
	Rule   models.Recurrence
}

// ForCost builds the schedule of a root cost.
func ForCost(c *models.Cost) (Schedule, error) {
	if c.IsGenerated() {
		return Schedule{}, fmt.Errorf("%w: cost %s is a generated occurrence of %s",
			models.ErrInvalidRecurrence, c.ID, *c.ParentCostID)
	}
	s := Schedule{RootID: c.ID, Anchor: c.DueDate, Rule: c.Recurrence}
	return s, s.validate()
}

// ForBooking builds the schedule of a root booking.
func ForBooking(b *models.Booking) (Schedule, error) {
	if b.IsGenerated() {
		return Schedule{}, fmt.Errorf("%w: booking %s is a generated occurrence of %s",
			models.ErrInvalidRecurrence, b.ID, *b.ParentBookingID)
	}
	s := Schedule{RootID: b.ID, Anchor: b.StartsAt, Rule: b.Recurrence}
	return s, s.validate()
}

func (s Schedule) validate() error {
	if !s.Rule.IsRecurring {
		return fmt.Errorf("%w: %s is not recurring", models.ErrInvalidRecurrence, s.RootID)
	}
	return s.Rule.Validate(s.Anchor)
}

// Occurrences lazily yields the occurrences strictly after the watermark, up
// to and including asOf, and never past the end date (inclusive of the whole
// end day). Nothing beyond asOf is ever produced, and a schedule without a
// valid pattern yields nothing.
func (s Schedule) Occurrences(asOf time.Time) iter.Seq[Occurrence] {
	watermark := s.Rule.Watermark(s.Anchor)
	var limit *time.Time
	if s.Rule.EndDate != nil {
		end := timeutil.EndOfDay(*s.Rule.EndDate)
		limit = &end
	}
	return func(yield func(Occurrence) bool) {
		if !s.Rule.Pattern.Valid() {
			return
		}
		for n := 1; ; n++ {
			d := Nth(s.Anchor, s.Rule.Pattern, n)
			if d.After(asOf) || (limit != nil && d.After(*limit)) {
				return
			}
			if !d.After(watermark) {
				continue
			}
			if !yield(Occurrence{ParentID: s.RootID, Index: n, Date: d}) {
				return
			}
		}
	}
}

// Expand materializes Occurrences into a slice.
func (s Schedule) Expand(asOf time.Time) []Occurrence {
	var out []Occurrence
	for o := range s.Occurrences(asOf) {
		out = append(out, o)
	}
	return out
}

// Finished reports whether the series has no occurrence left after the
// watermark, so the sweep can skip it. A schedule without a valid pattern
// never yields anything.
func (s Schedule) Finished() bool {
	if !s.Rule.Pattern.Valid() {
		return true
	}
	if s.Rule.EndDate == nil {
		return false
	}
	watermark := s.Rule.Watermark(s.Anchor)
	for n := 1; ; n++ {
		d := Nth(s.Anchor, s.Rule.Pattern, n)
		if d.After(timeutil.EndOfDay(*s.Rule.EndDate)) {
			return true
		}
		if d.After(watermark) {
			return false
		}
	}
}
