package usecase

import (
	"math"
	"time"

	"github.com/airbrb/booking-client/internal/domain"
)

// User-facing messages for booking preconditions, in evaluation order.
const (
	MsgLoginToBook        = "Please log in before making a booking."
	MsgSelectBothDates    = "Please select both check-in and check-out dates."
	MsgOutsideAvailable   = "Selected dates are outside the available ranges."
	MsgAtLeastOneNight    = "Please select at least one night."
	MsgRangeDatesRequired = "Availability ranges need both a start and an end date."
	MsgRangeEndBeforeFrom = "Availability range ends before it starts."
	MsgPublishNeedsRange  = "Please add at least one availability range before publishing."
)

// day truncates t to midnight UTC of its UTC calendar date, which is how the
// backend stores booking and availability boundaries.
func day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// NightsBetween counts calendar nights from start to end. It returns 0 when
// either date is missing or start is not before end.
func NightsBetween(start, end time.Time) int {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	s, e := day(start), day(end)
	if !s.Before(e) {
		return 0
	}
	return int(math.Round(e.Sub(s).Hours() / 24))
}

// IsWithinAvailability reports whether a single availability range fully
// contains [start, end]. Ranges are never merged, so a stay spanning two
// adjacent ranges is rejected.
func IsWithinAvailability(listing domain.Listing, start, end time.Time) bool {
	if len(listing.Availability) == 0 || start.IsZero() || end.IsZero() {
		return false
	}
	s, e := day(start), day(end)
	for _, r := range listing.Availability {
		if r.Start.IsZero() || r.End.IsZero() {
			continue
		}
		if !s.Before(day(r.Start)) && !e.After(day(r.End)) {
			return true
		}
	}
	return false
}

// ComputeTotal prices a stay. There are no fees or proration.
func ComputeTotal(listing domain.Listing, nights int) float64 {
	return float64(nights) * listing.Price
}

// ValidateBookingRequest runs the booking precondition chain and returns the
// number of nights. The first failing check wins.
func ValidateBookingRequest(session domain.Session, listing domain.Listing, start, end time.Time) (int, error) {
	if !session.Authenticated() {
		return 0, domain.Rejected(domain.ErrUnauthenticated, MsgLoginToBook)
	}
	if start.IsZero() || end.IsZero() {
		return 0, domain.Invalid(MsgSelectBothDates)
	}
	if !IsWithinAvailability(listing, start, end) {
		return 0, domain.Invalid(MsgOutsideAvailable)
	}
	nights := NightsBetween(start, end)
	if nights <= 0 {
		return 0, domain.Invalid(MsgAtLeastOneNight)
	}
	return nights, nil
}

// ValidateAvailabilityRange is applied when a range is added to a draft.
// Overlapping and duplicate ranges are accepted.
func ValidateAvailabilityRange(r domain.DateRange) error {
	if r.Start.IsZero() || r.End.IsZero() {
		return domain.Invalid(MsgRangeDatesRequired)
	}
	if day(r.End).Before(day(r.Start)) {
		return domain.Invalid(MsgRangeEndBeforeFrom)
	}
	return nil
}

// ValidatePublish checks the draft→published precondition.
func ValidatePublish(ranges []domain.DateRange) error {
	if len(ranges) == 0 {
		return domain.Invalid(MsgPublishNeedsRange)
	}
	for _, r := range ranges {
		if err := ValidateAvailabilityRange(r); err != nil {
			return err
		}
	}
	return nil
}
