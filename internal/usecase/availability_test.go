package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/airbrb/booking-client/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func rng(start, end string) domain.DateRange {
	return domain.DateRange{Start: d(start), End: d(end)}
}

func TestNightsBetween(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		want       int
	}{
		{"three nights", d("2025-12-10"), d("2025-12-13"), 3},
		{"same day", d("2025-12-10"), d("2025-12-10"), 0},
		{"reversed", d("2025-12-13"), d("2025-12-10"), 0},
		{"missing start", time.Time{}, d("2025-12-10"), 0},
		{"missing end", d("2025-12-10"), time.Time{}, 0},
		{"across month", d("2025-01-30"), d("2025-02-02"), 3},
		{"time of day ignored", d("2025-12-10").Add(23 * time.Hour), d("2025-12-11").Add(time.Hour), 1},
		{"dst week", d("2025-03-06"), d("2025-03-13"), 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NightsBetween(tt.start, tt.end))
		})
	}
}

func TestNightsBetween_NormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	// 2025-12-10T09:00+10 is 2025-12-09T23:00Z.
	start := time.Date(2025, 12, 10, 9, 0, 0, 0, loc)
	end := time.Date(2025, 12, 12, 12, 0, 0, 0, loc)
	assert.Equal(t, 3, NightsBetween(start, end))
}

func TestIsWithinAvailability(t *testing.T) {
	listing := domain.Listing{Availability: []domain.DateRange{
		rng("2025-12-01", "2025-12-10"),
		rng("2025-12-10", "2025-12-20"),
	}}

	assert.True(t, IsWithinAvailability(listing, d("2025-12-02"), d("2025-12-05")))
	assert.True(t, IsWithinAvailability(listing, d("2025-12-01"), d("2025-12-10")), "range bounds are inclusive")
	assert.True(t, IsWithinAvailability(listing, d("2025-12-12"), d("2025-12-20")))
	assert.False(t, IsWithinAvailability(listing, d("2025-12-08"), d("2025-12-12")), "adjacent ranges are not merged")
	assert.False(t, IsWithinAvailability(listing, d("2025-11-30"), d("2025-12-03")))
	assert.False(t, IsWithinAvailability(listing, d("2025-12-18"), d("2025-12-21")))
	assert.False(t, IsWithinAvailability(listing, time.Time{}, d("2025-12-03")))
	assert.False(t, IsWithinAvailability(domain.Listing{}, d("2025-12-02"), d("2025-12-03")))
}

func TestIsWithinAvailability_OverlappingRangesAccepted(t *testing.T) {
	listing := domain.Listing{Availability: []domain.DateRange{
		rng("2025-06-01", "2025-06-15"),
		rng("2025-06-10", "2025-06-30"),
		rng("2025-06-10", "2025-06-30"),
	}}
	require.NoError(t, ValidatePublish(listing.Availability))
	assert.True(t, IsWithinAvailability(listing, d("2025-06-12"), d("2025-06-25")))
	assert.False(t, IsWithinAvailability(listing, d("2025-06-05"), d("2025-06-25")))
}

func TestComputeTotal(t *testing.T) {
	assert.Equal(t, 450.0, ComputeTotal(domain.Listing{Price: 150}, 3))
	assert.Equal(t, 0.0, ComputeTotal(domain.Listing{Price: 150}, 0))
}

func TestValidateBookingRequest_FirstFailureWins(t *testing.T) {
	authed := domain.Session{Token: "t", Email: "guest@example.com"}
	listing := domain.Listing{Price: 100, Availability: []domain.DateRange{rng("2025-12-01", "2025-12-20")}}

	tests := []struct {
		name       string
		session    domain.Session
		start, end time.Time
		wantMsg    string
		wantKind   error
	}{
		{"logged out beats everything", domain.Session{}, time.Time{}, time.Time{}, MsgLoginToBook, domain.ErrUnauthenticated},
		{"missing dates", authed, d("2025-12-02"), time.Time{}, MsgSelectBothDates, domain.ErrInvalidInput},
		{"outside availability", authed, d("2025-11-02"), d("2025-11-05"), MsgOutsideAvailable, domain.ErrInvalidInput},
		{"zero nights", authed, d("2025-12-05"), d("2025-12-05"), MsgAtLeastOneNight, domain.ErrInvalidInput},
		{"reversed dates inside range", authed, d("2025-12-08"), d("2025-12-05"), MsgAtLeastOneNight, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateBookingRequest(tt.session, listing, tt.start, tt.end)
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantMsg, verr.Message)
			assert.ErrorIs(t, err, tt.wantKind)
		})
	}

	nights, err := ValidateBookingRequest(authed, listing, d("2025-12-10"), d("2025-12-13"))
	require.NoError(t, err)
	assert.Equal(t, 3, nights)
}

func TestValidatePublish(t *testing.T) {
	err := ValidatePublish(nil)
	require.Error(t, err)
	assert.Equal(t, MsgPublishNeedsRange, err.Error())

	err = ValidatePublish([]domain.DateRange{rng("2025-12-10", "2025-12-01")})
	require.Error(t, err)
	assert.Equal(t, MsgRangeEndBeforeFrom, err.Error())

	err = ValidatePublish([]domain.DateRange{{Start: d("2025-12-10")}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.NoError(t, ValidatePublish([]domain.DateRange{rng("2025-12-10", "2025-12-10")}))
}

func TestSummarizeRatings(t *testing.T) {
	empty := SummarizeRatings(nil)
	assert.False(t, empty.HasScore)
	assert.Zero(t, empty.Count)

	s := SummarizeRatings([]domain.Review{{Rating: 5}, {Rating: 4}, {Rating: 4}, {Rating: 0}})
	assert.True(t, s.HasScore)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 4.3, s.Average)
	assert.Equal(t, 2, s.ByStars[4])
	assert.Equal(t, 1, s.ByStars[5])
}

func TestComputeHostStats(t *testing.T) {
	now := d("2025-06-15")
	listing := domain.Listing{PostedOn: d("2025-06-05")}
	bookings := []domain.Booking{
		{Status: domain.BookingAccepted, DateRange: rng("2025-03-01", "2025-03-04"), TotalPrice: 300},
		{Status: domain.BookingAccepted, DateRange: rng("2024-12-30", "2025-01-02"), TotalPrice: 250},
		{Status: domain.BookingAccepted, DateRange: rng("2024-05-01", "2024-05-03"), TotalPrice: 900},
		{Status: domain.BookingPending, DateRange: rng("2025-07-01", "2025-07-04"), TotalPrice: 400},
		{Status: domain.BookingDeclined, DateRange: rng("2025-08-01", "2025-08-04"), TotalPrice: 400},
	}

	stats := ComputeHostStats(listing, bookings, now)
	assert.Equal(t, HostStats{OnlineDays: 10, AcceptedCount: 3, BookedNights: 6, Profit: 550}, stats)

	assert.Zero(t, ComputeHostStats(domain.Listing{PostedOn: d("2025-07-01")}, nil, now).OnlineDays)
}
