package usecase

import (
	"math"
	"sort"
	"time"

	"github.com/airbrb/booking-client/internal/domain"
)

// RatingSummary condenses a listing's reviews.
type RatingSummary struct {
	Average  float64 // rounded to one decimal; meaningless when Count is 0
	Count    int
	ByStars  [6]int // index 1..5
	HasScore bool
}

// SummarizeRatings averages ratings and buckets them by star.
func SummarizeRatings(reviews []domain.Review) RatingSummary {
	var out RatingSummary
	total := 0
	for _, r := range reviews {
		if r.Rating < 1 || r.Rating > 5 {
			continue
		}
		out.ByStars[r.Rating]++
		total += r.Rating
		out.Count++
	}
	if out.Count > 0 {
		out.HasScore = true
		out.Average = math.Round(float64(total)/float64(out.Count)*10) / 10
	}
	return out
}

// HostStats summarises a hosted listing's performance.
type HostStats struct {
	OnlineDays    int
	AcceptedCount int
	BookedNights  int
	Profit        float64
}

// ComputeHostStats derives stats from the listing's bookings. BookedNights
// and Profit cover accepted bookings that start or end in now's year.
func ComputeHostStats(listing domain.Listing, bookings []domain.Booking, now time.Time) HostStats {
	var stats HostStats
	if !listing.PostedOn.IsZero() {
		days := math.Round(now.Sub(listing.PostedOn).Hours() / 24)
		stats.OnlineDays = int(math.Max(0, days))
	}
	year := now.Year()
	for _, b := range bookings {
		if b.Status != domain.BookingAccepted {
			continue
		}
		stats.AcceptedCount++
		if b.DateRange.Start.IsZero() || b.DateRange.End.IsZero() {
			continue
		}
		if b.DateRange.Start.Year() != year && b.DateRange.End.Year() != year {
			continue
		}
		stats.BookedNights += NightsBetween(b.DateRange.Start, b.DateRange.End)
		stats.Profit += b.TotalPrice
	}
	return stats
}

// sortByStartDesc orders bookings by check-in date, latest first.
func sortByStartDesc(bookings []domain.Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].DateRange.Start.After(bookings[j].DateRange.Start)
	})
}
