package domain

// BookingStatus is the lifecycle state of a booking request.
type BookingStatus string

const (
	BookingPending  BookingStatus = "pending"
	BookingAccepted BookingStatus = "accepted"
	BookingDeclined BookingStatus = "declined"
)

// IsValid checks if the status is one of the defined constants.
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingPending, BookingAccepted, BookingDeclined:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s BookingStatus) Terminal() bool {
	return s == BookingAccepted || s == BookingDeclined
}

// Booking is a guest's request to stay at a listing.
type Booking struct {
	ID         string        `json:"id"`
	ListingID  string        `json:"listingId"`
	Owner      string        `json:"owner"`
	Status     BookingStatus `json:"status"`
	DateRange  DateRange     `json:"dateRange"`
	TotalPrice float64       `json:"totalPrice"`
}
