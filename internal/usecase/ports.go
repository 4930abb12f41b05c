package usecase

import (
	"context"

	"github.com/airbrb/booking-client/internal/adapter/api"
	"github.com/airbrb/booking-client/internal/domain"
)

// AuthGateway is the backend surface used for session management.
type AuthGateway interface {
	Login(ctx context.Context, email, password string) (api.AuthResult, error)
	Register(ctx context.Context, email, password, name string) (api.AuthResult, error)
	Logout(ctx context.Context, token string) error
}

// BookingSource lists every booking visible to the caller.
type BookingSource interface {
	ListBookings(ctx context.Context, token string) ([]domain.Booking, error)
}

// ListingSource reads listings.
type ListingSource interface {
	ListListings(ctx context.Context) ([]domain.Listing, error)
	GetListing(ctx context.Context, id string) (domain.Listing, error)
}

// BookingGateway is the booking part of the backend.
type BookingGateway interface {
	BookingSource
	CreateBooking(ctx context.Context, token, listingID string, dates domain.DateRange, totalPrice float64) (string, error)
	AcceptBooking(ctx context.Context, token, id string) error
	DeclineBooking(ctx context.Context, token, id string) error
	DeleteBooking(ctx context.Context, token, id string) error
}

// ListingGateway is the listing part of the backend.
type ListingGateway interface {
	ListingSource
	CreateListing(ctx context.Context, token string, draft domain.ListingDraft) (string, error)
	UpdateListing(ctx context.Context, token, id string, draft domain.ListingDraft) error
	DeleteListing(ctx context.Context, token, id string) error
	PublishListing(ctx context.Context, token, id string, availability []domain.DateRange) error
	UnpublishListing(ctx context.Context, token, id string) error
	LeaveReview(ctx context.Context, token, listingID, bookingID string, review domain.Review) error
}

var (
	_ AuthGateway    = (*api.Client)(nil)
	_ BookingGateway = (*api.Client)(nil)
	_ ListingGateway = (*api.Client)(nil)
)
