package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/airbrb/booking-client/internal/domain"
	"github.com/airbrb/booking-client/internal/platform/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MsgOwnerOnly is returned when a non-owner asks for a listing's bookings.
const MsgOwnerOnly = "Only the listing owner can view bookings."

// SessionProvider exposes the active session.
type SessionProvider interface {
	Current() domain.Session
}

// BookingReceipt describes a submitted booking request.
type BookingReceipt struct {
	ID     string
	Nights int
	Total  float64
}

// HostBookingView is a listing's booking requests as seen by its owner.
type HostBookingView struct {
	Listing domain.Listing
	Pending []domain.Booking
	History []domain.Booking
	Stats   HostStats
}

// BookingUsecase implements the guest and host booking flows.
type BookingUsecase struct {
	bookings BookingGateway
	listings ListingSource
	session  SessionProvider
	logger   *logger.Logger
	now      func() time.Time
}

// NewBookingUsecase creates a new BookingUsecase.
func NewBookingUsecase(bookings BookingGateway, listings ListingSource, session SessionProvider, log *logger.Logger) *BookingUsecase {
	return &BookingUsecase{
		bookings: bookings,
		listings: listings,
		session:  session,
		logger:   log.Named("BookingUsecase"),
		now:      time.Now,
	}
}

func (uc *BookingUsecase) requireSession() (domain.Session, error) {
	s := uc.session.Current()
	if !s.Authenticated() {
		return s, domain.Rejected(domain.ErrUnauthenticated, "Please log in first.")
	}
	return s, nil
}

// RequestBooking validates a stay against the listing and submits it.
func (uc *BookingUsecase) RequestBooking(ctx context.Context, listingID string, start, end time.Time) (BookingReceipt, error) {
	s := uc.session.Current()
	if !s.Authenticated() {
		return BookingReceipt{}, domain.Rejected(domain.ErrUnauthenticated, MsgLoginToBook)
	}
	listing, err := uc.listings.GetListing(ctx, listingID)
	if err != nil {
		return BookingReceipt{}, err
	}
	nights, err := ValidateBookingRequest(s, listing, start, end)
	if err != nil {
		return BookingReceipt{}, err
	}
	total := ComputeTotal(listing, nights)
	dates := domain.DateRange{Start: day(start), End: day(end)}

	uc.logger.Info("Requesting booking",
		zap.String("listing_id", listingID),
		zap.Int("nights", nights),
		zap.Float64("total", total))
	id, err := uc.bookings.CreateBooking(ctx, s.Token, listingID, dates, total)
	if err != nil {
		uc.logger.Warn("Booking request failed", zap.String("listing_id", listingID), zap.Error(err))
		return BookingReceipt{}, err
	}
	return BookingReceipt{ID: id, Nights: nights, Total: total}, nil
}

// MyBookings returns the current user's own bookings, optionally limited to
// one listing, latest check-in first.
func (uc *BookingUsecase) MyBookings(ctx context.Context, listingID string) ([]domain.Booking, error) {
	s, err := uc.requireSession()
	if err != nil {
		return nil, err
	}
	all, err := uc.bookings.ListBookings(ctx, s.Token)
	if err != nil {
		return nil, err
	}
	mine := make([]domain.Booking, 0, len(all))
	for _, b := range all {
		if b.Owner != s.Email {
			continue
		}
		if listingID != "" && b.ListingID != listingID {
			continue
		}
		mine = append(mine, b)
	}
	sortByStartDesc(mine)
	return mine, nil
}

// Accept approves a pending booking on a listing the user hosts.
func (uc *BookingUsecase) Accept(ctx context.Context, id string) error {
	return uc.transition(ctx, "accept", id, uc.bookings.AcceptBooking)
}

// Decline rejects a pending booking on a listing the user hosts.
func (uc *BookingUsecase) Decline(ctx context.Context, id string) error {
	return uc.transition(ctx, "decline", id, uc.bookings.DeclineBooking)
}

// Delete removes a booking.
func (uc *BookingUsecase) Delete(ctx context.Context, id string) error {
	return uc.transition(ctx, "delete", id, uc.bookings.DeleteBooking)
}

func (uc *BookingUsecase) transition(ctx context.Context, action, id string, call func(context.Context, string, string) error) error {
	s, err := uc.requireSession()
	if err != nil {
		return err
	}
	if id == "" {
		return domain.Invalid("Please select a booking.")
	}
	uc.logger.Info("Updating booking", zap.String("action", action), zap.String("booking_id", id))
	if err := call(ctx, s.Token, id); err != nil {
		uc.logger.Warn("Booking update failed", zap.String("action", action), zap.String("booking_id", id), zap.Error(err))
		return fmt.Errorf("%s booking %s: %w", action, id, err)
	}
	return nil
}

// HostBookings loads a hosted listing and its bookings concurrently, checks
// ownership, and splits requests into pending and decided.
func (uc *BookingUsecase) HostBookings(ctx context.Context, listingID string) (HostBookingView, error) {
	s, err := uc.requireSession()
	if err != nil {
		return HostBookingView{}, err
	}

	var (
		listing domain.Listing
		all     []domain.Booking
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		listing, err = uc.listings.GetListing(gctx, listingID)
		return err
	})
	g.Go(func() error {
		var err error
		all, err = uc.bookings.ListBookings(gctx, s.Token)
		return err
	})
	if err := g.Wait(); err != nil {
		return HostBookingView{}, err
	}

	if listing.Owner != s.Email {
		uc.logger.Warn("User forbidden to view listing bookings",
			zap.String("listing_id", listingID),
			zap.String("listing_owner", listing.Owner),
			zap.String("requesting_user", s.Email))
		return HostBookingView{}, domain.Rejected(domain.ErrForbidden, MsgOwnerOnly)
	}

	var forListing []domain.Booking
	for _, b := range all {
		if b.ListingID == listingID {
			forListing = append(forListing, b)
		}
	}
	sortByStartDesc(forListing)

	view := HostBookingView{Listing: listing, Stats: ComputeHostStats(listing, forListing, uc.now())}
	for _, b := range forListing {
		if b.Status == domain.BookingPending {
			view.Pending = append(view.Pending, b)
		} else {
			view.History = append(view.History, b)
		}
	}
	return view, nil
}
