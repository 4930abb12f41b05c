package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/airbrb/booking-client/internal/domain"
	"github.com/airbrb/booking-client/internal/platform/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	MsgSelectBooking   = "Please select a completed booking to review."
	MsgEnterReview     = "Please enter your review."
	MsgRatingRange     = "Please choose a rating between 1 and 5."
	MsgNotYourBooking  = "You can only review a listing through your own accepted booking."
	MsgAlreadyReviewed = "You have already reviewed this booking."
)

// ReviewedKey returns the storage key of the user's reviewed-booking ledger.
func ReviewedKey(email string) string {
	return "airbrb_reviewed_" + email
}

// ReviewUsecase lets a guest review a listing once per accepted booking.
type ReviewUsecase struct {
	listings ListingGateway
	bookings BookingSource
	session  SessionProvider
	store    domain.StateStore
	logger   *logger.Logger
	now      func() time.Time
}

// NewReviewUsecase creates a new ReviewUsecase.
func NewReviewUsecase(listings ListingGateway, bookings BookingSource, session SessionProvider, store domain.StateStore, log *logger.Logger) *ReviewUsecase {
	return &ReviewUsecase{
		listings: listings,
		bookings: bookings,
		session:  session,
		store:    store,
		logger:   log.Named("ReviewUsecase"),
		now:      time.Now,
	}
}

// EligibleBookings lists the user's accepted bookings on listingID that have
// not been reviewed yet. It applies the same checks as Submit, so every
// booking it returns can be reviewed.
func (uc *ReviewUsecase) EligibleBookings(ctx context.Context, listingID string) ([]domain.Booking, error) {
	s := uc.session.Current()
	if !s.Authenticated() {
		return nil, domain.Rejected(domain.ErrUnauthenticated, "Please log in first.")
	}
	listing, all, err := uc.fetch(ctx, s, listingID)
	if err != nil {
		return nil, err
	}
	accepted := acceptedFor(all, s.Email, listingID)
	if reviewsBy(listing, s.Email) >= len(accepted) {
		return nil, nil
	}
	reviewed := uc.ledger(ctx, s.Email)
	var out []domain.Booking
	for _, b := range accepted {
		if _, done := reviewed[b.ID]; !done {
			out = append(out, b)
		}
	}
	sortByStartDesc(out)
	return out, nil
}

// Submit posts a review through one of the user's accepted bookings.
func (uc *ReviewUsecase) Submit(ctx context.Context, listingID, bookingID string, rating int, comment string) error {
	s := uc.session.Current()
	if !s.Authenticated() {
		return domain.Rejected(domain.ErrUnauthenticated, "Please log in first.")
	}
	if bookingID == "" {
		return domain.Invalid(MsgSelectBooking)
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return domain.Invalid(MsgEnterReview)
	}
	if rating < 1 || rating > 5 {
		return domain.Invalid(MsgRatingRange)
	}

	listing, all, err := uc.fetch(ctx, s, listingID)
	if err != nil {
		return err
	}

	accepted := acceptedFor(all, s.Email, listingID)
	found := false
	for _, b := range accepted {
		if b.ID == bookingID {
			found = true
			break
		}
	}
	if !found {
		return domain.Rejected(domain.ErrForbidden, MsgNotYourBooking)
	}

	reviewed := uc.ledger(ctx, s.Email)
	if _, done := reviewed[bookingID]; done {
		return domain.Rejected(domain.ErrReviewAlreadyExists, MsgAlreadyReviewed)
	}
	// Reviews left without the ledger (another device, lost state) still
	// count: one per accepted booking.
	if reviewsBy(listing, s.Email) >= len(accepted) {
		return domain.Rejected(domain.ErrReviewAlreadyExists, MsgAlreadyReviewed)
	}

	review := domain.Review{Rating: rating, Comment: comment, CreatedBy: s.Email, CreatedAt: uc.now().UTC()}
	uc.logger.Info("Submitting review",
		zap.String("listing_id", listingID),
		zap.String("booking_id", bookingID),
		zap.Int("rating", rating))
	if err := uc.listings.LeaveReview(ctx, s.Token, listingID, bookingID, review); err != nil {
		uc.logger.Warn("Review submission failed", zap.String("listing_id", listingID), zap.Error(err))
		return err
	}

	reviewed[bookingID] = struct{}{}
	uc.saveLedger(ctx, s.Email, reviewed)
	return nil
}

// fetch loads the listing and the user's bookings concurrently.
func (uc *ReviewUsecase) fetch(ctx context.Context, s domain.Session, listingID string) (domain.Listing, []domain.Booking, error) {
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
		return domain.Listing{}, nil, err
	}
	return listing, all, nil
}

func reviewsBy(listing domain.Listing, email string) int {
	n := 0
	for _, r := range listing.Reviews {
		if r.CreatedBy == email {
			n++
		}
	}
	return n
}

func acceptedFor(all []domain.Booking, email, listingID string) []domain.Booking {
	var out []domain.Booking
	for _, b := range all {
		if b.Owner == email && b.ListingID == listingID && b.Status == domain.BookingAccepted {
			out = append(out, b)
		}
	}
	return out
}

func (uc *ReviewUsecase) ledger(ctx context.Context, email string) map[string]struct{} {
	out := make(map[string]struct{})
	raw, err := uc.store.Get(ctx, ReviewedKey(email))
	if errors.Is(err, domain.ErrNotFound) {
		return out
	}
	if err != nil {
		uc.logger.Error("Failed to read review ledger", zap.Error(err))
		return out
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		uc.logger.Warn("Review ledger is malformed, ignoring", zap.Error(err))
		return out
	}
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func (uc *ReviewUsecase) saveLedger(ctx context.Context, email string, ids map[string]struct{}) {
	list := make([]string, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := uc.store.Set(ctx, ReviewedKey(email), raw); err != nil {
		uc.logger.Error("Failed to persist review ledger", zap.Error(err))
	}
}
