package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/airbrb/booking-client/internal/adapter/storage"
	"github.com/airbrb/booking-client/internal/domain"
	"github.com/airbrb/booking-client/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func reviewFixture(reviews []domain.Review, bookings []domain.Booking) (*ReviewUsecase, *MockListingGateway, *storage.MemoryStore) {
	listing := bookableListing()
	listing.Reviews = reviews
	listings := new(MockListingGateway)
	listings.On("GetListing", mock.Anything, "1").Return(listing, nil)
	bg := new(MockBookingGateway)
	bg.On("ListBookings", mock.Anything, "guest-token").Return(bookings, nil)
	store := storage.NewMemoryStore()
	return NewReviewUsecase(listings, bg, guestSession, store, logger.NewNop()), listings, store
}

func TestReviewUsecase_SubmitChecksInOrder(t *testing.T) {
	uc, listings, _ := reviewFixture(nil, nil)
	ctx := context.Background()

	err := uc.Submit(ctx, "1", "", 5, "")
	require.Error(t, err)
	assert.Equal(t, MsgSelectBooking, err.Error())

	err = uc.Submit(ctx, "1", "b1", 5, "   ")
	require.Error(t, err)
	assert.Equal(t, MsgEnterReview, err.Error())

	err = uc.Submit(ctx, "1", "b1", 6, "Great")
	require.Error(t, err)
	assert.Equal(t, MsgRatingRange, err.Error())

	listings.AssertNotCalled(t, "LeaveReview", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewUsecase_SubmitRequiresOwnAcceptedBooking(t *testing.T) {
	uc, _, _ := reviewFixture(nil, []domain.Booking{
		{ID: "b1", ListingID: "1", Owner: guestEmail, Status: domain.BookingPending},
		{ID: "b2", ListingID: "1", Owner: "x@example.com", Status: domain.BookingAccepted},
	})
	for _, id := range []string{"b1", "b2", "missing"} {
		err := uc.Submit(context.Background(), "1", id, 4, "Nice")
		assert.ErrorIs(t, err, domain.ErrForbidden, id)
	}
}

func TestReviewUsecase_SubmitOncePerBooking(t *testing.T) {
	ctx := context.Background()
	uc, listings, store := reviewFixture(nil, []domain.Booking{
		{ID: "b1", ListingID: "1", Owner: guestEmail, Status: domain.BookingAccepted},
	})
	listings.On("LeaveReview", mock.Anything, "guest-token", "1", "b1", mock.MatchedBy(func(r domain.Review) bool {
		return r.Rating == 4 && r.Comment == "Lovely stay" && r.CreatedBy == guestEmail && !r.CreatedAt.IsZero()
	})).Return(nil).Once()

	require.NoError(t, uc.Submit(ctx, "1", "b1", 4, "  Lovely stay "))

	raw, err := store.Get(ctx, ReviewedKey(guestEmail))
	require.NoError(t, err)
	var ledger []string
	require.NoError(t, json.Unmarshal(raw, &ledger))
	assert.Equal(t, []string{"b1"}, ledger)

	err = uc.Submit(ctx, "1", "b1", 5, "Again")
	assert.ErrorIs(t, err, domain.ErrReviewAlreadyExists)
	listings.AssertNumberOfCalls(t, "LeaveReview", 1)

	eligible, err := uc.EligibleBookings(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, eligible)
}

func TestReviewUsecase_ExistingServerReviewsCount(t *testing.T) {
	uc, listings, _ := reviewFixture(
		[]domain.Review{{Rating: 5, CreatedBy: guestEmail}},
		[]domain.Booking{{ID: "b1", ListingID: "1", Owner: guestEmail, Status: domain.BookingAccepted}},
	)
	err := uc.Submit(context.Background(), "1", "b1", 4, "Another one")
	assert.ErrorIs(t, err, domain.ErrReviewAlreadyExists)
	listings.AssertNotCalled(t, "LeaveReview", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewUsecase_EligibleBookings(t *testing.T) {
	uc, _, _ := reviewFixture(nil, []domain.Booking{
		{ID: "b1", ListingID: "1", Owner: guestEmail, Status: domain.BookingAccepted},
		{ID: "b2", ListingID: "1", Owner: guestEmail, Status: domain.BookingDeclined},
		{ID: "b3", ListingID: "2", Owner: guestEmail, Status: domain.BookingAccepted},
	})
	eligible, err := uc.EligibleBookings(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, ids(eligible))
}

func TestReviewUsecase_EligibleBookingsCountsServerReviews(t *testing.T) {
	bookings := []domain.Booking{
		{ID: "b1", ListingID: "1", Owner: guestEmail, Status: domain.BookingAccepted},
		{ID: "b2", ListingID: "1", Owner: guestEmail, Status: domain.BookingAccepted},
	}
	ctx := context.Background()

	uc, _, _ := reviewFixture([]domain.Review{{Rating: 5, CreatedBy: guestEmail}}, bookings)
	eligible, err := uc.EligibleBookings(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, eligible, 2, "one review left, one booking still open")

	uc, listings, _ := reviewFixture([]domain.Review{
		{Rating: 5, CreatedBy: guestEmail},
		{Rating: 4, CreatedBy: guestEmail},
		{Rating: 1, CreatedBy: "someone@else.com"},
	}, bookings)
	eligible, err = uc.EligibleBookings(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, eligible, "every accepted booking is used up even with no local record")
	for _, b := range bookings {
		assert.ErrorIs(t, uc.Submit(ctx, "1", b.ID, 3, "Again"), domain.ErrReviewAlreadyExists)
	}
	listings.AssertNotCalled(t, "LeaveReview", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
