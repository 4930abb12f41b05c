package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/airbrb/booking-client/internal/adapter/api"
	"github.com/airbrb/booking-client/internal/adapter/api/apitest"
	"github.com/airbrb/booking-client/internal/adapter/storage"
	"github.com/airbrb/booking-client/internal/domain"
	"github.com/airbrb/booking-client/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type actor struct {
	session  *SessionUsecase
	listings *ListingUsecase
	bookings *BookingUsecase
	reviews  *ReviewUsecase
	inbox    *Inbox
	engine   *NotificationEngine
}

func newActor(client *api.Client) *actor {
	log := logger.NewNop()
	store := storage.NewMemoryStore()
	a := &actor{session: NewSessionUsecase(client, store, log)}
	a.listings = NewListingUsecase(client, a.session, nil, log)
	a.bookings = NewBookingUsecase(client, client, a.session, log)
	a.reviews = NewReviewUsecase(client, client, a.session, store, log)
	a.inbox = NewInbox(store, DefaultMaxNotifications, log)
	a.engine = NewNotificationEngine(client, client, a.inbox, log)
	return a
}

func TestEndToEnd_BookingLifecycle(t *testing.T) {
	ctx := context.Background()
	backend := apitest.New(t)
	client := api.NewClient(backend.URL(), 5*time.Second, logger.NewNop())
	backend.AddUser(hostEmail, "host-pw", "Hosty")

	host := newActor(client)
	guest := newActor(client)

	_, err := host.session.Login(ctx, hostEmail, "host-pw")
	require.NoError(t, err)
	_, err = guest.session.Register(ctx, guestEmail, "pw", "pw", "Guesty")
	require.NoError(t, err)

	listingID, err := host.listings.Create(ctx, domain.ListingDraft{
		Title: "Beach House", Price: 150,
		Address: domain.Address{Line1: "1 Shore Rd", City: "Sydney"},
	})
	require.NoError(t, err)
	require.NoError(t, host.listings.Publish(ctx, listingID, []domain.DateRange{rng("2025-12-01", "2025-12-20")}))

	browse, err := guest.listings.Browse(ctx)
	require.NoError(t, err)
	require.Len(t, browse, 1)
	assert.Equal(t, listingID, browse[0].ID)

	host.engine.Attach(ctx, host.session.Current())
	require.NoError(t, host.engine.Poll(ctx))
	assert.Empty(t, host.inbox.List())

	_, err = guest.bookings.RequestBooking(ctx, listingID, d("2025-12-25"), d("2025-12-27"))
	require.Error(t, err)
	assert.Equal(t, MsgOutsideAvailable, err.Error())

	receipt, err := guest.bookings.RequestBooking(ctx, listingID, d("2025-12-10"), d("2025-12-13"))
	require.NoError(t, err)
	assert.Equal(t, 450.0, receipt.Total)
	stored, ok := backend.Booking(receipt.ID)
	require.True(t, ok)
	assert.Equal(t, 450.0, stored.TotalPrice)

	guest.engine.Attach(ctx, guest.session.Current())
	require.NoError(t, guest.engine.Poll(ctx))

	require.NoError(t, host.engine.Poll(ctx))
	hostInbox := host.inbox.List()
	require.Len(t, hostInbox, 1)
	assert.Equal(t, domain.NotificationHost, hostInbox[0].Type)

	view, err := host.bookings.HostBookings(ctx, listingID)
	require.NoError(t, err)
	require.Len(t, view.Pending, 1)
	require.NoError(t, host.bookings.Accept(ctx, view.Pending[0].ID))

	_, err = guest.bookings.HostBookings(ctx, listingID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, guest.engine.Poll(ctx))
	guestInbox := guest.inbox.List()
	require.Len(t, guestInbox, 1)
	assert.Equal(t, MsgBookingAccepted, guestInbox[0].Message)
	assert.Contains(t, guestInbox[0].Detail, "Beach House")

	require.NoError(t, host.engine.Poll(ctx))
	assert.Len(t, host.inbox.List(), 1, "host is not notified of its own decision")

	eligible, err := guest.reviews.EligibleBookings(ctx, listingID)
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	require.NoError(t, guest.reviews.Submit(ctx, listingID, eligible[0].ID, 5, "Wonderful"))
	assert.ErrorIs(t, guest.reviews.Submit(ctx, listingID, eligible[0].ID, 5, "Again"), domain.ErrReviewAlreadyExists)

	_, summary, err := guest.listings.Get(ctx, listingID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, summary.Average)

	require.NoError(t, guest.session.Logout(ctx))
	assert.False(t, guest.session.Current().Authenticated())
}

func TestEndToEnd_RevokedTokenInvalidatesSession(t *testing.T) {
	ctx := context.Background()
	backend := apitest.New(t)
	client := api.NewClient(backend.URL(), 5*time.Second, logger.NewNop())
	backend.AddUser(guestEmail, "pw", "Guesty")

	guest := newActor(client)
	_, err := guest.session.Login(ctx, guestEmail, "pw")
	require.NoError(t, err)

	invalidated := make(chan struct{})
	engine := NewNotificationEngine(client, client, guest.inbox, logger.NewNop(),
		WithUnauthorizedHandler(func() {
			_ = guest.session.Invalidate(ctx)
			close(invalidated)
		}))
	engine.Attach(ctx, guest.session.Current())

	backend.RevokeTokens()
	require.Error(t, engine.Poll(ctx))
	select {
	case <-invalidated:
	case <-time.After(time.Second):
		t.Fatal("session not invalidated")
	}
	assert.False(t, guest.session.Current().Authenticated())
}
