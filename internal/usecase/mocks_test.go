package usecase

import (
	"context"
	"sync"

	"github.com/airbrb/booking-client/internal/adapter/api"
	"github.com/airbrb/booking-client/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockAuthGateway struct{ mock.Mock }

func (m *MockAuthGateway) Login(ctx context.Context, email, password string) (api.AuthResult, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(api.AuthResult), args.Error(1)
}
func (m *MockAuthGateway) Register(ctx context.Context, email, password, name string) (api.AuthResult, error) {
	args := m.Called(ctx, email, password, name)
	return args.Get(0).(api.AuthResult), args.Error(1)
}
func (m *MockAuthGateway) Logout(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

type MockBookingGateway struct{ mock.Mock }

func (m *MockBookingGateway) ListBookings(ctx context.Context, token string) ([]domain.Booking, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}
func (m *MockBookingGateway) CreateBooking(ctx context.Context, token, listingID string, dates domain.DateRange, totalPrice float64) (string, error) {
	args := m.Called(ctx, token, listingID, dates, totalPrice)
	return args.String(0), args.Error(1)
}
func (m *MockBookingGateway) AcceptBooking(ctx context.Context, token, id string) error {
	return m.Called(ctx, token, id).Error(0)
}
func (m *MockBookingGateway) DeclineBooking(ctx context.Context, token, id string) error {
	return m.Called(ctx, token, id).Error(0)
}
func (m *MockBookingGateway) DeleteBooking(ctx context.Context, token, id string) error {
	return m.Called(ctx, token, id).Error(0)
}

type MockListingGateway struct{ mock.Mock }

func (m *MockListingGateway) ListListings(ctx context.Context) ([]domain.Listing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Listing), args.Error(1)
}
func (m *MockListingGateway) GetListing(ctx context.Context, id string) (domain.Listing, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Listing), args.Error(1)
}
func (m *MockListingGateway) CreateListing(ctx context.Context, token string, draft domain.ListingDraft) (string, error) {
	args := m.Called(ctx, token, draft)
	return args.String(0), args.Error(1)
}
func (m *MockListingGateway) UpdateListing(ctx context.Context, token, id string, draft domain.ListingDraft) error {
	return m.Called(ctx, token, id, draft).Error(0)
}
func (m *MockListingGateway) DeleteListing(ctx context.Context, token, id string) error {
	return m.Called(ctx, token, id).Error(0)
}
func (m *MockListingGateway) PublishListing(ctx context.Context, token, id string, availability []domain.DateRange) error {
	return m.Called(ctx, token, id, availability).Error(0)
}
func (m *MockListingGateway) UnpublishListing(ctx context.Context, token, id string) error {
	return m.Called(ctx, token, id).Error(0)
}
func (m *MockListingGateway) LeaveReview(ctx context.Context, token, listingID, bookingID string, review domain.Review) error {
	return m.Called(ctx, token, listingID, bookingID, review).Error(0)
}

type MockMediaUploader struct{ mock.Mock }

func (m *MockMediaUploader) Upload(ctx context.Context, fileName string, data []byte) (string, error) {
	args := m.Called(ctx, fileName, data)
	return args.String(0), args.Error(1)
}

type fixedSession domain.Session

func (f fixedSession) Current() domain.Session { return domain.Session(f) }

// recordingSink captures deliveries and optionally fails them.
type recordingSink struct {
	name string
	err  error

	mu        sync.Mutex
	delivered []domain.Notification
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Deliver(_ context.Context, _ string, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered = append(s.delivered, n)
	return s.err
}

func (s *recordingSink) Delivered() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Notification(nil), s.delivered...)
}
