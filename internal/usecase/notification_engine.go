package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/airbrb/booking-client/internal/adapter/api"
	"github.com/airbrb/booking-client/internal/domain"
	"github.com/airbrb/booking-client/internal/platform/logger"
	"github.com/airbrb/booking-client/internal/platform/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultPollInterval        = 6 * time.Second
	DefaultHostRefreshInterval = 60 * time.Second

	MsgNewBookingRequest = "New booking request"
	MsgBookingAccepted   = "Booking accepted"
	MsgBookingDeclined   = "Booking declined"
)

var (
	// ErrPollInProgress is returned by Poll when another poll has not finished.
	ErrPollInProgress = errors.New("poll already in progress")
	// ErrNoSession is returned by Poll when no authenticated session is attached.
	ErrNoSession = errors.New("no active session")
)

// EngineOption configures a NotificationEngine.
type EngineOption func(*NotificationEngine)

// WithPollInterval sets the steady-state polling period.
func WithPollInterval(d time.Duration) EngineOption {
	return func(e *NotificationEngine) {
		if d > 0 {
			e.pollInterval = d
		}
	}
}

// WithHostRefreshInterval sets how old the hosted-listing set may get
// before a poll refreshes it.
func WithHostRefreshInterval(d time.Duration) EngineOption {
	return func(e *NotificationEngine) {
		if d > 0 {
			e.hostRefresh = d
		}
	}
}

// WithSinks adds delivery targets that receive every emitted notification.
func WithSinks(sinks ...domain.NotificationSink) EngineOption {
	return func(e *NotificationEngine) { e.sinks = append(e.sinks, sinks...) }
}

// WithEngineMetrics records poll outcomes.
func WithEngineMetrics(m *metrics.MetricsManager) EngineOption {
	return func(e *NotificationEngine) { e.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) EngineOption {
	return func(e *NotificationEngine) { e.now = now }
}

// WithUnauthorizedHandler is called, on its own goroutine, when the backend
// rejects the session token during a poll.
func WithUnauthorizedHandler(fn func()) EngineOption {
	return func(e *NotificationEngine) { e.onUnauthorized = fn }
}

// NotificationEngine turns booking state changes into notifications by
// diffing successive snapshots of the booking list. One engine serves one
// session at a time: Start attaches it, Stop tears it down.
type NotificationEngine struct {
	bookings BookingSource
	listings ListingSource
	inbox    *Inbox
	sinks    []domain.NotificationSink
	metrics  *metrics.MetricsManager
	logger   *logger.Logger

	now            func() time.Time
	pollInterval   time.Duration
	hostRefresh    time.Duration
	onUnauthorized func()

	inFlight   atomic.Bool
	generation atomic.Uint64
	titles     singleflight.Group

	mu              sync.Mutex
	session         domain.Session
	seeded          bool
	snapshot        map[string]domain.BookingStatus
	hostTitles      map[string]string
	hostRefreshedAt time.Time
	titleCache      map[string]string

	lifeMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewNotificationEngine creates an idle engine.
func NewNotificationEngine(bookings BookingSource, listings ListingSource, inbox *Inbox, log *logger.Logger, opts ...EngineOption) *NotificationEngine {
	e := &NotificationEngine{
		bookings:     bookings,
		listings:     listings,
		inbox:        inbox,
		logger:       log.Named("NotificationEngine"),
		now:          time.Now,
		pollInterval: DefaultPollInterval,
		hostRefresh:  DefaultHostRefreshInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.resetLocked(domain.Session{})
	return e
}

func (e *NotificationEngine) resetLocked(s domain.Session) {
	e.session = s
	e.seeded = false
	e.snapshot = make(map[string]domain.BookingStatus)
	e.hostTitles = make(map[string]string)
	e.hostRefreshedAt = time.Time{}
	e.titleCache = make(map[string]string)
}

// Attach binds the engine to s without starting the ticker: state is reset,
// in-flight results are invalidated, and s's inbox is loaded.
func (e *NotificationEngine) Attach(ctx context.Context, s domain.Session) {
	s = s.Normalize()
	e.generation.Add(1)
	e.mu.Lock()
	e.resetLocked(s)
	e.mu.Unlock()
	if s.Authenticated() {
		e.inbox.Load(ctx, s.Email)
	} else {
		e.inbox.Reset()
	}
}

// Start attaches s and begins polling: a warm-up poll that only seeds the
// snapshot, then one poll per interval. A running engine is stopped first.
func (e *NotificationEngine) Start(parent context.Context, s domain.Session) {
	e.Stop()
	e.Attach(parent, s)
	if !s.Authenticated() {
		return
	}

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	e.lifeMu.Lock()
	e.cancel, e.done = cancel, done
	e.lifeMu.Unlock()

	e.logger.Info("Notification engine started",
		zap.String("email", s.Email),
		zap.Duration("poll_interval", e.pollInterval))
	go e.run(ctx, done)
}

func (e *NotificationEngine) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	e.tick(ctx)

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

func (e *NotificationEngine) tick(ctx context.Context) {
	err := e.Poll(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrPollInProgress):
		e.logger.Debug("Skipping tick, previous poll still running")
	case ctx.Err() != nil:
	default:
		e.logger.Warn("Poll failed", zap.Error(err))
	}
}

// Stop halts polling, aborts any in-flight request, waits for the polling
// goroutine and clears the snapshot and caches. Stored notifications are
// kept. Stop is idempotent.
func (e *NotificationEngine) Stop() {
	e.lifeMu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.lifeMu.Unlock()

	e.generation.Add(1)
	if cancel == nil {
		return
	}
	cancel()
	<-done

	e.mu.Lock()
	e.resetLocked(domain.Session{})
	e.mu.Unlock()
	e.inbox.Reset()
	e.logger.Info("Notification engine stopped")
}

// Running reports whether the polling goroutine is active.
func (e *NotificationEngine) Running() bool {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	return e.cancel != nil
}

// Poll runs one reconciliation step. The first successful poll after Attach
// seeds the snapshot and emits nothing. A failed poll leaves snapshot and
// inbox untouched. Concurrent calls return ErrPollInProgress.
func (e *NotificationEngine) Poll(ctx context.Context) error {
	if !e.inFlight.CompareAndSwap(false, true) {
		e.metrics.ObservePoll(metrics.PollSkipped, 0)
		return ErrPollInProgress
	}
	defer e.inFlight.Store(false)

	ctx, span := otel.Tracer("airbrb/engine").Start(ctx, "NotificationEngine.Poll")
	defer span.End()

	gen := e.generation.Load()
	e.mu.Lock()
	s := e.session
	needRefresh := e.now().Sub(e.hostRefreshedAt) > e.hostRefresh
	e.mu.Unlock()
	if !s.Authenticated() {
		return ErrNoSession
	}

	if needRefresh {
		e.refreshHostListings(ctx, gen, s.Email)
	}

	bookings, err := e.bookings.ListBookings(ctx, s.Token)
	if err != nil {
		e.metrics.ObservePoll(metrics.PollFailed, 0)
		span.RecordError(err)
		if code := api.StatusCode(err); (code == http.StatusUnauthorized || code == http.StatusForbidden) && e.onUnauthorized != nil {
			e.logger.Warn("Backend rejected session token", zap.Int("status", code))
			go e.onUnauthorized()
		}
		return fmt.Errorf("list bookings: %w", err)
	}

	type pendingNote struct {
		booking domain.Booking
		note    domain.Notification
		guest   bool
	}

	e.mu.Lock()
	if gen != e.generation.Load() {
		e.mu.Unlock()
		e.metrics.ObservePoll(metrics.PollStale, 0)
		e.logger.Debug("Discarding poll result from a previous session")
		return nil
	}
	wasSeeded := e.seeded
	prev := e.snapshot
	next := make(map[string]domain.BookingStatus, len(bookings))
	var notes []pendingNote
	for _, b := range bookings {
		next[b.ID] = b.Status
		if !wasSeeded {
			continue
		}
		old, known := prev[b.ID]
		_, hosted := e.hostTitles[b.ListingID]
		switch {
		case !known && hosted && b.Status == domain.BookingPending:
			notes = append(notes, pendingNote{booking: b, note: domain.Notification{
				Type:    domain.NotificationHost,
				Message: MsgNewBookingRequest,
			}})
		case known && old != b.Status && b.Owner == s.Email && b.Status.Terminal():
			msg := MsgBookingAccepted
			if b.Status == domain.BookingDeclined {
				msg = MsgBookingDeclined
			}
			notes = append(notes, pendingNote{booking: b, guest: true, note: domain.Notification{
				Type:    domain.NotificationGuest,
				Message: msg,
			}})
		}
	}
	e.snapshot = next
	e.seeded = true
	e.mu.Unlock()
	e.metrics.ObservePoll(metrics.PollOK, len(next))
	span.SetAttributes(attribute.Int("bookings", len(bookings)), attribute.Int("notifications", len(notes)))

	if len(notes) == 0 {
		return nil
	}

	batch := make([]domain.Notification, 0, len(notes))
	for _, p := range notes {
		title := e.resolveTitle(ctx, p.booking.ListingID)
		n := p.note
		n.ID = uuid.NewString()
		n.CreatedAt = e.now()
		if p.guest {
			n.Detail = fmt.Sprintf("Your booking at %s (%s) was %s.", title, formatRange(p.booking.DateRange), p.booking.Status)
		} else {
			n.Detail = fmt.Sprintf("%s requested %s for %s.", p.booking.Owner, title, formatRange(p.booking.DateRange))
		}
		batch = append(batch, n)
	}

	if gen != e.generation.Load() {
		e.metrics.ObservePoll(metrics.PollStale, 0)
		return nil
	}
	e.inbox.Add(ctx, batch...)
	for _, n := range batch {
		e.metrics.ObserveNotification(string(n.Type))
		e.logger.Info("Notification emitted", zap.String("type", string(n.Type)), zap.String("message", n.Message))
	}
	e.deliver(ctx, s.Email, batch)
	return nil
}

func (e *NotificationEngine) refreshHostListings(ctx context.Context, gen uint64, email string) {
	listings, err := e.listings.ListListings(ctx)
	if err != nil {
		e.logger.Warn("Failed to refresh hosted listings", zap.Error(err))
		return
	}
	titles := make(map[string]string)
	for _, l := range listings {
		if l.Owner == email {
			titles[l.ID] = titleOrPlaceholder(l.Title, l.ID)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.generation.Load() {
		return
	}
	e.hostTitles = titles
	for id, t := range titles {
		e.titleCache[id] = t
	}
	e.hostRefreshedAt = e.now()
}

// resolveTitle looks a listing title up in the hosted set, then the title
// cache, then the backend. Concurrent lookups of one id share a request.
func (e *NotificationEngine) resolveTitle(ctx context.Context, listingID string) string {
	e.mu.Lock()
	if t, ok := e.hostTitles[listingID]; ok {
		e.mu.Unlock()
		return t
	}
	if t, ok := e.titleCache[listingID]; ok {
		e.mu.Unlock()
		return t
	}
	e.mu.Unlock()

	v, err, _ := e.titles.Do(listingID, func() (any, error) {
		l, err := e.listings.GetListing(ctx, listingID)
		if err != nil {
			return "", err
		}
		return titleOrPlaceholder(l.Title, listingID), nil
	})
	if err != nil {
		e.logger.Warn("Failed to resolve listing title", zap.String("listing_id", listingID), zap.Error(err))
		return titleOrPlaceholder("", listingID)
	}
	title := v.(string)
	e.mu.Lock()
	e.titleCache[listingID] = title
	e.mu.Unlock()
	return title
}

func (e *NotificationEngine) deliver(ctx context.Context, recipient string, batch []domain.Notification) {
	for _, sink := range e.sinks {
		for _, n := range batch {
			if err := sink.Deliver(ctx, recipient, n); err != nil {
				e.metrics.ObserveSinkError(sink.Name())
				e.logger.Warn("Notification sink delivery failed",
					zap.String("sink", sink.Name()),
					zap.String("notification_id", n.ID),
					zap.Error(err))
			}
		}
	}
}

func titleOrPlaceholder(title, id string) string {
	if title != "" {
		return title
	}
	return "Listing #" + id
}

func formatRange(r domain.DateRange) string {
	const layout = "2006-01-02"
	return r.Start.UTC().Format(layout) + " to " + r.End.UTC().Format(layout)
}
