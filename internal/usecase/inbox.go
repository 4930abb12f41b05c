package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/airbrb/booking-client/internal/domain"
	"github.com/airbrb/booking-client/internal/platform/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxNotifications caps the inbox.
const DefaultMaxNotifications = 30

// NotificationsKey returns the storage key of a user's notification history.
func NotificationsKey(email string) string {
	return "airbrb_notifications_" + email
}

// Inbox is the per-user notification history: newest first, bounded, and
// written through to durable storage on every mutation. An Inbox with no
// owner holds nothing and persists nothing.
type Inbox struct {
	store  domain.StateStore
	max    int
	logger *logger.Logger

	mu    sync.RWMutex
	owner string
	items []domain.Notification
}

// NewInbox creates an empty, ownerless inbox.
func NewInbox(store domain.StateStore, max int, log *logger.Logger) *Inbox {
	if max <= 0 {
		max = DefaultMaxNotifications
	}
	return &Inbox{store: store, max: max, logger: log.Named("Inbox")}
}

// Load switches the inbox to email's history. Missing or malformed stored
// data yields an empty list.
func (in *Inbox) Load(ctx context.Context, email string) {
	items := in.read(ctx, email)
	in.mu.Lock()
	in.owner = email
	in.items = items
	in.mu.Unlock()
}

func (in *Inbox) read(ctx context.Context, email string) []domain.Notification {
	if email == "" {
		return nil
	}
	raw, err := in.store.Get(ctx, NotificationsKey(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		in.logger.Error("Failed to read stored notifications", zap.String("email", email), zap.Error(err))
		return nil
	}
	var items []domain.Notification
	if err := json.Unmarshal(raw, &items); err != nil {
		in.logger.Warn("Stored notifications are malformed, starting empty", zap.String("email", email), zap.Error(err))
		return nil
	}
	if len(items) > in.max {
		items = items[:in.max]
	}
	return items
}

// Reset detaches the inbox from its owner. Stored history is kept.
func (in *Inbox) Reset() {
	in.mu.Lock()
	in.owner = ""
	in.items = nil
	in.mu.Unlock()
}

// Add prepends batch, preserving its order, and drops the oldest entries
// beyond the cap. Missing IDs and timestamps are filled in.
func (in *Inbox) Add(ctx context.Context, batch ...domain.Notification) {
	if len(batch) == 0 {
		return
	}
	in.mu.Lock()
	if in.owner == "" {
		in.mu.Unlock()
		return
	}
	fresh := make([]domain.Notification, 0, len(batch)+len(in.items))
	for _, n := range batch {
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = time.Now()
		}
		fresh = append(fresh, n)
	}
	fresh = append(fresh, in.items...)
	if len(fresh) > in.max {
		fresh = fresh[:in.max]
	}
	in.items = fresh
	in.persistLocked(ctx)
	in.mu.Unlock()
}

// List returns a copy of the history, newest first.
func (in *Inbox) List() []domain.Notification {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return append([]domain.Notification(nil), in.items...)
}

// UnreadCount counts notifications not yet marked read.
func (in *Inbox) UnreadCount() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	n := 0
	for _, it := range in.items {
		if !it.Read {
			n++
		}
	}
	return n
}

// MarkRead marks one notification read.
func (in *Inbox) MarkRead(ctx context.Context, id string) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	for i := range in.items {
		if in.items[i].ID == id {
			if !in.items[i].Read {
				in.items[i].Read = true
				in.persistLocked(ctx)
			}
			return nil
		}
	}
	return domain.ErrNotFound
}

// MarkAllRead marks every notification read.
func (in *Inbox) MarkAllRead(ctx context.Context) {
	in.mu.Lock()
	defer in.mu.Unlock()
	changed := false
	for i := range in.items {
		if !in.items[i].Read {
			in.items[i].Read = true
			changed = true
		}
	}
	if changed {
		in.persistLocked(ctx)
	}
}

// Dismiss removes one notification.
func (in *Inbox) Dismiss(ctx context.Context, id string) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	for i := range in.items {
		if in.items[i].ID == id {
			in.items = append(in.items[:i:i], in.items[i+1:]...)
			in.persistLocked(ctx)
			return nil
		}
	}
	return domain.ErrNotFound
}

// Clear removes every notification of the current owner.
func (in *Inbox) Clear(ctx context.Context) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.items = nil
	in.persistLocked(ctx)
}

func (in *Inbox) persistLocked(ctx context.Context) {
	if in.owner == "" {
		return
	}
	items := in.items
	if items == nil {
		items = []domain.Notification{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		in.logger.Error("Failed to encode notifications", zap.Error(err))
		return
	}
	if err := in.store.Set(ctx, NotificationsKey(in.owner), raw); err != nil {
		in.logger.Error("Failed to persist notifications", zap.String("email", in.owner), zap.Error(err))
	}
}
