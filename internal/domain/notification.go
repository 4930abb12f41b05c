package domain

import (
	"context"
	"time"
)

// NotificationType tells whether the user is addressed as host or guest.
type NotificationType string

const (
	NotificationHost  NotificationType = "host"
	NotificationGuest NotificationType = "guest"
)

// Notification is a transient, locally generated message about a booking change.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Detail    string           `json:"detail"`
	CreatedAt time.Time        `json:"createdAt"`
	Read      bool             `json:"read"`
}

// NotificationSink receives every notification the engine emits, in
// addition to the local inbox. Implementations must not block for long.
type NotificationSink interface {
	Name() string
	Deliver(ctx context.Context, recipient string, n Notification) error
}
