// Package http serves the local notification API while the client is
// watching for booking changes.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/airbrb/booking-client/internal/domain"
	"github.com/airbrb/booking-client/internal/platform/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Inbox is the notification history the API exposes.
type Inbox interface {
	List() []domain.Notification
	UnreadCount() int
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context)
	Dismiss(ctx context.Context, id string) error
}

// SessionProvider exposes the active session.
type SessionProvider interface {
	Current() domain.Session
}

// NotificationHandler serves /notifications.
type NotificationHandler struct {
	inbox   Inbox
	session SessionProvider
	logger  *logger.Logger
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(inbox Inbox, session SessionProvider, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{inbox: inbox, session: session, logger: log.Named("NotificationHTTPHandler")}
}

type notificationsResponse struct {
	Email         string                `json:"email"`
	UnreadCount   int                   `json:"unreadCount"`
	Notifications []domain.Notification `json:"notifications"`
}

// NewRouter wires the local API routes.
func NewRouter(h *NotificationHandler, log *logger.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(h.requireSession)
		r.Get("/notifications", h.HandleList)
		r.Post("/notifications/read", h.HandleMarkAllRead)
		r.Post("/notifications/{id}/read", h.HandleMarkRead)
		r.Delete("/notifications/{id}", h.HandleDismiss)
	})
	return r
}

func (h *NotificationHandler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.session.Current().Authenticated() {
			respondWithError(w, http.StatusUnauthorized, "Not logged in")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HandleList returns the inbox, newest first.
func (h *NotificationHandler) HandleList(w http.ResponseWriter, _ *http.Request) {
	items := h.inbox.List()
	if items == nil {
		items = []domain.Notification{}
	}
	respondWithJSON(w, http.StatusOK, notificationsResponse{
		Email:         h.session.Current().Email,
		UnreadCount:   h.inbox.UnreadCount(),
		Notifications: items,
	})
}

// HandleMarkAllRead marks every notification read.
func (h *NotificationHandler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	h.inbox.MarkAllRead(r.Context())
	respondWithJSON(w, http.StatusOK, map[string]int{"unreadCount": 0})
}

// HandleMarkRead marks one notification read.
func (h *NotificationHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.inbox.MarkRead(r.Context(), id); err != nil {
		h.handleError(w, err, id)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int{"unreadCount": h.inbox.UnreadCount()})
}

// HandleDismiss removes one notification.
func (h *NotificationHandler) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.inbox.Dismiss(r.Context(), id); err != nil {
		h.handleError(w, err, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) handleError(w http.ResponseWriter, err error, id string) {
	if errors.Is(err, domain.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, "Notification not found")
		return
	}
	h.logger.Error("Notification update failed", zap.String("notification_id", id), zap.Error(err))
	respondWithError(w, http.StatusInternalServerError, "Request failed")
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func respondWithError(w http.ResponseWriter, code int, msg string) {
	respondWithJSON(w, code, map[string]string{"error": msg})
}

// RequestLogger logs one line per request.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	log = log.Named("HTTP")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
