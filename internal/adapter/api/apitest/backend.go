// Package apitest provides an in-process fake of the booking backend for
// tests. It keeps everything in memory and issues numeric ids like the real
// server does.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Range is a date range on the wire.
type Range struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Review is a review on the wire.
type Review struct {
	Rating    float64 `json:"rating"`
	Comment   string  `json:"comment"`
	CreatedBy string  `json:"createdBy"`
	CreatedAt string  `json:"createdAt"`
}

// Listing is the backend's listing record.
type Listing struct {
	ID           int             `json:"id,omitempty"`
	Owner        string          `json:"owner"`
	Title        string          `json:"title"`
	Address      json.RawMessage `json:"address,omitempty"`
	Price        float64         `json:"price"`
	Thumbnail    string          `json:"thumbnail"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	Published    bool            `json:"published"`
	Availability []Range         `json:"availability"`
	Reviews      []Review        `json:"reviews"`
	PostedOn     string          `json:"postedOn,omitempty"`
}

// Booking is the backend's booking record.
type Booking struct {
	ID         int     `json:"id"`
	ListingID  string  `json:"listingId"`
	Owner      string  `json:"owner"`
	Status     string  `json:"status"`
	DateRange  Range   `json:"dateRange"`
	TotalPrice float64 `json:"totalPrice"`
}

type user struct {
	password string
	name     string
}

// Backend is a fake airbrb server. Its exported methods let tests seed and
// mutate state behind the client's back.
type Backend struct {
	Server *httptest.Server

	mu       sync.Mutex
	users    map[string]user
	tokens   map[string]string
	listings map[int]*Listing
	bookings map[int]*Booking
	nextID   int
	failures map[string]int
	calls    map[string]int
}

// New starts a fake backend. It is closed when the test ends.
func New(t interface{ Cleanup(func()) }) *Backend {
	b := &Backend{
		users:    make(map[string]user),
		tokens:   make(map[string]string),
		listings: make(map[int]*Listing),
		bookings: make(map[int]*Booking),
		nextID:   100,
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}
	b.Server = httptest.NewServer(b.routes())
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the base URL to point the client at.
func (b *Backend) URL() string { return b.Server.URL }

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(b.count)
	r.Post("/user/auth/register", b.register)
	r.Post("/user/auth/login", b.login)
	r.Post("/user/auth/logout", b.auth(b.logout))

	r.Get("/listings", b.listListings)
	r.Post("/listings/new", b.auth(b.createListing))
	r.Put("/listings/publish/{id}", b.auth(b.publish))
	r.Put("/listings/unpublish/{id}", b.auth(b.unpublish))
	r.Put("/listings/{id}/review/{bookingId}", b.auth(b.review))
	r.Get("/listings/{id}", b.getListing)
	r.Put("/listings/{id}", b.auth(b.updateListing))
	r.Delete("/listings/{id}", b.auth(b.deleteListing))

	r.Get("/bookings", b.auth(b.listBookings))
	r.Post("/bookings/new/{listingId}", b.auth(b.createBooking))
	r.Put("/bookings/accept/{id}", b.auth(b.setStatus("accepted")))
	r.Put("/bookings/decline/{id}", b.auth(b.setStatus("declined")))
	r.Delete("/bookings/{id}", b.auth(b.deleteBooking))
	return r
}

// FailNext makes the next n requests to route ("GET /bookings") fail with 500.
func (b *Backend) FailNext(route string, n int) {
	b.mu.Lock()
	b.failures[route] = n
	b.mu.Unlock()
}

// Calls reports how many requests hit route.
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

func (b *Backend) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path
		b.mu.Lock()
		b.calls[route]++
		fail := b.failures[route] > 0
		if fail {
			b.failures[route]--
		}
		b.mu.Unlock()
		if fail {
			writeError(w, http.StatusInternalServerError, "Injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AddUser registers an account and returns a valid token for it.
func (b *Backend) AddUser(email, password, name string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[email] = user{password: password, name: name}
	token := uuid.NewString()
	b.tokens[token] = email
	return token
}

// RevokeTokens invalidates every issued token.
func (b *Backend) RevokeTokens() {
	b.mu.Lock()
	b.tokens = make(map[string]string)
	b.mu.Unlock()
}

// AddListing stores l, assigning an id, and returns the id.
func (b *Backend) AddListing(l Listing) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	l.ID = b.nextID
	if l.PostedOn == "" && l.Published {
		l.PostedOn = time.Now().UTC().Format(time.RFC3339)
	}
	b.listings[l.ID] = &l
	return strconv.Itoa(l.ID)
}

// AddBooking stores bk, assigning an id, and returns the id.
func (b *Backend) AddBooking(bk Booking) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	bk.ID = b.nextID
	if bk.Status == "" {
		bk.Status = "pending"
	}
	b.bookings[bk.ID] = &bk
	return strconv.Itoa(bk.ID)
}

// SetBookingStatus changes a booking's status directly.
func (b *Backend) SetBookingStatus(id, status string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, _ := strconv.Atoi(id)
	if bk, ok := b.bookings[n]; ok {
		bk.Status = status
	}
}

// Listing returns a copy of a stored listing.
func (b *Backend) Listing(id string) (Listing, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, _ := strconv.Atoi(id)
	l, ok := b.listings[n]
	if !ok {
		return Listing{}, false
	}
	return *l, true
}

// Booking returns a copy of a stored booking.
func (b *Backend) Booking(id string) (Booking, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, _ := strconv.Atoi(id)
	bk, ok := b.bookings[n]
	if !ok {
		return Booking{}, false
	}
	return *bk, true
}

type authedHandler func(w http.ResponseWriter, r *http.Request, email string)

func (b *Backend) auth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		b.mu.Lock()
		email, ok := b.tokens[token]
		b.mu.Unlock()
		if !ok {
			writeError(w, http.StatusForbidden, "Invalid token")
			return
		}
		next(w, r, email)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed body")
		return false
	}
	return true
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var in struct{ Email, Password, Name string }
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	if _, exists := b.users[in.Email]; exists {
		b.mu.Unlock()
		writeError(w, http.StatusBadRequest, "Email address already registered")
		return
	}
	b.mu.Unlock()
	token := b.AddUser(in.Email, in.Password, in.Name)
	writeJSON(w, http.StatusOK, map[string]string{"token": token, "name": in.Name})
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var in struct{ Email, Password string }
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	u, ok := b.users[in.Email]
	b.mu.Unlock()
	if !ok || u.password != in.Password {
		writeError(w, http.StatusBadRequest, "Invalid username or password")
		return
	}
	token := uuid.NewString()
	b.mu.Lock()
	b.tokens[token] = in.Email
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"token": token, "name": u.name})
}

func (b *Backend) logout(w http.ResponseWriter, r *http.Request, _ string) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	b.mu.Lock()
	delete(b.tokens, token)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (b *Backend) listListings(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	out := make([]Listing, 0, len(b.listings))
	for _, l := range b.listings {
		out = append(out, *l)
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"listings": out})
}

func (b *Backend) lookupListing(w http.ResponseWriter, r *http.Request) (*Listing, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "id"))
	l, ok := b.listings[n]
	if err != nil || !ok {
		writeError(w, http.StatusBadRequest, "Invalid listing id")
		return nil, false
	}
	return l, true
}

func (b *Backend) getListing(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.lookupListing(w, r)
	if !ok {
		return
	}
	out := *l
	out.ID = 0
	writeJSON(w, http.StatusOK, map[string]any{"listing": out})
}

type listingBody struct {
	Title     string          `json:"title"`
	Address   json.RawMessage `json:"address"`
	Price     float64         `json:"price"`
	Thumbnail string          `json:"thumbnail"`
	Metadata  json.RawMessage `json:"metadata"`
}

func (b *Backend) createListing(w http.ResponseWriter, r *http.Request, email string) {
	var in listingBody
	if !decode(w, r, &in) {
		return
	}
	id := b.AddListing(Listing{
		Owner: email, Title: in.Title, Address: in.Address, Price: in.Price,
		Thumbnail: in.Thumbnail, Metadata: in.Metadata,
	})
	n, _ := strconv.Atoi(id)
	writeJSON(w, http.StatusOK, map[string]int{"listingId": n})
}

func (b *Backend) ownedListing(w http.ResponseWriter, r *http.Request, email string) (*Listing, bool) {
	l, ok := b.lookupListing(w, r)
	if !ok {
		return nil, false
	}
	if l.Owner != email {
		writeError(w, http.StatusForbidden, "User is not the owner of this listing")
		return nil, false
	}
	return l, true
}

func (b *Backend) updateListing(w http.ResponseWriter, r *http.Request, email string) {
	var in listingBody
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.ownedListing(w, r, email)
	if !ok {
		return
	}
	l.Title, l.Address, l.Price, l.Thumbnail, l.Metadata = in.Title, in.Address, in.Price, in.Thumbnail, in.Metadata
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (b *Backend) deleteListing(w http.ResponseWriter, r *http.Request, email string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.ownedListing(w, r, email)
	if !ok {
		return
	}
	delete(b.listings, l.ID)
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (b *Backend) publish(w http.ResponseWriter, r *http.Request, email string) {
	var in struct {
		Availability []Range `json:"availability"`
	}
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.ownedListing(w, r, email)
	if !ok {
		return
	}
	l.Published = true
	l.Availability = in.Availability
	l.PostedOn = time.Now().UTC().Format(time.RFC3339)
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (b *Backend) unpublish(w http.ResponseWriter, r *http.Request, email string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.ownedListing(w, r, email)
	if !ok {
		return
	}
	l.Published = false
	l.Availability = nil
	l.PostedOn = ""
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (b *Backend) review(w http.ResponseWriter, r *http.Request, email string) {
	var in struct {
		Review Review `json:"review"`
	}
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.lookupListing(w, r)
	if !ok {
		return
	}
	n, _ := strconv.Atoi(chi.URLParam(r, "bookingId"))
	bk, ok := b.bookings[n]
	if !ok || bk.Owner != email || bk.ListingID != strconv.Itoa(l.ID) {
		writeError(w, http.StatusForbidden, "Cannot review through this booking")
		return
	}
	l.Reviews = append(l.Reviews, in.Review)
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (b *Backend) listBookings(w http.ResponseWriter, _ *http.Request, _ string) {
	b.mu.Lock()
	out := make([]Booking, 0, len(b.bookings))
	for _, bk := range b.bookings {
		out = append(out, *bk)
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"bookings": out})
}

func (b *Backend) createBooking(w http.ResponseWriter, r *http.Request, email string) {
	var in struct {
		DateRange  Range   `json:"dateRange"`
		TotalPrice float64 `json:"totalPrice"`
	}
	if !decode(w, r, &in) {
		return
	}
	listingID := chi.URLParam(r, "listingId")
	b.mu.Lock()
	n, _ := strconv.Atoi(listingID)
	l, ok := b.listings[n]
	if !ok {
		b.mu.Unlock()
		writeError(w, http.StatusBadRequest, "Invalid listing id")
		return
	}
	if l.Owner == email {
		b.mu.Unlock()
		writeError(w, http.StatusBadRequest, "Cannot book your own listing")
		return
	}
	b.mu.Unlock()
	id := b.AddBooking(Booking{ListingID: listingID, Owner: email, DateRange: in.DateRange, TotalPrice: in.TotalPrice})
	n, _ = strconv.Atoi(id)
	writeJSON(w, http.StatusOK, map[string]int{"bookingId": n})
}

func (b *Backend) setStatus(status string) authedHandler {
	return func(w http.ResponseWriter, r *http.Request, email string) {
		b.mu.Lock()
		defer b.mu.Unlock()
		n, _ := strconv.Atoi(chi.URLParam(r, "id"))
		bk, ok := b.bookings[n]
		if !ok {
			writeError(w, http.StatusBadRequest, "Invalid booking id")
			return
		}
		ln, _ := strconv.Atoi(bk.ListingID)
		if l, ok := b.listings[ln]; !ok || l.Owner != email {
			writeError(w, http.StatusForbidden, "User is not the owner of this listing")
			return
		}
		if bk.Status != "pending" {
			writeError(w, http.StatusBadRequest, "Booking has already been decided")
			return
		}
		bk.Status = status
		writeJSON(w, http.StatusOK, map[string]any{})
	}
}

func (b *Backend) deleteBooking(w http.ResponseWriter, r *http.Request, email string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, _ := strconv.Atoi(chi.URLParam(r, "id"))
	bk, ok := b.bookings[n]
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid booking id")
		return
	}
	if bk.Owner != email {
		writeError(w, http.StatusForbidden, "User is not the owner of this booking")
		return
	}
	delete(b.bookings, n)
	writeJSON(w, http.StatusOK, map[string]any{})
}
