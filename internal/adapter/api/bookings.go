package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/airbrb/booking-client/internal/domain"
)

// ListBookings returns every booking visible to token. There is no delta API.
func (c *Client) ListBookings(ctx context.Context, token string) ([]domain.Booking, error) {
	var out bookingsResponse
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/bookings",
		endpoint: "GET /bookings",
		token:    token,
	}, &out)
	if err != nil {
		return nil, err
	}
	bookings := make([]domain.Booking, 0, len(out.Bookings))
	for _, b := range out.Bookings {
		bookings = append(bookings, b.toDomain())
	}
	return bookings, nil
}

// CreateBooking requests a stay and returns the new booking id.
func (c *Client) CreateBooking(ctx context.Context, token, listingID string, dates domain.DateRange, totalPrice float64) (string, error) {
	var out bookingIDResponse
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/bookings/new/" + url.PathEscape(listingID),
		endpoint: "POST /bookings/new/:listingId",
		token:    token,
		body:     bookingRequest{DateRange: fromDomainRange(dates), TotalPrice: totalPrice},
	}, &out)
	if err != nil {
		return "", err
	}
	return string(out.BookingID), nil
}

// AcceptBooking moves a pending booking to accepted.
func (c *Client) AcceptBooking(ctx context.Context, token, id string) error {
	return c.do(ctx, request{
		method:   http.MethodPut,
		path:     "/bookings/accept/" + url.PathEscape(id),
		endpoint: "PUT /bookings/accept/:id",
		token:    token,
	}, nil)
}

// DeclineBooking moves a pending booking to declined.
func (c *Client) DeclineBooking(ctx context.Context, token, id string) error {
	return c.do(ctx, request{
		method:   http.MethodPut,
		path:     "/bookings/decline/" + url.PathEscape(id),
		endpoint: "PUT /bookings/decline/:id",
		token:    token,
	}, nil)
}

// DeleteBooking removes a booking.
func (c *Client) DeleteBooking(ctx context.Context, token, id string) error {
	return c.do(ctx, request{
		method:   http.MethodDelete,
		path:     "/bookings/" + url.PathEscape(id),
		endpoint: "DELETE /bookings/:id",
		token:    token,
	}, nil)
}
