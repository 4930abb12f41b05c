package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/airbrb/booking-client/internal/domain"
)

// ListListings returns listing summaries. Summaries omit availability and
// metadata.
func (c *Client) ListListings(ctx context.Context) ([]domain.Listing, error) {
	var out listingsResponse
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/listings",
		endpoint: "GET /listings",
	}, &out)
	if err != nil {
		return nil, err
	}
	listings := make([]domain.Listing, 0, len(out.Listings))
	for _, l := range out.Listings {
		listings = append(listings, l.toDomain())
	}
	return listings, nil
}

// GetListing returns the full record. The backend omits the id from the
// body, so it is filled in from the request.
func (c *Client) GetListing(ctx context.Context, id string) (domain.Listing, error) {
	var out listingResponse
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/listings/" + url.PathEscape(id),
		endpoint: "GET /listings/:id",
	}, &out)
	if err != nil {
		return domain.Listing{}, err
	}
	listing := out.Listing.toDomain()
	if listing.ID == "" {
		listing.ID = id
	}
	return listing, nil
}

// CreateListing creates an unpublished listing and returns its id.
func (c *Client) CreateListing(ctx context.Context, token string, draft domain.ListingDraft) (string, error) {
	var out listingIDResponse
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/listings/new",
		endpoint: "POST /listings/new",
		token:    token,
		body:     draft,
	}, &out)
	if err != nil {
		return "", err
	}
	return string(out.ListingID), nil
}

// UpdateListing replaces the editable fields of a listing.
func (c *Client) UpdateListing(ctx context.Context, token, id string, draft domain.ListingDraft) error {
	return c.do(ctx, request{
		method:   http.MethodPut,
		path:     "/listings/" + url.PathEscape(id),
		endpoint: "PUT /listings/:id",
		token:    token,
		body:     draft,
	}, nil)
}

// DeleteListing removes a listing.
func (c *Client) DeleteListing(ctx context.Context, token, id string) error {
	return c.do(ctx, request{
		method:   http.MethodDelete,
		path:     "/listings/" + url.PathEscape(id),
		endpoint: "DELETE /listings/:id",
		token:    token,
	}, nil)
}

// PublishListing makes a listing bookable within the given ranges.
func (c *Client) PublishListing(ctx context.Context, token, id string, availability []domain.DateRange) error {
	body := publishRequest{Availability: make([]outRange, 0, len(availability))}
	for _, r := range availability {
		body.Availability = append(body.Availability, fromDomainRange(r))
	}
	return c.do(ctx, request{
		method:   http.MethodPut,
		path:     "/listings/publish/" + url.PathEscape(id),
		endpoint: "PUT /listings/publish/:id",
		token:    token,
		body:     body,
	}, nil)
}

// UnpublishListing hides a listing.
func (c *Client) UnpublishListing(ctx context.Context, token, id string) error {
	return c.do(ctx, request{
		method:   http.MethodPut,
		path:     "/listings/unpublish/" + url.PathEscape(id),
		endpoint: "PUT /listings/unpublish/:id",
		token:    token,
	}, nil)
}

// LeaveReview attaches a review to a listing through one of the caller's bookings.
func (c *Client) LeaveReview(ctx context.Context, token, listingID, bookingID string, review domain.Review) error {
	return c.do(ctx, request{
		method:   http.MethodPut,
		path:     "/listings/" + url.PathEscape(listingID) + "/review/" + url.PathEscape(bookingID),
		endpoint: "PUT /listings/:id/review/:bookingId",
		token:    token,
		body: reviewRequest{Review: outReview{
			Rating:    review.Rating,
			Comment:   review.Comment,
			CreatedBy: review.CreatedBy,
			CreatedAt: review.CreatedAt.UTC().Format(time.RFC3339Nano),
		}},
	}, nil)
}
