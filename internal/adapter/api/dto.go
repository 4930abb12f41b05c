package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/airbrb/booking-client/internal/domain"
)

// flexID accepts both JSON numbers and strings; the backend uses numeric ids
// while the client treats them as opaque strings.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*f = flexID(strconv.FormatInt(i, 10))
		return nil
	}
	*f = flexID(n.String())
	return nil
}

// wireTime accepts RFC 3339 timestamps, bare dates, empty strings and null.
type wireTime struct {
	time.Time
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// ParseTime parses the timestamp formats the backend and users produce.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

func (w *wireTime) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("time must be a string: %w", err)
	}
	if s == nil || *s == "" {
		w.Time = time.Time{}
		return nil
	}
	t, err := ParseTime(*s)
	if err != nil {
		return err
	}
	w.Time = t
	return nil
}

type wireRange struct {
	Start wireTime `json:"start"`
	End   wireTime `json:"end"`
}

func (r wireRange) toDomain() domain.DateRange {
	return domain.DateRange{Start: r.Start.Time, End: r.End.Time}
}

type outRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func fromDomainRange(r domain.DateRange) outRange {
	return outRange{Start: r.Start.UTC().Format(time.RFC3339Nano), End: r.End.UTC().Format(time.RFC3339Nano)}
}

type wireReview struct {
	Rating    float64  `json:"rating" validate:"gte=0,lte=5"`
	Comment   string   `json:"comment"`
	CreatedBy string   `json:"createdBy"`
	CreatedAt wireTime `json:"createdAt"`
}

type wireMetadata struct {
	PropertyType      string   `json:"propertyType"`
	Bedrooms          int      `json:"bedrooms" validate:"gte=0"`
	Beds              int      `json:"beds" validate:"gte=0"`
	Bathrooms         int      `json:"bathrooms" validate:"gte=0"`
	Amenities         []string `json:"amenities"`
	Description       string   `json:"description"`
	Gallery           []string `json:"gallery"`
	ThumbnailVideoURL string   `json:"youtubeUrl"`
}

type wireListing struct {
	ID           flexID         `json:"id"`
	Owner        string         `json:"owner" validate:"required"`
	Title        string         `json:"title"`
	Address      domain.Address `json:"address"`
	Price        float64        `json:"price" validate:"gte=0"`
	Thumbnail    string         `json:"thumbnail"`
	Metadata     wireMetadata   `json:"metadata"`
	Published    bool           `json:"published"`
	Availability []wireRange    `json:"availability"`
	Reviews      []wireReview   `json:"reviews" validate:"dive"`
	PostedOn     wireTime       `json:"postedOn"`
}

func (l wireListing) toDomain() domain.Listing {
	out := domain.Listing{
		ID:        string(l.ID),
		Owner:     l.Owner,
		Title:     l.Title,
		Address:   l.Address,
		Price:     l.Price,
		Thumbnail: l.Thumbnail,
		Metadata: domain.Metadata{
			PropertyType:      l.Metadata.PropertyType,
			Bedrooms:          l.Metadata.Bedrooms,
			Beds:              l.Metadata.Beds,
			Bathrooms:         l.Metadata.Bathrooms,
			Amenities:         l.Metadata.Amenities,
			Description:       l.Metadata.Description,
			Gallery:           l.Metadata.Gallery,
			ThumbnailVideoURL: l.Metadata.ThumbnailVideoURL,
		},
		Published: l.Published,
		PostedOn:  l.PostedOn.Time,
	}
	for _, r := range l.Availability {
		out.Availability = append(out.Availability, r.toDomain())
	}
	for _, r := range l.Reviews {
		out.Reviews = append(out.Reviews, domain.Review{
			Rating:    int(r.Rating + 0.5),
			Comment:   r.Comment,
			CreatedBy: r.CreatedBy,
			CreatedAt: r.CreatedAt.Time,
		})
	}
	return out
}

type wireBooking struct {
	ID         flexID    `json:"id" validate:"required"`
	ListingID  flexID    `json:"listingId" validate:"required"`
	Owner      string    `json:"owner" validate:"required"`
	Status     string    `json:"status" validate:"required,oneof=pending accepted declined"`
	DateRange  wireRange `json:"dateRange"`
	TotalPrice float64   `json:"totalPrice" validate:"gte=0"`
}

func (b wireBooking) toDomain() domain.Booking {
	return domain.Booking{
		ID:         string(b.ID),
		ListingID:  string(b.ListingID),
		Owner:      b.Owner,
		Status:     domain.BookingStatus(b.Status),
		DateRange:  b.DateRange.toDomain(),
		TotalPrice: b.TotalPrice,
	}
}

type authResponse struct {
	Token string `json:"token" validate:"required"`
	Name  string `json:"name"`
}

type listingsResponse struct {
	Listings []wireListing `json:"listings" validate:"dive"`
}

type listingResponse struct {
	Listing *wireListing `json:"listing" validate:"required"`
}

type listingIDResponse struct {
	ListingID flexID `json:"listingId" validate:"required"`
}

type bookingsResponse struct {
	Bookings []wireBooking `json:"bookings" validate:"dive"`
}

type bookingIDResponse struct {
	BookingID flexID `json:"bookingId" validate:"required"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type publishRequest struct {
	Availability []outRange `json:"availability"`
}

type bookingRequest struct {
	DateRange  outRange `json:"dateRange"`
	TotalPrice float64  `json:"totalPrice"`
}

type outReview struct {
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	CreatedBy string `json:"createdBy"`
	CreatedAt string `json:"createdAt"`
}

type reviewRequest struct {
	Review outReview `json:"review"`
}
