package domain

import "time"

// DateRange is an inclusive interval of calendar dates, Start ≤ End.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Address of a listing.
type Address struct {
	Line1   string `json:"line1"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}

// String joins the non-empty address parts.
func (a Address) String() string {
	out := ""
	for _, p := range []string{a.Line1, a.City, a.State, a.Country} {
		if p == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += p
	}
	return out
}

// Metadata holds the descriptive part of a listing.
type Metadata struct {
	PropertyType      string   `json:"propertyType"`
	Bedrooms          int      `json:"bedrooms"`
	Beds              int      `json:"beds"`
	Bathrooms         int      `json:"bathrooms"`
	Amenities         []string `json:"amenities"`
	Description       string   `json:"description"`
	Gallery           []string `json:"gallery"`
	ThumbnailVideoURL string   `json:"youtubeUrl,omitempty"`
}

// Review is a guest's rating of a listing.
type Review struct {
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// Listing mirrors the server's listing record. It is a read cache; the
// client has no authority over it.
type Listing struct {
	ID           string      `json:"id"`
	Owner        string      `json:"owner"`
	Title        string      `json:"title"`
	Address      Address     `json:"address"`
	Price        float64     `json:"price"`
	Thumbnail    string      `json:"thumbnail"`
	Metadata     Metadata    `json:"metadata"`
	Published    bool        `json:"published"`
	Availability []DateRange `json:"availability"`
	Reviews      []Review    `json:"reviews"`
	PostedOn     time.Time   `json:"postedOn"`
}

// ListingDraft is the payload for creating or updating a listing.
type ListingDraft struct {
	Title     string   `json:"title"`
	Address   Address  `json:"address"`
	Price     float64  `json:"price"`
	Thumbnail string   `json:"thumbnail"`
	Metadata  Metadata `json:"metadata"`
}
