package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/airbrb/booking-client/internal/domain"
	"github.com/airbrb/booking-client/internal/platform/logger"
	"go.uber.org/zap"
)

// MediaUploader stores an image and returns its public URL.
type MediaUploader interface {
	Upload(ctx context.Context, fileName string, data []byte) (string, error)
}

// ListingUsecase implements browsing and hosting listings.
type ListingUsecase struct {
	listings ListingGateway
	session  SessionProvider
	media    MediaUploader
	readFile func(string) ([]byte, error)
	logger   *logger.Logger
}

// NewListingUsecase creates a new ListingUsecase. media may be nil, in which
// case image references are sent as given.
func NewListingUsecase(listings ListingGateway, session SessionProvider, media MediaUploader, log *logger.Logger) *ListingUsecase {
	return &ListingUsecase{
		listings: listings,
		session:  session,
		media:    media,
		readFile: os.ReadFile,
		logger:   log.Named("ListingUsecase"),
	}
}

// Browse returns published listings ordered by title.
func (uc *ListingUsecase) Browse(ctx context.Context) ([]domain.Listing, error) {
	all, err := uc.listings.ListListings(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Listing, 0, len(all))
	for _, l := range all {
		if l.Published {
			out = append(out, l)
		}
	}
	sortByTitle(out)
	return out, nil
}

// Hosted returns the current user's listings ordered by title.
func (uc *ListingUsecase) Hosted(ctx context.Context) ([]domain.Listing, error) {
	s := uc.session.Current()
	if !s.Authenticated() {
		return nil, domain.Rejected(domain.ErrUnauthenticated, "Please log in first.")
	}
	all, err := uc.listings.ListListings(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Listing
	for _, l := range all {
		if l.Owner == s.Email {
			out = append(out, l)
		}
	}
	sortByTitle(out)
	return out, nil
}

// Get fetches one listing with its rating summary.
func (uc *ListingUsecase) Get(ctx context.Context, id string) (domain.Listing, RatingSummary, error) {
	l, err := uc.listings.GetListing(ctx, id)
	if err != nil {
		return domain.Listing{}, RatingSummary{}, err
	}
	return l, SummarizeRatings(l.Reviews), nil
}

// Create submits a new listing draft and returns its id.
func (uc *ListingUsecase) Create(ctx context.Context, draft domain.ListingDraft) (string, error) {
	s, err := uc.owner()
	if err != nil {
		return "", err
	}
	if err := validateDraft(draft); err != nil {
		return "", err
	}
	if draft, err = uc.uploadMedia(ctx, draft); err != nil {
		return "", err
	}
	uc.logger.Info("Creating listing", zap.String("title", draft.Title))
	id, err := uc.listings.CreateListing(ctx, s.Token, draft)
	if err != nil {
		uc.logger.Warn("Create listing failed", zap.Error(err))
		return "", err
	}
	return id, nil
}

// Update replaces a listing's editable fields.
func (uc *ListingUsecase) Update(ctx context.Context, id string, draft domain.ListingDraft) error {
	s, err := uc.owner()
	if err != nil {
		return err
	}
	if err := validateDraft(draft); err != nil {
		return err
	}
	if draft, err = uc.uploadMedia(ctx, draft); err != nil {
		return err
	}
	uc.logger.Info("Updating listing", zap.String("listing_id", id))
	return uc.listings.UpdateListing(ctx, s.Token, id, draft)
}

// Delete removes a listing.
func (uc *ListingUsecase) Delete(ctx context.Context, id string) error {
	s, err := uc.owner()
	if err != nil {
		return err
	}
	uc.logger.Info("Deleting listing", zap.String("listing_id", id))
	return uc.listings.DeleteListing(ctx, s.Token, id)
}

// Publish makes a listing bookable over the given ranges.
func (uc *ListingUsecase) Publish(ctx context.Context, id string, availability []domain.DateRange) error {
	s, err := uc.owner()
	if err != nil {
		return err
	}
	if err := ValidatePublish(availability); err != nil {
		return err
	}
	ranges := make([]domain.DateRange, len(availability))
	for i, r := range availability {
		ranges[i] = domain.DateRange{Start: day(r.Start), End: day(r.End)}
	}
	uc.logger.Info("Publishing listing", zap.String("listing_id", id), zap.Int("ranges", len(ranges)))
	return uc.listings.PublishListing(ctx, s.Token, id, ranges)
}

// Unpublish takes a listing off the market.
func (uc *ListingUsecase) Unpublish(ctx context.Context, id string) error {
	s, err := uc.owner()
	if err != nil {
		return err
	}
	uc.logger.Info("Unpublishing listing", zap.String("listing_id", id))
	return uc.listings.UnpublishListing(ctx, s.Token, id)
}

func (uc *ListingUsecase) owner() (domain.Session, error) {
	s := uc.session.Current()
	if !s.Authenticated() {
		return s, domain.Rejected(domain.ErrUnauthenticated, "Please log in first.")
	}
	return s, nil
}

func validateDraft(d domain.ListingDraft) error {
	if strings.TrimSpace(d.Title) == "" {
		return domain.Invalid("Please enter a title.")
	}
	if d.Price <= 0 {
		return domain.Invalid("Please enter a price per night greater than zero.")
	}
	return nil
}

// uploadMedia replaces local file paths in the thumbnail and gallery with
// uploaded URLs. URLs and data URIs are left alone.
func (uc *ListingUsecase) uploadMedia(ctx context.Context, d domain.ListingDraft) (domain.ListingDraft, error) {
	if uc.media == nil {
		return d, nil
	}
	var err error
	if d.Thumbnail, err = uc.uploadOne(ctx, d.Thumbnail); err != nil {
		return d, err
	}
	gallery := make([]string, len(d.Metadata.Gallery))
	for i, ref := range d.Metadata.Gallery {
		if gallery[i], err = uc.uploadOne(ctx, ref); err != nil {
			return d, err
		}
	}
	if d.Metadata.Gallery != nil {
		d.Metadata.Gallery = gallery
	}
	return d, nil
}

func (uc *ListingUsecase) uploadOne(ctx context.Context, ref string) (string, error) {
	if !isLocalPath(ref) {
		return ref, nil
	}
	data, err := uc.readFile(ref)
	if err != nil {
		return "", fmt.Errorf("%w: read image %s: %v", domain.ErrInvalidInput, ref, err)
	}
	url, err := uc.media.Upload(ctx, filepath.Base(ref), data)
	if err != nil {
		uc.logger.Error("Image upload failed", zap.String("file", ref), zap.Error(err))
		return "", fmt.Errorf("upload image %s: %w", ref, err)
	}
	return url, nil
}

func isLocalPath(ref string) bool {
	if ref == "" {
		return false
	}
	lower := strings.ToLower(ref)
	for _, p := range []string{"http://", "https://", "data:"} {
		if strings.HasPrefix(lower, p) {
			return false
		}
	}
	return true
}

func sortByTitle(ls []domain.Listing) {
	sort.SliceStable(ls, func(i, j int) bool {
		return strings.ToLower(ls[i].Title) < strings.ToLower(ls[j].Title)
	})
}
