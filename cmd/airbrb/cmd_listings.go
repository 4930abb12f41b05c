package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/airbrb/booking-client/internal/adapter/api"
	"github.com/airbrb/booking-client/internal/domain"
	"github.com/airbrb/booking-client/internal/usecase"
	"github.com/spf13/cobra"
)

type draftFlags struct {
	title, thumbnail, video, propertyType, description string
	line1, city, state, country                        string
	price                                              float64
	bedrooms, beds, bathrooms                          int
	amenities, gallery                                 []string
}

func (f *draftFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.title, "title", "", "Listing title")
	fl.Float64Var(&f.price, "price", 0, "Price per night")
	fl.StringVar(&f.thumbnail, "thumbnail", "", "Thumbnail URL or local image file")
	fl.StringVar(&f.video, "youtube", "", "YouTube video used as the thumbnail")
	fl.StringVar(&f.line1, "street", "", "Street address")
	fl.StringVar(&f.city, "city", "", "City")
	fl.StringVar(&f.state, "state", "", "State")
	fl.StringVar(&f.country, "country", "", "Country")
	fl.StringVar(&f.propertyType, "type", "", "Property type")
	fl.IntVar(&f.bedrooms, "bedrooms", 0, "Number of bedrooms")
	fl.IntVar(&f.beds, "beds", 0, "Number of beds")
	fl.IntVar(&f.bathrooms, "bathrooms", 0, "Number of bathrooms")
	fl.StringSliceVar(&f.amenities, "amenity", nil, "Amenity (repeatable)")
	fl.StringVar(&f.description, "description", "", "Description")
	fl.StringSliceVar(&f.gallery, "image", nil, "Gallery image URL or local file (repeatable)")
}

func (f *draftFlags) draft() domain.ListingDraft {
	return domain.ListingDraft{
		Title:     f.title,
		Price:     f.price,
		Thumbnail: f.thumbnail,
		Address:   domain.Address{Line1: f.line1, City: f.city, State: f.state, Country: f.country},
		Metadata: domain.Metadata{
			PropertyType:      f.propertyType,
			Bedrooms:          f.bedrooms,
			Beds:              f.beds,
			Bathrooms:         f.bathrooms,
			Amenities:         f.amenities,
			Description:       f.description,
			Gallery:           f.gallery,
			ThumbnailVideoURL: f.video,
		},
	}
}

func newListingsCmd(get appFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "listings",
		Aliases: []string{"listing"},
		Short:   "Browse and host listings",
	}

	var mine bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List published listings, or your own with --mine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			var (
				ls  []domain.Listing
				err error
			)
			if mine {
				ls, err = a.listings.Hosted(commandContext(cmd))
			} else {
				ls, err = a.listings.Browse(commandContext(cmd))
			}
			if err != nil {
				return err
			}
			printListings(cmd.OutOrStdout(), ls)
			return nil
		},
	}
	list.Flags().BoolVar(&mine, "mine", false, "Show listings you host, including drafts")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a listing with its availability and reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, summary, err := get().listings.Get(commandContext(cmd), args[0])
			if err != nil {
				return err
			}
			printListing(cmd.OutOrStdout(), l, summary)
			return nil
		},
	}

	createFlags := &draftFlags{}
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an unpublished listing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := get().listings.Create(commandContext(cmd), createFlags.draft())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created listing %s\n", id)
			return nil
		},
	}
	createFlags.register(create)

	updateFlags := &draftFlags{}
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a listing's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := get().listings.Update(commandContext(cmd), args[0], updateFlags.draft()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated listing %s\n", args[0])
			return nil
		},
	}
	updateFlags.register(update)

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := get().listings.Delete(commandContext(cmd), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted listing %s\n", args[0])
			return nil
		},
	}

	var ranges []string
	publish := &cobra.Command{
		Use:   "publish <id>",
		Short: "Publish a listing over one or more date ranges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed := make([]domain.DateRange, 0, len(ranges))
			for _, r := range ranges {
				dr, err := parseRange(r)
				if err != nil {
					return err
				}
				if err := usecase.ValidateAvailabilityRange(dr); err != nil {
					return err
				}
				parsed = append(parsed, dr)
			}
			if err := get().listings.Publish(commandContext(cmd), args[0], parsed); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published listing %s with %d availability range(s)\n", args[0], len(parsed))
			return nil
		},
	}
	publish.Flags().StringArrayVar(&ranges, "range", nil, "Availability as START..END, e.g. 2025-12-01..2025-12-20 (repeatable)")

	unpublish := &cobra.Command{
		Use:   "unpublish <id>",
		Short: "Take a listing off the market",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := get().listings.Unpublish(commandContext(cmd), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unpublished listing %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, show, create, update, del, publish, unpublish)
	return cmd
}

// parseRange reads START..END.
func parseRange(s string) (domain.DateRange, error) {
	start, end, ok := strings.Cut(s, "..")
	if !ok {
		return domain.DateRange{}, domain.Invalid(fmt.Sprintf("Invalid range %q, expected START..END.", s))
	}
	from, err := parseDate(start)
	if err != nil {
		return domain.DateRange{}, err
	}
	to, err := parseDate(end)
	if err != nil {
		return domain.DateRange{}, err
	}
	return domain.DateRange{Start: from, End: to}, nil
}

func parseDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	t, err := api.ParseTime(s)
	if err != nil {
		return time.Time{}, domain.Invalid(fmt.Sprintf("Invalid date %q, expected YYYY-MM-DD.", s))
	}
	return t, nil
}

func printListings(w io.Writer, ls []domain.Listing) {
	if len(ls) == 0 {
		fmt.Fprintln(w, "No listings.")
		return
	}
	rows := make([][]string, 0, len(ls))
	for _, l := range ls {
		status := "draft"
		if l.Published {
			status = "published"
		}
		rows = append(rows, []string{l.ID, l.Title, fmt.Sprintf("%.2f", l.Price), ratingLabel(usecase.SummarizeRatings(l.Reviews)), status})
	}
	renderTable(w, []string{"ID", "TITLE", "PRICE", "RATING", "STATUS"}, rows)
}

func printListing(w io.Writer, l domain.Listing, summary usecase.RatingSummary) {
	fmt.Fprintf(w, "%s (#%s)\n", l.Title, l.ID)
	if addr := l.Address.String(); addr != "" {
		fmt.Fprintf(w, "  %s\n", addr)
	}
	fmt.Fprintf(w, "  Host: %s\n  Price: %.2f per night\n", l.Owner, l.Price)
	m := l.Metadata
	if m.PropertyType != "" || m.Bedrooms+m.Beds+m.Bathrooms > 0 {
		fmt.Fprintf(w, "  %s, %d bedroom(s), %d bed(s), %d bathroom(s)\n", m.PropertyType, m.Bedrooms, m.Beds, m.Bathrooms)
	}
	if len(m.Amenities) > 0 {
		fmt.Fprintf(w, "  Amenities: %s\n", strings.Join(m.Amenities, ", "))
	}
	if m.Description != "" {
		fmt.Fprintf(w, "  %s\n", m.Description)
	}
	if len(l.Availability) == 0 {
		fmt.Fprintln(w, "  This listing has no published availability yet.")
	}
	for _, r := range l.Availability {
		fmt.Fprintf(w, "  Available %s\n", formatRange(r))
	}
	fmt.Fprintf(w, "  Rating: %s\n", ratingLabel(summary))
	for stars := 5; stars >= 1 && summary.HasScore; stars-- {
		fmt.Fprintf(w, "    %d★ %d\n", stars, summary.ByStars[stars])
	}
	for _, r := range l.Reviews {
		fmt.Fprintf(w, "  [%d★] %s: %s\n", r.Rating, r.CreatedBy, r.Comment)
	}
}

func ratingLabel(s usecase.RatingSummary) string {
	if !s.HasScore {
		return "no reviews"
	}
	return fmt.Sprintf("%.1f (%d)", s.Average, s.Count)
}

func formatRange(r domain.DateRange) string {
	const layout = "2006-01-02"
	return r.Start.UTC().Format(layout) + " to " + r.End.UTC().Format(layout)
}
