package main

import (
	"fmt"
	"io"

	"github.com/airbrb/booking-client/internal/domain"
	"github.com/spf13/cobra"
)

func newBookingsCmd(get appFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bookings",
		Aliases: []string{"booking"},
		Short:   "Request and manage bookings",
	}

	var listingID string
	list := &cobra.Command{
		Use:   "list",
		Short: "List your booking requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bs, err := get().bookings.MyBookings(commandContext(cmd), listingID)
			if err != nil {
				return err
			}
			printBookings(cmd.OutOrStdout(), bs)
			return nil
		},
	}
	list.Flags().StringVar(&listingID, "listing", "", "Only show bookings for this listing")

	var from, to string
	request := &cobra.Command{
		Use:   "request <listing-id>",
		Short: "Request to book a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseDate(from)
			if err != nil {
				return err
			}
			end, err := parseDate(to)
			if err != nil {
				return err
			}
			receipt, err := get().bookings.RequestBooking(commandContext(cmd), args[0], start, end)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Requested booking %s: %d night(s), total %.2f\n", receipt.ID, receipt.Nights, receipt.Total)
			return nil
		},
	}
	request.Flags().StringVar(&from, "from", "", "Check-in date (YYYY-MM-DD)")
	request.Flags().StringVar(&to, "to", "", "Check-out date (YYYY-MM-DD)")

	accept := &cobra.Command{
		Use:   "accept <booking-id>",
		Short: "Accept a pending booking on your listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := get().bookings.Accept(commandContext(cmd), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Accepted booking %s\n", args[0])
			return nil
		},
	}

	decline := &cobra.Command{
		Use:   "decline <booking-id>",
		Short: "Decline a pending booking on your listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := get().bookings.Decline(commandContext(cmd), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Declined booking %s\n", args[0])
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <booking-id>",
		Short: "Withdraw one of your booking requests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := get().bookings.Delete(commandContext(cmd), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted booking %s\n", args[0])
			return nil
		},
	}

	host := &cobra.Command{
		Use:   "host <listing-id>",
		Short: "Show requests and stats for a listing you host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := get().bookings.HostBookings(commandContext(cmd), args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s (#%s)\n", view.Listing.Title, view.Listing.ID)
			fmt.Fprintf(w, "  Online for %d day(s)\n", view.Stats.OnlineDays)
			fmt.Fprintf(w, "  %d accepted booking(s), %d night(s) booked this year, profit %.2f\n",
				view.Stats.AcceptedCount, view.Stats.BookedNights, view.Stats.Profit)
			fmt.Fprintln(w, "\nPending requests:")
			printBookings(w, view.Pending)
			fmt.Fprintln(w, "\nHistory:")
			printBookings(w, view.History)
			return nil
		},
	}

	cmd.AddCommand(list, request, accept, decline, del, host)
	return cmd
}

func printBookings(w io.Writer, bs []domain.Booking) {
	if len(bs) == 0 {
		fmt.Fprintln(w, "No bookings.")
		return
	}
	rows := make([][]string, 0, len(bs))
	for _, b := range bs {
		rows = append(rows, []string{b.ID, b.ListingID, b.Owner, formatRange(b.DateRange), fmt.Sprintf("%.2f", b.TotalPrice), string(b.Status)})
	}
	renderTable(w, []string{"ID", "LISTING", "GUEST", "DATES", "TOTAL", "STATUS"}, rows)
}
