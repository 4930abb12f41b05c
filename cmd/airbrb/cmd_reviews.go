package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReviewsCmd(get appFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reviews",
		Aliases: []string{"review"},
		Short:   "Review listings you stayed at",
	}

	eligible := &cobra.Command{
		Use:   "eligible <listing-id>",
		Short: "List your accepted bookings that can still be reviewed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bs, err := get().reviews.EligibleBookings(commandContext(cmd), args[0])
			if err != nil {
				return err
			}
			printBookings(cmd.OutOrStdout(), bs)
			return nil
		},
	}

	var (
		bookingID string
		rating    int
		comment   string
	)
	submit := &cobra.Command{
		Use:   "submit <listing-id>",
		Short: "Leave a review for one of your accepted bookings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := get().reviews.Submit(commandContext(cmd), args[0], bookingID, rating, comment); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Thanks for your review!")
			return nil
		},
	}
	submit.Flags().StringVar(&bookingID, "booking", "", "Booking the review is for")
	submit.Flags().IntVar(&rating, "rating", 0, "Rating from 1 to 5")
	submit.Flags().StringVarP(&comment, "comment", "m", "", "Review text")

	cmd.AddCommand(eligible, submit)
	return cmd
}
