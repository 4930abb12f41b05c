package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newNotificationsCmd(get appFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"inbox"},
		Short:   "Show and manage your notification history",
	}

	// loadInbox binds the inbox to the logged-in user.
	loadInbox := func(cmd *cobra.Command) (*app, error) {
		a := get()
		s, err := a.requireLogin()
		if err != nil {
			return nil, err
		}
		a.inbox.Load(commandContext(cmd), s.Email)
		return a, nil
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List notifications, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadInbox(cmd)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			items := a.inbox.List()
			if len(items) == 0 {
				fmt.Fprintln(w, "No notifications.")
				return nil
			}
			fmt.Fprintf(w, "%d unread\n", a.inbox.UnreadCount())
			for _, n := range items {
				mark := " "
				if !n.Read {
					mark = "*"
				}
				fmt.Fprintf(w, "%s %s  %s  %s\n    %s\n", mark, n.ID, n.CreatedAt.Local().Format("2006-01-02 15:04"), n.Message, n.Detail)
			}
			return nil
		},
	}

	read := &cobra.Command{
		Use:   "read [id]",
		Short: "Mark one notification, or all of them, as read",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadInbox(cmd)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				a.inbox.MarkAllRead(commandContext(cmd))
				fmt.Fprintln(cmd.OutOrStdout(), "All notifications marked as read")
				return nil
			}
			if err := a.inbox.MarkRead(commandContext(cmd), args[0]); err != nil {
				return fmt.Errorf("notification %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %s as read\n", args[0])
			return nil
		},
	}

	dismiss := &cobra.Command{
		Use:   "dismiss <id>",
		Short: "Remove a notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadInbox(cmd)
			if err != nil {
				return err
			}
			if err := a.inbox.Dismiss(commandContext(cmd), args[0]); err != nil {
				return fmt.Errorf("notification %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dismissed %s\n", args[0])
			return nil
		},
	}

	clearAll := &cobra.Command{
		Use:   "clear",
		Short: "Remove all notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadInbox(cmd)
			if err != nil {
				return err
			}
			a.inbox.Clear(commandContext(cmd))
			fmt.Fprintln(cmd.OutOrStdout(), "Notifications cleared")
			return nil
		},
	}

	cmd.AddCommand(list, read, dismiss, clearAll)
	return cmd
}
