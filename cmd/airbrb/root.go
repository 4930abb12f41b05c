package main

import (
	"context"

	"github.com/airbrb/booking-client/internal/config"
	"github.com/airbrb/booking-client/internal/platform/logger"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	var a *app

	cmd := &cobra.Command{
		Use:           "airbrb",
		Short:         "Browse, host and book airbrb stays from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			bootLog := logger.NewLogger(&logger.LoggerConfig{Level: "warn", Format: "console"})
			cfg, err := config.LoadConfig(bootLog, opts.configFile)
			if err != nil {
				return err
			}
			level := cfg.LogLevel
			if opts.verbose {
				level = "debug"
			}
			logCfg := logger.DefaultConfig()
			logCfg.Level, logCfg.Format = level, cfg.LogFormat
			log := logger.NewLogger(logCfg)
			a, err = newApp(commandContext(cmd), cfg, log)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a != nil {
				_ = a.log.Sync()
				a.close()
			}
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to a config.env file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	get := func() *app { return a }
	cmd.AddCommand(
		newLoginCmd(get),
		newRegisterCmd(get),
		newLogoutCmd(get),
		newWhoamiCmd(get),
		newListingsCmd(get),
		newBookingsCmd(get),
		newReviewsCmd(get),
		newNotificationsCmd(get),
		newWatchCmd(get),
	)
	return cmd
}

// appFunc returns the app built by the root command's pre-run hook.
type appFunc func() *app

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
