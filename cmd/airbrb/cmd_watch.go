package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/airbrb/booking-client/internal/adapter/email"
	httpadapter "github.com/airbrb/booking-client/internal/adapter/http"
	natsadapter "github.com/airbrb/booking-client/internal/adapter/messaging/nats"
	"github.com/airbrb/booking-client/internal/domain"
	"github.com/airbrb/booking-client/internal/platform/logger"
	"github.com/airbrb/booking-client/internal/platform/metrics"
	"github.com/airbrb/booking-client/internal/platform/tracer"
	"github.com/airbrb/booking-client/internal/usecase"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func newWatchCmd(get appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll for booking changes and serve notifications locally",
		Long: "watch keeps polling the backend for booking changes while you are logged in,\n" +
			"records notifications, forwards them to the configured sinks and serves\n" +
			"them over a local HTTP API until interrupted.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, get(), cmd)
		},
	}
}

func runWatch(ctx context.Context, a *app, cmd *cobra.Command) error {
	if _, err := a.requireLogin(); err != nil {
		return err
	}
	log := a.log.Named("watch")

	if a.cfg.OTExporterOTLPEndpoint != "" {
		tp, err := tracer.InitTracer(ctx, serviceName, a.cfg.OTExporterOTLPEndpoint, log)
		if err != nil {
			log.Warn("Tracing disabled", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					log.Error("Error shutting down tracer provider", zap.Error(err))
				}
			}()
		}
	}

	sinks := buildSinks(a, log)
	for _, s := range sinks {
		if c, ok := s.(interface{ Close() }); ok {
			defer c.Close()
		}
	}

	engine := usecase.NewNotificationEngine(a.client, a.client, a.inbox, a.log,
		usecase.WithPollInterval(a.cfg.PollInterval),
		usecase.WithHostRefreshInterval(a.cfg.HostRefreshInterval),
		usecase.WithSinks(sinks...),
		usecase.WithEngineMetrics(a.metrics),
		usecase.WithUnauthorizedHandler(func() {
			log.Warn("Backend rejected the session token, logging out")
			if err := a.session.Invalidate(context.WithoutCancel(ctx)); err != nil {
				log.Error("Failed to clear session", zap.Error(err))
			}
		}),
	)
	a.session.OnChange(func(s domain.Session) {
		if s.Authenticated() {
			engine.Start(ctx, s)
			return
		}
		engine.Stop()
		fmt.Fprintln(cmd.ErrOrStderr(), "Session ended; stopped watching. Run `airbrb login` to sign in again.")
	})
	engine.Start(ctx, a.session.Current())
	defer engine.Stop()

	handler := httpadapter.NewNotificationHandler(a.inbox, a.session, a.log)
	servers := []*http.Server{{
		Addr:              a.cfg.HTTPAddr,
		Handler:           httpadapter.NewRouter(handler, a.log),
		ReadHeaderTimeout: 5 * time.Second,
	}}
	if a.cfg.PrometheusMetricsPort != "" {
		servers = append(servers, metrics.NewMetricsServer(a.cfg.PrometheusMetricsPort, log, a.metrics.Registry))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			log.Info("Starting HTTP server", zap.String("address", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("HTTP server shutdown failed", zap.String("address", srv.Addr), zap.Error(err))
			}
		}
		return nil
	})

	fmt.Fprintf(cmd.OutOrStdout(), "Watching bookings for %s; notifications at http://%s/notifications (Ctrl+C to stop)\n",
		a.session.Current().Email, a.cfg.HTTPAddr)
	return g.Wait()
}

// buildSinks returns the notification sinks enabled by configuration.
// A sink that cannot be set up is skipped.
func buildSinks(a *app, log *logger.Logger) []domain.NotificationSink {
	var sinks []domain.NotificationSink
	if a.cfg.NATSURL != "" {
		pub, err := natsadapter.NewPublisher(a.cfg.NATSURL, a.log, serviceName)
		if err != nil {
			log.Warn("NATS sink disabled", zap.Error(err))
		} else {
			sinks = append(sinks, pub)
		}
	}
	if a.cfg.SMTP.Enabled() {
		sinks = append(sinks, email.NewSMTPSender(a.cfg.SMTP, a.log))
	}
	return sinks
}
