package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/airbrb/booking-client/internal/adapter/api"
	"github.com/airbrb/booking-client/internal/adapter/storage"
	"github.com/airbrb/booking-client/internal/adapter/storage/s3"
	"github.com/airbrb/booking-client/internal/config"
	"github.com/airbrb/booking-client/internal/domain"
	"github.com/airbrb/booking-client/internal/platform/logger"
	"github.com/airbrb/booking-client/internal/platform/metrics"
	"github.com/airbrb/booking-client/internal/usecase"
	"go.uber.org/zap"
)

const serviceName = "airbrb-client"

// app holds the wired components shared by every command.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	store   domain.StateStore
	client  *api.Client
	metrics *metrics.MetricsManager

	session  *usecase.SessionUsecase
	listings *usecase.ListingUsecase
	bookings *usecase.BookingUsecase
	reviews  *usecase.ReviewUsecase
	inbox    *usecase.Inbox

	closers []func()
}

func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log, metrics: metrics.NewMetricsManager("airbrb")}

	store, err := a.openStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}
	a.store = store

	a.client = api.NewClient(cfg.BackendURL, cfg.RequestTimeout, log, api.WithMetrics(a.metrics))
	a.session = usecase.NewSessionUsecase(a.client, store, log)

	var media usecase.MediaUploader
	if cfg.MinIOEndpoint != "" {
		s3store, err := s3.NewS3Storage(ctx, cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket, cfg.MinIOUseSSL, log)
		if err != nil {
			log.Warn("Media uploads disabled", zap.Error(err))
		} else {
			media = s3store
		}
	}

	a.listings = usecase.NewListingUsecase(a.client, a.session, media, log)
	a.bookings = usecase.NewBookingUsecase(a.client, a.client, a.session, log)
	a.reviews = usecase.NewReviewUsecase(a.client, a.client, a.session, store, log)
	a.inbox = usecase.NewInbox(store, cfg.MaxNotifications, log)

	if _, err := a.session.Load(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context) (domain.StateStore, error) {
	switch a.cfg.StorageDriver {
	case config.StorageRedis:
		client, err := storage.NewRedisClient(ctx, a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		return storage.NewRedisStore(client), nil
	case config.StorageMongo:
		client, err := storage.ConnectMongo(ctx, a.cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Disconnect(context.Background()) })
		return storage.NewMongoStore(client.Database(a.cfg.MongoDatabase)), nil
	case config.StorageSQLite:
		dir, err := filepath.Abs(a.cfg.StateDir)
		if err != nil {
			return nil, fmt.Errorf("resolve STATE_DIR: %w", err)
		}
		store, err := storage.NewSQLiteStore(ctx, filepath.Join(dir, storage.StateDBFile))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = store.Close() })
		return store, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", a.cfg.StorageDriver)
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// requireLogin returns the session or a user-facing error.
func (a *app) requireLogin() (domain.Session, error) {
	s := a.session.Current()
	if !s.Authenticated() {
		return s, fmt.Errorf("not logged in; run `airbrb login <email>` first")
	}
	return s, nil
}
