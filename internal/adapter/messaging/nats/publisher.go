package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/airbrb/booking-client/internal/domain"
	"github.com/airbrb/booking-client/internal/platform/logger"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// SubjectPrefix is prepended to the notification type to form the subject.
const SubjectPrefix = "airbrb.notification."

var tracer = otel.Tracer("airbrb/nats-publisher")

type msgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

// NotificationEvent is the JSON body published for every notification.
type NotificationEvent struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"createdAt"`
}

// Publisher forwards notifications to NATS. It implements domain.NotificationSink.
type Publisher struct {
	conn   msgPublisher
	nc     *nats.Conn
	logger *logger.Logger
}

// NewPublisher connects to the NATS server at url.
func NewPublisher(url string, log *logger.Logger, appName string) (*Publisher, error) {
	log.Info("NATS Publisher: connecting...", zap.String("url", url))

	opts := []nats.Option{
		nats.Name(fmt.Sprintf("%s NATS Publisher", appName)),
		nats.Timeout(10 * time.Second),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2 * time.Second),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error("NATS error", zap.Error(err))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info("NATS connection closed")
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		log.Error("NATS Publisher: failed to connect", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	log.Info("NATS Publisher: successfully connected", zap.String("url", conn.ConnectedUrl()))

	return &Publisher{conn: conn, nc: conn, logger: log.Named("NATSPublisher")}, nil
}

func newPublisher(conn msgPublisher, log *logger.Logger) *Publisher {
	return &Publisher{conn: conn, logger: log.Named("NATSPublisher")}
}

// Name implements domain.NotificationSink.
func (p *Publisher) Name() string { return "nats" }

// Deliver publishes n on airbrb.notification.<type>.
func (p *Publisher) Deliver(ctx context.Context, recipient string, n domain.Notification) error {
	return p.Publish(ctx, SubjectPrefix+string(n.Type), NotificationEvent{
		ID:        n.ID,
		Recipient: recipient,
		Type:      string(n.Type),
		Message:   n.Message,
		Detail:    n.Detail,
		CreatedAt: n.CreatedAt.UTC(),
	})
}

// Publish sends data as JSON with the trace context in the message headers.
func (p *Publisher) Publish(ctx context.Context, subject string, data any) error {
	ctx, span := tracer.Start(ctx, "NATS.Publish."+subject, trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()

	jsonData, err := json.Marshal(data)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal data for subject %s: %w", subject, err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = jsonData
	msg.Header = make(nats.Header)
	otel.GetTextMapPropagator().Inject(ctx, HeaderCarrier(msg.Header))

	if err := p.conn.PublishMsg(msg); err != nil {
		p.logger.Error("NATS Publisher: failed to publish message", zap.String("subject", subject), zap.Error(err))
		span.RecordError(err)
		return fmt.Errorf("failed to publish message to subject %s: %w", subject, err)
	}

	p.logger.Debug("NATS Publisher: message published", zap.String("subject", subject), zap.Int("data_size_bytes", len(jsonData)))
	return nil
}

// HeaderCarrier adapts nats.Header to the otel propagation carrier.
type HeaderCarrier nats.Header

func (c HeaderCarrier) Get(key string) string {
	return nats.Header(c).Get(key)
}

func (c HeaderCarrier) Set(key string, value string) {
	nats.Header(c).Set(key, value)
}

func (c HeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc == nil || p.nc.IsClosed() {
		return
	}
	if err := p.nc.Drain(); err != nil {
		p.logger.Error("NATS Publisher: failed to drain connection", zap.Error(err))
	}
	p.nc.Close()
}
