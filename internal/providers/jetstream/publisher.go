package jetstream

import (
	"context"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/feral-file/lattice-ledger/internal/adapter"
	"github.com/feral-file/lattice-ledger/internal/domain"
	"github.com/feral-file/lattice-ledger/internal/logger"
	"github.com/feral-file/lattice-ledger/internal/messaging"
)

// Config holds the configuration for NATS JetStream connection
type Config struct {
	URL            string
	SubjectPrefix  string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
	WorkerPoolSize int
	PublishTimeout time.Duration
}

type publisher struct {
	nc            adapter.NatsConn
	js            adapter.JetStream
	subjectPrefix string
	json          adapter.JSON
	pool          pond.Pool
	timeout       time.Duration
}

// NewPublisher creates a new NATS JetStream publisher. Events are published
// asynchronously through a worker pool with exponential-backoff retry, so a
// broker hiccup never stalls or fails a ledger operation.
func NewPublisher(cfg Config, natsJS adapter.NatsJetStream, jsonAdapter adapter.JSON) (messaging.Publisher, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, js, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	poolSize := cfg.WorkerPoolSize
	if poolSize <= 0 {
		poolSize = 4
	}
	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &publisher{
		nc:            nc,
		js:            js,
		subjectPrefix: cfg.SubjectPrefix,
		json:          jsonAdapter,
		pool:          pond.NewPool(poolSize),
		timeout:       timeout,
	}, nil
}

// PublishEvent serializes the event and hands it to the worker pool. Only
// serialization errors are reported to the caller; delivery is retried in
// the background.
func (p *publisher) PublishEvent(ctx context.Context, event *domain.LedgerEvent) error {
	logger.DebugCtx(ctx, "Publishing ledger event", zap.Any("event", event))

	data, err := p.json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := p.buildSubject(event)

	p.pool.Submit(func() {
		p.publishWithRetry(subject, data, event.ID)
	})

	return nil
}

func (p *publisher) publishWithRetry(subject string, data []byte, eventID string) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5

	operation := func() error {
		_, err := p.js.Publish(ctx, subject, data)
		return err
	}

	notifyOnError := func(err error, duration time.Duration) {
		logger.Warn("Retrying event publish",
			zap.Error(err),
			zap.String("event_id", eventID),
			zap.String("subject", subject),
			zap.Duration("next_retry_in", duration),
		)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notifyOnError); err != nil {
		logger.Error(err,
			zap.String("message", "Dropping event after retries"),
			zap.String("event_id", eventID),
			zap.String("subject", subject),
		)
	}
}

// buildSubject constructs the NATS subject based on the event
func (p *publisher) buildSubject(event *domain.LedgerEvent) string {
	// Format: {prefix}.events.{event_type}
	// e.g., lattice.events.token_minted
	return fmt.Sprintf("%s.events.%s", p.subjectPrefix, event.Type)
}

// Close drains the worker pool and closes the NATS connection
func (p *publisher) Close() {
	p.pool.StopAndWait()

	if p.nc == nil {
		return
	}

	p.nc.Close()
}
