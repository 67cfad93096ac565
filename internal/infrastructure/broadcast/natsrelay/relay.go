// Package natsrelay republishes progress events to a NATS subject so
// observers outside the process (dashboards, log collectors) can follow an
// extraction without holding an HTTP stream open. The in-process hub stays
// authoritative; the relay is an optional mirror.
package natsrelay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/rcoppens/tableminer/internal/core/domain"
	"github.com/rcoppens/tableminer/internal/core/ports"
	"github.com/rcoppens/tableminer/internal/infrastructure/resilience"
)

type Relay struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
	logger   *slog.Logger
}

type Options struct {
	ConnectTimeout     time.Duration
	ReconnectWait      time.Duration
	MaxReconnects      int
	ResilienceExecutor *resilience.Executor
	Logger             *slog.Logger
}

func New(url, subject string, options Options) (*Relay, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(
		url,
		nats.Name("tableminer"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Relay{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
		logger:   logger,
	}, nil
}

func (r *Relay) Close() {
	if r.conn != nil {
		r.conn.Close()
	}
}

// Run mirrors hub events onto the NATS subject until the context ends.
// Intended to run on its own goroutine.
func (r *Relay) Run(ctx context.Context, broadcaster ports.ProgressBroadcaster) {
	ch, cancel := broadcaster.Subscribe(ctx)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := r.publish(ctx, event); err != nil {
				r.logger.Warn("nats_relay_publish_failed", "error", err)
			}
		}
	}
}

func (r *Relay) publish(ctx context.Context, event domain.ProgressEvent) error {
	call := func(context.Context) error {
		if err := r.conn.Publish(r.subject, []byte(event.String())); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}
	if r.executor == nil {
		return call(ctx)
	}
	return r.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
}

func classifyNATSError(err error) resilience.Classification {
	switch {
	case errors.Is(err, nats.ErrConnectionClosed), errors.Is(err, nats.ErrConnectionDraining):
		return resilience.Classification{Retryable: false, RecordFailure: true}
	case errors.Is(err, nats.ErrTimeout), errors.Is(err, nats.ErrNoResponders), errors.Is(err, nats.ErrConnectionReconnecting):
		return resilience.Classification{Retryable: true, RecordFailure: true}
	default:
		return resilience.Classification{Retryable: true, RecordFailure: true}
	}
}
