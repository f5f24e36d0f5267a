package service

import (
	"context"
	"time"

	"store-credit-ledger/config"
	"store-credit-ledger/internal/core/ports"

	"github.com/rs/zerolog"
)

// OutboxRelay drains the transactional outbox into the event stream. It polls
// on a fixed interval, publishing oldest-first and marking each row only after
// the broker acknowledged it, so delivery is at-least-once.
type OutboxRelay struct {
	outboxRepo ports.OutboxRepository
	publisher  ports.EventPublisher
	cfg        config.OutboxConfig
	log        zerolog.Logger
}

// NewOutboxRelay creates a new OutboxRelay.
func NewOutboxRelay(
	outboxRepo ports.OutboxRepository,
	publisher ports.EventPublisher,
	cfg config.OutboxConfig,
	log zerolog.Logger,
) *OutboxRelay {
	return &OutboxRelay{
		outboxRepo: outboxRepo,
		publisher:  publisher,
		cfg:        cfg,
		log:        log,
	}
}

// Run polls until ctx is cancelled.
func (r *OutboxRelay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	r.log.Info().
		Dur("poll_interval", r.cfg.PollInterval).
		Int("batch_size", r.cfg.BatchSize).
		Msg("outbox relay started")

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("outbox relay stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := r.DrainOnce(ctx); err != nil {
				r.log.Error().Err(err).Msg("outbox poll failed")
			}
		}
	}
}

// DrainOnce publishes one batch of unpublished events. A failed publish skips
// the row; the next poll retries it.
func (r *OutboxRelay) DrainOnce(ctx context.Context) error {
	events, err := r.outboxRepo.ListUnpublished(ctx, r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, event := range events {
		if err := r.publisher.Publish(ctx, event); err != nil {
			r.log.Error().
				Err(err).
				Str("event_id", event.ID.String()).
				Str("event_type", event.EventType).
				Msg("publish failed, will retry")
			continue
		}
		if err := r.outboxRepo.MarkPublished(ctx, event.ID); err != nil {
			// The event went out but the row stays unpublished; the next poll
			// re-publishes it, which consumers must tolerate.
			r.log.Error().
				Err(err).
				Str("event_id", event.ID.String()).
				Msg("mark published failed")
			continue
		}
		r.log.Debug().
			Str("event_id", event.ID.String()).
			Str("event_type", event.EventType).
			Msg("event published")
	}
	return nil
}
