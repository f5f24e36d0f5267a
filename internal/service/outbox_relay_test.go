package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"store-credit-ledger/config"
	"store-credit-ledger/internal/core/domain"
	"store-credit-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setupRelay(t *testing.T) (*OutboxRelay, *mocks.MockOutboxRepository, *mocks.MockEventPublisher) {
	ctrl := gomock.NewController(t)
	outboxRepo := mocks.NewMockOutboxRepository(ctrl)
	publisher := mocks.NewMockEventPublisher(ctrl)
	cfg := config.OutboxConfig{PollInterval: 10 * time.Millisecond, BatchSize: 100}
	return NewOutboxRelay(outboxRepo, publisher, cfg, zerolog.Nop()), outboxRepo, publisher
}

func newOutboxEvent() domain.OutboxEvent {
	return domain.OutboxEvent{
		ID:          uuid.New(),
		AggregateID: uuid.New(),
		EventType:   domain.EventWalletCredited,
		Payload:     []byte(`{}`),
		CreatedAt:   time.Now().UTC(),
	}
}

func TestOutboxRelay_DrainOnce_PublishesAndMarks(t *testing.T) {
	relay, outboxRepo, publisher := setupRelay(t)
	ctx := context.Background()
	e1, e2 := newOutboxEvent(), newOutboxEvent()

	outboxRepo.EXPECT().ListUnpublished(ctx, 100).Return([]domain.OutboxEvent{e1, e2}, nil)
	publisher.EXPECT().Publish(ctx, e1).Return(nil)
	outboxRepo.EXPECT().MarkPublished(ctx, e1.ID).Return(nil)
	publisher.EXPECT().Publish(ctx, e2).Return(nil)
	outboxRepo.EXPECT().MarkPublished(ctx, e2.ID).Return(nil)

	require.NoError(t, relay.DrainOnce(ctx))
}

func TestOutboxRelay_DrainOnce_FailedPublishStaysUnpublished(t *testing.T) {
	relay, outboxRepo, publisher := setupRelay(t)
	ctx := context.Background()
	e1, e2 := newOutboxEvent(), newOutboxEvent()

	outboxRepo.EXPECT().ListUnpublished(ctx, 100).Return([]domain.OutboxEvent{e1, e2}, nil)
	publisher.EXPECT().Publish(ctx, e1).Return(errors.New("broker down"))
	// e1 is skipped; e2 still goes out
	publisher.EXPECT().Publish(ctx, e2).Return(nil)
	outboxRepo.EXPECT().MarkPublished(ctx, e2.ID).Return(nil)

	require.NoError(t, relay.DrainOnce(ctx))
}

func TestOutboxRelay_DrainOnce_ListError(t *testing.T) {
	relay, outboxRepo, _ := setupRelay(t)
	ctx := context.Background()

	outboxRepo.EXPECT().ListUnpublished(ctx, 100).Return(nil, errors.New("db down"))

	assert.Error(t, relay.DrainOnce(ctx))
}

func TestOutboxRelay_Run_StopsOnCancel(t *testing.T) {
	relay, outboxRepo, _ := setupRelay(t)
	ctx, cancel := context.WithCancel(context.Background())

	outboxRepo.EXPECT().ListUnpublished(gomock.Any(), 100).Return(nil, nil).AnyTimes()

	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop after cancel")
	}
}
