package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ruacmx/ruac-backend/pkg/config"
	"github.com/ruacmx/ruac-backend/pkg/db/models"
	"github.com/ruacmx/ruac-backend/pkg/enums"
	"github.com/ruacmx/ruac-backend/pkg/logger"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) error { return f.err }

type fakeEventStore struct {
	events    []models.OutboxEvent
	fetchErr  error
	published []uuid.UUID
	failed    map[uuid.UUID]error
}

func (f *fakeEventStore) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if len(f.events) > limit {
		return f.events[:limit], nil
	}
	return f.events, nil
}

func (f *fakeEventStore) MarkPublished(id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeEventStore) MarkFailed(id uuid.UUID, cause error) error {
	if f.failed == nil {
		f.failed = map[uuid.UUID]error{}
	}
	f.failed[id] = cause
	return nil
}

func pendingEvent() models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.OutboxEventAmberAlertRaised,
		AggregateType: "pet",
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"petId":"x"}`),
	}
}

func newTestPublisher(t *testing.T, store *fakeEventStore, publish publishFunc) *Service {
	t.Helper()

	cfg := &config.Config{}
	cfg.Outbox = config.OutboxConfig{BatchSize: 10, PollIntervalMS: 10, MaxAttempts: 3}

	svc, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logger.New(logger.Options{ServiceName: "alert-publisher-test"}),
		DB:         &fakePinger{},
		PubSub:     &fakePinger{},
		Repository: store,
		Publish:    publish,
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func TestProcessBatchPublishesAndMarks(t *testing.T) {
	store := &fakeEventStore{events: []models.OutboxEvent{pendingEvent(), pendingEvent()}}
	var sent []models.OutboxEvent
	svc := newTestPublisher(t, store, func(ctx context.Context, event models.OutboxEvent) error {
		sent = append(sent, event)
		return nil
	})

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("unexpected batch error: %v", err)
	}
	if !processed {
		t.Fatal("expected processed batch")
	}
	if len(sent) != 2 {
		t.Fatalf("expected 2 publishes, got %d", len(sent))
	}
	if len(store.published) != 2 {
		t.Fatalf("expected 2 marked published, got %d", len(store.published))
	}
	if len(store.failed) != 0 {
		t.Fatalf("expected no failures, got %v", store.failed)
	}
}

func TestProcessBatchEmptyQueueIsIdle(t *testing.T) {
	store := &fakeEventStore{}
	svc := newTestPublisher(t, store, func(ctx context.Context, event models.OutboxEvent) error {
		t.Fatal("publish should not run on empty queue")
		return nil
	})

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("unexpected batch error: %v", err)
	}
	if processed {
		t.Fatal("expected idle batch")
	}
}

func TestProcessBatchRecordsPerEventFailures(t *testing.T) {
	good := pendingEvent()
	bad := pendingEvent()
	store := &fakeEventStore{events: []models.OutboxEvent{bad, good}}

	brokerErr := errors.New("broker unavailable")
	svc := newTestPublisher(t, store, func(ctx context.Context, event models.OutboxEvent) error {
		if event.ID == bad.ID {
			return brokerErr
		}
		return nil
	})

	processed, err := svc.processBatch(context.Background())
	if !processed {
		t.Fatal("expected processed batch")
	}
	if err == nil {
		t.Fatal("expected combined batch error")
	}

	// the failing event is recorded without blocking the rest of the batch
	if len(store.published) != 1 || store.published[0] != good.ID {
		t.Fatalf("expected good event published, got %v", store.published)
	}
	if cause, ok := store.failed[bad.ID]; !ok || !errors.Is(cause, brokerErr) {
		t.Fatalf("expected broker error recorded, got %v", store.failed)
	}
}

func TestProcessBatchFetchErrorStopsBatch(t *testing.T) {
	store := &fakeEventStore{fetchErr: errors.New("db gone")}
	svc := newTestPublisher(t, store, func(ctx context.Context, event models.OutboxEvent) error {
		return nil
	})

	processed, err := svc.processBatch(context.Background())
	if processed {
		t.Fatal("expected unprocessed batch")
	}
	if err == nil {
		t.Fatal("expected fetch error")
	}
}

func TestNextBackoffDoublesUpToCeiling(t *testing.T) {
	floor := 100 * time.Millisecond
	ceiling := 800 * time.Millisecond

	if got := nextBackoff(100*time.Millisecond, floor, ceiling); got != 200*time.Millisecond {
		t.Fatalf("expected 200ms, got %v", got)
	}
	if got := nextBackoff(600*time.Millisecond, floor, ceiling); got != ceiling {
		t.Fatalf("expected ceiling, got %v", got)
	}
}
