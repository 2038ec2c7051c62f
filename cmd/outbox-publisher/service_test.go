package main

import (
	"context"
	"errors"
	"testing"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/adesina-labs/kasuwa-backend/pkg/config"
	"github.com/adesina-labs/kasuwa-backend/pkg/db/models"
	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
	"github.com/adesina-labs/kasuwa-backend/pkg/logger"
)

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	fetchErr  error
}

func (r *fakeRepo) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	if limit > len(r.events) {
		limit = len(r.events)
	}
	return r.events[:limit], nil
}

func (r *fakeRepo) MarkPublished(id uuid.UUID) error {
	r.published = append(r.published, id)
	return nil
}

func (r *fakeRepo) MarkFailed(id uuid.UUID, err error) error {
	r.failed = append(r.failed, id)
	return nil
}

type fakePublishResult struct {
	err error
}

func (r fakePublishResult) Get(context.Context) (string, error) {
	return "server-id", r.err
}

type fakePublisher struct {
	results  []publishResult
	messages []*gcppubsub.Message
}

func (p *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	p.messages = append(p.messages, msg)
	if len(p.results) == 0 {
		return fakePublishResult{}
	}
	next := p.results[0]
	p.results = p.results[1:]
	return next
}

func newTestService(t *testing.T, repo outboxRepository, pub publisher) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Config:    &config.Config{},
		Logger:    logger.New(logger.Options{ServiceName: "outbox-publisher-test"}),
		Repo:      repo,
		Publisher: pub,
	})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return svc
}

func newEvent(eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: aggregate,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"version":1}`),
	}
}

func TestProcessBatchContinuesAfterPublishFailure(t *testing.T) {
	repo := &fakeRepo{
		events: []models.OutboxEvent{
			newEvent(enums.EventPayoutCompleted, enums.AggregatePayout),
			newEvent(enums.EventOrderCanceled, enums.AggregateOrder),
		},
	}
	pub := &fakePublisher{
		results: []publishResult{
			fakePublishResult{err: errors.New("transient")},
			fakePublishResult{},
		},
	}
	svc := newTestService(t, repo, pub)

	drained, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !drained {
		t.Fatalf("expected batch to report rows found")
	}
	if len(repo.failed) != 1 || repo.failed[0] != repo.events[0].ID {
		t.Fatalf("unexpected failed rows: %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != repo.events[1].ID {
		t.Fatalf("unexpected published rows: %v", repo.published)
	}
}

func TestProcessBatchSetsMessageAttributes(t *testing.T) {
	event := newEvent(enums.EventReturnRefunded, enums.AggregateReturnRequest)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{}
	svc := newTestService(t, repo, pub)

	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if len(pub.messages) != 1 {
		t.Fatalf("expected one published message, got %d", len(pub.messages))
	}
	msg := pub.messages[0]
	if got := msg.Attributes["event_type"]; got != string(enums.EventReturnRefunded) {
		t.Fatalf("unexpected event_type attribute: %q", got)
	}
	if got := msg.Attributes["aggregate_id"]; got != event.AggregateID.String() {
		t.Fatalf("unexpected aggregate_id attribute: %q", got)
	}
	if string(msg.Data) != `{"version":1}` {
		t.Fatalf("unexpected message payload: %s", msg.Data)
	}
}

func TestProcessBatchReportsEmptyQueue(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakePublisher{})

	drained, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if drained {
		t.Fatalf("expected empty queue to report no rows")
	}
}

func TestProcessBatchPropagatesFetchError(t *testing.T) {
	repo := &fakeRepo{fetchErr: errors.New("db down")}
	svc := newTestService(t, repo, &fakePublisher{})

	if _, err := svc.processBatch(context.Background()); err == nil {
		t.Fatalf("expected fetch error to propagate")
	}
}
