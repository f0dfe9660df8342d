package audit

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"connect2uni/pkg/domain"
)

type fakePublisher struct {
	batches [][]Event
	err     error
}

func (p *fakePublisher) PublishBatch(_ context.Context, events []Event) error {
	if p.err != nil {
		return p.err
	}
	p.batches = append(p.batches, events)
	return nil
}

func (p *fakePublisher) Close() {}

func appendEvent(t *testing.T, store *MemoryStore, action string, at time.Time) Event {
	t.Helper()
	e := Event{
		ID:            uuid.New(),
		OccurredAt:    at,
		ApplicationID: domain.ApplicationID(uuid.New()),
		ActorRole:     "student",
		ActorID:       uuid.New(),
		Action:        action,
	}
	require.NoError(t, store.Append(context.Background(), e))
	return e
}

func TestWorker_DrainPublishesOldestFirst(t *testing.T) {
	store := NewMemoryStore()
	pub := &fakePublisher{}
	w := NewWorker(store, pub, slog.Default(), nil)

	base := time.Now()
	second := appendEvent(t, store, ActionApplicationForwarded, base)
	first := appendEvent(t, store, ActionApplicationFiled, base.Add(-time.Minute))

	require.NoError(t, w.Drain(context.Background()))

	require.Len(t, pub.batches, 1)
	require.Len(t, pub.batches[0], 2)
	assert.Equal(t, first.ID, pub.batches[0][0].ID)
	assert.Equal(t, second.ID, pub.batches[0][1].ID)

	// second drain finds nothing new
	require.NoError(t, w.Drain(context.Background()))
	assert.Len(t, pub.batches, 1)
}

func TestWorker_FailedBatchIsRetried(t *testing.T) {
	store := NewMemoryStore()
	pub := &fakePublisher{err: errors.New("cluster unavailable")}
	w := NewWorker(store, pub, slog.Default(), nil)

	appendEvent(t, store, ActionApplicationAccepted, time.Now())

	err := w.Drain(context.Background())
	require.Error(t, err)

	// events stay unpublished until a batch succeeds
	pub.err = nil
	require.NoError(t, w.Drain(context.Background()))
	require.Len(t, pub.batches, 1)
	assert.Len(t, pub.batches[0], 1)
}

func TestService_RecordFillsDefaults(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)

	err := svc.Record(context.Background(), Event{
		ApplicationID: domain.ApplicationID(uuid.New()),
		ActorRole:     "university",
		Action:        ActionApplicationAccepted,
	})
	require.NoError(t, err)

	all := store.All()
	require.Len(t, all, 1)
	assert.NotEqual(t, uuid.Nil, all[0].ID)
	assert.False(t, all[0].OccurredAt.IsZero())
}
