package service

import (
	"context"
	"encoding/json"
	"notifier/internal/application/entity"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addOutboxRow(f *fakeRepo, recipientID uuid.UUID, message string, age time.Duration) int64 {
	m := entity.OutboxMessage{
		RecipientID: recipientID,
		Message:     message,
		CreatedAt:   time.Now().Add(-age),
	}
	m.ID = f.nextOutboxID
	f.nextOutboxID++
	f.outbox = append(f.outbox, m)
	return m.ID
}

func TestDeliverOutboxEmptyIsNoOp(t *testing.T) {
	f := newFakeRepo()
	sender := newFakeSender()
	svc := newTestService(f, sender, nil)

	require.NoError(t, svc.DeliverOutbox(context.Background()))

	assert.Empty(t, sender.sent)
	assert.Empty(t, f.processedIDs)
}

func TestDeliverOutboxMarksDelivered(t *testing.T) {
	f := newFakeRepo()
	sender := newFakeSender()
	svc := newTestService(f, sender, nil)

	userID := uuid.Must(uuid.NewV4())
	f.chatIDs[userID] = 42
	id := addOutboxRow(f, userID, "hello", time.Minute)

	require.NoError(t, svc.DeliverOutbox(context.Background()))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(42), sender.sent[0].ChatID)
	assert.Equal(t, "hello", sender.sent[0].Text)
	assert.Equal(t, []int64{id}, f.processedIDs)

	// повторный проход ничего не шлёт
	require.NoError(t, svc.DeliverOutbox(context.Background()))
	assert.Len(t, sender.sent, 1)
}

func TestDeliverOutboxFailureDoesNotBlockOthers(t *testing.T) {
	f := newFakeRepo()
	sender := newFakeSender()
	svc := newTestService(f, sender, nil)

	u1, u2, u3 := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())
	f.chatIDs[u1], f.chatIDs[u2], f.chatIDs[u3] = 1, 2, 3
	sender.failFor[2] = true

	id1 := addOutboxRow(f, u1, "m1", time.Minute)
	id2 := addOutboxRow(f, u2, "m2", time.Minute)
	id3 := addOutboxRow(f, u3, "m3", time.Minute)

	require.NoError(t, svc.DeliverOutbox(context.Background()))

	assert.ElementsMatch(t, []int64{id1, id3}, f.processedIDs,
		"failed recipient must not block the rest of the batch")

	// упавшая строка остаётся кандидатом следующего прохода
	pending, err := f.FindPendingOutbox(context.Background(), 30, 30*time.Minute)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, id2, pending[0].ID)

	sender.failFor[2] = false
	require.NoError(t, svc.DeliverOutbox(context.Background()))
	assert.Contains(t, f.processedIDs, id2)
}

func TestDeliverOutboxSkipsRecipientWithoutChatID(t *testing.T) {
	f := newFakeRepo()
	sender := newFakeSender()
	svc := newTestService(f, sender, nil)

	addOutboxRow(f, uuid.Must(uuid.NewV4()), "hello", time.Minute)

	require.NoError(t, svc.DeliverOutbox(context.Background()))

	assert.Empty(t, sender.sent)
	assert.Empty(t, f.processedIDs, "row without chat id stays pending until swept")
}

func TestDeliverOutboxRespectsFreshnessWindow(t *testing.T) {
	f := newFakeRepo()
	sender := newFakeSender()
	svc := newTestService(f, sender, nil)

	userID := uuid.Must(uuid.NewV4())
	f.chatIDs[userID] = 42
	addOutboxRow(f, userID, "stale", 31*time.Minute)

	require.NoError(t, svc.DeliverOutbox(context.Background()))

	assert.Empty(t, sender.sent, "row older than the freshness window must never be delivered")
	assert.Empty(t, f.processedIDs)
}

func TestSweepStrandedDeadLettersAndPublishes(t *testing.T) {
	f := newFakeRepo()
	sender := newFakeSender()
	dlq := newFakeDLQ()
	svc := newTestService(f, sender, dlq)

	userID := uuid.Must(uuid.NewV4())
	f.chatIDs[userID] = 42
	staleID := addOutboxRow(f, userID, "stale", 31*time.Minute)
	freshID := addOutboxRow(f, userID, "fresh", time.Minute)

	require.NoError(t, svc.SweepStranded(context.Background()))

	raw, ok := dlq.messages[staleID]
	require.True(t, ok, "stranded row must be published to the DLQ topic")
	var dl deadLetter
	require.NoError(t, json.Unmarshal(raw, &dl))
	assert.Equal(t, staleID, dl.OutboxID)
	assert.Equal(t, userID.String(), dl.RecipientID)
	assert.Equal(t, "stale", dl.Message)

	_, ok = dlq.messages[freshID]
	assert.False(t, ok, "fresh row must not be swept")

	// dead-letter строка больше никогда не кандидат на доставку
	require.NoError(t, svc.DeliverOutbox(context.Background()))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "fresh", sender.sent[0].Text)

	// повторный sweep идемпотентен
	require.NoError(t, svc.SweepStranded(context.Background()))
	assert.Len(t, dlq.messages, 1)
}
