package service

import (
	"context"
	"testing"

	"notifier/internal/appers"
	"notifier/internal/application/entity"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindUnprocessedValidation(t *testing.T) {
	f := newFakeRepo()
	svc := newTestService(f, newFakeSender(), nil)
	ctx := context.Background()

	cases := []struct {
		name         string
		limit        int
		consumerName string
	}{
		{"zero limit", 0, entity.ConsumerInApp},
		{"negative limit", -5, entity.ConsumerInApp},
		{"limit above cap", 1001, entity.ConsumerInApp},
		{"blank consumer name", 10, ""},
		{"whitespace consumer name", 10, "   "},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.FindUnprocessed(ctx, tc.limit, tc.consumerName)
			assert.ErrorIs(t, err, appers.ErrInvalidArgument)
		})
	}
}

func TestFindUnprocessedIsRepeatableRead(t *testing.T) {
	f := newFakeRepo()
	svc := newTestService(f, newFakeSender(), nil)
	ctx := context.Background()

	evt := addEvent(f, "Meetup")
	addEntry(t, f, evt.ID, entity.LogEventCreated, nil)
	addEntry(t, f, evt.ID, entity.LogEventCanceled, nil)

	first, err := svc.FindUnprocessed(ctx, 10, entity.ConsumerInApp)
	require.NoError(t, err)
	second, err := svc.FindUnprocessed(ctx, 10, entity.ConsumerInApp)
	require.NoError(t, err)

	assert.Equal(t, first, second, "reading without advancing the cursor must return the same entries")
	require.Len(t, first, 2)
	assert.Less(t, first[0].ID, first[1].ID)
}

func TestFindUnprocessedRespectsLimit(t *testing.T) {
	f := newFakeRepo()
	svc := newTestService(f, newFakeSender(), nil)
	ctx := context.Background()

	evt := addEvent(f, "Meetup")
	for i := 0; i < 5; i++ {
		addEntry(t, f, evt.ID, entity.LogEventCreated, nil)
	}

	got, err := svc.FindUnprocessed(ctx, 3, entity.ConsumerInApp)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestAppendLogEntryAssignsSequentialIDs(t *testing.T) {
	f := newFakeRepo()
	svc := newTestService(f, newFakeSender(), nil)
	ctx := context.Background()

	subjectID := uuid.Must(uuid.NewV4())
	e1, err := svc.AppendLogEntry(ctx, subjectID, entity.LogEventCreated, []byte("{}"))
	require.NoError(t, err)
	e2, err := svc.AppendLogEntry(ctx, subjectID, entity.LogEventCanceled, []byte("{}"))
	require.NoError(t, err)

	assert.Less(t, e1.ID, e2.ID)
	assert.Equal(t, subjectID, e2.SubjectID)
}
