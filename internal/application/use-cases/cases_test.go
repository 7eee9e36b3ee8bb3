package use_cases

import (
	"context"
	"testing"
	"time"

	"notifier/internal/application/entity"
	"notifier/pkg/config"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeService перехватывает только журнально-ориентированные вызовы UseCase.
type fakeService struct {
	appended []entity.LogEntry
}

func (s *fakeService) AppendLogEntry(_ context.Context, subjectID uuid.UUID, kind entity.LogKind, payload []byte) (*entity.LogEntry, error) {
	e := entity.LogEntry{
		ID:        int64(len(s.appended) + 1),
		SubjectID: subjectID,
		Kind:      kind,
		Payload:   payload,
	}
	s.appended = append(s.appended, e)
	return &e, nil
}

func (s *fakeService) FindUnprocessed(context.Context, int, string) ([]entity.LogEntry, error) {
	return nil, nil
}
func (s *fakeService) RunInAppConsumer(context.Context) error    { return nil }
func (s *fakeService) RunTelegramConsumer(context.Context) error { return nil }
func (s *fakeService) DeliverOutbox(context.Context) error       { return nil }
func (s *fakeService) SweepStranded(context.Context) error       { return nil }
func (s *fakeService) GetNotifications(context.Context, uuid.UUID, int) ([]*entity.Notification, error) {
	return nil, nil
}
func (s *fakeService) MarkNotificationRead(context.Context, int64, uuid.UUID) error { return nil }
func (s *fakeService) HealthCheck(context.Context) (bool, bool, error)              { return true, true, nil }

func newTestUseCase(s *fakeService) *UseCase {
	return NewUseCase(s, zap.NewNop().Sugar(), &config.Config{})
}

func TestConsumeDomainEventAppendsToLog(t *testing.T) {
	s := &fakeService{}
	u := newTestUseCase(s)

	subjectID := uuid.Must(uuid.NewV4())
	msg := []byte(`{"subjectId":"` + subjectID.String() + `","kind":"EVENT_CREATED","payload":{"a":1}}`)

	u.ConsumeDomainEvent(context.Background(), msg, time.Now())

	require.Len(t, s.appended, 1)
	assert.Equal(t, subjectID, s.appended[0].SubjectID)
	assert.Equal(t, entity.LogEventCreated, s.appended[0].Kind)
	assert.JSONEq(t, `{"a":1}`, string(s.appended[0].Payload))
}

func TestConsumeDomainEventSkipsPoisonMessages(t *testing.T) {
	cases := []struct {
		name string
		msg  string
	}{
		{"not json", `{{{`},
		{"bad subject id", `{"subjectId":"not-a-uuid","kind":"EVENT_CREATED"}`},
		{"missing kind", `{"subjectId":"` + uuid.Must(uuid.NewV4()).String() + `"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &fakeService{}
			u := newTestUseCase(s)

			u.ConsumeDomainEvent(context.Background(), []byte(tc.msg), time.Now())

			assert.Empty(t, s.appended, "poison message must be skipped, not appended")
		})
	}
}

func TestGetNotificationsLimit(t *testing.T) {
	s := &fakeService{}
	u := newTestUseCase(s)
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV4())

	_, err := u.GetNotifications(ctx, userID, 0)
	assert.NoError(t, err, "zero limit falls back to the default")

	_, err = u.GetNotifications(ctx, userID, 101)
	assert.Error(t, err)
}
