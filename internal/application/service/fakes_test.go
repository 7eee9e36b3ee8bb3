package service

import (
	"context"
	"errors"
	"notifier/internal/appers"
	"notifier/internal/application/entity"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// fakeRepo - in-memory реализация repo.Repo для тестов пайплайна.
type fakeRepo struct {
	mu sync.Mutex

	entries      []entity.LogEntry
	progress     map[string]int64
	versions     map[string]int64
	events       map[uuid.UUID]*entity.EventInfo
	participants map[uuid.UUID][]uuid.UUID
	chatIDs      map[uuid.UUID]int64

	notifications []*entity.Notification
	outbox        []entity.OutboxMessage
	nextOutboxID  int64

	failAdvance  bool
	failInsert   bool
	advanceCalls int
	processedIDs []int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		progress:     make(map[string]int64),
		versions:     make(map[string]int64),
		events:       make(map[uuid.UUID]*entity.EventInfo),
		participants: make(map[uuid.UUID][]uuid.UUID),
		chatIDs:      make(map[uuid.UUID]int64),
		nextOutboxID: 1,
	}
}

func (f *fakeRepo) AppendLogEntry(_ context.Context, subjectID uuid.UUID, kind entity.LogKind, payload []byte) (*entity.LogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := entity.LogEntry{
		ID:        int64(len(f.entries) + 1),
		SubjectID: subjectID,
		Kind:      kind,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
	f.entries = append(f.entries, e)
	return &e, nil
}

func (f *fakeRepo) FindUnprocessedEntries(_ context.Context, consumerName string, limit int) ([]entity.LogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cursor := f.progress[consumerName]
	var res []entity.LogEntry
	for _, e := range f.entries {
		if e.ID > cursor {
			res = append(res, e)
		}
		if len(res) == limit {
			break
		}
	}
	return res, nil
}

func (f *fakeRepo) GetProgress(_ context.Context, consumerName string) (*entity.ConsumerProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.versions[consumerName]
	if !ok {
		return nil, nil
	}
	return &entity.ConsumerProgress{
		ConsumerName:         consumerName,
		LastProcessedEntryID: f.progress[consumerName],
		Version:              v,
	}, nil
}

func (f *fakeRepo) AdvanceProgress(_ context.Context, consumerName string, lastEntryID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advanceCalls++
	if f.failAdvance {
		return appers.ErrStorageConflict
	}
	if cur, ok := f.progress[consumerName]; ok && cur > lastEntryID {
		return appers.ErrStorageConflict
	}
	f.progress[consumerName] = lastEntryID
	f.versions[consumerName]++
	return nil
}

func (f *fakeRepo) GetEventInfo(_ context.Context, id uuid.UUID) (*entity.EventInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.events[id]
	if !ok {
		return nil, appers.ErrEventNotFound
	}
	cp := *info
	return &cp, nil
}

func (f *fakeRepo) GetParticipantIDs(_ context.Context, eventID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.participants[eventID], nil
}

func (f *fakeRepo) ResolveChatID(_ context.Context, userID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	chatID, ok := f.chatIDs[userID]
	if !ok {
		return 0, appers.ErrUserNotFound
	}
	return chatID, nil
}

func (f *fakeRepo) InsertNotification(_ context.Context, n *entity.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsert {
		return errors.New("insert failed")
	}
	n.ID = int64(len(f.notifications) + 1)
	f.notifications = append(f.notifications, n)
	return nil
}

func (f *fakeRepo) GetNotifications(_ context.Context, userID uuid.UUID, limit int) ([]*entity.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []*entity.Notification
	for i := len(f.notifications) - 1; i >= 0 && len(res) < limit; i-- {
		if f.notifications[i].UserID == userID {
			res = append(res, f.notifications[i])
		}
	}
	return res, nil
}

func (f *fakeRepo) MarkNotificationRead(_ context.Context, id int64, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notifications {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return appers.ErrNotificationNotFound
}

func (f *fakeRepo) InsertOutbox(_ context.Context, m *entity.OutboxMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsert {
		return errors.New("insert failed")
	}
	m.ID = f.nextOutboxID
	f.nextOutboxID++
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	f.outbox = append(f.outbox, *m)
	return nil
}

func (f *fakeRepo) FindPendingOutbox(_ context.Context, limit int, freshness time.Duration) ([]entity.OutboxMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cutoff := time.Now().Add(-freshness)
	var res []entity.OutboxMessage
	for _, m := range f.outbox {
		if !m.Processed && m.DeadLetteredAt == nil && m.CreatedAt.After(cutoff) {
			res = append(res, m)
		}
		if len(res) == limit {
			break
		}
	}
	return res, nil
}

func (f *fakeRepo) MarkOutboxProcessed(_ context.Context, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processedIDs = append(f.processedIDs, ids...)
	for _, id := range ids {
		for i := range f.outbox {
			if f.outbox[i].ID == id {
				f.outbox[i].Processed = true
			}
		}
	}
	return nil
}

func (f *fakeRepo) SweepStrandedOutbox(_ context.Context, window time.Duration) ([]entity.OutboxMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cutoff := time.Now().Add(-window)
	var res []entity.OutboxMessage
	for i := range f.outbox {
		m := &f.outbox[i]
		if !m.Processed && m.DeadLetteredAt == nil && !m.CreatedAt.After(cutoff) {
			now := time.Now()
			m.DeadLetteredAt = &now
			res = append(res, *m)
		}
	}
	return res, nil
}

func (f *fakeRepo) HealthCheck(context.Context) error { return nil }

// fakeTx повторяет семантику CommitConsumerBatch: откат sink-записей при
// ошибке apply или продвижения курсора.
type fakeTx struct {
	repo *fakeRepo
}

func (t *fakeTx) CommitConsumerBatch(ctx context.Context, consumerName string, lastEntryID int64, apply func(ctx context.Context) error) error {
	t.repo.mu.Lock()
	notifLen := len(t.repo.notifications)
	outboxLen := len(t.repo.outbox)
	t.repo.mu.Unlock()

	rollback := func() {
		t.repo.mu.Lock()
		t.repo.notifications = t.repo.notifications[:notifLen]
		t.repo.outbox = t.repo.outbox[:outboxLen]
		t.repo.mu.Unlock()
	}

	if err := apply(ctx); err != nil {
		rollback()
		return err
	}
	if err := t.repo.AdvanceProgress(ctx, consumerName, lastEntryID); err != nil {
		rollback()
		return err
	}
	return nil
}

// fakeSender запоминает отправки и падает для заданных chat id.
type fakeSender struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[int64]bool
}

type sentMessage struct {
	ChatID int64
	Text   string
}

func newFakeSender() *fakeSender {
	return &fakeSender{failFor: make(map[int64]bool)}
}

func (s *fakeSender) SendMessage(_ context.Context, chatID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor[chatID] {
		return errors.New("transport failure")
	}
	s.sent = append(s.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

// fakeDLQ запоминает опубликованные dead-letter сообщения.
type fakeDLQ struct {
	mu       sync.Mutex
	messages map[int64][]byte
}

func newFakeDLQ() *fakeDLQ {
	return &fakeDLQ{messages: make(map[int64][]byte)}
}

func (d *fakeDLQ) ProduceMessage(_ context.Context, id int64, message []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages[id] = message
	return nil
}

func (d *fakeDLQ) HealthCheck(context.Context) error { return nil }
