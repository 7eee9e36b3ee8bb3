package service

import (
	"context"
	"encoding/json"
	"errors"
	"notifier/internal/appers"
	"notifier/internal/application/entity"
	"notifier/internal/application/repo"
	"notifier/pkg/config"
	"notifier/pkg/metrics"
	"time"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

// EventLog - валидированное чтение журнала, реализуется ServiceImpl.
type EventLog interface {
	FindUnprocessed(ctx context.Context, limit int, consumerName string) ([]entity.LogEntry, error)
}

// Sink - приёмник уведомлений батча: строка инбокса или строка outbox.
// Вызывается внутри транзакции батча, ошибка записи откатывает весь батч.
type Sink interface {
	Write(ctx context.Context, recipientID uuid.UUID, n Notice) error
}

// Consumer - один проход по журналу доменных событий. Два экземпляра
// (in-app и telegram) различаются только именем и sink-ом; каждый ведёт
// собственный курсор и не зависит от продвижения соседа.
type Consumer struct {
	name      string
	batchSize int
	log       EventLog
	repo      repo.Repo
	tx        repo.Transactions
	sink      Sink
	logger    *zap.SugaredLogger
	m         *metrics.Metrics
}

func NewConsumer(
	name string,
	batchSize int,
	log EventLog,
	repo repo.Repo,
	tx repo.Transactions,
	sink Sink,
	logger *zap.SugaredLogger,
	m *metrics.Metrics) *Consumer {

	if batchSize < 1 {
		batchSize = 100
	}

	return &Consumer{
		name:      name,
		batchSize: batchSize,
		log:       log,
		repo:      repo,
		tx:        tx,
		sink:      sink,
		logger:    logger,
		m:         m,
	}
}

// Run выполняет один батч: fetch -> sink-записи -> продвижение курсора.
// Записи с пропавшим агрегатом или неизвестным kind пропускаются, курсор
// всё равно двигается в хвост батча: иначе одна битая запись заблокирует
// консьюмер навсегда. Любая ошибка хранилища откатывает батч целиком,
// следующий тик повторит с того же курсора.
func (c *Consumer) Run(ctx context.Context) error {
	start := time.Now()

	entries, err := c.log.FindUnprocessed(ctx, c.batchSize, c.name)
	if err != nil {
		c.runResult("error")
		return err
	}
	if c.m != nil {
		c.m.Pipeline.ConsumerBatchSize.WithLabelValues(c.name).Observe(float64(len(entries)))
	}
	if len(entries) == 0 {
		c.runResult("empty")
		return nil
	}

	lastEntryID := entries[len(entries)-1].ID

	err = c.tx.CommitConsumerBatch(ctx, c.name, lastEntryID, func(txCtx context.Context) error {
		for _, e := range entries {
			if err := c.processEntry(txCtx, e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.runResult("error")
		return err
	}

	c.runResult("ok")
	if c.m != nil {
		c.m.Pipeline.ConsumerRunDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())
	}
	c.logger.Infof("[consumer: %s] batch done: %d entries, cursor -> %d", c.name, len(entries), lastEntryID)
	return nil
}

func (c *Consumer) processEntry(ctx context.Context, e entity.LogEntry) error {
	nt, ok := notificationTypeFor(e.Kind)
	if !ok {
		// kind без уведомления, запись молча пропускается
		c.logger.Debugf("[consumer: %s] entry %d: kind %s is not mapped, skipping", c.name, e.ID, e.Kind)
		c.skipReason("unmapped_kind")
		return nil
	}

	info, err := c.repo.GetEventInfo(ctx, e.SubjectID)
	if errors.Is(err, appers.ErrEventNotFound) {
		c.logger.Warnf("[consumer: %s] entry %d: event %s is gone, skipping", c.name, e.ID, e.SubjectID)
		c.skipReason("missing_aggregate")
		return nil
	}
	if err != nil {
		return err
	}

	notice := Notice{Type: nt, Event: *info}
	if e.Kind == entity.LogEventFinished {
		var p entity.FinishedPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			c.logger.Warnf("[consumer: %s] entry %d: bad finished payload: %v", c.name, e.ID, err)
		}
		if p.SendDonationRequest {
			notice.DonationInfo = p.DonationInfo
		}
		notice.SendPollLink = info.SendPollLink
	}

	recipients, err := c.recipients(ctx, e, info)
	if err != nil {
		return err
	}

	for _, recipientID := range recipients {
		if err := c.sink.Write(ctx, recipientID, notice); err != nil {
			return err
		}
	}
	return nil
}

func (c *Consumer) recipients(ctx context.Context, e entity.LogEntry, info *entity.EventInfo) ([]uuid.UUID, error) {
	switch e.Kind {
	case entity.LogEventCreated:
		return []uuid.UUID{info.OrganizerID}, nil

	case entity.LogEventCanceled, entity.LogEventFinished:
		return c.repo.GetParticipantIDs(ctx, e.SubjectID)

	case entity.LogEventRegistered, entity.LogEventUnregistered:
		var p entity.RegistrationPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			c.logger.Warnf("[consumer: %s] entry %d: bad registration payload: %v", c.name, e.ID, err)
			c.skipReason("bad_payload")
			return nil, nil
		}
		userID, err := uuid.FromString(p.UserID)
		if err != nil {
			c.logger.Warnf("[consumer: %s] entry %d: bad userId %q: %v", c.name, e.ID, p.UserID, err)
			c.skipReason("bad_payload")
			return nil, nil
		}
		return []uuid.UUID{userID}, nil

	default:
		return nil, nil
	}
}

func (c *Consumer) runResult(result string) {
	if c.m != nil {
		c.m.Pipeline.ConsumerRunsTotal.WithLabelValues(c.name, result).Inc()
	}
}

func (c *Consumer) skipReason(reason string) {
	if c.m != nil {
		c.m.Pipeline.ConsumerEntriesSkipped.WithLabelValues(c.name, reason).Inc()
	}
}

// notificationTypeFor - закрытое отображение kind журнала в тип уведомления.
// Kind без пары не уведомляет никого, но курсор всё равно проходит мимо него.
func notificationTypeFor(k entity.LogKind) (entity.NotificationType, bool) {
	switch k {
	case entity.LogEventCreated:
		return entity.NotificationEventCreated, true
	case entity.LogEventCanceled:
		return entity.NotificationEventCancelled, true
	case entity.LogEventRegistered:
		return entity.NotificationParticipantRegistered, true
	case entity.LogEventUnregistered:
		return entity.NotificationParticipantUnregistered, true
	case entity.LogEventFinished:
		return entity.NotificationEventFinished, true
	default:
		return "", false
	}
}

// ===== Sinks =====

// InAppSink пишет строку инбокса на каждого получателя.
type InAppSink struct {
	repo   repo.Repo
	loc    *time.Location
	logger *zap.SugaredLogger
}

func NewInAppSink(repo repo.Repo, loc *time.Location, logger *zap.SugaredLogger) *InAppSink {
	return &InAppSink{repo: repo, loc: loc, logger: logger}
}

func (s *InAppSink) Write(ctx context.Context, recipientID uuid.UUID, n Notice) error {
	payload, err := json.Marshal(entity.NotificationPayload{
		EventID:   n.Event.ID.String(),
		EventName: n.Event.Name,
		EventDate: n.Event.StartsAt.In(s.loc).Format("2006-01-02"),
	})
	if err != nil {
		return err
	}

	return s.repo.InsertNotification(ctx, &entity.Notification{
		UserID:  recipientID,
		Kind:    n.Type,
		Payload: payload,
	})
}

// TelegramSink рендерит текст и кладёт строку в outbox; доставкой занимается
// отдельный процессор.
type TelegramSink struct {
	repo   repo.Repo
	tg     config.Telegram
	loc    *time.Location
	logger *zap.SugaredLogger
}

func NewTelegramSink(repo repo.Repo, tg config.Telegram, loc *time.Location, logger *zap.SugaredLogger) *TelegramSink {
	return &TelegramSink{repo: repo, tg: tg, loc: loc, logger: logger}
}

func (s *TelegramSink) Write(ctx context.Context, recipientID uuid.UUID, n Notice) error {
	return s.repo.InsertOutbox(ctx, &entity.OutboxMessage{
		RecipientID: recipientID,
		Message:     Render(n, s.tg, s.loc),
	})
}
