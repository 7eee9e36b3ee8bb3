package use_cases

import (
	"context"
	"encoding/json"
	"fmt"
	"notifier/internal/application/entity"
	"notifier/internal/application/service"
	"notifier/pkg/config"
	"time"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

type UseCaser interface {
	AppendLogEntry(ctx context.Context, subjectID uuid.UUID, kind entity.LogKind, payload []byte) error
	ConsumeDomainEvent(ctx context.Context, msg []byte, msgTime time.Time)

	RunInAppConsumer(ctx context.Context) error
	RunTelegramConsumer(ctx context.Context) error
	DeliverOutbox(ctx context.Context) error
	SweepStranded(ctx context.Context) error

	GetNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64, userID uuid.UUID) error

	HealthCheck(ctx context.Context) (dbHealthy bool, kafkaHealthy bool, err error)
}

type UseCase struct {
	service service.Service
	logger  *zap.SugaredLogger
	conf    *config.Config
}

func NewUseCase(service service.Service, logger *zap.SugaredLogger, conf *config.Config) *UseCase {
	return &UseCase{
		service: service,
		logger:  logger,
		conf:    conf,
	}
}

func (u *UseCase) HealthCheck(ctx context.Context) (dbHealthy bool, kafkaHealthy bool, err error) {
	return u.service.HealthCheck(ctx)
}

func (u *UseCase) AppendLogEntry(ctx context.Context, subjectID uuid.UUID, kind entity.LogKind, payload []byte) error {
	u.logger.Debugf("[subject: %s] AppendLogEntry started, kind: %s", subjectID, kind)
	_, err := u.service.AppendLogEntry(ctx, subjectID, kind, payload)
	return err
}

// domainEventEnvelope - формат сообщения стороны записи в Kafka-топике.
type domainEventEnvelope struct {
	SubjectID string          `json:"subjectId"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
}

// ConsumeDomainEvent принимает доменное событие из Kafka и дописывает его в
// журнал. Битое сообщение логируется и пропускается: poison message не должен
// заклинить consumer group.
func (u *UseCase) ConsumeDomainEvent(ctx context.Context, msg []byte, msgTime time.Time) {
	var env domainEventEnvelope
	if err := json.Unmarshal(msg, &env); err != nil {
		u.logger.Errorf("malformed domain event (time: %v): %v", msgTime, err)
		return
	}

	subjectID, err := uuid.FromString(env.SubjectID)
	if err != nil {
		u.logger.Errorf("domain event with bad subjectId %q: %v", env.SubjectID, err)
		return
	}
	if env.Kind == "" {
		u.logger.Errorf("[subject: %s] domain event without kind", subjectID)
		return
	}

	if err := u.AppendLogEntry(ctx, subjectID, entity.LogKind(env.Kind), env.Payload); err != nil {
		u.logger.Errorf("[subject: %s] append from kafka failed: %v", subjectID, err)
	}
}

func (u *UseCase) RunInAppConsumer(ctx context.Context) error {
	u.logger.Debugf("[consumer: %s] run started", entity.ConsumerInApp)
	return u.service.RunInAppConsumer(ctx)
}

func (u *UseCase) RunTelegramConsumer(ctx context.Context) error {
	u.logger.Debugf("[consumer: %s] run started", entity.ConsumerTelegram)
	return u.service.RunTelegramConsumer(ctx)
}

func (u *UseCase) DeliverOutbox(ctx context.Context) error {
	u.logger.Debug("DeliverOutbox started")
	return u.service.DeliverOutbox(ctx)
}

func (u *UseCase) SweepStranded(ctx context.Context) error {
	u.logger.Debug("SweepStranded started")
	return u.service.SweepStranded(ctx)
}

func (u *UseCase) GetNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.Notification, error) {
	u.logger.Debugf("[user: %s] GetNotifications started", userID)
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		return nil, fmt.Errorf("limit must not exceed 100, got %d", limit)
	}
	return u.service.GetNotifications(ctx, userID, limit)
}

func (u *UseCase) MarkNotificationRead(ctx context.Context, id int64, userID uuid.UUID) error {
	u.logger.Debugf("[user: %s] MarkNotificationRead started, id: %d", userID, id)
	return u.service.MarkNotificationRead(ctx, id, userID)
}
