package service

import (
	"context"
	"fmt"
	"notifier/internal/appers"
	"notifier/internal/application/entity"
	"notifier/internal/application/repo"
	"notifier/internal/transport/producer"
	"notifier/pkg/config"
	"notifier/pkg/metrics"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

const maxFindLimit = 1000

// Sender - внешний транспорт доставки (Telegram Bot API).
// Любая ошибка трактуется как transient: строка outbox остаётся необработанной.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type Service interface {
	AppendLogEntry(ctx context.Context, subjectID uuid.UUID, kind entity.LogKind, payload []byte) (*entity.LogEntry, error)
	FindUnprocessed(ctx context.Context, limit int, consumerName string) ([]entity.LogEntry, error)

	RunInAppConsumer(ctx context.Context) error
	RunTelegramConsumer(ctx context.Context) error
	DeliverOutbox(ctx context.Context) error
	SweepStranded(ctx context.Context) error

	GetNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64, userID uuid.UUID) error

	HealthCheck(ctx context.Context) (dbHealthy bool, kafkaHealthy bool, err error)
}

type ServiceImpl struct {
	repo     repo.Repo
	tx       repo.Transactions
	sender   Sender
	dlq      producer.Producer
	logger   *zap.SugaredLogger
	conf     *config.Config
	loc      *time.Location
	m        *metrics.Metrics
	inApp    *Consumer
	telegram *Consumer
}

func NewService(
	repo repo.Repo,
	tx repo.Transactions,
	sender Sender,
	dlq producer.Producer,
	logger *zap.SugaredLogger,
	conf *config.Config,
	m *metrics.Metrics) *ServiceImpl {

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		logger.Warnf("неизвестная таймзона %q, используется UTC", conf.Timezone)
		loc = time.UTC
	}

	s := &ServiceImpl{
		repo:   repo,
		tx:     tx,
		sender: sender,
		dlq:    dlq,
		logger: logger,
		conf:   conf,
		loc:    loc,
		m:      m,
	}

	s.inApp = NewConsumer(entity.ConsumerInApp, conf.Pipeline.BatchSize, s, repo, tx,
		NewInAppSink(repo, loc, logger), logger, m)
	s.telegram = NewConsumer(entity.ConsumerTelegram, conf.Pipeline.BatchSize, s, repo, tx,
		NewTelegramSink(repo, conf.Telegram, loc, logger), logger, m)

	return s
}

// HealthCheck проверяет доступность БД и Kafka
func (s *ServiceImpl) HealthCheck(ctx context.Context) (dbHealthy bool, kafkaHealthy bool, err error) {
	dbErr := s.repo.HealthCheck(ctx)
	dbHealthy = dbErr == nil

	kafkaErr := s.dlq.HealthCheck(ctx)
	kafkaHealthy = kafkaErr == nil

	// Возвращаем ошибку только если обе проверки провалились
	if !dbHealthy && !kafkaHealthy {
		return dbHealthy, kafkaHealthy, fmt.Errorf("database: %v, kafka: %v", dbErr, kafkaErr)
	}

	return dbHealthy, kafkaHealthy, nil
}

func (s *ServiceImpl) AppendLogEntry(ctx context.Context, subjectID uuid.UUID, kind entity.LogKind, payload []byte) (*entity.LogEntry, error) {
	s.logger.Debugf("[subject: %s] AppendLogEntry started, kind: %s", subjectID, kind)

	return s.repo.AppendLogEntry(ctx, subjectID, kind, payload)
}

// FindUnprocessed возвращает до limit записей журнала строго после курсора
// consumerName, в порядке журнала. Повторный вызов без продвижения курсора
// возвращает те же записи.
func (s *ServiceImpl) FindUnprocessed(ctx context.Context, limit int, consumerName string) ([]entity.LogEntry, error) {
	if limit < 1 || limit > maxFindLimit {
		return nil, fmt.Errorf("%w: limit must be in [1, %d], got %d", appers.ErrInvalidArgument, maxFindLimit, limit)
	}
	if strings.TrimSpace(consumerName) == "" {
		return nil, fmt.Errorf("%w: consumer name must not be blank", appers.ErrInvalidArgument)
	}

	return s.repo.FindUnprocessedEntries(ctx, consumerName, limit)
}

func (s *ServiceImpl) RunInAppConsumer(ctx context.Context) error {
	return s.inApp.Run(ctx)
}

func (s *ServiceImpl) RunTelegramConsumer(ctx context.Context) error {
	return s.telegram.Run(ctx)
}

func (s *ServiceImpl) GetNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.Notification, error) {
	s.logger.Debugf("[user: %s] GetNotifications started, limit: %d", userID, limit)

	return s.repo.GetNotifications(ctx, userID, limit)
}

func (s *ServiceImpl) MarkNotificationRead(ctx context.Context, id int64, userID uuid.UUID) error {
	s.logger.Debugf("[user: %s] MarkNotificationRead started, id: %d", userID, id)

	return s.repo.MarkNotificationRead(ctx, id, userID)
}
