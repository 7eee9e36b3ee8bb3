package repo

import (
	"context"
	"errors"
	"fmt"
	"notifier/internal/appers"
	"notifier/internal/application/entity"
	"notifier/pkg/db"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type Repo interface {
	AppendLogEntry(ctx context.Context, subjectID uuid.UUID, kind entity.LogKind, payload []byte) (*entity.LogEntry, error)
	FindUnprocessedEntries(ctx context.Context, consumerName string, limit int) ([]entity.LogEntry, error)

	GetProgress(ctx context.Context, consumerName string) (*entity.ConsumerProgress, error)
	AdvanceProgress(ctx context.Context, consumerName string, lastEntryID int64) error

	GetEventInfo(ctx context.Context, id uuid.UUID) (*entity.EventInfo, error)
	GetParticipantIDs(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error)
	ResolveChatID(ctx context.Context, userID uuid.UUID) (int64, error)

	InsertNotification(ctx context.Context, n *entity.Notification) error
	GetNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64, userID uuid.UUID) error

	InsertOutbox(ctx context.Context, m *entity.OutboxMessage) error
	FindPendingOutbox(ctx context.Context, limit int, freshness time.Duration) ([]entity.OutboxMessage, error)
	MarkOutboxProcessed(ctx context.Context, ids []int64) error
	SweepStrandedOutbox(ctx context.Context, window time.Duration) ([]entity.OutboxMessage, error)

	HealthCheck(ctx context.Context) error
}

type RepoImpl struct {
	db     db.DB
	logger *zap.SugaredLogger
}

func NewRepo(db db.DB, logger *zap.SugaredLogger) *RepoImpl {
	return &RepoImpl{db: db, logger: logger}
}

func (r *RepoImpl) HealthCheck(ctx context.Context) error {
	// Проверяем доступность БД через простой запрос
	var result int
	err := r.db.QueryRow(ctx, "SELECT 1").Scan(&result)
	if err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

func (r *RepoImpl) AppendLogEntry(ctx context.Context, subjectID uuid.UUID, kind entity.LogKind, payload []byte) (*entity.LogEntry, error) {
	r.logger.Debugf("[subject: %s] start appending %s to event log", subjectID, kind)

	if len(payload) == 0 {
		payload = []byte("{}")
	}
	e := entity.LogEntry{SubjectID: subjectID, Kind: kind, Payload: payload}
	err := r.db.QueryRow(ctx, appendLogEntry, subjectID, string(kind), payload).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		r.logger.Errorf("[subject: %s] error appending to event log: %v", subjectID, err)
		return nil, fmt.Errorf("append log entry: %w", err)
	}

	r.logger.Debugf("[subject: %s] appended to event log as entry %d", subjectID, e.ID)
	return &e, nil
}

func (r *RepoImpl) FindUnprocessedEntries(ctx context.Context, consumerName string, limit int) ([]entity.LogEntry, error) {
	r.logger.Debugf("[consumer: %s] start fetching up to %d unprocessed entries", consumerName, limit)

	rows, err := r.db.Query(ctx, findUnprocessedEntries, consumerName, limit)
	if err != nil {
		return nil, fmt.Errorf("find unprocessed entries: %w", err)
	}
	defer rows.Close()

	entries := make([]entity.LogEntry, 0, limit)
	for rows.Next() {
		var e entity.LogEntry
		var kind string
		if err := rows.Scan(&e.ID, &e.SubjectID, &kind, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		e.Kind = entity.LogKind(kind)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unprocessed rows err: %w", err)
	}

	r.logger.Debugf("[consumer: %s] fetched %d unprocessed entries", consumerName, len(entries))
	return entries, nil
}

func (r *RepoImpl) GetProgress(ctx context.Context, consumerName string) (*entity.ConsumerProgress, error) {
	var p entity.ConsumerProgress
	err := r.db.QueryRow(ctx, getProgress, consumerName).
		Scan(&p.ID, &p.ConsumerName, &p.LastProcessedEntryID, &p.Version, &p.UpdatedAt)
	switch {
	case err == nil:
		return &p, nil
	case errors.Is(err, pgx.ErrNoRows):
		// консьюмер ещё ни разу не завершал батч
		return nil, nil
	default:
		return nil, fmt.Errorf("get progress: %w", err)
	}
}

// AdvanceProgress продвигает курсор консьюмера. Обновление идёт через CAS по
// version: конкурирующий апдейт или попытка отката курсора назад дают
// appers.ErrStorageConflict, и весь батч откатывается.
func (r *RepoImpl) AdvanceProgress(ctx context.Context, consumerName string, lastEntryID int64) error {
	r.logger.Debugf("[consumer: %s] advancing cursor to entry %d", consumerName, lastEntryID)

	p, err := r.GetProgress(ctx, consumerName)
	if err != nil {
		return err
	}

	if p == nil {
		var id int64
		err := r.db.QueryRow(ctx, insertProgress, consumerName, lastEntryID).Scan(&id)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, pgx.ErrNoRows):
			// кто-то успел вставить строку между чтением и вставкой
			r.logger.Warnf("[consumer: %s] progress row appeared concurrently", consumerName)
			return appers.ErrStorageConflict
		default:
			return fmt.Errorf("insert progress: %w", err)
		}
	}

	result, err := r.db.Exec(ctx, casProgress, consumerName, p.Version, lastEntryID)
	if err != nil {
		return fmt.Errorf("advance progress: %w", err)
	}
	if result.RowsAffected() == 0 {
		r.logger.Warnf("[consumer: %s] progress CAS lost: version=%d, cursor=%d -> %d",
			consumerName, p.Version, p.LastProcessedEntryID, lastEntryID)
		return appers.ErrStorageConflict
	}
	return nil
}

func (r *RepoImpl) GetEventInfo(ctx context.Context, id uuid.UUID) (*entity.EventInfo, error) {
	var e entity.EventInfo
	err := r.db.QueryRow(ctx, getEventInfo, id).Scan(
		&e.ID, &e.Name, &e.StartsAt, &e.OrganizerID, &e.SendPollLink,
		&e.OrganizerFirstName, &e.OrganizerLastName, &e.OrganizerUsername,
	)
	switch {
	case err == nil:
		return &e, nil
	case errors.Is(err, pgx.ErrNoRows):
		return nil, appers.ErrEventNotFound
	default:
		return nil, fmt.Errorf("get event info: %w", err)
	}
}

func (r *RepoImpl) GetParticipantIDs(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, getParticipantIDs, eventID)
	if err != nil {
		return nil, fmt.Errorf("get participants: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("participants rows err: %w", err)
	}
	return ids, nil
}

func (r *RepoImpl) ResolveChatID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var chatID int64
	err := r.db.QueryRow(ctx, getChatID, userID).Scan(&chatID)
	switch {
	case err == nil:
		return chatID, nil
	case errors.Is(err, pgx.ErrNoRows):
		return 0, appers.ErrUserNotFound
	default:
		return 0, fmt.Errorf("resolve chat id: %w", err)
	}
}

func (r *RepoImpl) InsertNotification(ctx context.Context, n *entity.Notification) error {
	r.logger.Debugf("[user: %s] inserting %s notification", n.UserID, n.Kind)

	err := r.db.QueryRow(ctx, insertNotification, n.UserID, string(n.Kind), []byte(n.Payload)).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *RepoImpl) GetNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.Notification, error) {
	rows, err := r.db.Query(ctx, getNotifications, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("get notifications: %w", err)
	}
	defer rows.Close()

	res := make([]*entity.Notification, 0)
	for rows.Next() {
		var n entity.Notification
		var kind string
		if err := rows.Scan(&n.ID, &n.UserID, &kind, &n.Payload, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Kind = entity.NotificationType(kind)
		res = append(res, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("notifications rows err: %w", err)
	}
	return res, nil
}

func (r *RepoImpl) MarkNotificationRead(ctx context.Context, id int64, userID uuid.UUID) error {
	result, err := r.db.Exec(ctx, markNotificationRead, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return appers.ErrNotificationNotFound
	}
	return nil
}
