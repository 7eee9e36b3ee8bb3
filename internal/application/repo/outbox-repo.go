package repo

import (
	"context"
	"fmt"
	"notifier/internal/application/common"
	"notifier/internal/application/entity"
	"time"
)

func (r *RepoImpl) InsertOutbox(ctx context.Context, m *entity.OutboxMessage) error {
	r.logger.Debugf("[recipient: %s] InsertOutbox started", m.RecipientID)

	err := r.db.QueryRow(ctx, insertOutboxMessage, m.RecipientID, m.Message).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}

	return nil
}

func (r *RepoImpl) FindPendingOutbox(ctx context.Context, limit int, freshness time.Duration) ([]entity.OutboxMessage, error) {
	r.logger.Debugf("[limit: %d, freshness: %s] FindPendingOutbox started", limit, freshness)

	rows, err := r.db.Query(ctx, findPendingOutbox, limit, common.PgInterval(freshness))
	if err != nil {
		return nil, fmt.Errorf("find pending outbox: %w", err)
	}
	defer rows.Close()

	var res []entity.OutboxMessage
	for rows.Next() {
		var m entity.OutboxMessage
		if err := rows.Scan(&m.ID, &m.RecipientID, &m.Message, &m.CreatedAt, &m.Processed, &m.DeadLetteredAt); err != nil {
			return nil, fmt.Errorf("scan pending outbox: %w", err)
		}
		res = append(res, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pending rows err: %w", err)
	}

	return res, nil
}

func (r *RepoImpl) MarkOutboxProcessed(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := r.db.Exec(ctx, markOutboxProcessed, ids)
	if err != nil {
		return fmt.Errorf("outbox mark processed: %w", err)
	}

	return nil
}

func (r *RepoImpl) SweepStrandedOutbox(ctx context.Context, window time.Duration) ([]entity.OutboxMessage, error) {
	rows, err := r.db.Query(ctx, sweepStrandedOutbox, common.PgInterval(window))
	if err != nil {
		return nil, fmt.Errorf("sweep stranded outbox: %w", err)
	}
	defer rows.Close()

	var res []entity.OutboxMessage
	for rows.Next() {
		var m entity.OutboxMessage
		if err := rows.Scan(&m.ID, &m.RecipientID, &m.Message, &m.CreatedAt, &m.Processed, &m.DeadLetteredAt); err != nil {
			return nil, fmt.Errorf("scan stranded outbox: %w", err)
		}
		res = append(res, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stranded rows err: %w", err)
	}

	return res, nil
}
