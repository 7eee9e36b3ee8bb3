package repo

import (
	"context"

	"go.uber.org/zap"
)

type Transactions interface {
	// CommitConsumerBatch выполняет запись sink-строк батча и продвижение
	// курсора в одной транзакции: либо всё, либо ничего.
	CommitConsumerBatch(ctx context.Context, consumerName string, lastEntryID int64, apply func(ctx context.Context) error) error
}

type TransactionsImpl struct {
	repo   *RepoImpl
	logger *zap.SugaredLogger
}

func NewTransactions(repo *RepoImpl, logger *zap.SugaredLogger) *TransactionsImpl {
	return &TransactionsImpl{repo: repo, logger: logger}
}

func (t *TransactionsImpl) CommitConsumerBatch(ctx context.Context, consumerName string, lastEntryID int64, apply func(ctx context.Context) error) error {
	err := t.repo.db.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := apply(txCtx); err != nil {
			return err
		}
		// курсор двигается в хвост батча, включая пропущенные записи
		return t.repo.AdvanceProgress(txCtx, consumerName, lastEntryID)
	})
	if err != nil {
		t.logger.Errorw("consumer batch rolled back", "consumer", consumerName, "lastEntryID", lastEntryID, "err", err)
		return err
	}
	return nil
}
