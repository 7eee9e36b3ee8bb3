package service

import (
	"context"
	"encoding/json"
	"errors"
	"notifier/internal/appers"
	"notifier/internal/application/entity"
	"time"
)

// DeliverOutbox - один проход delivery-процессора: выбрать свежие
// необработанные строки, попытаться доставить каждую, в конце одним апдейтом
// пометить доставленные. Ошибка доставки одной строки не мешает остальным и
// не трогает саму строку - она останется кандидатом, пока не выйдет за окно
// свежести. Падение между отправкой и пометкой даёт дубль при следующем
// проходе (at-least-once).
func (s *ServiceImpl) DeliverOutbox(ctx context.Context) error {
	pending, err := s.repo.FindPendingOutbox(ctx, s.conf.Outbox.BatchSize, s.conf.Outbox.FreshnessWindow)
	if err != nil {
		s.logger.Errorw("find pending outbox failed", "err", err)
		return err
	}
	if s.m != nil {
		s.m.Outbox.PendingBatchSize.Observe(float64(len(pending)))
	}
	if len(pending) == 0 {
		return nil
	}

	delivered := make([]int64, 0, len(pending))
	for _, msg := range pending {
		if err := ctx.Err(); err != nil {
			break
		}
		if s.deliverOne(ctx, msg) {
			delivered = append(delivered, msg.ID)
		}
	}

	if len(delivered) == 0 {
		return nil
	}
	if err := s.repo.MarkOutboxProcessed(ctx, delivered); err != nil {
		// сообщения уже ушли - повторно помечать будем на следующем проходе,
		// получатели могут увидеть дубль
		s.logger.Errorw("mark outbox processed failed", "ids", delivered, "err", err)
		return err
	}

	s.logger.Infof("[outbox] delivered %d of %d pending messages", len(delivered), len(pending))
	return nil
}

func (s *ServiceImpl) deliverOne(ctx context.Context, m entity.OutboxMessage) bool {
	chatID, err := s.repo.ResolveChatID(ctx, m.RecipientID)
	if errors.Is(err, appers.ErrUserNotFound) {
		s.logger.Warnf("[outbox: %d] recipient %s has no chat id, skipping", m.ID, m.RecipientID)
		s.deliveryResult("no_chat_id")
		return false
	}
	if err != nil {
		s.logger.Errorf("[outbox: %d] resolve chat id failed: %v", m.ID, err)
		s.deliveryResult("failed")
		return false
	}

	// одна попытка ограничена таймаутом, зависший транспорт не остановит проход
	sendCtx, cancel := context.WithTimeout(ctx, s.conf.Telegram.SendTimeout)
	t0 := time.Now()
	err = s.sender.SendMessage(sendCtx, chatID, m.Message)
	cancel()
	rt := time.Since(t0)

	if s.m != nil {
		res := "ok"
		if err != nil {
			res = "error"
		}
		s.m.Outbox.DeliveryAttemptLatencySeconds.WithLabelValues(res).Observe(rt.Seconds())
	}

	if err != nil {
		s.logger.Errorf("[outbox: %d] delivery failed, rt=%s err: %v", m.ID, rt, err)
		s.deliveryResult("failed")
		return false
	}

	s.logger.Debugf("[outbox: %d] delivered to chat %d, rt=%s", m.ID, chatID, rt)
	s.deliveryResult("success")
	return true
}

func (s *ServiceImpl) deliveryResult(result string) {
	if s.m != nil {
		s.m.Outbox.DeliveriesTotal.WithLabelValues(result).Inc()
	}
}

// deadLetter - payload сообщения DLQ-топика.
type deadLetter struct {
	OutboxID    int64     `json:"outboxId"`
	RecipientID string    `json:"recipientId"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SweepStranded помечает строки, пережившие окно свежести без доставки,
// и публикует их в DLQ-топик. Помеченная строка никогда больше не выбирается
// на доставку - потеря становится видимой вместо молчаливой.
func (s *ServiceImpl) SweepStranded(ctx context.Context) error {
	swept, err := s.repo.SweepStrandedOutbox(ctx, s.conf.Outbox.FreshnessWindow)
	if err != nil {
		s.logger.Errorw("sweep stranded outbox failed", "err", err)
		return err
	}
	if len(swept) == 0 {
		return nil
	}

	if s.m != nil {
		s.m.Outbox.StrandedTotal.Add(float64(len(swept)))
	}

	for _, m := range swept {
		payload, err := json.Marshal(deadLetter{
			OutboxID:    m.ID,
			RecipientID: m.RecipientID.String(),
			Message:     m.Message,
			CreatedAt:   m.CreatedAt,
		})
		if err != nil {
			s.logger.Errorf("[outbox: %d] marshal dead letter: %v", m.ID, err)
			continue
		}
		if err := s.dlq.ProduceMessage(ctx, m.ID, payload); err != nil {
			// строка уже в dead-letter, публикация повторяться не будет
			s.logger.Errorf("[outbox: %d] DLQ publish failed: %v", m.ID, err)
		}
	}

	s.logger.Warnf("[outbox] %d stranded messages dead-lettered", len(swept))
	return nil
}
