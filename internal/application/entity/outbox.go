package entity

import (
	"time"

	"github.com/gofrs/uuid"
)

// OutboxMessage - отложенное сообщение для Telegram. Пишется консьюмером,
// флаг processed выставляет только delivery-процессор. Необработанные строки
// доставляются, пока не выйдут за окно свежести; после этого sweep помечает
// их dead_lettered_at и публикует в DLQ-топик.
type OutboxMessage struct {
	ID             int64      `db:"id"`
	RecipientID    uuid.UUID  `db:"recipient_id"` // внутренний id пользователя
	Message        string     `db:"message"`      // полностью отрендеренный текст
	CreatedAt      time.Time  `db:"created_at"`
	Processed      bool       `db:"processed"`
	DeadLetteredAt *time.Time `db:"dead_lettered_at"`
}
