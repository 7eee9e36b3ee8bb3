package entity

import "time"

// Имена консьюмеров пайплайна. Одна строка прогресса на имя.
const (
	ConsumerInApp    = "in_app_notifications"
	ConsumerTelegram = "telegram_notifications"
)

// ConsumerProgress - durable-курсор консьюмера. Отсутствие строки означает
// "ещё не запускался, читать журнал с начала". Version используется для
// optimistic concurrency при продвижении курсора.
type ConsumerProgress struct {
	ID                   int64     `db:"id"`
	ConsumerName         string    `db:"consumer_name"`
	LastProcessedEntryID int64     `db:"last_processed_entry_id"`
	Version              int64     `db:"version"`
	UpdatedAt            time.Time `db:"updated_at"`
}
