package entity

import (
	"encoding/json"
	"time"

	"github.com/gofrs/uuid"
)

// LogKind - тип доменного события в журнале. Закрытый набор,
// сторона записи логирует каждый факт ровно один раз.
type LogKind string

const (
	LogEventCreated      LogKind = "EVENT_CREATED"
	LogEventCanceled     LogKind = "EVENT_CANCELED"
	LogEventRegistered   LogKind = "EVENT_REGISTERED"
	LogEventUnregistered LogKind = "EVENT_UNREGISTERED"
	LogEventFinished     LogKind = "EVENT_FINISHED_FOR_REVIEW_LINK"
)

// LogEntry - запись журнала доменных событий. После вставки не изменяется,
// порядок id совпадает с порядком создания и используется курсорами консьюмеров.
type LogEntry struct {
	ID        int64           `db:"id"`
	SubjectID uuid.UUID       `db:"subject_id"` // id события-агрегата
	Kind      LogKind         `db:"kind"`
	Payload   json.RawMessage `db:"payload"` // зависит от kind, может быть пустым
	CreatedAt time.Time       `db:"created_at"`
}

// RegistrationPayload - payload для EVENT_REGISTERED / EVENT_UNREGISTERED.
type RegistrationPayload struct {
	UserID string `json:"userId"`
}

// FinishedPayload - payload для EVENT_FINISHED_FOR_REVIEW_LINK.
type FinishedPayload struct {
	SendDonationRequest bool   `json:"sendDonationRequest"`
	DonationInfo        string `json:"donationInfo"`
}
