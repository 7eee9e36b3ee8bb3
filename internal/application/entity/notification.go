package entity

import (
	"encoding/json"
	"time"

	"github.com/gofrs/uuid"
)

// NotificationType - тип уведомления пользователю. Закрытый набор,
// форматирование текста делает exhaustive switch в service.Render.
type NotificationType string

const (
	NotificationEventCreated            NotificationType = "EVENT_CREATED"
	NotificationEventCancelled          NotificationType = "EVENT_CANCELLED"
	NotificationParticipantRegistered   NotificationType = "PARTICIPANT_REGISTERED"
	NotificationParticipantUnregistered NotificationType = "PARTICIPANT_UNREGISTERED"
	NotificationEventFinished           NotificationType = "EVENT_FINISHED"
)

// Notification - in-app уведомление (инбокс). Создаётся in-app консьюмером,
// дальше меняется только пользовательским mark-read.
type Notification struct {
	ID        int64            `db:"id" json:"id"`
	UserID    uuid.UUID        `db:"user_id" json:"userId"`
	Kind      NotificationType `db:"kind" json:"kind"`
	Payload   json.RawMessage  `db:"payload" json:"payload"`
	IsRead    bool             `db:"is_read" json:"isRead"`
	CreatedAt time.Time        `db:"created_at" json:"createdAt"`
}

// NotificationPayload - содержимое in-app уведомления.
type NotificationPayload struct {
	EventID   string `json:"eventId"`
	EventName string `json:"eventName"`
	EventDate string `json:"eventDate"`
}
