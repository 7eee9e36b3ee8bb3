package entity

import (
	"time"

	"github.com/gofrs/uuid"
)

// EventInfo - read-модель события-агрегата вместе с организатором.
// Таблицы events/users принадлежат стороне записи, здесь только чтение.
type EventInfo struct {
	ID           uuid.UUID `db:"id"`
	Name         string    `db:"name"`
	StartsAt     time.Time `db:"starts_at"`
	OrganizerID  uuid.UUID `db:"organizer_id"`
	SendPollLink bool      `db:"send_poll_link"`

	OrganizerFirstName string `db:"first_name"`
	OrganizerLastName  string `db:"last_name"`
	OrganizerUsername  string `db:"username"` // telegram handle, без @
}
