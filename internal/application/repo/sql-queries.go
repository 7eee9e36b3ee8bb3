package repo

// EVENT LOG
const appendLogEntry = `
INSERT INTO event_logs (subject_id, kind, payload, created_at)
VALUES ($1, $2, coalesce(($3)::jsonb, '{}'::jsonb), now())
RETURNING id, created_at`

// Записи строго после курсора консьюмера, в порядке журнала.
// Отсутствие строки прогресса трактуется как курсор 0 (с начала журнала).
const findUnprocessedEntries = `
SELECT l.id, l.subject_id, l.kind, l.payload, l.created_at
FROM event_logs l
LEFT JOIN notification_processor_progress p ON p.consumer_name = $1
WHERE l.id > coalesce(p.last_processed_entry_id, 0)
ORDER BY l.id
LIMIT $2`

// PROGRESS
const getProgress = `
SELECT id, consumer_name, last_processed_entry_id, version, updated_at
FROM notification_processor_progress
WHERE consumer_name = $1`

const insertProgress = `
INSERT INTO notification_processor_progress (consumer_name, last_processed_entry_id, version, updated_at)
VALUES ($1, $2, 1, now())
ON CONFLICT (consumer_name) DO NOTHING
RETURNING id`

// CAS по version; guard last_processed_entry_id <= $3 не даёт откатить курсор назад
const casProgress = `
UPDATE notification_processor_progress
SET last_processed_entry_id = $3, version = version + 1, updated_at = now()
WHERE consumer_name = $1 AND version = $2 AND last_processed_entry_id <= $3`

// READ SIDE
const getEventInfo = `
SELECT e.id, e.name, e.starts_at, e.organizer_id, e.send_poll_link,
       u.first_name, u.last_name, u.username
FROM events e
JOIN users u ON u.id = e.organizer_id
WHERE e.id = $1`

const getParticipantIDs = `
SELECT user_id FROM event_participants
WHERE event_id = $1
ORDER BY user_id`

const getChatID = `
SELECT chat_id FROM users WHERE id = $1 AND chat_id IS NOT NULL`

// NOTIFICATIONS
const insertNotification = `
INSERT INTO notifications (user_id, kind, payload, is_read, created_at)
VALUES ($1, $2, ($3)::jsonb, false, now())
RETURNING id`

const getNotifications = `
SELECT id, user_id, kind, payload, is_read, created_at
FROM notifications
WHERE user_id = $1
ORDER BY id DESC
LIMIT $2`

const markNotificationRead = `
UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2`

// OUTBOX
const insertOutboxMessage = `
INSERT INTO outbox_messages (recipient_id, message, created_at, processed)
VALUES ($1, $2, now(), false)
RETURNING id`

// Кандидаты на доставку: не обработаны, не в DLQ и не старше окна свежести.
// Порядок по id = oldest first.
const findPendingOutbox = `
SELECT id, recipient_id, message, created_at, processed, dead_lettered_at
FROM outbox_messages
WHERE processed = false
  AND dead_lettered_at IS NULL
  AND created_at > now() - ($2)::interval
ORDER BY id
LIMIT $1`

const markOutboxProcessed = `
UPDATE outbox_messages SET processed = true WHERE id = ANY($1)`

// Просроченные строки уходят в dead-letter и больше никогда не выбираются на доставку
const sweepStrandedOutbox = `
UPDATE outbox_messages
SET dead_lettered_at = now()
WHERE processed = false
  AND dead_lettered_at IS NULL
  AND created_at <= now() - ($1)::interval
RETURNING id, recipient_id, message, created_at, processed, dead_lettered_at`
