package service

import (
	"notifier/internal/application/entity"
	"notifier/pkg/config"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTelegramConf = config.Telegram{
	BotName:                  "mybot",
	RegistrationLinkTemplate: "https://t.me/{botName}?start=reg_{eventId}",
	FeedbackLinkTemplate:     "https://t.me/{botName}?start=poll_{eventId}",
}

func testEvent(first, last, handle string) entity.EventInfo {
	return entity.EventInfo{
		ID:                 uuid.FromStringOrNil("d9428888-122b-11e1-b85c-61cd3cbb3210"),
		Name:               "Meetup",
		StartsAt:           time.Date(2024, 1, 15, 18, 30, 0, 0, time.UTC),
		OrganizerFirstName: first,
		OrganizerLastName:  last,
		OrganizerUsername:  handle,
	}
}

func TestRenderEventCancelled(t *testing.T) {
	tests := []struct {
		name string
		req  entity.EventInfo
		want string
	}{
		{
			name: "full name and handle",
			req:  testEvent("Anna", "Smith", "asmith"),
			want: "Anna Smith cancelled event Meetup (2024-01-15)\nOrganizer: Anna Smith @asmith",
		},
		{
			name: "handle only",
			req:  testEvent("", "", "asmith"),
			want: "@asmith cancelled event Meetup (2024-01-15)\nOrganizer: @asmith",
		},
		{
			name: "name only",
			req:  testEvent("Anna", "Smith", ""),
			want: "Anna Smith cancelled event Meetup (2024-01-15)\nOrganizer: Anna Smith",
		},
		{
			name: "no name no handle omits contact line entirely",
			req:  testEvent("", "", ""),
			want: "Organizer cancelled event Meetup (2024-01-15)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(Notice{Type: entity.NotificationEventCancelled, Event: tt.req}, testTelegramConf, time.UTC)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderParticipantRegistered(t *testing.T) {
	t.Run("contact line present", func(t *testing.T) {
		got := Render(Notice{Type: entity.NotificationParticipantRegistered, Event: testEvent("Anna", "Smith", "asmith")}, testTelegramConf, time.UTC)
		assert.Equal(t, "You registered for Meetup (2024-01-15)\nOrganizer: Anna Smith @asmith", got)
	})

	// Слот контакта существует всегда, даже пустой: получается висящая
	// пустая строка. Поведение исходной системы, сохранено намеренно.
	t.Run("contact slot rendered even when empty", func(t *testing.T) {
		got := Render(Notice{Type: entity.NotificationParticipantRegistered, Event: testEvent("", "", "")}, testTelegramConf, time.UTC)
		assert.Equal(t, "You registered for Meetup (2024-01-15)\n", got)
	})
}

func TestRenderParticipantUnregistered(t *testing.T) {
	got := Render(Notice{Type: entity.NotificationParticipantUnregistered, Event: testEvent("Anna", "Smith", "asmith")}, testTelegramConf, time.UTC)
	assert.Equal(t, "You cancelled registration for Meetup (2024-01-15)", got)
}

func TestRenderEventCreated(t *testing.T) {
	evt := testEvent("Anna", "Smith", "asmith")
	evt.ID = uuid.FromStringOrNil("00000000-0000-0000-0000-00000000abcd")

	got := Render(Notice{Type: entity.NotificationEventCreated, Event: evt}, testTelegramConf, time.UTC)

	require.Contains(t, got, "https://t.me/mybot?start=reg_00000000-0000-0000-0000-00000000abcd")
	assert.NotContains(t, got, "{botName}")
	assert.NotContains(t, got, "{eventId}")
	assert.Contains(t, got, "Organizer: Anna Smith @asmith")

	lines := strings.Split(got, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Event Meetup (2024-01-15) created", lines[0])
}

func TestRenderEventFinished(t *testing.T) {
	t.Run("blank donation info produces no donation line", func(t *testing.T) {
		got := Render(Notice{Type: entity.NotificationEventFinished, Event: testEvent("Anna", "Smith", "asmith")}, testTelegramConf, time.UTC)
		assert.Equal(t, "Event Meetup (2024-01-15) finished\nOrganizer: Anna Smith @asmith", got)
	})

	t.Run("donation line follows contact line", func(t *testing.T) {
		got := Render(Notice{
			Type:         entity.NotificationEventFinished,
			Event:        testEvent("Anna", "Smith", "asmith"),
			DonationInfo: "150",
		}, testTelegramConf, time.UTC)

		lines := strings.Split(got, "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "Organizer: Anna Smith @asmith", lines[1])
		assert.Contains(t, lines[2], "150")
	})

	t.Run("poll link appended after all other content", func(t *testing.T) {
		got := Render(Notice{
			Type:         entity.NotificationEventFinished,
			Event:        testEvent("Anna", "Smith", "asmith"),
			DonationInfo: "150",
			SendPollLink: true,
		}, testTelegramConf, time.UTC)

		lines := strings.Split(got, "\n")
		require.Len(t, lines, 4)
		assert.Contains(t, lines[3], "https://t.me/mybot?start=poll_")
	})
}

func TestRenderDateUsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	evt := testEvent("", "", "")
	// 23:30 UTC 14-го = 02:30 15-го по Москве
	evt.StartsAt = time.Date(2024, 1, 14, 23, 30, 0, 0, time.UTC)

	got := Render(Notice{Type: entity.NotificationParticipantUnregistered, Event: evt}, testTelegramConf, loc)
	assert.Contains(t, got, "(2024-01-15)")
}
