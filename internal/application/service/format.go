package service

import (
	"fmt"
	"notifier/internal/application/entity"
	"notifier/pkg/config"
	"strings"
	"time"
)

// Notice - уведомление до рендеринга: тип плюс контекст события.
// Один Notice рендерится в один текст, независимо от числа получателей.
type Notice struct {
	Type         entity.NotificationType
	Event        entity.EventInfo
	DonationInfo string // только для EVENT_FINISHED, пустая строка = без строки доната
	SendPollLink bool   // только для EVENT_FINISHED
}

// Render - чистое отображение Notice в текст сообщения.
// switch по типам закрытый: новый NotificationType без ветки здесь - ошибка компоновки текста.
func Render(n Notice, tg config.Telegram, loc *time.Location) string {
	date := n.Event.StartsAt.In(loc).Format("2006-01-02")
	contact := contactLine(n.Event)

	var lines []string

	switch n.Type {
	case entity.NotificationEventCancelled:
		lines = append(lines, fmt.Sprintf("%s cancelled event %s (%s)", organizerDisplay(n.Event), n.Event.Name, date))
		if contact != "" {
			lines = append(lines, contact)
		}

	case entity.NotificationParticipantRegistered:
		lines = append(lines, fmt.Sprintf("You registered for %s (%s)", n.Event.Name, date))
		// слот контакта присутствует всегда, даже пустой - поведение исходной
		// системы, сохраняем как есть (см. DESIGN.md)
		lines = append(lines, contact)

	case entity.NotificationParticipantUnregistered:
		lines = append(lines, fmt.Sprintf("You cancelled registration for %s (%s)", n.Event.Name, date))

	case entity.NotificationEventCreated:
		lines = append(lines, fmt.Sprintf("Event %s (%s) created", n.Event.Name, date))
		if contact != "" {
			lines = append(lines, contact)
		}
		lines = append(lines, "Registration link: "+buildLink(tg.RegistrationLinkTemplate, tg.BotName, n.Event.ID.String()))

	case entity.NotificationEventFinished:
		lines = append(lines, fmt.Sprintf("Event %s (%s) finished", n.Event.Name, date))
		if contact != "" {
			lines = append(lines, contact)
		}
		if strings.TrimSpace(n.DonationInfo) != "" {
			lines = append(lines, "Average donation: "+n.DonationInfo)
		}
		if n.SendPollLink {
			lines = append(lines, "Please rate the event: "+buildLink(tg.FeedbackLinkTemplate, tg.BotName, n.Event.ID.String()))
		}
	}

	return strings.Join(lines, "\n")
}

// contactLine строит строку контакта организатора:
// имя и хэндл -> "Organizer: Anna Smith @asmith"; только хэндл -> "Organizer: @asmith";
// только имя -> "Organizer: Anna Smith"; ничего -> пустая строка (вызывающий решает, печатать ли слот).
func contactLine(e entity.EventInfo) string {
	full := fullName(e)
	handle := strings.TrimSpace(e.OrganizerUsername)

	switch {
	case full != "" && handle != "":
		return fmt.Sprintf("Organizer: %s @%s", full, handle)
	case handle != "":
		return "Organizer: @" + handle
	case full != "":
		return "Organizer: " + full
	default:
		return ""
	}
}

func fullName(e entity.EventInfo) string {
	return strings.TrimSpace(strings.TrimSpace(e.OrganizerFirstName) + " " + strings.TrimSpace(e.OrganizerLastName))
}

func organizerDisplay(e entity.EventInfo) string {
	if full := fullName(e); full != "" {
		return full
	}
	if handle := strings.TrimSpace(e.OrganizerUsername); handle != "" {
		return "@" + handle
	}
	return "Organizer"
}

func buildLink(template, botName, eventID string) string {
	return strings.NewReplacer("{botName}", botName, "{eventId}", eventID).Replace(template)
}
