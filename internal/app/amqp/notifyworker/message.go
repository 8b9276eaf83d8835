package notifyworker

import (
	"time"

	"whatsapp-notifier/internal/notify"
)

const EventName = "whatsapp/notification.requested"

type NotificationRequestedEnvelope struct {
	EventName string         `json:"event_name"`
	EventID   string         `json:"event_id"`
	TS        time.Time      `json:"ts"`
	Data      notify.Request `json:"data"`
}
