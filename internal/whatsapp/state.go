package whatsapp

import (
	"errors"
	"strings"
	"time"
)

// ErrNotReady is returned when an action needs a ready client.
var ErrNotReady = errors.New("whatsapp client not ready")

type State string

const (
	StateDisconnected  State = "disconnected"
	StateQRPending     State = "qr_pending"
	StateAuthenticated State = "authenticated"
	StateReady         State = "ready"
)

type EventKind string

const (
	EventQR            EventKind = "qr"
	EventAuthenticated EventKind = "authenticated"
	EventAuthFailure   EventKind = "auth_failure"
	EventReady         EventKind = "ready"
	EventDisconnected  EventKind = "disconnected"
)

// Event is a lifecycle signal emitted by the automation client.
type Event struct {
	Kind EventKind
	// QR code payload for EventQR, reason for EventAuthFailure and
	// EventDisconnected.
	Payload string
}

type Transition struct {
	From  State     `json:"from"`
	To    State     `json:"to"`
	Event EventKind `json:"event"`
	// Reason carries the auth failure or disconnect reason.
	Reason string    `json:"reason,omitempty"`
	At     time.Time `json:"at"`
	// QR is the code payload on qr transitions. It never leaves the process.
	QR string `json:"-"`
}

// next returns the state reached from s on event kind, or false when the
// event does not apply in s.
func next(s State, kind EventKind) (State, bool) {
	switch kind {
	case EventQR:
		if s == StateDisconnected || s == StateQRPending {
			return StateQRPending, true
		}
	case EventAuthenticated:
		if s == StateDisconnected || s == StateQRPending {
			return StateAuthenticated, true
		}
	case EventReady:
		if s != StateReady {
			return StateReady, true
		}
	case EventAuthFailure, EventDisconnected:
		return StateDisconnected, true
	}
	return s, false
}

const chatSuffix = "@c.us"

// ChatID turns a phone number into a WhatsApp chat id. Ids that already
// carry the suffix pass through untouched.
func ChatID(phone string) string {
	if strings.Contains(phone, chatSuffix) {
		return phone
	}
	return phone + chatSuffix
}

// PhoneFromChatID strips the chat suffix.
func PhoneFromChatID(chatID string) string {
	return strings.TrimSuffix(chatID, chatSuffix)
}
