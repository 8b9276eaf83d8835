package whatsapp

import "time"

// snapshot is one poll of the WhatsApp Web page.
type snapshot struct {
	QR    string
	Chats bool
}

// detector turns page snapshots into lifecycle events.
type detector struct {
	readyTimeout time.Duration

	lastQR    string
	authed    bool
	ready     bool
	authedAt  time.Time
	chatsLost time.Time
}

func newDetector(readyTimeout time.Duration) *detector {
	if readyTimeout <= 0 {
		readyTimeout = 45 * time.Second
	}
	return &detector{readyTimeout: readyTimeout}
}

func (d *detector) observe(s snapshot, now time.Time) []Event {
	var out []Event

	switch {
	case s.Chats:
		d.chatsLost = time.Time{}
		if d.ready {
			return nil
		}
		if !d.authed {
			out = append(out, Event{Kind: EventAuthenticated})
		}
		d.authed, d.ready, d.lastQR = true, true, ""
		out = append(out, Event{Kind: EventReady})

	case s.QR != "":
		if d.ready || d.authed {
			out = append(out, Event{Kind: EventDisconnected, Payload: "logged out"})
			d.ready, d.authed = false, false
		}
		if s.QR != d.lastQR {
			d.lastQR = s.QR
			out = append(out, Event{Kind: EventQR, Payload: s.QR})
		}

	default:
		// Neither QR nor chat list: the app is loading.
		switch {
		case d.ready:
			if d.chatsLost.IsZero() {
				d.chatsLost = now
			} else if now.Sub(d.chatsLost) >= d.readyTimeout {
				d.ready, d.authed, d.chatsLost = false, false, time.Time{}
				out = append(out, Event{Kind: EventDisconnected, Payload: "chat list unavailable"})
			}
		case d.lastQR != "" && !d.authed:
			// QR vanished without chats: the scan was accepted.
			d.authed, d.authedAt, d.lastQR = true, now, ""
			out = append(out, Event{Kind: EventAuthenticated})
		case d.authed && !d.authedAt.IsZero() && now.Sub(d.authedAt) >= d.readyTimeout:
			d.authed, d.authedAt = false, time.Time{}
			out = append(out, Event{Kind: EventAuthFailure, Payload: "timed out waiting for chats after authentication"})
		}
	}
	return out
}
