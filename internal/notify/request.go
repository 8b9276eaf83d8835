package notify

import "time"

// Request is a templated notification as accepted over HTTP, AMQP and
// Inngest.
type Request struct {
	Phone string `json:"phone" validate:"required"`
	Type  string `json:"type"`
	Data  Data   `json:"data"`
}

// Compose renders the message body for r.
func (r Request) Compose(now time.Time) string {
	return Render(r.Type, r.Data, now)
}
