package messages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"whatsapp-notifier/internal/outbox"
)

const (
	errNotConnected        = "WhatsApp no está conectado"
	errNotConnectedVerbose = "WhatsApp no está conectado. Por favor escanea el QR primero."
)

// Gate reports whether the automation client can send right now.
type Gate interface {
	IsReady() bool
}

type Outbox interface {
	Send(ctx context.Context, msg outbox.Message) (outbox.Attempt, error)
	SendBulk(ctx context.Context, phones []string, body string) (string, []outbox.RecipientResult)
}

var validate = validator.New()

var errInvalidBody = errors.New("invalid request body")

// decode reads a JSON body into v and runs its validate tags.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}
