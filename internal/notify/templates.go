package notify

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// FallbackMessage is sent for unknown types without data.customMessage.
const FallbackMessage = "Notificación sin formato"

const (
	TypeNewOrder        = "new_order"
	TypePaymentReceived = "payment_received"
	TypeStatusUpdate    = "status_update"
	TypeReminder        = "reminder"
	TypeAlert           = "alert"
)

type Data map[string]any

type renderFunc func(d Data, now time.Time) string

var templates = map[string]renderFunc{
	TypeNewOrder: func(d Data, _ time.Time) string {
		return "🛍️ *Nueva Orden Recibida*\n\n" +
			"Orden #" + d.field("orderId") + "\n" +
			"Cliente: " + d.field("customerName") + "\n" +
			"Total: $" + d.field("total") + "\n" +
			"Fecha: " + d.field("date") + "\n\n" +
			"¡Revisa los detalles en tu panel!"
	},
	TypePaymentReceived: func(d Data, _ time.Time) string {
		return "💰 *Pago Recibido*\n\n" +
			"Se ha confirmado el pago de $" + d.field("amount") + "\n" +
			"Método: " + d.field("method") + "\n" +
			"Transacción: " + d.field("transactionId") + "\n\n" +
			"¡Gracias por tu compra!"
	},
	TypeStatusUpdate: func(d Data, _ time.Time) string {
		return "📦 *Actualización de Estado*\n\n" +
			"Tu pedido #" + d.field("orderId") + " ha cambiado a:\n" +
			"Estado: *" + d.field("status") + "*\n\n" +
			d.field("message")
	},
	TypeReminder: func(d Data, _ time.Time) string {
		return "⏰ *Recordatorio*\n\n" +
			d.field("title") + "\n" +
			d.field("description") + "\n" +
			"Fecha: " + d.field("date")
	},
	TypeAlert: func(d Data, now time.Time) string {
		return "🚨 *Alerta del Sistema*\n\n" +
			d.field("message") + "\n" +
			"Nivel: " + d.field("severity") + "\n" +
			"Hora: " + now.Format(alertTimeLayout)
	},
}

// alertTimeLayout matches the default en-US locale string, e.g.
// "3/5/2026, 2:07:09 PM".
const alertTimeLayout = "1/2/2006, 3:04:05 PM"

// Render builds the message text for a notification type. Unknown types
// use data.customMessage verbatim, or FallbackMessage when it is absent.
func Render(kind string, d Data, now time.Time) string {
	if t, ok := templates[kind]; ok {
		return t(d, now)
	}
	if msg := d.field("customMessage"); msg != "" {
		return msg
	}
	return FallbackMessage
}

func Known(kind string) bool {
	_, ok := templates[kind]
	return ok
}

func Types() []string {
	out := make([]string, 0, len(templates))
	for k := range templates {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// field stringifies d[key]; missing and null values render as "".
func (d Data) field(key string) string {
	v, ok := d[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, Data{"v": p}.field("v"))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(t)
	}
}
