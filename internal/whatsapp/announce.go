package whatsapp

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"whatsapp-notifier/internal/pkg/qrimage"
)

// Announce logs every transition and prints the login QR to out while a
// scan is pending. It returns when ch is closed.
func Announce(ch <-chan Transition, out io.Writer, logger *zap.SugaredLogger) {
	for t := range ch {
		switch t.To {
		case StateQRPending:
			logger.Infow("whatsapp_qr_received", "from", t.From)
			if t.QR == "" {
				continue
			}
			art, err := qrimage.Terminal(t.QR)
			if err != nil {
				logger.Warnw("whatsapp_qr_render_failed", "err", err)
				continue
			}
			_, _ = fmt.Fprintf(out, "Scan this QR code with WhatsApp:\n%s\n", art)
		case StateAuthenticated:
			logger.Infow("whatsapp_authenticated")
		case StateReady:
			logger.Infow("whatsapp_ready")
		case StateDisconnected:
			if t.Event == EventAuthFailure {
				logger.Errorw("whatsapp_auth_failure", "reason", t.Reason)
				continue
			}
			logger.Warnw("whatsapp_disconnected", "reason", t.Reason)
		}
	}
}
