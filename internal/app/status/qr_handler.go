package status

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"whatsapp-notifier/internal/pkg/qrimage"
	"whatsapp-notifier/internal/pkg/render"
	"whatsapp-notifier/internal/router"
	"whatsapp-notifier/internal/whatsapp"
)

const (
	pageReady   = `<h1>✅ WhatsApp ya está conectado</h1>`
	pageWaiting = `<h1>⏳ Esperando escaneo de QR...</h1><p>Revisa la consola del servidor</p>`
	pageScan    = `<h1>⏳ Esperando escaneo de QR...</h1>` +
		`<p>Escanea este código desde WhatsApp en tu teléfono</p>` +
		`<img src="/qr.png" alt="QR" width="320" height="320">` +
		`<script>setTimeout(function(){location.reload()},5000)</script>`
)

// QRHandler serves the login page and the current QR code as PNG.
type QRHandler struct {
	source Source
	logger *zap.SugaredLogger
}

type NewQRHandlerParams struct {
	fx.In

	Source Source
	Logger *zap.SugaredLogger
}

func NewQRHandler(p NewQRHandlerParams) *QRHandler {
	return &QRHandler{source: p.Source, logger: p.Logger}
}

func (h *QRHandler) RegisterRoute(r *chi.Mux) {
	r.Get("/qr", h.Handle)
	r.Get("/qr.png", h.HandlePNG)
}

func (h *QRHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch {
	case h.source.State() == whatsapp.StateReady:
		render.HTML(w, http.StatusOK, pageReady)
	case h.source.QRCode() != "":
		render.HTML(w, http.StatusOK, pageScan)
	default:
		render.HTML(w, http.StatusOK, pageWaiting)
	}
}

func (h *QRHandler) HandlePNG(w http.ResponseWriter, r *http.Request) {
	code := h.source.QRCode()
	if code == "" {
		render.ChiErr(w, http.StatusNotFound, "no qr code pending")
		return
	}

	png, err := qrimage.PNG(code, qrimage.DefaultPNGSize)
	if err != nil {
		h.logger.Errorw("qr_png_encode_failed", "err", err)
		render.ChiErr(w, http.StatusInternalServerError, "failed to render qr code")
		return
	}
	render.PNG(w, http.StatusOK, png)
}

var _ router.Handler = (*QRHandler)(nil)
