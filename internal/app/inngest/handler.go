package inngest

import (
	"net/http"

	"whatsapp-notifier/config"
	pkginngest "whatsapp-notifier/internal/pkg/inngest"
	"whatsapp-notifier/internal/router"

	"github.com/go-chi/chi/v5"
	"github.com/inngest/inngestgo"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// InngestHandler lets the Inngest executor sync and invoke the notification
// function. Without INNGEST_APP_ID every call answers 501.
type InngestHandler struct {
	logger *zap.SugaredLogger
	path   string
	client inngestgo.Client
}

type NewInngestHandlerParams struct {
	fx.In

	Logger *zap.SugaredLogger
	Config *config.Config
	Client inngestgo.Client
}

func NewInngestHandler(p NewInngestHandlerParams) *InngestHandler {
	return &InngestHandler{
		logger: p.Logger,
		path:   pkginngest.ServePath(p.Config),
		client: p.Client,
	}
}

func (h *InngestHandler) RegisterRoute(r *chi.Mux) {
	r.Post(h.path, h.Handle)
	r.Put(h.path, h.Handle)
	r.Get(h.path, h.Handle)
}

func (h *InngestHandler) Handle(w http.ResponseWriter, r *http.Request) {
	h.logger.Debugw("inngest_request", "method", r.Method, "path", r.URL.Path)
	// Serve is resolved per request so functions registered after
	// construction are still synced.
	h.client.Serve().ServeHTTP(w, r)
}

var _ router.Handler = (*InngestHandler)(nil)
