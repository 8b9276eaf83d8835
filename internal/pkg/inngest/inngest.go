package inngest

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"whatsapp-notifier/config"
	"whatsapp-notifier/internal/pkg/render"

	"github.com/inngest/inngestgo"
)

const (
	DefaultServePath = "/api/inngest"
	DisabledReason   = "inngest disabled: set INNGEST_APP_ID to enable"
)

var ErrDisabled = errors.New("inngest disabled")

// Enabled reports whether notification workflows are served at all.
func Enabled(cfg *config.Config) bool {
	return cfg != nil && strings.TrimSpace(cfg.Inngest.AppID) != ""
}

// ServePath is where the Inngest executor calls back into this service.
func ServePath(cfg *config.Config) string {
	if cfg != nil {
		if v := strings.TrimSpace(cfg.Inngest.ServePath); v != "" {
			return v
		}
	}
	return DefaultServePath
}

// NewInngestClient returns a stub that refuses sends and serves 501 when
// INNGEST_APP_ID is unset, so the rest of the app needs no nil checks.
func NewInngestClient(cfg *config.Config) (inngestgo.Client, error) {
	if !Enabled(cfg) {
		return disabledClient{}, nil
	}

	dev := cfg.Inngest.Dev == "1"
	opts := inngestgo.ClientOpts{
		AppID: strings.TrimSpace(cfg.Inngest.AppID),
		Dev:   inngestgo.BoolPtr(dev),
	}
	if signingKey := strings.TrimSpace(cfg.Inngest.SigningKey); signingKey != "" {
		opts.SigningKey = &signingKey
	}
	c, err := inngestgo.NewClient(opts)
	if err != nil {
		return nil, err
	}

	if serveHost := strings.TrimSpace(cfg.Inngest.ServeHost); serveHost != "" {
		scheme := "https"
		if dev {
			scheme = "http"
		}
		c.SetURL(&url.URL{Scheme: scheme, Host: serveHost, Path: ServePath(cfg)})
	}
	return c, nil
}

type disabledClient struct{}

func (disabledClient) AppID() string { return "" }

func (disabledClient) Send(context.Context, any) (string, error) { return "", ErrDisabled }

func (disabledClient) SendMany(context.Context, []any) ([]string, error) { return nil, ErrDisabled }

func (disabledClient) Options() inngestgo.ClientOpts { return inngestgo.ClientOpts{} }

func (c disabledClient) Serve() http.Handler { return c.ServeWithOpts(inngestgo.ServeOpts{}) }

func (disabledClient) ServeWithOpts(inngestgo.ServeOpts) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render.ChiErr(w, http.StatusNotImplemented, DisabledReason)
	})
}

func (disabledClient) SetOptions(inngestgo.ClientOpts) error { return ErrDisabled }

func (disabledClient) SetURL(*url.URL) {}
