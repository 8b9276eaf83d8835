package server

import (
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"whatsapp-notifier/config"
)

func TestNewHTTPServer_UsesPort(t *testing.T) {
	srv := NewHTTPServer(&config.Config{AppPort: 3000}, chi.NewRouter())

	require.Equal(t, ":3000", srv.Addr)
	require.Zero(t, srv.WriteTimeout)
}
