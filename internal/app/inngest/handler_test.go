package inngest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"whatsapp-notifier/config"
	pkginngest "whatsapp-notifier/internal/pkg/inngest"

	"github.com/go-chi/chi/v5"
	"github.com/inngest/inngestgo"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/suite"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type InngestHandlerTestSuite struct {
	suite.Suite

	app    *fx.App
	cfg    *config.Config
	client inngestgo.Client
}

func (s *InngestHandlerTestSuite) SetupTest() {
	s.app = fx.New(
		fx.NopLogger,
		fx.Provide(func() *viper.Viper {
			vp := config.NewViper()
			vp.Set("INNGEST_APP_ID", "")
			return vp
		}),
		fx.Provide(config.NewConfig),
		fx.Provide(pkginngest.NewInngestClient),
		fx.Populate(&s.cfg, &s.client),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.Require().NoError(s.app.Start(ctx))
}

func (s *InngestHandlerTestSuite) TearDownTest() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.Require().NoError(s.app.Stop(ctx))
}

func (s *InngestHandlerTestSuite) TestDisabledClientRejectsSends() {
	_, err := s.client.Send(context.Background(), inngestgo.Event{Name: "whatsapp/notification.requested"})
	s.ErrorIs(err, pkginngest.ErrDisabled)
}

func (s *InngestHandlerTestSuite) TestServeRouteReportsDisabled() {
	h := NewInngestHandler(NewInngestHandlerParams{
		Logger: zap.NewNop().Sugar(),
		Config: s.cfg,
		Client: s.client,
	})
	r := chi.NewRouter()
	h.RegisterRoute(r)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodPost} {
		req := httptest.NewRequest(method, "/api/inngest", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		s.Equal(http.StatusNotImplemented, w.Code, method)
		s.Contains(w.Body.String(), "INNGEST_APP_ID")
	}
}

func TestInngestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(InngestHandlerTestSuite))
}
