package deliveries

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"whatsapp-notifier/db"
	"whatsapp-notifier/internal/outbox"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	conn, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, db.Migrate(context.Background(), conn, db.DriverSQLite))

	return NewStore(NewStoreParams{DB: conn, Logger: zap.NewNop().Sugar()})
}

func TestStore_RecordAndGet(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	at := time.UnixMilli(1_700_000_000_123)

	require.NoError(t, s.Record(context.Background(), outbox.Attempt{
		ID:     "d1",
		Phone:  "56912345678",
		ChatID: "56912345678@c.us",
		Kind:   outbox.KindSingle,
		Body:   "hola",
		At:     at,
	}))

	d, err := s.Get(context.Background(), "d1")
	require.NoError(t, err)
	require.Equal(t, StatusSent, d.Status)
	require.False(t, d.BatchID.Valid)
	require.False(t, d.Error.Valid)
	require.Equal(t, "56912345678@c.us", d.ChatID)
	require.Equal(t, int64(1_700_000_000_123), d.CreatedAtMs)
}

func TestStore_ListByBatch(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	base := time.UnixMilli(1_000)

	for i, phone := range []string{"111", "222"} {
		a := outbox.Attempt{
			ID:      phone,
			BatchID: "b1",
			Phone:   phone,
			ChatID:  phone + "@c.us",
			Kind:    outbox.KindBulk,
			Body:    "x",
			At:      base.Add(time.Duration(i) * time.Second),
		}
		if phone == "222" {
			a.Err = errors.New("invalid number")
		}
		require.NoError(t, s.Record(ctx, a))
	}

	rows, err := s.ListByBatch(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, StatusSent, rows[0].Status)
	require.Equal(t, StatusFailed, rows[1].Status)
	require.Equal(t, "invalid number", rows[1].Error.String)
}

func TestStore_Disabled(t *testing.T) {
	t.Parallel()

	s := NewStore(NewStoreParams{Logger: zap.NewNop().Sugar()})
	require.False(t, s.Enabled())
	require.NoError(t, s.Record(context.Background(), outbox.Attempt{ID: "x"}))

	_, err := s.Get(context.Background(), "x")
	require.ErrorIs(t, err, db.ErrStoreDisabled)
}

func TestStore_GetMissing(t *testing.T) {
	t.Parallel()

	_, err := newTestStore(t).Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func serve(t *testing.T, s *Store, path string) *httptest.ResponseRecorder {
	t.Helper()

	h := NewGetByIDHandler(NewGetByIDHandlerParams{Store: s, Logger: zap.NewNop().Sugar()})
	r := chi.NewRouter()
	h.RegisterRoute(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestGetByIDHandler_Success(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	require.NoError(t, s.Record(context.Background(), outbox.Attempt{
		ID:      "d9",
		BatchID: "b9",
		Phone:   "333",
		ChatID:  "333@c.us",
		Kind:    outbox.KindBulk,
		Body:    "hi",
		Err:     errors.New("boom"),
		At:      time.UnixMilli(42),
	}))

	rr := serve(t, s, "/v1/deliveries/d9")
	require.Equal(t, http.StatusOK, rr.Code)

	var got deliveryResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Equal(t, "d9", got.ID)
	require.NotNil(t, got.BatchID)
	require.Equal(t, "b9", *got.BatchID)
	require.Equal(t, StatusFailed, got.Status)
	require.NotNil(t, got.Error)
	require.Equal(t, "boom", *got.Error)
	require.Equal(t, int64(42), got.CreatedAtMs)
}

func TestGetByIDHandler_NotFound(t *testing.T) {
	t.Parallel()

	rr := serve(t, newTestStore(t), "/v1/deliveries/missing")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetByIDHandler_StoreDisabled(t *testing.T) {
	t.Parallel()

	rr := serve(t, NewStore(NewStoreParams{Logger: zap.NewNop().Sugar()}), "/v1/deliveries/x")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.JSONEq(t, `{"success":false,"error":"delivery store disabled"}`, rr.Body.String())
}
