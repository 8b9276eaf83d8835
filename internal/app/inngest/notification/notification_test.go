package notification

import (
	"context"
	"errors"
	"testing"

	"whatsapp-notifier/internal/notify"
	"whatsapp-notifier/internal/outbox"
	"whatsapp-notifier/internal/whatsapp"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type dispatcherFunc func(ctx context.Context, eventID string, req notify.Request) (outbox.Attempt, error)

func (f dispatcherFunc) Dispatch(ctx context.Context, eventID string, req notify.Request) (outbox.Attempt, error) {
	return f(ctx, eventID, req)
}

func TestSend_Success(t *testing.T) {
	var gotEventID string
	var gotReq notify.Request
	f := &Function{
		dispatcher: dispatcherFunc(func(_ context.Context, eventID string, req notify.Request) (outbox.Attempt, error) {
			gotEventID, gotReq = eventID, req
			return outbox.Attempt{ID: "d-1", ChatID: "569@c.us"}, nil
		}),
		logger: zap.NewNop().Sugar(),
	}

	res, err := f.send(context.Background(), "evt-1", notify.Request{Phone: "569", Type: notify.TypeReminder})
	require.NoError(t, err)
	require.Equal(t, Result{DeliveryID: "d-1", ChatID: "569@c.us"}, res)
	require.Equal(t, "evt-1", gotEventID)
	require.Equal(t, "569", gotReq.Phone)
}

func TestSend_NotReadyIsRetryable(t *testing.T) {
	f := &Function{
		dispatcher: dispatcherFunc(func(context.Context, string, notify.Request) (outbox.Attempt, error) {
			return outbox.Attempt{}, whatsapp.ErrNotReady
		}),
		logger: zap.NewNop().Sugar(),
	}

	_, err := f.send(context.Background(), "evt-1", notify.Request{Phone: "569"})
	require.ErrorIs(t, err, whatsapp.ErrNotReady)
}

func TestSend_OtherFailuresStopRetrying(t *testing.T) {
	f := &Function{
		dispatcher: dispatcherFunc(func(context.Context, string, notify.Request) (outbox.Attempt, error) {
			return outbox.Attempt{}, errors.New("chat not found")
		}),
		logger: zap.NewNop().Sugar(),
	}

	_, err := f.send(context.Background(), "evt-1", notify.Request{Phone: "569"})
	require.Error(t, err)
	require.NotErrorIs(t, err, whatsapp.ErrNotReady)
	require.ErrorContains(t, err, "chat not found")
}
