package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"whatsapp-notifier/config"
	"whatsapp-notifier/internal/whatsapp"
)

// StateKey holds the JSON of the latest lifecycle transition.
const StateKey = "whatsapp:state"

type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// LifecycleMirror copies connection lifecycle transitions into redis so
// other services can follow the session without polling /status.
type LifecycleMirror struct {
	client  publisher
	channel string
	logger  *zap.SugaredLogger
}

type NewLifecycleMirrorParams struct {
	fx.In

	Client *redis.Client `optional:"true"`
	Cfg    *config.Config
	Logger *zap.SugaredLogger
}

func NewLifecycleMirror(p NewLifecycleMirrorParams) *LifecycleMirror {
	m := &LifecycleMirror{channel: p.Cfg.RedisChannel, logger: p.Logger}
	if p.Client != nil {
		m.client = p.Client
	}
	return m
}

func (m *LifecycleMirror) Enabled() bool { return m.client != nil }

// Mirror publishes t on the lifecycle channel and stores it under StateKey.
func (m *LifecycleMirror) Mirror(ctx context.Context, t whatsapp.Transition) error {
	if !m.Enabled() {
		return nil
	}

	b, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal transition: %w", err)
	}
	if err := m.client.Set(ctx, StateKey, b, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", StateKey, err)
	}
	if err := m.client.Publish(ctx, m.channel, b).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", m.channel, err)
	}
	return nil
}

// Run mirrors transitions until ch is closed.
func (m *LifecycleMirror) Run(ch <-chan whatsapp.Transition) {
	for t := range ch {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := m.Mirror(ctx, t); err != nil {
			m.logger.Warnw("redis_lifecycle_mirror_failed", "to", t.To, "err", err)
		}
		cancel()
	}
}

// RegisterLifecycleMirror subscribes the mirror to the manager for the
// lifetime of the app.
func RegisterLifecycleMirror(lc fx.Lifecycle, m *LifecycleMirror, manager *whatsapp.Manager) {
	if !m.Enabled() {
		return
	}

	var cancel func()
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			var ch <-chan whatsapp.Transition
			ch, cancel = manager.Subscribe(16)
			go func() {
				defer close(done)
				m.Run(ch)
			}()
			m.logger.Infow("redis_lifecycle_mirror_started", "channel", m.channel)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-ctx.Done():
			}
			return nil
		},
	})
}
