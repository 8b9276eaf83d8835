package whatsapp

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"whatsapp-notifier/internal/browser"
)

type stepLog struct {
	mu    sync.Mutex
	steps []string
}

func (s *stepLog) add(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, step)
}

func (s *stepLog) get() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.steps...)
}

type fakeSweeper struct{ log *stepLog }

func (f fakeSweeper) Sweep(root string) { f.log.add("sweep:" + root) }

type fakeLocator struct {
	log *stepLog
	loc browser.Location
	ok  bool
}

func (f fakeLocator) Locate() (browser.Location, bool) {
	f.log.add("locate")
	return f.loc, f.ok
}

type fakeClient struct {
	log    *stepLog
	events []Event
	gotOpt chan RunOptions
	closed bool
	runErr error
}

func (f *fakeClient) Run(ctx context.Context, opts RunOptions, emit func(Event)) error {
	f.log.add("run")
	f.gotOpt <- opts
	for _, ev := range f.events {
		emit(ev)
	}
	if f.runErr != nil {
		return f.runErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeClient) SendMessage(context.Context, string, string) error { return nil }

func (f *fakeClient) Close() error {
	f.log.add("close")
	f.closed = true
	return nil
}

func TestBootstrap_SweepsThenLocatesThenRuns(t *testing.T) {
	t.Parallel()

	log := &stepLog{}
	client := &fakeClient{
		log:    log,
		gotOpt: make(chan RunOptions, 1),
		events: []Event{{Kind: EventAuthenticated}, {Kind: EventReady}},
	}
	manager := NewManager(zap.NewNop().Sugar())
	b := NewBootstrap(
		"/tmp/session",
		fakeSweeper{log: log},
		fakeLocator{log: log, ok: true, loc: browser.Location{Path: "/usr/bin/chromium", Source: browser.SourceWellKnown}},
		client,
		manager,
		zap.NewNop().Sugar(),
	)

	require.NoError(t, b.Start(context.Background()))

	opts := <-client.gotOpt
	require.Equal(t, "/usr/bin/chromium", opts.ExecutablePath)
	require.Eventually(t, manager.IsReady, time.Second, 5*time.Millisecond)

	require.NoError(t, b.Stop(context.Background()))
	require.True(t, client.closed)
	require.Equal(t, []string{"sweep:/tmp/session", "locate", "run", "close"}, log.get())
}

func TestBootstrap_NotFoundUsesBundledBrowser(t *testing.T) {
	t.Parallel()

	log := &stepLog{}
	client := &fakeClient{log: log, gotOpt: make(chan RunOptions, 1), runErr: errors.New("launch failed")}
	b := NewBootstrap("s", fakeSweeper{log: log}, fakeLocator{log: log}, client, NewManager(zap.NewNop().Sugar()), zap.NewNop().Sugar())

	require.NoError(t, b.Start(context.Background()))
	require.Empty(t, (<-client.gotOpt).ExecutablePath)
	require.NoError(t, b.Stop(context.Background()))
}

func TestBootstrap_StartTwice(t *testing.T) {
	t.Parallel()

	log := &stepLog{}
	client := &fakeClient{log: log, gotOpt: make(chan RunOptions, 1)}
	b := NewBootstrap("s", fakeSweeper{log: log}, fakeLocator{log: log}, client, NewManager(zap.NewNop().Sugar()), zap.NewNop().Sugar())

	require.NoError(t, b.Start(context.Background()))
	require.Error(t, b.Start(context.Background()))
	require.NoError(t, b.Stop(context.Background()))
}

func TestAnnounce_PrintsQRWhilePending(t *testing.T) {
	t.Parallel()

	manager := NewManager(zap.NewNop().Sugar())
	ch, cancel := manager.Subscribe(8)

	var out bytes.Buffer
	done := make(chan struct{})
	go func() {
		defer close(done)
		Announce(ch, &out, zap.NewNop().Sugar())
	}()

	manager.Apply(Event{Kind: EventQR, Payload: "2@abc,def"})
	manager.Apply(Event{Kind: EventAuthFailure, Payload: "bad session"})
	cancel()
	<-done

	require.Contains(t, out.String(), "Scan this QR code")
}

func TestBootstrap_LeavesExecutableLoggingToLocator(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	log := &stepLog{}
	client := &fakeClient{log: log, gotOpt: make(chan RunOptions, 1)}
	b := NewBootstrap(
		"s",
		fakeSweeper{log: log},
		fakeLocator{log: log, ok: true, loc: browser.Location{Path: "/usr/bin/chromium", Source: browser.SourcePath}},
		client,
		NewManager(zap.NewNop().Sugar()),
		zap.New(core).Sugar(),
	)

	require.NoError(t, b.Start(context.Background()))
	<-client.gotOpt
	require.NoError(t, b.Stop(context.Background()))

	require.Zero(t, logs.FilterMessage("browser_executable_found").Len())
	require.Zero(t, logs.FilterMessage("browser_executable_not_found").Len())
	starting := logs.FilterMessage("whatsapp_client_starting").All()
	require.Len(t, starting, 1)
	require.Equal(t, "/usr/bin/chromium", starting[0].ContextMap()["executable"])
}
