package whatsapp

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Manager owns the connection state. Only Apply mutates it; request
// handlers read it through State and IsReady.
type Manager struct {
	state  atomic.Value // State
	qr     atomic.Value // string
	logger *zap.SugaredLogger
	now    func() time.Time

	mu     sync.Mutex // serializes Apply and guards subs
	subs   map[int]chan Transition
	nextID int
}

func NewManager(logger *zap.SugaredLogger) *Manager {
	m := &Manager{
		logger: logger,
		now:    time.Now,
		subs:   make(map[int]chan Transition),
	}
	m.state.Store(StateDisconnected)
	m.qr.Store("")
	return m
}

func (m *Manager) State() State { return m.state.Load().(State) }

func (m *Manager) IsReady() bool { return m.State() == StateReady }

// QRCode returns the latest QR payload while a scan is pending.
func (m *Manager) QRCode() string { return m.qr.Load().(string) }

// Apply feeds one client event into the state machine. Events that do not
// apply to the current state are logged and dropped.
func (m *Manager) Apply(ev Event) (Transition, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	from := m.State()
	to, ok := next(from, ev.Kind)
	if !ok {
		m.logger.Debugw("whatsapp_event_ignored", "state", from, "event", ev.Kind)
		return Transition{}, false
	}

	if ev.Kind == EventQR {
		m.qr.Store(ev.Payload)
	} else if to != StateQRPending {
		m.qr.Store("")
	}
	m.state.Store(to)

	tr := Transition{From: from, To: to, Event: ev.Kind, At: m.now()}
	switch ev.Kind {
	case EventAuthFailure, EventDisconnected:
		tr.Reason = ev.Payload
	case EventQR:
		tr.QR = ev.Payload
	}

	for id, ch := range m.subs {
		select {
		case ch <- tr:
		default:
			m.logger.Warnw("whatsapp_subscriber_lagging", "subscriber", id, "event", ev.Kind)
		}
	}
	return tr, true
}

// Subscribe registers a listener for transitions. A full buffer drops
// transitions for that listener instead of blocking Apply.
func (m *Manager) Subscribe(buffer int) (<-chan Transition, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Transition, buffer)

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	m.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}
