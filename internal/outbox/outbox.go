package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"whatsapp-notifier/config"
	"whatsapp-notifier/internal/whatsapp"
)

var ErrQueueClosed = errors.New("outbox closed")

type Kind string

const (
	KindSingle       Kind = "single"
	KindBulk         Kind = "bulk"
	KindNotification Kind = "notification"
)

type Sender interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// Recorder persists send attempts. Record failures are logged, never
// surfaced to the caller.
type Recorder interface {
	Record(ctx context.Context, a Attempt) error
}

type Message struct {
	Phone   string
	Body    string
	Kind    Kind
	BatchID string
}

type Attempt struct {
	ID      string
	BatchID string
	Phone   string
	ChatID  string
	Kind    Kind
	Body    string
	Err     error
	At      time.Time
}

func (a Attempt) Success() bool { return a.Err == nil }

type RecipientResult struct {
	Phone   string `json:"phone"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type job struct {
	ctx    context.Context
	msg    Message
	result chan Attempt
	picked chan struct{}
}

// Queue funnels every send through one worker so the browser session is
// never driven by two requests at once.
type Queue struct {
	sender      Sender
	recorder    Recorder
	logger      *zap.SugaredLogger
	bulkDelay   time.Duration
	sendTimeout time.Duration

	now   func() time.Time
	newID func() string
	sleep func(ctx context.Context, d time.Duration) error

	jobs      chan job
	quit      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

type Options struct {
	Buffer      int
	BulkDelay   time.Duration
	SendTimeout time.Duration
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Buffer:      cfg.Outbox.Buffer,
		BulkDelay:   cfg.Outbox.BulkDelay,
		SendTimeout: cfg.Outbox.SendTimeout,
	}
}

func New(sender Sender, recorder Recorder, opts Options, logger *zap.SugaredLogger) *Queue {
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 60 * time.Second
	}
	if opts.BulkDelay < 0 {
		opts.BulkDelay = 0
	}
	return &Queue{
		sender:      sender,
		recorder:    recorder,
		logger:      logger,
		bulkDelay:   opts.BulkDelay,
		sendTimeout: opts.SendTimeout,
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
		sleep:       sleepCtx,
		jobs:        make(chan job, opts.Buffer),
		quit:        make(chan struct{}),
	}
}

func (q *Queue) Start() {
	q.startOnce.Do(func() {
		q.wg.Add(1)
		go q.run()
	})
}

// Stop prevents new sends and waits for the in-flight one.
func (q *Queue) Stop(ctx context.Context) error {
	q.stopOnce.Do(func() { close(q.quit) })

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("outbox stop: %w", ctx.Err())
	}
}

func (q *Queue) run() {
	defer q.wg.Done()
	for {
		select {
		case <-q.quit:
			return
		case j := <-q.jobs:
			close(j.picked)
			// Both cases can be ready; never start a send after Stop.
			select {
			case <-q.quit:
				j.result <- Attempt{Err: ErrQueueClosed}
				continue
			default:
			}
			j.result <- q.process(j)
		}
	}
}

func (q *Queue) process(j job) Attempt {
	a := Attempt{
		ID:      q.newID(),
		BatchID: j.msg.BatchID,
		Phone:   j.msg.Phone,
		ChatID:  whatsapp.ChatID(j.msg.Phone),
		Kind:    j.msg.Kind,
		Body:    j.msg.Body,
	}

	if err := j.ctx.Err(); err != nil {
		a.Err, a.At = err, q.now()
		return a
	}

	sendCtx, cancel := context.WithTimeout(j.ctx, q.sendTimeout)
	a.Err = q.sender.SendMessage(sendCtx, a.ChatID, a.Body)
	cancel()
	a.At = q.now()

	if a.Err != nil {
		q.logger.Warnw("outbox_send_failed", "id", a.ID, "chat_id", a.ChatID, "kind", a.Kind, "err", a.Err)
	} else {
		q.logger.Infow("outbox_sent", "id", a.ID, "chat_id", a.ChatID, "kind", a.Kind)
	}

	if q.recorder != nil {
		// The request context may already be gone; the log entry should not.
		recCtx, cancel := context.WithTimeout(context.WithoutCancel(j.ctx), 5*time.Second)
		if err := q.recorder.Record(recCtx, a); err != nil {
			q.logger.Errorw("outbox_record_failed", "id", a.ID, "err", err)
		}
		cancel()
	}
	return a
}

// Send delivers one message and returns the attempt. The returned error is
// the send error, a context error, or ErrQueueClosed.
func (q *Queue) Send(ctx context.Context, msg Message) (Attempt, error) {
	if msg.Kind == "" {
		msg.Kind = KindSingle
	}
	j := job{ctx: ctx, msg: msg, result: make(chan Attempt, 1), picked: make(chan struct{})}

	select {
	case <-q.quit:
		return Attempt{}, ErrQueueClosed
	default:
	}

	select {
	case q.jobs <- j:
	case <-ctx.Done():
		return Attempt{}, ctx.Err()
	case <-q.quit:
		return Attempt{}, ErrQueueClosed
	}

	select {
	case a := <-j.result:
		return a, a.Err
	case <-ctx.Done():
		return Attempt{}, ctx.Err()
	case <-q.quit:
		// A job still in the buffer will not be sent. One already
		// taken by the worker is finished before Stop returns.
		select {
		case <-j.picked:
		default:
			return Attempt{}, ErrQueueClosed
		}
		select {
		case a := <-j.result:
			return a, a.Err
		case <-ctx.Done():
			return Attempt{}, ctx.Err()
		}
	}
}

// SendBulk sends body to each phone in order, waiting the bulk delay
// between attempts. A failed recipient never stops the loop.
func (q *Queue) SendBulk(ctx context.Context, phones []string, body string) (string, []RecipientResult) {
	batchID := q.newID()
	results := make([]RecipientResult, 0, len(phones))

	for i, phone := range phones {
		if i > 0 && q.bulkDelay > 0 {
			if err := q.sleep(ctx, q.bulkDelay); err != nil {
				for _, rest := range phones[i:] {
					results = append(results, RecipientResult{Phone: rest, Error: err.Error()})
				}
				break
			}
		}

		_, err := q.Send(ctx, Message{Phone: phone, Body: body, Kind: KindBulk, BatchID: batchID})
		r := RecipientResult{Phone: phone, Success: err == nil}
		if err != nil {
			r.Error = err.Error()
		}
		results = append(results, r)
	}

	q.logger.Infow("outbox_bulk_done", "batch_id", batchID, "recipients", len(phones), "failed", countFailed(results))
	return batchID, results
}

func countFailed(rs []RecipientResult) int {
	n := 0
	for _, r := range rs {
		if !r.Success {
			n++
		}
	}
	return n
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
