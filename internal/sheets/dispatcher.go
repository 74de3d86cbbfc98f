package sheets

import (
	"context"
	"errors"
	"sync"
	"time"

	"giveaway_bot/internal/model"
	"giveaway_bot/pkg/logger"
	"giveaway_bot/pkg/retry"

	"go.uber.org/zap"
)

var (
	ErrQueueClosed = errors.New("sheets: queue closed")
	ErrQueueFull   = errors.New("sheets: queue full")
)

type Syncer interface {
	UpsertContact(ctx context.Context, user *model.User) (bool, error)
}

type Recorder interface {
	RecordSheetsSync(result string)
}

type Options struct {
	QueueSize int
	Workers   int
	// Timeout bounds a single job including retries.
	Timeout  time.Duration
	Attempts int
}

// Dispatcher runs spreadsheet writes off the update path. Jobs carry a user
// snapshot taken after commit, so a write that lands late only ever repeats
// values that were already true.
type Dispatcher struct {
	syncer   Syncer
	recorder Recorder
	opts     Options

	mu     sync.RWMutex
	closed bool
	jobs   chan *model.User
	once   sync.Once
	wg     sync.WaitGroup
}

func NewDispatcher(syncer Syncer, recorder Recorder, opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Attempts <= 0 {
		opts.Attempts = retry.DefaultAttempts
	}

	d := &Dispatcher{
		syncer:   syncer,
		recorder: recorder,
		opts:     opts,
		jobs:     make(chan *model.User, opts.QueueSize),
	}

	d.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go d.worker()
	}

	return d
}

// Enqueue never blocks. It fails with ErrQueueFull when the buffer is
// saturated and ErrQueueClosed after Close.
func (d *Dispatcher) Enqueue(user *model.User) error {
	if user == nil {
		return nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}

	snapshot := *user
	select {
	case d.jobs <- &snapshot:
		return nil
	default:
		d.record("dropped")
		return ErrQueueFull
	}
}

// Close stops accepting jobs and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.jobs)
		d.mu.Unlock()
		d.wg.Wait()
	})
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for user := range d.jobs {
		d.handle(user)
	}
}

func (d *Dispatcher) handle(user *model.User) {
	log := logger.Logger().With(zap.Int64("telegram_id", user.TelegramID))

	ctx, cancel := context.WithTimeout(context.Background(), d.opts.Timeout)
	defer cancel()

	policy := retry.Policy{
		Attempts: d.opts.Attempts,
		Classify: func(err error) retry.Decision {
			return retry.Decision{Retry: !errors.Is(err, context.DeadlineExceeded)}
		},
		OnRetry: func(attempt int, delay time.Duration, err error) {
			log.Warn("sheets sync retry", zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(err))
		},
	}

	written, err := retry.Do(ctx, policy, func(ctx context.Context) (bool, error) {
		return d.syncer.UpsertContact(ctx, user)
	})
	switch {
	case err != nil:
		log.Error("sheets sync failed", zap.Error(err))
		d.record("failed")
	case !written:
		d.record("skipped")
	default:
		d.record("ok")
	}
}

func (d *Dispatcher) record(result string) {
	if d.recorder != nil {
		d.recorder.RecordSheetsSync(result)
	}
}
