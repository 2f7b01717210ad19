// Package dispatch runs narrative-analysis tasks on a fixed pool of workers.
//
// Every submitted task gets its own generated correlation id mapped to its
// own result channel, so concurrent callers can never receive each other's
// results. A result arriving for an id whose caller has already given up is
// dropped, never delivered elsewhere.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/llm"
)

var (
	ErrClosed  = errors.New("dispatch: dispatcher closed")
	ErrTimeout = errors.New("dispatch: task timed out")
)

type Task struct {
	Provider llm.Provider
	Request  llm.AnalysisRequest
}

type Options struct {
	Workers     int
	QueueSize   int
	TaskTimeout time.Duration
	// MaxRetries counts extra attempts after the first; transient errors
	// only. Context cancellation is always final.
	MaxRetries int
}

type outcome struct {
	resp *llm.AnalysisResponse
	err  error
}

type job struct {
	id   string
	ctx  context.Context
	task Task
}

type Dispatcher struct {
	opts   Options
	tasks  chan job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	waiters map[string]chan outcome
}

func New(opts Options) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = opts.Workers * 2
	}
	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = 60 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		opts:    opts,
		tasks:   make(chan job, opts.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
		waiters: map[string]chan outcome{},
	}
	for i := 0; i < opts.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Submit runs the task and blocks until its own result arrives, the task
// timeout fires, or ctx is done.
func (d *Dispatcher) Submit(ctx context.Context, task Task) (*llm.AnalysisResponse, error) {
	if task.Provider == nil {
		return nil, errors.New("dispatch: nil provider")
	}

	id := uuid.NewString()
	ch := make(chan outcome, 1) // buffered: a late worker never blocks on delivery

	d.mu.Lock()
	d.waiters[id] = ch
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		delete(d.waiters, id)
		d.mu.Unlock()
	}()

	jobCtx, cancel := context.WithTimeout(ctx, d.opts.TaskTimeout)
	defer cancel()

	select {
	case d.tasks <- job{id: id, ctx: jobCtx, task: task}:
	case <-d.ctx.Done():
		return nil, ErrClosed
	case <-jobCtx.Done():
		return nil, waitErr(ctx, jobCtx)
	}

	select {
	case out := <-ch:
		return out.resp, out.err
	case <-d.ctx.Done():
		return nil, ErrClosed
	case <-jobCtx.Done():
		return nil, waitErr(ctx, jobCtx)
	}
}

func waitErr(callerCtx, jobCtx context.Context) error {
	if callerCtx.Err() != nil {
		return callerCtx.Err()
	}
	if errors.Is(jobCtx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return jobCtx.Err()
}

// Close stops accepting work, cancels in-flight tasks and waits for workers.
func (d *Dispatcher) Close() {
	d.cancel()
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case j := <-d.tasks:
			resp, err := d.run(j)
			d.deliver(j.id, outcome{resp: resp, err: err})
		}
	}
}

func (d *Dispatcher) run(j job) (*llm.AnalysisResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= d.opts.MaxRetries; attempt++ {
		if j.ctx.Err() != nil {
			return nil, j.ctx.Err()
		}
		resp, err := j.task.Provider.Analyze(j.ctx, j.task.Request)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if j.ctx.Err() != nil {
			return nil, j.ctx.Err()
		}
		if attempt < d.opts.MaxRetries {
			wait := time.Duration(1<<attempt) * 200 * time.Millisecond
			log.Warn().Str("task", j.id).Int("attempt", attempt+1).Err(err).
				Dur("backoff", wait).Msg("analysis attempt failed, retrying")
			t := time.NewTimer(wait)
			select {
			case <-j.ctx.Done():
				t.Stop()
				return nil, j.ctx.Err()
			case <-d.ctx.Done():
				t.Stop()
				return nil, ErrClosed
			case <-t.C:
			}
		}
	}
	return nil, fmt.Errorf("analysis failed after %d attempts: %w", d.opts.MaxRetries+1, lastErr)
}

// deliver hands the outcome to the waiter registered under id, if it is
// still there. Abandoned ids are dropped on the floor.
func (d *Dispatcher) deliver(id string, out outcome) {
	d.mu.Lock()
	ch, ok := d.waiters[id]
	d.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- out:
	default:
	}
}
