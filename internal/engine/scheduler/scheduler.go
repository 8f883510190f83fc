package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/promptq/internal/domain"
	"github.com/phrazzld/promptq/internal/engine/channel"
	"github.com/phrazzld/promptq/internal/engine/executor"
	"github.com/phrazzld/promptq/internal/events"
	"github.com/phrazzld/promptq/internal/store"
)

// ErrAlreadyRunning is returned when a run is started while one is active.
// The active run is never restarted or interrupted by a second start call.
var ErrAlreadyRunning = errors.New("a queue run is already in progress")

// connectivityMessage is the user-facing failure text for an unreachable
// execution context.
const connectivityMessage = "execution context unreachable: reload the page"

// OutcomeRecorder persists execution outcomes. Implemented by
// capture.Service.
type OutcomeRecorder interface {
	Record(ctx context.Context, task *domain.Task, outcome executor.Outcome) (domain.TaskStatus, error)
}

// ImageResolver loads reference-image payloads by handle. Implemented by
// mediacache.Cache.
type ImageResolver interface {
	ResolveReferenceImages(ctx context.Context, handles []uuid.UUID) ([][]byte, error)
}

// Policy holds the two user-controlled toggles applied at each loop boundary.
type Policy struct {
	// AutoAdvance continues to the next task after a success or failure.
	// When disabled the run stops after each task's outcome is processed.
	AutoAdvance bool `json:"auto_advance"`

	// RetryOnFailure requeues a failed task at the front of the queue
	// instead of advancing past it.
	RetryOnFailure bool `json:"retry_on_failure"`
}

// Config holds the scheduler timing knobs.
type Config struct {
	// DelayMin and DelayMax bound the randomized inter-task delay.
	DelayMin time.Duration
	DelayMax time.Duration

	// RedirectSettle is the fixed wait after navigating to a corrective
	// URL, before the same task is retried.
	RedirectSettle time.Duration

	// MaxRedirectRetries caps consecutive redirect-and-retry cycles for
	// one task. Zero means unbounded, relying on Stop as the only escape.
	MaxRedirectRetries int
}

// Snapshot is the observable scheduler state.
type Snapshot struct {
	Running   bool        `json:"running"`
	CurrentID *uuid.UUID  `json:"current_id,omitempty"`
	Remaining []uuid.UUID `json:"remaining"`
	Policy    Policy      `json:"policy"`
}

// Scheduler drives queued tasks through the channel sequentially. All
// exported methods are safe for concurrent use; the run loop itself is a
// single goroutine, so at most one task executes at a time by construction.
type Scheduler struct {
	channel  channel.Channel
	tasks    store.TaskStore
	recorder OutcomeRecorder
	images   ImageResolver
	emitter  events.Emitter
	cfg      Config
	logger   *slog.Logger

	mu            sync.Mutex
	queue         []uuid.UUID
	current       *uuid.UUID
	running       bool
	stopRequested bool
	policy        Policy
	cancelRun     context.CancelFunc
	done          chan struct{}
	rng           *rand.Rand
}

// New creates a Scheduler. images and emitter may be nil when reference
// images or event notifications are not in play.
func New(
	ch channel.Channel,
	tasks store.TaskStore,
	recorder OutcomeRecorder,
	images ImageResolver,
	emitter events.Emitter,
	cfg Config,
	logger *slog.Logger,
) *Scheduler {
	if cfg.DelayMax < cfg.DelayMin {
		cfg.DelayMax = cfg.DelayMin
	}
	return &Scheduler{
		channel:  ch,
		tasks:    tasks,
		recorder: recorder,
		images:   images,
		emitter:  emitter,
		cfg:      cfg,
		logger:   logger.With("component", "scheduler"),
		policy:   Policy{AutoAdvance: true},
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RunAll seeds the queue with the given task IDs and starts the run loop.
// Returns ErrAlreadyRunning if a run is active.
func (s *Scheduler) RunAll(ids []uuid.UUID) error {
	return s.start(ids, false)
}

// RunSingle runs one task. fillOnly populates the page inputs but skips
// submission, for manual review.
func (s *Scheduler) RunSingle(id uuid.UUID, fillOnly bool) error {
	return s.start([]uuid.UUID{id}, fillOnly)
}

// Stop requests the run to halt at the next loop boundary and cancels the
// execution presently in flight. Safe to call when idle.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.stopRequested = true
	cancel := s.cancelRun
	s.mu.Unlock()

	s.logger.Info("stop requested")
	// Cancel the remote execution first so a cross-process context aborts
	// too, then tear down the run context.
	if err := s.channel.Cancel(ctx); err != nil {
		s.logger.Warn("cancel signal failed", "error", err)
	}
	if cancel != nil {
		cancel()
	}
	return nil
}

// Snapshot returns the current observable state.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Running:   s.running,
		Remaining: append([]uuid.UUID(nil), s.queue...),
		Policy:    s.policy,
	}
	if s.current != nil {
		id := *s.current
		snap.CurrentID = &id
	}
	return snap
}

// SetPolicy replaces the policy toggles. Takes effect at the next loop
// boundary of an active run.
func (s *Scheduler) SetPolicy(p Policy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy = p
}

// Policy returns the current policy toggles.
func (s *Scheduler) Policy() Policy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy
}

// Done returns a channel closed when the active run ends. Returns a closed
// channel when idle.
func (s *Scheduler) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return s.done
}

func (s *Scheduler) start(ids []uuid.UUID, fillOnly bool) error {
	if len(ids) == 0 {
		return errors.New("no tasks to run")
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	runCtx, cancel := context.WithCancel(context.Background())
	s.queue = append([]uuid.UUID(nil), ids...)
	s.running = true
	s.stopRequested = false
	s.cancelRun = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	s.logger.Info("queue run started", "task_count", len(ids), "fill_only", fillOnly)

	go func() {
		defer close(done)
		s.loop(runCtx, fillOnly)
	}()
	return nil
}

// loop is the single policy loop. It never returns an error: every task
// problem is recorded on the task itself, and the loop proceeds or stops per
// policy.
func (s *Scheduler) loop(ctx context.Context, fillOnly bool) {
	defer s.finish(ctx)

	// The redirect budget is per task: the counter resets whenever a
	// different task reaches the head of the queue.
	redirects := 0
	var redirectTask uuid.UUID

	for {
		if s.stopped() {
			return
		}

		id, ok := s.peek()
		if !ok {
			s.emit(ctx, events.EventQueueDrained, struct{}{})
			return
		}
		if id != redirectTask {
			redirects = 0
			redirectTask = id
		}

		task, err := s.tasks.GetTask(ctx, id)
		if err != nil {
			s.logger.Warn("dropping unknown task from queue", "task_id", id, "error", err)
			s.dequeue(id)
			continue
		}

		s.setCurrent(&id)
		outcome := s.executeTask(ctx, task, fillOnly)
		s.setCurrent(nil)

		if outcome.Status == executor.OutcomeRedirect {
			redirects++
			if s.cfg.MaxRedirectRetries > 0 && redirects > s.cfg.MaxRedirectRetries {
				outcome = executor.Failure(fmt.Sprintf(
					"gave up after %d redirect attempts: %s", redirects-1, outcome.Reason))
				// The task's budget is spent; a later retry of the same
				// task starts fresh.
				redirects = 0
			}
		} else {
			redirects = 0
		}

		switch outcome.Status {
		case executor.OutcomeRedirect:
			s.record(ctx, task, outcome)
			s.logger.Info("redirecting before retry",
				"task_id", id,
				"redirect_url", outcome.RedirectURL)
			if err := s.channel.Navigate(ctx, outcome.RedirectURL); err != nil {
				s.logger.Warn("navigation failed", "error", err)
				reason := fmt.Sprintf("navigation to corrective URL failed: %v", err)
				if errors.Is(err, channel.ErrUnreachable) {
					reason = connectivityMessage
				}
				s.record(ctx, task, executor.Failure(reason))
				s.dequeue(id)
				if !s.sleepRandom(ctx) {
					return
				}
				continue
			}
			if !s.sleep(ctx, s.cfg.RedirectSettle) {
				return
			}
			// The task stays at the head of the queue.
			continue

		case executor.OutcomeCancelled:
			s.record(ctx, task, outcome)
			return

		case executor.OutcomeSuccess:
			s.record(ctx, task, outcome)
			s.dequeue(id)
			if !s.policyAllowsAdvance() {
				return
			}

		case executor.OutcomeFailure:
			s.record(ctx, task, outcome)
			if s.retryOnFailure() {
				s.logger.Info("retrying failed task", "task_id", id)
				// Head position is preserved: the same task runs again
				// after the randomized delay.
			} else {
				s.dequeue(id)
			}
			if !s.policyAllowsAdvance() {
				return
			}
		}

		if s.stopped() {
			return
		}
		if !s.sleepRandom(ctx) {
			return
		}
	}
}

// executeTask marks the task in progress and runs it through the channel.
// Every problem short of a successful round-trip becomes an outcome.
func (s *Scheduler) executeTask(ctx context.Context, task *domain.Task, fillOnly bool) executor.Outcome {
	if err := s.channel.Ping(ctx); err != nil {
		if ctx.Err() != nil {
			return executor.Cancelled()
		}
		s.logger.Warn("execution context unreachable", "task_id", task.ID, "error", err)
		return executor.Failure(connectivityMessage)
	}

	if err := s.tasks.UpdateTask(ctx, task.ID, store.StatusUpdate(domain.TaskStatusInProgress)); err != nil {
		s.logger.Warn("failed to mark task in progress", "task_id", task.ID, "error", err)
	}
	s.emit(ctx, events.EventTaskStarted, map[string]any{"task_id": task.ID})

	req := &executor.Request{Task: task.Snapshot(), FillOnly: fillOnly}
	if len(task.ReferenceImageIDs) > 0 && s.images != nil {
		images, err := s.images.ResolveReferenceImages(ctx, task.ReferenceImageIDs)
		if err != nil {
			return executor.Failure("resolve reference images: " + err.Error())
		}
		req.Images = images
	}

	outcome, err := s.channel.Execute(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return executor.Cancelled()
		}
		if errors.Is(err, channel.ErrUnreachable) {
			return executor.Failure(connectivityMessage)
		}
		return executor.Failure("execution transport: " + err.Error())
	}

	s.emit(ctx, events.EventTaskFinished, map[string]any{
		"task_id": task.ID,
		"outcome": outcome.Status,
	})
	return outcome
}

func (s *Scheduler) record(ctx context.Context, task *domain.Task, outcome executor.Outcome) {
	// Recording runs on a fresh context: a stop must not lose the outcome
	// of the task that just ran.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if _, err := s.recorder.Record(recordCtx, task, outcome); err != nil {
		s.logger.Error("failed to record outcome",
			"task_id", task.ID,
			"outcome", outcome.Status,
			"error", err)
	}
}

func (s *Scheduler) finish(ctx context.Context) {
	s.mu.Lock()
	s.running = false
	s.current = nil
	s.queue = nil
	s.stopRequested = false
	if s.cancelRun != nil {
		s.cancelRun()
		s.cancelRun = nil
	}
	s.mu.Unlock()
	s.logger.Info("queue run ended")
}

func (s *Scheduler) emit(ctx context.Context, eventType string, payload any) {
	if s.emitter == nil {
		return
	}
	event, err := events.NewEvent(eventType, payload)
	if err != nil {
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.logger.Warn("event emission failed", "event_type", eventType, "error", err)
	}
}

func (s *Scheduler) peek() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return uuid.Nil, false
	}
	return s.queue[0], true
}

func (s *Scheduler) dequeue(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, queued := range s.queue {
		if queued == id {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}
}

func (s *Scheduler) setCurrent(id *uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = id
}

func (s *Scheduler) stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopRequested
}

func (s *Scheduler) policyAllowsAdvance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy.AutoAdvance
}

func (s *Scheduler) retryOnFailure() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy.RetryOnFailure
}

// sleepRandom applies the randomized inter-task delay. Returns false when
// the run context was cancelled during the wait.
func (s *Scheduler) sleepRandom(ctx context.Context) bool {
	s.mu.Lock()
	span := s.cfg.DelayMax - s.cfg.DelayMin
	delay := s.cfg.DelayMin
	if span > 0 {
		delay += time.Duration(s.rng.Int63n(int64(span)))
	}
	s.mu.Unlock()
	return s.sleep(ctx, delay)
}

func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
