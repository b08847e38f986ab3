package conversion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/amonks/fileconverter/api"
	"github.com/amonks/fileconverter/settings"
	"github.com/amonks/fileconverter/upload"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultPollInterval is the spacing between progress requests.
	DefaultPollInterval = time.Second
	// DefaultMaxPollFailures is how many consecutive failed progress
	// requests end a run.
	DefaultMaxPollFailures = 60
)

var (
	// ErrAlreadySubmitted is returned when Submit is called twice.
	ErrAlreadySubmitted = errors.New("conversion already submitted")
	// ErrClosed is returned when Submit is called after Close.
	ErrClosed = errors.New("conversion orchestrator is closed")
)

// Transport is the part of the service API a run needs. *api.Client
// satisfies it.
type Transport interface {
	Upload(ctx context.Context, file api.UploadFile) (api.UploadResponse, error)
	StartProcessing(ctx context.Context, sessionID string) error
	Progress(ctx context.Context, sessionID string) (api.Progress, error)
}

// Options configures an Orchestrator.
type Options struct {
	// PollInterval defaults to DefaultPollInterval.
	PollInterval time.Duration
	// MaxPollFailures ends the run after that many consecutive failed
	// progress requests. Zero means DefaultMaxPollFailures; a negative
	// value retries forever.
	MaxPollFailures int
	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger
	// OnUpdate receives a snapshot after every state change. It is called
	// from the run goroutine and must not block for long.
	OnUpdate func(Session)
}

// Orchestrator owns the lifecycle of one conversion. Create a new one for
// every file; it is never reused.
type Orchestrator struct {
	transport   Transport
	interval    time.Duration
	maxFailures int
	logger      zerolog.Logger
	onUpdate    func(Session)

	mu        sync.Mutex
	session   Session
	submitted bool
	closed    bool
	cancel    context.CancelFunc

	done      chan struct{}
	closeOnce sync.Once
}

// New creates an idle orchestrator.
func New(transport Transport, opts Options) *Orchestrator {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	maxFailures := opts.MaxPollFailures
	if maxFailures == 0 {
		maxFailures = DefaultMaxPollFailures
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	runID := uuid.NewString()

	return &Orchestrator{
		transport:   transport,
		interval:    interval,
		maxFailures: maxFailures,
		logger:      logger.With().Str("run_id", runID).Logger(),
		onUpdate:    opts.OnUpdate,
		session:     Session{RunID: runID, Status: StatusIdle},
		done:        make(chan struct{}),
	}
}

// Submit runs the upload gate and, when it allows, starts the run in the
// background. A declined gate leaves the orchestrator idle and makes no
// requests. Only the first accepted Submit starts a run; later calls return
// ErrAlreadySubmitted.
func (o *Orchestrator) Submit(ctx context.Context, source Source, status settings.Status) (upload.Decision, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return upload.Decision{}, ErrClosed
	}
	if o.submitted {
		return upload.Decision{}, ErrAlreadySubmitted
	}

	decision := upload.Decide(source.Candidate, status)
	if decision.Kind != upload.DecisionProceed {
		o.logger.Debug().
			Str("file", source.Candidate.Name).
			Stringer("decision", decision.Kind).
			Msg("upload gate declined")
		return decision, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.submitted = true
	o.cancel = cancel
	o.session.FileName = source.Candidate.Name
	o.session.Status = StatusUploading

	go o.run(runCtx, cancel, source)
	return decision, nil
}

// Snapshot returns a copy of the current session.
func (o *Orchestrator) Snapshot() Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session.clone()
}

// Done is closed when the run has stopped, or on Close if nothing was submitted.
func (o *Orchestrator) Done() <-chan struct{} {
	return o.done
}

// Wait blocks until the run stops and returns the final session.
func (o *Orchestrator) Wait(ctx context.Context) (Session, error) {
	select {
	case <-o.done:
		return o.Snapshot(), nil
	case <-ctx.Done():
		return o.Snapshot(), ctx.Err()
	}
}

// Close tears the orchestrator down: polling stops, in-flight requests are
// cancelled, and the session is never mutated again. Close is idempotent.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		o.mu.Lock()
		o.closed = true
		cancel := o.cancel
		started := o.submitted
		o.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if !started {
			close(o.done)
		}
	})
}

func (o *Orchestrator) run(ctx context.Context, cancel context.CancelFunc, source Source) {
	defer close(o.done)
	defer cancel()

	o.notify(o.Snapshot())
	o.logger.Debug().Str("file", source.Candidate.Name).Int64("size", source.Candidate.Size).Msg("uploading")

	sessionID, err := o.upload(ctx, source)
	if err != nil {
		o.fail(ctx, StatusUploading, err.Error())
		return
	}
	if !o.transition(ctx, StatusUploading, func(s *Session) {
		s.ID = sessionID
		s.Status = StatusStarting
	}) {
		return
	}

	logger := o.logger.With().Str("session_id", sessionID).Logger()
	if err := o.transport.StartProcessing(ctx, sessionID); err != nil {
		o.fail(ctx, StatusStarting, err.Error())
		return
	}
	if !o.transition(ctx, StatusStarting, func(s *Session) {
		s.Status = StatusPolling
	}) {
		return
	}

	o.poll(ctx, sessionID, logger)
}

func (o *Orchestrator) upload(ctx context.Context, source Source) (string, error) {
	if source.Open == nil {
		return "", fmt.Errorf("open %s: no reader", source.Candidate.Name)
	}
	body, err := source.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", source.Candidate.Name, err)
	}
	defer body.Close()

	response, err := o.transport.Upload(ctx, api.UploadFile{
		Name:        source.Candidate.Name,
		ContentType: source.Candidate.ContentType,
		Size:        source.Candidate.Size,
		Body:        io.Reader(body),
	})
	if err != nil {
		return "", err
	}
	return response.SessionID, nil
}

type pollResult struct {
	seq      uint64
	progress api.Progress
	err      error
}

// poll issues a progress request on every tick, independent of how long
// earlier requests take. Only the newest response is applied.
func (o *Orchestrator) poll(ctx context.Context, sessionID string, logger zerolog.Logger) {
	pollCtx, stop := context.WithCancel(ctx)
	defer stop()

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	results := make(chan pollResult)
	var issued, applied uint64
	failures := 0

	dispatch := func() {
		issued++
		seq := issued
		go func() {
			progress, err := o.transport.Progress(pollCtx, sessionID)
			select {
			case results <- pollResult{seq: seq, progress: progress, err: err}:
			case <-pollCtx.Done():
			}
		}()
	}

	dispatch()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dispatch()
		case result := <-results:
			if result.seq < applied {
				logger.Debug().Uint64("seq", result.seq).Uint64("applied", applied).Msg("discarding stale progress response")
				continue
			}
			if result.err != nil {
				failures++
				logger.Warn().Err(result.err).Int("failures", failures).Msg("progress request failed")
				if o.maxFailures > 0 && failures >= o.maxFailures {
					o.fail(ctx, StatusPolling, fmt.Sprintf("lost contact with conversion service after %d failed progress checks", failures))
					return
				}
				if !o.transition(ctx, StatusPolling, func(s *Session) {
					s.PollFailures = failures
				}) {
					return
				}
				continue
			}
			applied = result.seq
			failures = 0
			if stopped := o.apply(ctx, result.progress); stopped {
				return
			}
		}
	}
}

// apply folds a progress response into the session and reports whether
// polling should stop.
func (o *Orchestrator) apply(ctx context.Context, progress api.Progress) bool {
	terminal := false
	ok := o.transition(ctx, StatusPolling, func(s *Session) {
		s.ServerStatus = progress.Status
		s.PollFailures = 0
		if len(progress.Steps) > 0 {
			s.Steps = slices.Clone(progress.Steps)
		}
		s.CurrentStep = max(progress.CurrentStep, 0)
		s.Progress = max(s.Progress, clampPercent(progress.Progress))
		s.Elapsed = max(s.Elapsed, int(progress.ElapsedTime))

		terminal = settle(s, progress)
	})
	return !ok || terminal
}

func (o *Orchestrator) fail(ctx context.Context, from Status, message string) {
	o.transition(ctx, from, func(s *Session) {
		s.Status = StatusFailed
		s.Error = message
	})
}

// transition mutates the session only while the run is live and still in
// the expected state. It reports whether the change was applied.
func (o *Orchestrator) transition(ctx context.Context, from Status, fn func(*Session)) bool {
	o.mu.Lock()
	if ctx.Err() != nil || o.closed || o.session.Status != from {
		o.mu.Unlock()
		return false
	}
	fn(&o.session)
	snapshot := o.session.clone()
	o.mu.Unlock()

	if snapshot.Status != from {
		event := o.logger.Debug()
		if snapshot.Status == StatusFailed {
			event = o.logger.Warn().Str("error", snapshot.Error)
		}
		event.
			Str("session_id", snapshot.ID).
			Str("from", string(from)).
			Str("to", string(snapshot.Status)).
			Msg("conversion state changed")
	}
	o.notify(snapshot)
	return true
}

func (o *Orchestrator) notify(snapshot Session) {
	if o.onUpdate != nil {
		o.onUpdate(snapshot)
	}
}

func clampPercent(value float64) float64 {
	return min(max(value, 0), 100)
}
