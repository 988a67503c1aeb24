package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

var (
	// ErrUnknownJob is returned by RunNow for a name that was never registered.
	ErrUnknownJob = errors.New("unknown job")

	// ErrJobRunning is returned by RunNow while another run of the same job
	// is in progress.
	ErrJobRunning = errors.New("job is already running")
)

// RunFunc executes one pass of a job and returns how many todos it changed.
type RunFunc func(ctx context.Context) (int, error)

// Job is a named unit of periodic work.
type Job struct {
	// Name identifies the job in logs and in RunNow.
	Name string

	// Interval is the time between ticker-driven runs.
	Interval time.Duration

	// RunOnStart makes the scheduler run the job once as soon as it starts.
	RunOnStart bool

	// Run performs the work.
	Run RunFunc
}

// Result describes a finished run.
type Result struct {
	Job       string
	Processed int
	Started   time.Time
	Duration  time.Duration
	Err       error
}

// SchedulerConfig holds configuration for the scheduler
type SchedulerConfig struct {
	// RunTimeout bounds a single run. Zero means no bound.
	RunTimeout time.Duration
}

// DefaultSchedulerConfig returns a SchedulerConfig with reasonable defaults
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		RunTimeout: 5 * time.Minute,
	}
}

type registered struct {
	job  Job
	busy sync.Mutex
}

// Scheduler runs registered jobs on their intervals.
type Scheduler struct {
	jobs       map[string]*registered
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     SchedulerConfig
	logger     *slog.Logger
	onResult   func(Result)

	mu      sync.Mutex
	started bool
}

// NewScheduler creates a Scheduler with no jobs.
func NewScheduler(config SchedulerConfig, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		jobs:       make(map[string]*registered),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger.With("component", "job_scheduler"),
		onResult:   func(Result) {},
	}
}

// SetResultHandler registers a callback invoked after every run.
func (s *Scheduler) SetResultHandler(handler func(Result)) {
	if handler == nil {
		handler = func(Result) {}
	}
	s.onResult = handler
}

// Register adds a job. It must be called before Start.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" {
		return errors.New("job name cannot be empty")
	}
	if job.Run == nil {
		return fmt.Errorf("job %s: run function cannot be nil", job.Name)
	}
	if job.Interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", job.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("job %s: scheduler already started", job.Name)
	}
	if _, ok := s.jobs[job.Name]; ok {
		return fmt.Errorf("job %s: already registered", job.Name)
	}
	s.jobs[job.Name] = &registered{job: job}
	return nil
}

// Names returns the registered job names in sorted order.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start launches one goroutine per job.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	for _, r := range s.jobs {
		s.wg.Add(1)
		go s.loop(r)
	}
	s.logger.Info("job scheduler started", slog.Int("jobs", len(s.jobs)))
}

// Stop cancels in-flight runs and waits for every job goroutine to exit.
func (s *Scheduler) Stop() {
	s.cancelFunc()
	s.wg.Wait()
	s.logger.Info("job scheduler stopped")
}

// RunNow runs the named job synchronously. It fails with ErrJobRunning
// instead of waiting when the job is already running.
func (s *Scheduler) RunNow(ctx context.Context, name string) (Result, error) {
	s.mu.Lock()
	r, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return Result{Job: name}, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	result, ran := s.run(ctx, r)
	if !ran {
		return result, fmt.Errorf("%w: %s", ErrJobRunning, name)
	}
	return result, result.Err
}

// loop drives a job from its ticker until the scheduler stops.
func (s *Scheduler) loop(r *registered) {
	defer s.wg.Done()

	ticker := time.NewTicker(r.job.Interval)
	defer ticker.Stop()

	if r.job.RunOnStart {
		s.tick(r)
	}

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tick(r)
		}
	}
}

func (s *Scheduler) tick(r *registered) {
	if _, ran := s.run(s.ctx, r); !ran {
		s.logger.Debug("previous run still in progress, skipping tick",
			slog.String("job", r.job.Name))
	}
}

// run executes one pass unless another pass of the same job holds the lock.
func (s *Scheduler) run(ctx context.Context, r *registered) (Result, bool) {
	result := Result{Job: r.job.Name}
	if !r.busy.TryLock() {
		return result, false
	}
	defer r.busy.Unlock()

	if s.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RunTimeout)
		defer cancel()
	}

	log := s.logger.With(slog.String("job", r.job.Name))
	result.Started = time.Now()
	result.Processed, result.Err = s.safeRun(ctx, r.job)
	result.Duration = time.Since(result.Started)

	if result.Err != nil {
		log.Error("job run failed",
			slog.Duration("duration", result.Duration),
			slog.String("error", result.Err.Error()))
	} else {
		log.Info("job run completed",
			slog.Int("processed", result.Processed),
			slog.Duration("duration", result.Duration))
	}
	s.onResult(result)
	return result, true
}

// safeRun converts a panic in a job into an error so one bad run does not
// take the scheduler down.
func (s *Scheduler) safeRun(ctx context.Context, job Job) (n int, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, p)
		}
	}()
	return job.Run(ctx)
}
