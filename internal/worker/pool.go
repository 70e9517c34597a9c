// Package worker runs playlist analyses in the background.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ewilliams-labs/encore/internal/config"
	"github.com/ewilliams-labs/encore/internal/core/domain"
)

var (
	// ErrQueueFull is returned by Submit when no queue slot is free.
	ErrQueueFull = errors.New("job queue full")
	// ErrStopped is returned by Submit after Stop.
	ErrStopped = errors.New("worker pool stopped")
)

// State is the lifecycle position of a job.
type State string

const (
	StateQueued  State = "queued"
	StateRunning State = "running"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// Analyzer is the pipeline the pool runs for every job.
type Analyzer interface {
	Analyze(ctx context.Context, link string) (domain.Analysis, error)
}

// Job is a snapshot of one submitted analysis.
type Job struct {
	ID         string    `json:"id"`
	Link       string    `json:"link"`
	State      State     `json:"state"`
	AnalysisID string    `json:"analysis_id,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	err error
}

// Err is the failure of a failed job.
func (j Job) Err() error { return j.err }

const (
	defaultJobRetention    = time.Hour
	defaultMaxFinishedJobs = 1000
)

func (s State) finished() bool { return s == StateDone || s == StateFailed }

// Pool manages background workers for async analyses.
type Pool struct {
	analyzer    Analyzer
	workers     int
	retention   time.Duration
	maxFinished int
	logger      *zap.Logger
	now         func() time.Time

	// ctx is the parent of every analysis; Stop cancels it when the drain
	// deadline passes.
	ctx    context.Context
	cancel context.CancelFunc

	queue chan string
	wg    sync.WaitGroup

	mu      sync.Mutex
	jobs    map[string]*Job
	stopped bool
}

// NewPool creates a worker pool with the configured worker count and queue size.
func NewPool(analyzer Analyzer, cfg config.Worker, logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	retention := cfg.JobRetention
	if retention <= 0 {
		retention = defaultJobRetention
	}
	maxFinished := cfg.MaxFinishedJobs
	if maxFinished <= 0 {
		maxFinished = defaultMaxFinishedJobs
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		analyzer:    analyzer,
		workers:     max(cfg.Count, 1),
		retention:   retention,
		maxFinished: maxFinished,
		logger:      logger.Named("worker"),
		now:         time.Now,
		ctx:         ctx,
		cancel:      cancel,
		queue:       make(chan string, max(cfg.QueueSize, 1)),
		jobs:        map[string]*Job{},
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for id := range p.queue {
				p.process(id)
			}
		}()
	}
}

// Stop closes the queue and waits for queued jobs to finish. When ctx ends
// first, running analyses are canceled, the remaining jobs fail fast, and
// ctx's error is returned once the workers exit.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.logger.Warn("worker: drain deadline passed, canceling running jobs")
		p.cancel()
		<-done
		return ctx.Err()
	}
}

// Submit queues an analysis without blocking and returns its job id. The
// link is validated up front so a bad link never takes a queue slot.
func (p *Pool) Submit(link string) (string, error) {
	if _, err := domain.ParsePlaylistLink(link); err != nil {
		return "", err
	}

	now := p.now().UTC()
	job := &Job{ID: uuid.NewString(), Link: link, State: StateQueued, CreatedAt: now, UpdatedAt: now}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return "", ErrStopped
	}
	p.prune()
	select {
	case p.queue <- job.ID:
		p.jobs[job.ID] = job
	default:
		p.logger.Warn("worker: dropping job, queue full", zap.String("link", link))
		return "", ErrQueueFull
	}
	return job.ID, nil
}

// Status returns a snapshot of the job, or domain.ErrNotFound.
func (p *Pool) Status(id string) (Job, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	job, ok := p.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("worker: job %s: %w", id, domain.ErrNotFound)
	}
	return *job, nil
}

func (p *Pool) process(id string) {
	link, ok := p.transition(id, StateRunning, "", nil)
	if !ok {
		return
	}

	started := time.Now()
	analysis, err := p.analyzer.Analyze(p.ctx, link)
	if err != nil {
		p.transition(id, StateFailed, "", err)
		p.logger.Warn("worker: job failed", zap.String("job_id", id), zap.Error(err))
		return
	}

	p.transition(id, StateDone, analysis.ID, nil)
	p.logger.Info("worker: job done",
		zap.String("job_id", id),
		zap.String("analysis_id", analysis.ID),
		zap.Duration("elapsed", time.Since(started)))
}

// transition moves a job to state and returns its link.
func (p *Pool) transition(id string, state State, analysisID string, err error) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	job, ok := p.jobs[id]
	if !ok {
		return "", false
	}
	job.State = state
	job.UpdatedAt = p.now().UTC()
	if analysisID != "" {
		job.AnalysisID = analysisID
	}
	if err != nil {
		job.err = err
		job.Error = err.Error()
	}
	link := job.Link
	if state.finished() {
		p.prune()
	}
	return link, true
}

// prune forgets finished jobs past the retention window, then the oldest
// finished jobs over the cap. Queued and running jobs are never dropped.
// Callers hold p.mu.
func (p *Pool) prune() {
	cutoff := p.now().UTC().Add(-p.retention)
	var finished []*Job
	for id, job := range p.jobs {
		if !job.State.finished() {
			continue
		}
		if job.UpdatedAt.Before(cutoff) {
			delete(p.jobs, id)
			continue
		}
		finished = append(finished, job)
	}

	excess := len(finished) - p.maxFinished
	if excess <= 0 {
		return
	}
	sort.Slice(finished, func(i, j int) bool { return finished[i].UpdatedAt.Before(finished[j].UpdatedAt) })
	for _, job := range finished[:excess] {
		delete(p.jobs, job.ID)
	}
}
