/*
scheduler.go - Background solve queue

PURPOSE:
  Full-year models can take minutes under CBC, longer than an HTTP client
  should wait. POST /api/plans with "async": true queues the solve here
  and returns a job; clients poll GET /api/jobs/{id} until it is done.

DESIGN:
  - A fixed number of worker goroutines read from a bounded channel
  - Submit never blocks: a full queue is reported as ErrQueueFull (429)
  - Each solve runs under a context cancelled by Stop
  - Job records stay in memory; the runs they produce go to the store
  - Finished jobs are evicted on Submit once older than JobTTL, or
    oldest first when more than MaxJobs records are held

JOB STATES:
  queued -> running -> done | failed
  An infeasible model is "done": the run exists and carries the status.

USAGE:
  queue := NewSolveQueue(service, 2, 16)
  queue.Start()
  // ... later
  queue.Stop()

SEE ALSO:
  - handlers.go: CreatePlan, GetJob
  - planner/service.go: Service.Run
*/
package api

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/harvest-planner/catalog"
	"github.com/warp/harvest-planner/generic"
	"github.com/warp/harvest-planner/planner"
)

// ErrQueueFull is returned by Submit when every slot is taken.
var ErrQueueFull = errors.New("solve queue is full")

// ErrQueueStopped is returned by Submit after Stop.
var ErrQueueStopped = errors.New("solve queue is stopped")

// Defaults for the job record limits.
const (
	DefaultJobTTL  = 15 * time.Minute
	DefaultMaxJobs = 1000
)

type JobState string

const (
	JobQueued  JobState = "queued"
	JobRunning JobState = "running"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// Job is a snapshot of an asynchronous solve.
type Job struct {
	ID          string
	Scenario    string
	State       JobState
	RunID       generic.RunID
	Error       string
	SubmittedAt time.Time
	FinishedAt  time.Time
}

type jobInput struct {
	id       string
	scenario string
	catalog  *catalog.Catalog
	settings planner.Settings
}

// SolveQueue runs plan requests in the background.
type SolveQueue struct {
	Service *planner.Service
	Workers int
	Logger  zerolog.Logger

	// JobTTL is how long a finished job stays readable.
	JobTTL time.Duration
	// MaxJobs caps the job records kept. Queued and running jobs are
	// never evicted, so the cap can be exceeded while they are.
	MaxJobs int

	queue  chan jobInput
	jobs   map[string]*Job
	ctx    context.Context
	cancel context.CancelFunc
	now    func() time.Time
	wg     sync.WaitGroup
	mu     sync.Mutex

	started bool
	stopped bool
}

// NewSolveQueue creates a queue with the given worker count and capacity.
func NewSolveQueue(service *planner.Service, workers, capacity int) *SolveQueue {
	if workers < 1 {
		workers = 1
	}
	if capacity < 1 {
		capacity = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &SolveQueue{
		Service: service,
		Workers: workers,
		Logger:  zerolog.Nop(),
		JobTTL:  DefaultJobTTL,
		MaxJobs: DefaultMaxJobs,
		now:     time.Now,
		queue:   make(chan jobInput, capacity),
		jobs:    make(map[string]*Job),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers. Calling it twice has no effect.
func (q *SolveQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started || q.stopped {
		return
	}
	q.started = true
	for i := 0; i < q.Workers; i++ {
		q.wg.Add(1)
		go q.run()
	}
	q.Logger.Info().Int("workers", q.Workers).Int("capacity", cap(q.queue)).Msg("solve queue started")
}

// Stop cancels running solves and waits for the workers to exit. Jobs
// still queued are marked failed.
func (q *SolveQueue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	q.cancel()
	close(q.queue)
	q.mu.Unlock()

	q.wg.Wait()

	q.mu.Lock()
	defer q.mu.Unlock()
	for in := range q.queue {
		q.finishLocked(in.id, JobFailed, "", ErrQueueStopped)
	}
	q.Logger.Info().Msg("solve queue stopped")
}

// Submit queues a solve and returns the job as queued.
func (q *SolveQueue) Submit(scenario string, cat *catalog.Catalog, settings planner.Settings) (Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped {
		return Job{}, ErrQueueStopped
	}
	q.evictLocked()
	in := jobInput{id: uuid.NewString(), scenario: scenario, catalog: cat, settings: settings}
	select {
	case q.queue <- in:
	default:
		return Job{}, ErrQueueFull
	}

	job := &Job{ID: in.id, Scenario: scenario, State: JobQueued, SubmittedAt: q.now().UTC()}
	q.jobs[job.ID] = job
	return *job, nil
}

// Get returns a snapshot of the job.
func (q *SolveQueue) Get(id string) (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

func (q *SolveQueue) run() {
	defer q.wg.Done()

	for in := range q.queue {
		if q.ctx.Err() != nil {
			q.finish(in.id, JobFailed, "", ErrQueueStopped)
			continue
		}
		q.setState(in.id, JobRunning)

		run, _, err := q.Service.Run(q.ctx, in.scenario, in.catalog, in.settings)
		switch {
		case run != nil:
			// infeasible and unbounded runs are stored with their status
			q.finish(in.id, JobDone, run.ID, nil)
		default:
			q.Logger.Warn().Err(err).Str("job", in.id).Msg("queued solve failed")
			q.finish(in.id, JobFailed, "", err)
		}
	}
}

func (q *SolveQueue) setState(id string, state JobState) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if job, ok := q.jobs[id]; ok {
		job.State = state
	}
}

func (q *SolveQueue) finish(id string, state JobState, runID generic.RunID, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.finishLocked(id, state, runID, err)
}

func (q *SolveQueue) finishLocked(id string, state JobState, runID generic.RunID, err error) {
	job, ok := q.jobs[id]
	if !ok {
		return
	}
	job.State = state
	job.RunID = runID
	if err != nil {
		job.Error = err.Error()
	}
	job.FinishedAt = q.now().UTC()
}

// evictLocked drops expired finished jobs, then the oldest finished ones
// until there is room for one more record.
func (q *SolveQueue) evictLocked() {
	now := q.now().UTC()
	var finished []*Job
	for id, job := range q.jobs {
		if job.State != JobDone && job.State != JobFailed {
			continue
		}
		if q.JobTTL > 0 && now.Sub(job.FinishedAt) >= q.JobTTL {
			delete(q.jobs, id)
			continue
		}
		finished = append(finished, job)
	}

	if q.MaxJobs <= 0 || len(q.jobs) < q.MaxJobs {
		return
	}
	sort.Slice(finished, func(i, j int) bool {
		return finished[i].FinishedAt.Before(finished[j].FinishedAt)
	})
	for _, job := range finished {
		if len(q.jobs) < q.MaxJobs {
			break
		}
		delete(q.jobs, job.ID)
	}
}
