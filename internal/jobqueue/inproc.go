package jobqueue

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"stonks-manager/config"
	"stonks-manager/internal/model"
	"stonks-manager/pkg/cache"
	"stonks-manager/pkg/logger"
	"stonks-manager/pkg/utils"

	"github.com/google/uuid"
)

// RunRecorder persists one row per job execution for observability. A nil
// recorder disables history.
type RunRecorder interface {
	Started(ctx context.Context, run *model.JobRun) error
	Finished(ctx context.Context, run *model.JobRun) error
}

// InProc is an in-process implementation of the Queue contract: a bounded
// worker pool pulls submitted jobs and runs the handler registered for their
// kind. Job states live in the TTL cache so finished results age out on
// their own after the retention window.
type InProc struct {
	cfg      config.Queue
	log      *logger.Logger
	states   cache.Cache
	recorder RunRecorder

	mu        sync.RWMutex
	handlers  map[Kind]Handler
	semaphore chan struct{}
}

func NewInProc(cfg config.Queue, log *logger.Logger, states cache.Cache, recorder RunRecorder) *InProc {
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &InProc{
		cfg:       cfg,
		log:       log,
		states:    states,
		recorder:  recorder,
		handlers:  make(map[Kind]Handler),
		semaphore: make(chan struct{}, maxConcurrency),
	}
}

// Register installs the handler for a job kind. Kinds without a handler are
// simply not available yet; Submit rejects them.
func (q *InProc) Register(kind Kind, handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[kind] = handler
}

// Handles reports whether a worker for the kind has been rolled out.
func (q *InProc) Handles(kind Kind) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	_, ok := q.handlers[kind]
	return ok
}

func stateKey(jobID string) string {
	return "job:" + jobID
}

// Submit enqueues the job and returns immediately with its id. The handler
// runs on the worker pool; callers observe progress through Query.
func (q *InProc) Submit(ctx context.Context, desc Descriptor) (string, error) {
	q.mu.RLock()
	handler, ok := q.handlers[desc.Kind]
	q.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("no handler registered for job kind %q", desc.Kind)
	}

	jobID := uuid.NewString()
	q.setState(jobID, Status{State: StatePending})

	q.log.InfoContext(ctx, "Job submitted",
		logger.StringField("job_id", jobID),
		logger.StringField("kind", string(desc.Kind)),
	)

	utils.GoSafe(func() {
		q.semaphore <- struct{}{}
		defer func() { <-q.semaphore }()
		q.execute(jobID, desc, handler)
	})

	return jobID, nil
}

// Query returns the job's current status, or ErrUnknownJob for ids the
// fabric has no record of (never submitted, or past retention).
func (q *InProc) Query(ctx context.Context, jobID string) (Status, error) {
	status, ok := cache.GetTyped[Status](q.states, stateKey(jobID))
	if !ok {
		return Status{}, fmt.Errorf("job %s: %w", jobID, ErrUnknownJob)
	}
	return status, nil
}

func (q *InProc) execute(jobID string, desc Descriptor, handler Handler) {
	// The submitting request is long gone by the time a worker picks the job
	// up, so execution gets its own deadline.
	ctx, cancel := context.WithTimeout(context.Background(), q.cfg.JobTimeout)
	defer cancel()

	q.setState(jobID, Status{State: StateRunning})

	run := q.recordStart(ctx, jobID, desc)

	result, err := handler(ctx, desc)
	if err != nil {
		failure := FailureFromError(err)
		q.log.ErrorContext(ctx, "Job failed",
			logger.StringField("job_id", jobID),
			logger.StringField("kind", string(desc.Kind)),
			logger.StringField("failure_code", failure.Code),
			logger.ErrorField(err),
		)
		q.setState(jobID, Status{State: StateFailure, Failure: failure})
		q.recordFinish(ctx, run, nil, err)
		return
	}

	q.log.InfoContext(ctx, "Job completed",
		logger.StringField("job_id", jobID),
		logger.StringField("kind", string(desc.Kind)),
	)
	q.setState(jobID, Status{State: StateSuccess, Result: result})
	q.recordFinish(ctx, run, result, nil)
}

func (q *InProc) setState(jobID string, status Status) {
	q.states.Set(stateKey(jobID), status, q.cfg.ResultRetention)
}

func (q *InProc) recordStart(ctx context.Context, jobID string, desc Descriptor) *model.JobRun {
	if q.recorder == nil {
		return nil
	}
	payload, err := json.Marshal(desc.Payload)
	if err != nil {
		q.log.WarnContext(ctx, "Failed to marshal job payload for history", logger.ErrorField(err))
		payload = []byte("{}")
	}
	run := &model.JobRun{
		JobID:     jobID,
		Kind:      string(desc.Kind),
		Payload:   payload,
		Status:    model.JobRunRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := q.recorder.Started(ctx, run); err != nil {
		q.log.WarnContext(ctx, "Failed to record job run", logger.ErrorField(err), logger.StringField("job_id", jobID))
		return nil
	}
	return run
}

func (q *InProc) recordFinish(ctx context.Context, run *model.JobRun, result interface{}, execErr error) {
	if q.recorder == nil || run == nil {
		return
	}
	run.CompletedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	if execErr != nil {
		run.Status = model.JobRunFailed
		run.ErrorMessage = sql.NullString{String: execErr.Error(), Valid: true}
	} else {
		run.Status = model.JobRunCompleted
		if out, err := json.Marshal(result); err == nil {
			run.Output = sql.NullString{String: string(out), Valid: true}
		}
	}
	if err := q.recorder.Finished(ctx, run); err != nil {
		q.log.WarnContext(ctx, "Failed to update job run", logger.ErrorField(err), logger.StringField("job_id", run.JobID))
	}
}
