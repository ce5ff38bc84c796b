package service

import (
	"context"
	"fmt"
	"strings"

	"stonks-manager/config"
	"stonks-manager/internal/dto"
	"stonks-manager/internal/jobqueue"
	"stonks-manager/internal/model"
	"stonks-manager/internal/repository"
	"stonks-manager/pkg/logger"

	"github.com/google/uuid"
)

// AnalysisQueue is the fabric surface the coordinator needs: the submit/query
// contract plus visibility into which analysis kinds have been rolled out.
type AnalysisQueue interface {
	jobqueue.Queue
	Handles(kind jobqueue.Kind) bool
}

// CoordinatorService owns parent tasks: it dispatches the initial fetch job,
// tracks sub-jobs and reconciles their states into one aggregate status.
type CoordinatorService interface {
	CreateTask(ctx context.Context, req dto.AnalyzeRequest, requester string) (string, error)
	GetStatus(ctx context.Context, taskID string) (*dto.TaskStatusResponse, error)
}

type coordinatorService struct {
	cfg       *config.Config
	log       *logger.Logger
	queue     AnalysisQueue
	taskStore repository.TaskStore
}

func NewCoordinatorService(cfg *config.Config, log *logger.Logger, queue AnalysisQueue, taskStore repository.TaskStore) CoordinatorService {
	return &coordinatorService{
		cfg:       cfg,
		log:       log,
		queue:     queue,
		taskStore: taskStore,
	}
}

// CreateTask submits the fetch job and persists the initial Task record.
// Concurrent identical requests create independent tasks; the idempotent
// pipeline makes the duplicate fetches converge.
func (s *coordinatorService) CreateTask(ctx context.Context, req dto.AnalyzeRequest, requester string) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))

	desc, err := jobqueue.NewFetchJob(symbol)
	if err != nil {
		return "", err
	}

	jobID, err := s.queue.Submit(ctx, desc)
	if err != nil {
		return "", fmt.Errorf("failed to submit fetch job for %s: %w", symbol, err)
	}

	taskID := uuid.NewString()
	task := &model.Task{
		TaskID:            taskID,
		Symbol:            symbol,
		Analyses:          req.Analyses,
		ForecastTimeframe: req.ForecastTimeframe,
		Requester:         requester,
		SubJobs:           map[string]string{dto.RoleData: jobID},
		Status:            dto.TaskStatusFetchingData,
	}
	if err := s.taskStore.Save(task); err != nil {
		return "", err
	}

	s.log.InfoContext(ctx, "Task created",
		logger.StringField("task_id", taskID),
		logger.StringField("symbol", symbol),
		logger.StringField("data_job_id", jobID),
	)
	return taskID, nil
}

// GetStatus recomputes the aggregate view from the queue on every call and
// persists it before returning. Terminal tasks are served from the stored
// view; their sub-job states can no longer change.
func (s *coordinatorService) GetStatus(ctx context.Context, taskID string) (*dto.TaskStatusResponse, error) {
	task, err := s.taskStore.Get(taskID)
	if err != nil {
		return nil, err
	}

	if (task.Status == dto.TaskStatusComplete || task.Status == dto.TaskStatusFailed) && task.Results != nil {
		return &dto.TaskStatusResponse{
			TaskID:  task.TaskID,
			Symbol:  task.Symbol,
			Status:  task.Status,
			Results: task.Results,
		}, nil
	}

	results := make(map[string]dto.SubJobView)
	overall, err := s.aggregate(ctx, task, results)
	if err != nil {
		return nil, err
	}

	task.Status = overall
	task.Results = results
	if err := s.taskStore.Save(task); err != nil {
		return nil, err
	}

	return &dto.TaskStatusResponse{
		TaskID:  task.TaskID,
		Symbol:  task.Symbol,
		Status:  overall,
		Results: results,
	}, nil
}

func (s *coordinatorService) aggregate(ctx context.Context, task *model.Task, results map[string]dto.SubJobView) (string, error) {
	dataStatus, err := s.queue.Query(ctx, task.SubJobs[dto.RoleData])
	if err != nil {
		return "", fmt.Errorf("failed to query data job for task %s: %w", task.TaskID, err)
	}

	switch dataStatus.State {
	case jobqueue.StateFailure:
		// Analyses are never queried once the data job has failed; they can
		// produce nothing useful without the fetched data.
		results[dto.RoleData] = dto.SubJobView{
			Status: string(jobqueue.StateFailure),
			Error:  dataStatus.Failure.Message,
		}
		return dto.TaskStatusFailed, nil

	case jobqueue.StateSuccess:
		results[dto.RoleData] = dto.SubJobView{
			Status: string(jobqueue.StateSuccess),
			Result: dataStatus.Result,
		}
		return s.aggregateAnalyses(ctx, task, results)

	default:
		results[dto.RoleData] = dto.SubJobView{Status: string(dataStatus.State)}
		return dto.TaskStatusFetchingData, nil
	}
}

func (s *coordinatorService) aggregateAnalyses(ctx context.Context, task *model.Task, results map[string]dto.SubJobView) (string, error) {
	allDone := true
	anyFailed := false

	for _, analysis := range task.Analyses {
		jobID, dispatched := task.SubJobs[analysis]
		if !dispatched {
			jobID = s.dispatchAnalysis(ctx, task, analysis)
			if jobID == "" {
				// Worker for this analysis is not rolled out yet; absence
				// means "not yet available", not "failed".
				results[analysis] = dto.SubJobView{Status: dto.SubJobPending}
				allDone = false
				continue
			}
			task.SubJobs[analysis] = jobID
		}

		status, err := s.queue.Query(ctx, jobID)
		if err != nil {
			return "", fmt.Errorf("failed to query %s job for task %s: %w", analysis, task.TaskID, err)
		}

		switch status.State {
		case jobqueue.StateSuccess:
			results[analysis] = dto.SubJobView{
				Status: string(jobqueue.StateSuccess),
				Result: status.Result,
			}
		case jobqueue.StateFailure:
			results[analysis] = dto.SubJobView{
				Status: string(jobqueue.StateFailure),
				Error:  status.Failure.Message,
			}
			anyFailed = true
		default:
			results[analysis] = dto.SubJobView{Status: string(status.State)}
			allDone = false
		}
	}

	if anyFailed {
		return dto.TaskStatusFailed, nil
	}
	if allDone {
		return dto.TaskStatusComplete, nil
	}
	return dto.TaskStatusAnalyzing, nil
}

// dispatchAnalysis submits the analysis job if its worker is available.
// Returns the new job id, or "" when the kind has no registered worker or
// submission failed (left pending, retried on the next poll).
func (s *coordinatorService) dispatchAnalysis(ctx context.Context, task *model.Task, analysis string) string {
	kind, ok := jobqueue.AnalysisKind(analysis)
	if !ok || !s.queue.Handles(kind) {
		return ""
	}

	timeframe := ""
	if kind == jobqueue.KindForecast {
		timeframe = task.ForecastTimeframe
	}

	desc, err := jobqueue.NewAnalysisJob(kind, task.Symbol, timeframe)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to build analysis job",
			logger.StringField("task_id", task.TaskID),
			logger.StringField("analysis", analysis),
			logger.ErrorField(err),
		)
		return ""
	}

	jobID, err := s.queue.Submit(ctx, desc)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to submit analysis job",
			logger.StringField("task_id", task.TaskID),
			logger.StringField("analysis", analysis),
			logger.ErrorField(err),
		)
		return ""
	}

	s.log.InfoContext(ctx, "Analysis job dispatched",
		logger.StringField("task_id", task.TaskID),
		logger.StringField("analysis", analysis),
		logger.StringField("job_id", jobID),
	)
	return jobID
}
