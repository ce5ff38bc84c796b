package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stonks-manager/config"
	"stonks-manager/internal/dto"
	"stonks-manager/internal/jobqueue"
	"stonks-manager/internal/repository"
	"stonks-manager/pkg/cache"
	"stonks-manager/pkg/logger"
)

func newCoordinatorFixture(t *testing.T, queue *fakeQueue) (CoordinatorService, repository.TaskStore) {
	t.Helper()
	store := repository.NewTaskStore(cache.NewCache(time.Minute, time.Minute), time.Minute)
	cfg := &config.Config{Task: config.Task{TTL: time.Minute}}
	return NewCoordinatorService(cfg, logger.NewNop(), queue, store), store
}

func createTask(t *testing.T, svc CoordinatorService, analyses ...string) string {
	t.Helper()
	taskID, err := svc.CreateTask(context.Background(), dto.AnalyzeRequest{
		Symbol:   "AAPL",
		Analyses: analyses,
	}, "alice")
	require.NoError(t, err)
	return taskID
}

func TestCreateTask_SubmitsFetchJob(t *testing.T) {
	queue := newFakeQueue(jobqueue.KindFetch)
	svc, store := newCoordinatorFixture(t, queue)

	taskID := createTask(t, svc, dto.AnalysisTechnical)

	require.Len(t, queue.submitted, 1)
	assert.Equal(t, jobqueue.KindFetch, queue.submitted[0].Kind)

	task, err := store.Get(taskID)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", task.Symbol)
	assert.Equal(t, "alice", task.Requester)
	assert.Equal(t, dto.TaskStatusFetchingData, task.Status)
	assert.Equal(t, "job-1", task.SubJobs[dto.RoleData])
}

func TestGetStatus_UnknownTask(t *testing.T) {
	queue := newFakeQueue(jobqueue.KindFetch)
	svc, _ := newCoordinatorFixture(t, queue)

	_, err := svc.GetStatus(context.Background(), "nope")
	require.ErrorIs(t, err, repository.ErrTaskNotFound)
}

func TestGetStatus_DataPending(t *testing.T) {
	queue := newFakeQueue(jobqueue.KindFetch, jobqueue.KindTechnical)
	svc, _ := newCoordinatorFixture(t, queue)
	taskID := createTask(t, svc, dto.AnalysisTechnical)

	resp, err := svc.GetStatus(context.Background(), taskID)
	require.NoError(t, err)

	assert.Equal(t, dto.TaskStatusFetchingData, resp.Status)
	assert.Equal(t, string(jobqueue.StatePending), resp.Results[dto.RoleData].Status)
	// Analyses stay out of the picture until the data job resolves.
	_, queried := resp.Results[dto.AnalysisTechnical]
	assert.False(t, queried)
}

func TestGetStatus_DataFailedShortCircuits(t *testing.T) {
	queue := newFakeQueue(jobqueue.KindFetch, jobqueue.KindTechnical)
	svc, _ := newCoordinatorFixture(t, queue)
	taskID := createTask(t, svc, dto.AnalysisTechnical)

	queue.setStatus("job-1", jobqueue.Status{
		State:   jobqueue.StateFailure,
		Failure: &jobqueue.Failure{Code: jobqueue.CodeRateLimited, Message: "rate limited"},
	})

	resp, err := svc.GetStatus(context.Background(), taskID)
	require.NoError(t, err)

	assert.Equal(t, dto.TaskStatusFailed, resp.Status)
	assert.Equal(t, "rate limited", resp.Results[dto.RoleData].Error)
	// No analysis job is ever dispatched for a failed fetch.
	assert.Len(t, queue.submitted, 1)
}

func TestGetStatus_DataSuccessNoAnalyses(t *testing.T) {
	queue := newFakeQueue(jobqueue.KindFetch)
	svc, _ := newCoordinatorFixture(t, queue)
	taskID := createTask(t, svc)

	queue.setStatus("job-1", jobqueue.Status{
		State:  jobqueue.StateSuccess,
		Result: &dto.FetchSummary{Symbol: "AAPL", RecordsCount: 10, Status: "success"},
	})

	resp, err := svc.GetStatus(context.Background(), taskID)
	require.NoError(t, err)
	assert.Equal(t, dto.TaskStatusComplete, resp.Status)
}

func TestGetStatus_DispatchesAnalysisAfterDataSuccess(t *testing.T) {
	queue := newFakeQueue(jobqueue.KindFetch, jobqueue.KindTechnical)
	svc, store := newCoordinatorFixture(t, queue)
	taskID := createTask(t, svc, dto.AnalysisTechnical)

	queue.setStatus("job-1", jobqueue.Status{State: jobqueue.StateSuccess})

	resp, err := svc.GetStatus(context.Background(), taskID)
	require.NoError(t, err)

	assert.Equal(t, dto.TaskStatusAnalyzing, resp.Status)
	require.Len(t, queue.submitted, 2)
	assert.Equal(t, jobqueue.KindTechnical, queue.submitted[1].Kind)

	task, err := store.Get(taskID)
	require.NoError(t, err)
	assert.Equal(t, "job-2", task.SubJobs[dto.AnalysisTechnical])
}

func TestGetStatus_UnavailableAnalysisStaysPending(t *testing.T) {
	// Forecast has no registered worker: the sub-job reads as pending and the
	// task keeps analyzing instead of failing.
	queue := newFakeQueue(jobqueue.KindFetch)
	svc, _ := newCoordinatorFixture(t, queue)
	taskID := createTask(t, svc, dto.AnalysisForecast)

	queue.setStatus("job-1", jobqueue.Status{State: jobqueue.StateSuccess})

	resp, err := svc.GetStatus(context.Background(), taskID)
	require.NoError(t, err)

	assert.Equal(t, dto.TaskStatusAnalyzing, resp.Status)
	assert.Equal(t, dto.SubJobPending, resp.Results[dto.AnalysisForecast].Status)
	assert.Len(t, queue.submitted, 1)
}

func TestGetStatus_AnalysisFailureFailsTask(t *testing.T) {
	queue := newFakeQueue(jobqueue.KindFetch, jobqueue.KindTechnical, jobqueue.KindSentiment)
	svc, _ := newCoordinatorFixture(t, queue)
	taskID := createTask(t, svc, dto.AnalysisTechnical, dto.AnalysisSentiment)

	queue.setStatus("job-1", jobqueue.Status{State: jobqueue.StateSuccess})

	// First poll dispatches job-2 (technical) and job-3 (sentiment).
	_, err := svc.GetStatus(context.Background(), taskID)
	require.NoError(t, err)

	queue.setStatus("job-2", jobqueue.Status{
		State:  jobqueue.StateSuccess,
		Result: &dto.TechnicalResult{Symbol: "AAPL", Trend: "uptrend"},
	})
	queue.setStatus("job-3", jobqueue.Status{
		State:   jobqueue.StateFailure,
		Failure: &jobqueue.Failure{Code: jobqueue.CodeExecution, Message: "model unavailable"},
	})

	resp, err := svc.GetStatus(context.Background(), taskID)
	require.NoError(t, err)

	assert.Equal(t, dto.TaskStatusFailed, resp.Status)
	assert.Equal(t, string(jobqueue.StateSuccess), resp.Results[dto.AnalysisTechnical].Status)
	assert.Equal(t, "model unavailable", resp.Results[dto.AnalysisSentiment].Error)
}

func TestGetStatus_AllAnalysesSucceedCompletes(t *testing.T) {
	queue := newFakeQueue(jobqueue.KindFetch, jobqueue.KindTechnical)
	svc, _ := newCoordinatorFixture(t, queue)
	taskID := createTask(t, svc, dto.AnalysisTechnical)

	queue.setStatus("job-1", jobqueue.Status{State: jobqueue.StateSuccess})
	_, err := svc.GetStatus(context.Background(), taskID)
	require.NoError(t, err)

	queue.setStatus("job-2", jobqueue.Status{
		State:  jobqueue.StateSuccess,
		Result: &dto.TechnicalResult{Symbol: "AAPL", Trend: "uptrend"},
	})

	resp, err := svc.GetStatus(context.Background(), taskID)
	require.NoError(t, err)
	assert.Equal(t, dto.TaskStatusComplete, resp.Status)
}

func TestGetStatus_TerminalTaskServedFromStore(t *testing.T) {
	queue := newFakeQueue(jobqueue.KindFetch, jobqueue.KindTechnical)
	svc, _ := newCoordinatorFixture(t, queue)
	taskID := createTask(t, svc, dto.AnalysisTechnical)

	queue.setStatus("job-1", jobqueue.Status{State: jobqueue.StateSuccess})
	_, err := svc.GetStatus(context.Background(), taskID)
	require.NoError(t, err)

	queue.setStatus("job-2", jobqueue.Status{State: jobqueue.StateSuccess})
	resp, err := svc.GetStatus(context.Background(), taskID)
	require.NoError(t, err)
	require.Equal(t, dto.TaskStatusComplete, resp.Status)

	dataQueries := queue.queryCount("job-1")

	// Terminal status is memoized: further polls never hit the queue again.
	resp, err = svc.GetStatus(context.Background(), taskID)
	require.NoError(t, err)
	assert.Equal(t, dto.TaskStatusComplete, resp.Status)
	assert.Equal(t, dataQueries, queue.queryCount("job-1"))
}
