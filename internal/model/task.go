package model

import "stonks-manager/internal/dto"

// Task is the parent record for one analysis request. It lives in the TTL
// task store, not in PostgreSQL: records expire on their own after the task
// TTL and there is no explicit deletion.
//
// SubJobs maps a role ("data" or an analysis name) to the queue's job id.
// The "data" entry is present from creation; analysis entries appear only
// once the corresponding worker has actually been dispatched. An absent
// entry means "not yet available", not "failed".
type Task struct {
	TaskID            string            `json:"task_id"`
	Symbol            string            `json:"symbol"`
	Analyses          []string          `json:"analyses"`
	ForecastTimeframe string            `json:"forecast_timeframe,omitempty"`
	Requester         string            `json:"requester"`
	SubJobs           map[string]string `json:"sub_jobs"`
	Status            string            `json:"status"`

	// Results holds the last aggregated view. Once Status is terminal the
	// stored view is final and can be served without re-querying the queue.
	Results map[string]dto.SubJobView `json:"results,omitempty"`
}
