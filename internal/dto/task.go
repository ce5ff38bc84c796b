package dto

// Analysis kinds a client may request alongside the data fetch.
const (
	AnalysisSentiment = "sentiment"
	AnalysisTechnical = "technical"
	AnalysisForecast  = "forecast"
)

// Aggregate task statuses.
const (
	TaskStatusFetchingData = "fetching_data"
	TaskStatusAnalyzing    = "analyzing"
	TaskStatusComplete     = "complete"
	TaskStatusFailed       = "failed"
)

// Role under which the mandatory fetch sub-job is tracked.
const RoleData = "data"

// Per-sub-job classification inside an aggregated status view.
const (
	SubJobPending   = "pending"
	SubJobRunning   = "running"
	SubJobSucceeded = "success"
	SubJobFailed    = "failure"
)

type AnalyzeRequest struct {
	Symbol            string   `json:"symbol" validate:"required,max=10"`
	Analyses          []string `json:"analyses" validate:"dive,oneof=sentiment technical forecast"`
	ForecastTimeframe string   `json:"forecast_timeframe,omitempty" validate:"omitempty,oneof=6m 12m 3y"`
}

type AnalyzeResponse struct {
	TaskID string `json:"task_id"`
}

// SubJobView is one entry of the aggregated results mapping.
type SubJobView struct {
	Status string      `json:"status"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

type TaskStatusResponse struct {
	TaskID  string                `json:"task_id"`
	Symbol  string                `json:"symbol"`
	Status  string                `json:"status"`
	Results map[string]SubJobView `json:"results"`
}
