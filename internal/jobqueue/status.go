package jobqueue

import "errors"

// State of a submitted job as seen through Query.
type State string

const (
	StatePending State = "pending"
	StateRunning State = "running"
	StateSuccess State = "success"
	StateFailure State = "failure"
)

// Terminal reports whether the state can no longer change.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateFailure
}

// Failure is the structured error half of a job result.
type Failure struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Status is the tagged result variant exposed by Query: exactly one of
// Result (success payload, typed per kind) or Failure is set once the job is
// terminal.
type Status struct {
	State   State
	Result  interface{}
	Failure *Failure
}

// Failure codes a handler can attach via JobError.
const (
	CodeRateLimited = "rate_limited"
	CodeNoData      = "no_data"
	CodeExecution   = "execution_error"
)

// JobError lets a handler classify its failure; the fabric turns it into the
// Failure half of the job's status. Errors without a code collapse to
// CodeExecution.
type JobError struct {
	Code string
	Err  error
}

func (e *JobError) Error() string {
	return e.Err.Error()
}

func (e *JobError) Unwrap() error {
	return e.Err
}

// FailureFromError converts a handler error into a structured Failure.
func FailureFromError(err error) *Failure {
	var je *JobError
	if errors.As(err, &je) {
		return &Failure{Code: je.Code, Message: je.Err.Error()}
	}
	return &Failure{Code: CodeExecution, Message: err.Error()}
}

// ErrUnknownJob is returned by Query for an id the fabric has no record of,
// including ids whose retention window has passed.
var ErrUnknownJob = errors.New("unknown job id")
