package jobqueue

import "context"

// Queue is the submit/query contract of the job execution fabric. The engine
// behind it is a black box to callers: jobs are submitted fire-and-forget and
// observed by polling Query with the returned id. There is no exactly-once
// guarantee; handlers must be idempotent.
type Queue interface {
	Submit(ctx context.Context, desc Descriptor) (string, error)
	Query(ctx context.Context, jobID string) (Status, error)
}

// Handler executes one job kind. The returned value becomes the success
// payload of the job's status.
type Handler func(ctx context.Context, desc Descriptor) (interface{}, error)
