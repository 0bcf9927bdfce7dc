package dispatchevent

import (
	"context"
	"time"
)

type Input struct {
	TenantID string                 `json:"tenantId"`
	Event    string                 `json:"event"`
	Context  map[string]interface{} `json:"context,omitempty"`
}

type Output struct {
	Dispatched  int    `json:"dispatched"`
	ProcessedAt string `json:"processedAt"`
}

// EventProcessor fans an internal event out to the tenant's templates.
type EventProcessor interface {
	ProcessEvent(ctx context.Context, tenantID, event string, data map[string]interface{}) (int, error)
}

// JobRecorder receives one observation per finished job.
type JobRecorder interface {
	RecordJobProcessed(ctx context.Context, taskType, status string)
	RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string)
}
