package dispatchevent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"event-notifications/internal/common/errors"
	"event-notifications/internal/common/logger"
	"event-notifications/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "dispatch-notification-event"

type Handler struct {
	config    *Config
	logger    logger.Logger
	processor EventProcessor
	recorder  JobRecorder
	errors    *errors.ErrorHandler
	now       func() time.Time
}

type HandlerOptions struct {
	Config    *Config
	Processor EventProcessor
	// Recorder is optional.
	Recorder JobRecorder
	Logger   logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Processor == nil {
		return nil, fmt.Errorf("event processor is required")
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"worker": TaskType})

	return &Handler{
		config:    cfg,
		logger:    log,
		processor: opts.Processor,
		recorder:  opts.Recorder,
		errors:    errors.NewErrorHandler(log),
		now:       time.Now,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing notification event job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	output, err := h.Execute(ctx, job)
	if err != nil {
		code := string(errors.ErrCodeInternal)
		if stdErr, ok := errors.As(err); ok {
			code = string(stdErr.Code)
		}
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
		h.errors.HandleJobError(ctx, client, job, err)
		h.record(ctx, "failed", time.Since(start))
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.record(ctx, "completed", time.Since(start))
}

func (h *Handler) record(ctx context.Context, status string, d time.Duration) {
	if h.recorder == nil {
		return
	}
	h.recorder.RecordJobProcessed(ctx, TaskType, status)
	h.recorder.RecordJobDuration(ctx, TaskType, d, status)
}

// Execute validates the job payload and dispatches the event.
func (h *Handler) Execute(ctx context.Context, job entities.Job) (*Output, error) {
	input, err := h.parseInput(job)
	if err != nil {
		return nil, err
	}

	dispatched, err := h.processor.ProcessEvent(ctx, input.TenantID, input.Event, input.Context)
	if err != nil {
		return nil, err
	}

	return &Output{
		Dispatched:  dispatched,
		ProcessedAt: h.now().UTC().Format(time.RFC3339),
	}, nil
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidEventPayloadError(fmt.Sprintf("parse job variables: %v", err))
	}

	result, err := inputSchema.Validate(variables)
	if err != nil {
		return nil, errors.NewInvalidEventPayloadError(err.Error())
	}
	if !result.Valid {
		return nil, errors.NewInvalidEventPayloadError(strings.Join(result.GetErrorMessages(), "; "))
	}

	input := &Input{
		TenantID: variables["tenantId"].(string),
		Event:    variables["event"].(string),
		Context:  map[string]interface{}{},
	}
	if ctxVars, ok := variables["context"].(map[string]interface{}); ok {
		input.Context = ctxVars
	}
	return input, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromMap(map[string]interface{}{
		"dispatched":  output.Dispatched,
		"processedAt": output.ProcessedAt,
	})
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	if _, err := request.Send(ctx); err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	h.logger.Info("Notification event job completed", map[string]interface{}{
		"jobKey":     job.GetKey(),
		"dispatched": output.Dispatched,
	})
}
