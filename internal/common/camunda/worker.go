// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"quoteflow-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"
)

// JobHandler must return an error (required by Zeebe client)
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job) error
}

// CamundaWorker is one registered job worker. Handlers report failures
// through BPMN error / fail-job commands themselves; an error escaping
// Handle is only logged here.
type CamundaWorker struct {
	client   zbc.Client
	worker   worker.JobWorker
	logger   *zap.Logger
	taskType string
}

func NewWorker(
	client zbc.Client,
	taskType string,
	maxJobsActive int,
	timeout time.Duration,
	handler JobHandler,
	obs *observability.Observability,
	logger *zap.Logger,
) *CamundaWorker {
	// Wrap handler to match Zeebe's expected signature
	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(func(client worker.JobClient, job entities.Job) {
			start := time.Now()
			status := "ok"
			if err := handler.Handle(client, job); err != nil {
				status = "error"
				logger.Error("Handler returned error", zap.Error(err), zap.Int64("jobKey", job.Key))
			}
			ctx := context.Background()
			obs.RecordJobProcessed(ctx, taskType, status)
			obs.RecordJobDuration(ctx, taskType, time.Since(start))
		}).
		MaxJobsActive(maxJobsActive).
		Timeout(timeout).
		Open()

	return &CamundaWorker{
		client:   client,
		worker:   jobWorker,
		logger:   logger,
		taskType: taskType,
	}
}

func (w *CamundaWorker) Start() {
	w.logger.Info("worker started", zap.String("taskType", w.taskType))
}

func (w *CamundaWorker) Stop(ctx context.Context) {
	w.logger.Info("stopping worker", zap.String("taskType", w.taskType))
	w.worker.Close()
}
