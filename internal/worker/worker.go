// Package worker implements background task handlers for rate refreshes.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ratematch/internal/rates"
	"ratematch/internal/service"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Refresher is the part of the service the worker drives.
type Refresher interface {
	ProcessRefresh(ctx context.Context, jobID string) error
}

// NewRefreshHandler returns a function to handle rate refresh tasks. Failures
// that another attempt cannot fix skip the remaining retries.
func NewRefreshHandler(svc Refresher, logger *zap.SugaredLogger) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload service.RefreshRatesPayload
		if len(t.Payload()) > 0 {
			if err := json.Unmarshal(t.Payload(), &payload); err != nil {
				logger.Errorw("Invalid task payload", "type", t.Type(), "error", err)
				return nil
			}
		}

		err := svc.ProcessRefresh(ctx, payload.JobID)
		if err != nil {
			logger.Errorw("Task processing failed", "job_id", payload.JobID, "error", err)
			if permanent(err) {
				return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
			}
			return err
		}

		logger.Infow("Task completed", "job_id", payload.JobID)
		return nil
	}
}

// permanent reports errors caused by the data itself rather than by the source
// being unreachable.
func permanent(err error) bool {
	var malformed *rates.MalformedSnapshotError
	if errors.As(err, &malformed) {
		return true
	}
	return errors.Is(err, rates.ErrUnknownSymbol)
}

// NewServeMux registers every task handler on a new mux.
func NewServeMux(svc Refresher, logger *zap.SugaredLogger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeRefreshRates, NewRefreshHandler(svc, logger))
	return mux
}

// AsynqEnqueuer is responsible for enqueuing tasks to an Asynq queue with specific configurations for retries and timeouts.
type AsynqEnqueuer struct {
	client   *asynq.Client
	maxRetry int
	timeout  time.Duration
}

// NewAsynqEnqueuer creates a new AsynqEnqueuer with the given client, retry limit, and task timeout duration.
func NewAsynqEnqueuer(client *asynq.Client, maxRetry int, timeout time.Duration) *AsynqEnqueuer {
	return &AsynqEnqueuer{
		client:   client,
		maxRetry: maxRetry,
		timeout:  timeout,
	}
}

// EnqueueRefreshTask enqueues a refresh task for the given job.
func (e *AsynqEnqueuer) EnqueueRefreshTask(ctx context.Context, payload service.RefreshRatesPayload) error {
	task, err := NewRefreshTask(payload, e.maxRetry, e.timeout)
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task)
	return err
}

// NewRefreshTask builds a refresh task with the given retry and timeout options.
func NewRefreshTask(payload service.RefreshRatesPayload, maxRetry int, timeout time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(service.TaskTypeRefreshRates, data,
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(timeout),
	), nil
}

// RegisterRefreshSchedule adds a periodic refresh to the scheduler. Scheduled
// tasks carry no job ID and create their own job record when they run.
func RegisterRefreshSchedule(s *asynq.Scheduler, cronspec string, maxRetry int, timeout time.Duration) (string, error) {
	task, err := NewRefreshTask(service.RefreshRatesPayload{}, maxRetry, timeout)
	if err != nil {
		return "", err
	}
	id, err := s.Register(cronspec, task)
	if err != nil {
		return "", fmt.Errorf("register refresh schedule %q: %w", cronspec, err)
	}
	return id, nil
}

var _ service.TaskEnqueuer = (*AsynqEnqueuer)(nil)
