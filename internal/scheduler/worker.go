package scheduler

import (
	"context"
	"fmt"

	"repairshop_backend/platform/config"
	"repairshop_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// AssignmentNotifier delivers a technician assignment to the technician.
type AssignmentNotifier interface {
	NotifyTechnicianAssigned(ctx context.Context, payload TechnicianAssignedPayload) error
}

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	notifier AssignmentNotifier
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, notifier AssignmentNotifier, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := newWorker(notifier, log)
	w.server = server
	return w, nil
}

func newWorker(notifier AssignmentNotifier, log *logger.Logger) *Worker {
	mux := asynq.NewServeMux()
	w := &Worker{
		mux:      mux,
		notifier: notifier,
		log:      log,
	}
	mux.HandleFunc(TaskTechnicianAssigned, w.handleTechnicianAssigned)
	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleTechnicianAssigned(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseTechnicianAssignedPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if w.notifier == nil {
		return nil
	}
	return w.notifier.NotifyTechnicianAssigned(ctx, payload)
}
