package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"jobexec/custom_errors"
	"jobexec/internal/config"
	"jobexec/internal/datahandler"
	"jobexec/internal/models"
	"jobexec/internal/state"
	"jobexec/internal/taskoperator"
)

// Stats counts what one pass did to the incomplete jobs it saw.
type Stats struct {
	Processed int
	Updated   int
	Failed    int
	Skipped   int
}

// Executor ties the data handler and the task operator into the
// pull-execute-commit loop. Each pass opens one handler session, walks the
// incomplete jobs, runs the status-bound task for each and commits the
// resulting update-set before moving on.
type Executor struct {
	handler     *datahandler.Handler
	operator    *taskoperator.Operator
	cfg         *config.Config
	logger      *slog.Logger
	taskTimeout time.Duration
	dryRun      bool
}

type Option func(*Executor)

// WithDryRun makes passes report the updates they would apply without
// committing any of them.
func WithDryRun(on bool) Option {
	return func(e *Executor) {
		e.dryRun = on
	}
}

func New(handler *datahandler.Handler, operator *taskoperator.Operator, cfg *config.Config, logger *slog.Logger, opts ...Option) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Executor{
		handler:     handler,
		operator:    operator,
		cfg:         cfg,
		logger:      logger,
		taskTimeout: cfg.ParameterDuration(config.SectionCompute, "task_timeout", 10*time.Minute),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunPass runs one full pass over the incomplete jobs inside a single
// handler session. Per-job failures are counted and logged; only session or
// cursor level errors abort the pass.
func (e *Executor) RunPass(ctx context.Context) (Stats, error) {
	var stats Stats
	err := e.handler.With(ctx, func(h *datahandler.Handler) error {
		cursor, err := h.Jobs(ctx, state.Incomplete)
		if err != nil {
			return err
		}
		defer cursor.Close()

		for cursor.Next() {
			e.processJob(ctx, h, cursor.Job(), &stats)
		}
		return cursor.Err()
	})
	return stats, err
}

func (e *Executor) processJob(ctx context.Context, h *datahandler.Handler, job models.Job, stats *Stats) {
	stats.Processed++

	taskCtx := ctx
	if e.taskTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, e.taskTimeout)
		defer cancel()
	}

	code, updates, err := e.operator.Execute(taskCtx, job, e.cfg)
	if err != nil {
		stats.Skipped++
		e.logger.Warn("job skipped", "job_id", job.ID(), "status", job.Status().String(), "error", err)
		return
	}
	if code != taskoperator.CodeOK {
		stats.Failed++
		e.logger.Error("task reported failure", "job_id", job.ID(), "status", job.Status().String(), "code", code)
	}

	if next, ok := updates[models.AttrStatus].(state.Status); ok && next != job.Status() {
		e.logger.Info(fmt.Sprintf("updating %s to %s", job.Status(), next), "job_id", job.ID())
	}
	if e.dryRun {
		e.logger.Info("dry run, update withheld", "job_id", job.ID(), "updates", fmt.Sprint(updates))
		return
	}

	if err := h.Update(ctx, job, updates); err != nil {
		switch {
		case errors.Is(err, custom_errors.ErrValidation):
			e.logger.Error("update rejected", "job_id", job.ID(), "status", job.Status().String(), "error", err)
		case errors.Is(err, custom_errors.ErrPersistence):
			e.logger.Error("update not persisted", "job_id", job.ID(), "status", job.Status().String(), "error", err)
		default:
			e.logger.Error("update failed", "job_id", job.ID(), "status", job.Status().String(), "error", err)
		}
		stats.Failed++
		return
	}
	if len(updates) > 0 {
		stats.Updated++
	}
}

// RunSchedule runs passes on a cron expression until the context is
// cancelled. Overlapping runs are skipped rather than queued.
func (e *Executor) RunSchedule(ctx context.Context, expression string) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(expression, func() {
		stats, err := e.RunPass(ctx)
		if err != nil {
			e.logger.Error("pass aborted", "error", err)
			return
		}
		e.logger.Info("pass completed",
			"processed", stats.Processed,
			"updated", stats.Updated,
			"failed", stats.Failed,
			"skipped", stats.Skipped)
	})
	if err != nil {
		return custom_errors.Configurationf("invalid schedule %q: %v", expression, err)
	}

	e.logger.Info("running on schedule", "schedule", expression)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
