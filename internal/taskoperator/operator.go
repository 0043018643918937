package taskoperator

import (
	"context"
	"log/slog"
	"strings"

	"jobexec/custom_errors"
	"jobexec/internal/config"
	"jobexec/internal/models"
	"jobexec/internal/state"
)

// Result codes returned by task executions. Anything nonzero means the task
// did not complete its work.
const (
	CodeOK     = 0
	CodeFailed = 1
)

// Task is one unit of work bound to a job status. It reads the job snapshot
// and the config and reports its outcome as an update-set; it never touches
// the job or the backend itself.
type Task interface {
	Execute(ctx context.Context, job models.Job, cfg *config.Config) (int, models.UpdateSet, error)
}

type modeFactory func(cfg *config.Config) (map[state.Status]Task, error)

var modes = map[string]modeFactory{
	"dummy": newDummyTasks,
	"shell": newShellTasks,
}

// RegisterMode adds a task-strategy set under a config name.
func RegisterMode(name string, factory func(cfg *config.Config) (map[state.Status]Task, error)) {
	modes[name] = factory
}

// Operator owns the registry mapping each status to the task that runs when
// a job in that status is selected for work. The set is chosen by
// [compute] type at construction.
type Operator struct {
	mode   string
	tasks  map[state.Status]Task
	logger *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) (*Operator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	mode := strings.ToLower(cfg.Parameter(config.SectionCompute, "type", "dummy"))
	factory, ok := modes[mode]
	if !ok {
		return nil, custom_errors.Configurationf("unknown task strategy %q; set an accepted value in section %q, key \"type\"", mode, config.SectionCompute)
	}
	tasks, err := factory(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("using task strategy", "strategy", mode)
	return &Operator{mode: mode, tasks: tasks, logger: logger}, nil
}

func (o *Operator) Mode() string {
	return o.mode
}

// Execute runs the task bound to the job's current status. A status with no
// bound task is a reportable error, not a silent no-op. Task errors and
// panics are contained here: they come back as CodeFailed with an update-set
// that moves the job to failed, so one bad job never aborts a pass.
func (o *Operator) Execute(ctx context.Context, job models.Job, cfg *config.Config) (code int, updates models.UpdateSet, err error) {
	task, ok := o.tasks[job.Status()]
	if !ok {
		return CodeFailed, nil, custom_errors.UnsupportedStatusf("status %s of job %d has no bound task in the %q strategy set", job.Status(), job.ID(), o.mode)
	}

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("task panicked", "job_id", job.ID(), "status", job.Status().String(), "panic", r)
			code, updates, err = CodeFailed, failureUpdates(), nil
		}
	}()

	code, updates, taskErr := task.Execute(ctx, job, cfg)
	if taskErr != nil {
		o.logger.Error("task failed", "job_id", job.ID(), "status", job.Status().String(), "error", taskErr)
		return CodeFailed, failureUpdates(), nil
	}
	return code, updates, nil
}

func failureUpdates() models.UpdateSet {
	return models.UpdateSet{models.AttrStatus: state.StatusFailed}
}
