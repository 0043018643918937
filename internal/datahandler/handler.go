package datahandler

import (
	"context"
	"log/slog"
	"strings"

	"jobexec/custom_errors"
	"jobexec/internal/config"
	"jobexec/internal/models"
	"jobexec/internal/state"
)

// Handler mediates every read and write of jobs against the storage strategy
// named by [jobdb] type. It is a strict two-state machine: Unconnected until
// Connect, Connected until Release, nothing else.
type Handler struct {
	strategy  Strategy
	logger    *slog.Logger
	connected bool
}

func New(cfg *config.Config, logger *slog.Logger) (*Handler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	name := strings.ToLower(cfg.Parameter(config.SectionJobDB, "type", ""))
	factory, ok := strategies[name]
	if !ok {
		return nil, custom_errors.Configurationf("unknown data strategy %q; set an accepted value in section %q, key \"type\"", name, config.SectionJobDB)
	}
	strategy, err := factory(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("using data strategy", "strategy", strategy.Name())
	return &Handler{strategy: strategy, logger: logger}, nil
}

// Connect establishes the backend connection. Connecting an already
// connected handler is a state error.
func (h *Handler) Connect(ctx context.Context) error {
	if h.connected {
		return custom_errors.Statef("handler is already connected")
	}
	if err := h.strategy.Open(ctx); err != nil {
		return err
	}
	h.connected = true
	return nil
}

// Release closes the backend connection. The handler transitions back to
// Unconnected even when the strategy's close fails.
func (h *Handler) Release() error {
	if !h.connected {
		return custom_errors.Statef("handler is not connected")
	}
	h.connected = false
	return h.strategy.Close()
}

// With runs fn inside one connected session and guarantees the session is
// released on every exit path, panics included.
func (h *Handler) With(ctx context.Context, fn func(h *Handler) error) (err error) {
	if err = h.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		relErr := h.Release()
		if err == nil {
			err = relErr
		}
	}()
	return fn(h)
}

// Jobs re-queries the backend and returns a lazy one-shot cursor over the
// jobs whose status matches the filter, in ascending id order.
func (h *Handler) Jobs(ctx context.Context, filter state.Filter) (*Cursor, error) {
	if !h.connected {
		return nil, custom_errors.Statef("jobs requested while unconnected")
	}
	src, err := h.strategy.FetchJobs(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &Cursor{handler: h, src: src}, nil
}

// Update validates the update-set against the job's updatable attributes and
// the status transition table, then applies it atomically. A rejected set
// leaves the job untouched.
func (h *Handler) Update(ctx context.Context, job models.Job, updates models.UpdateSet) error {
	if !h.connected {
		return custom_errors.Statef("update issued while unconnected")
	}
	if len(updates) == 0 {
		h.logger.Debug("no updates applied", "job", job.String())
		return nil
	}

	verrs := &custom_errors.ValidationError{}
	allowed := job.UpdatableAttrs()
	for key := range updates {
		if _, ok := allowed[key]; !ok {
			verrs.Add(custom_errors.Validationf("attribute %q is not updatable on %s", key, job.String()))
		}
	}
	if next, ok := updates[models.AttrStatus]; ok {
		status, isStatus := next.(state.Status)
		switch {
		case !isStatus:
			verrs.Add(custom_errors.Validationf("status value %v is not a job status", next))
		case !state.IsValidTransition(job.Status(), status):
			verrs.Add(custom_errors.Validationf("illegal transition %s -> %s for job %d", job.Status(), status, job.ID()))
		}
	}
	if verrs.HasError() {
		return verrs
	}

	return h.strategy.UpdateJob(ctx, job, updates)
}
