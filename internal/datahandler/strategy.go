package datahandler

import (
	"context"

	"jobexec/internal/config"
	"jobexec/internal/models"
	"jobexec/internal/state"
)

// Strategy is the storage half of the data handler: it owns one backend and
// answers status-filtered fetches and per-job updates against it. A strategy
// is constructed cold and only touches its backend between Open and Close.
type Strategy interface {
	Name() string
	Open(ctx context.Context) error
	Close() error
	FetchJobs(ctx context.Context, filter state.Filter) (JobSource, error)
	UpdateJob(ctx context.Context, job models.Job, updates models.UpdateSet) error
}

// JobSource is a lazy forward-only stream of jobs produced by one fetch.
// It is the backend side of a Cursor.
type JobSource interface {
	Next() (models.Job, bool, error)
	Close() error
}

type strategyFactory func(cfg *config.Config) (Strategy, error)

var strategies = map[string]strategyFactory{
	"dummy":      newMemoryStrategy,
	"dictofdict": newMemoryStrategy,
	"memory":     newMemoryStrategy,
	"sql":        newSQLStrategy,
	"postgres":   newSQLStrategy,
	"mysql":      newSQLStrategy,
	"redis":      newRedisStrategy,
}

// RegisterStrategy adds a storage strategy under a config name.
func RegisterStrategy(name string, factory func(cfg *config.Config) (Strategy, error)) {
	strategies[name] = factory
}
