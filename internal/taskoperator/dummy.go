package taskoperator

import (
	"context"
	"time"

	"jobexec/internal/config"
	"jobexec/internal/models"
	"jobexec/internal/state"
)

// The dummy strategy set performs no external work: each task only decides
// the next status and stamps the matching timestamp. It backs demos and
// tests, and is the reference for what a strategy set must return.

func newDummyTasks(_ *config.Config) (map[state.Status]Task, error) {
	return map[state.Status]Task{
		state.StatusNew:     dummyStart{},
		state.StatusRunning: dummyCheckStatus{},
	}, nil
}

type dummyStart struct{}

func (dummyStart) Execute(_ context.Context, _ models.Job, _ *config.Config) (int, models.UpdateSet, error) {
	return CodeOK, models.UpdateSet{
		models.AttrStatus:      state.StatusRunning,
		models.AttrTimeStarted: time.Now(),
	}, nil
}

type dummyCheckStatus struct{}

func (dummyCheckStatus) Execute(_ context.Context, _ models.Job, _ *config.Config) (int, models.UpdateSet, error) {
	// No external scheduler to ask, so a running job is considered done.
	return CodeOK, models.UpdateSet{
		models.AttrStatus:        state.StatusFinished,
		models.AttrTimeCompleted: time.Now(),
	}, nil
}
