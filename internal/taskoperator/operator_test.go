package taskoperator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobexec/custom_errors"
	"jobexec/internal/config"
	"jobexec/internal/models"
	"jobexec/internal/state"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dummyConfig() *config.Config {
	return config.New(map[string]map[string]string{
		config.SectionCompute: {"type": "dummy"},
	})
}

func newDummyOperator(t *testing.T) *Operator {
	t.Helper()
	op, err := New(dummyConfig(), discardLogger())
	require.NoError(t, err)
	return op
}

func TestNew_UnknownMode(t *testing.T) {
	cfg := config.New(map[string]map[string]string{
		config.SectionCompute: {"type": "not_implemented"},
	})

	_, err := New(cfg, discardLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, custom_errors.ErrConfiguration))
}

func TestNew_DefaultsToDummy(t *testing.T) {
	op, err := New(config.New(nil), discardLogger())
	require.NoError(t, err)
	assert.Equal(t, "dummy", op.Mode())
}

func TestExecute_StartTask(t *testing.T) {
	op := newDummyOperator(t)
	created := time.Now()
	job := models.NewMapJob(4, map[string]any{
		models.AttrStatus:      state.StatusNew,
		models.AttrTimeCreated: created,
	})

	code, updates, err := op.Execute(context.Background(), job, dummyConfig())
	require.NoError(t, err)
	assert.Equal(t, CodeOK, code)
	assert.Equal(t, state.StatusRunning, updates[models.AttrStatus])

	started, ok := updates[models.AttrTimeStarted].(time.Time)
	require.True(t, ok)
	assert.False(t, started.Before(created))
}

func TestExecute_CheckStatusTask(t *testing.T) {
	op := newDummyOperator(t)
	job := models.NewMapJob(2, map[string]any{models.AttrStatus: state.StatusRunning})

	code, updates, err := op.Execute(context.Background(), job, dummyConfig())
	require.NoError(t, err)
	assert.Equal(t, CodeOK, code)
	assert.Equal(t, state.StatusFinished, updates[models.AttrStatus])
	assert.Contains(t, updates, models.AttrTimeCompleted)
}

func TestExecute_UnsupportedStatus(t *testing.T) {
	op := newDummyOperator(t)

	for _, status := range []state.Status{state.StatusFinished, state.StatusFailed, state.StatusArchived} {
		job := models.NewMapJob(7, map[string]any{models.AttrStatus: status})
		_, _, err := op.Execute(context.Background(), job, dummyConfig())
		require.Error(t, err)
		assert.True(t, errors.Is(err, custom_errors.ErrUnsupportedStatus))
	}
}

type panickyTask struct{}

func (panickyTask) Execute(context.Context, models.Job, *config.Config) (int, models.UpdateSet, error) {
	panic("task exploded")
}

type erroringTask struct{}

func (erroringTask) Execute(context.Context, models.Job, *config.Config) (int, models.UpdateSet, error) {
	return CodeOK, nil, errors.New("scheduler unreachable")
}

func TestExecute_ContainsPanics(t *testing.T) {
	RegisterMode("panicky", func(*config.Config) (map[state.Status]Task, error) {
		return map[state.Status]Task{state.StatusNew: panickyTask{}}, nil
	})
	cfg := config.New(map[string]map[string]string{
		config.SectionCompute: {"type": "panicky"},
	})
	op, err := New(cfg, discardLogger())
	require.NoError(t, err)

	job := models.NewMapJob(4, map[string]any{models.AttrStatus: state.StatusNew})
	code, updates, err := op.Execute(context.Background(), job, cfg)
	require.NoError(t, err)
	assert.Equal(t, CodeFailed, code)
	assert.Equal(t, state.StatusFailed, updates[models.AttrStatus])
}

func TestExecute_ContainsTaskErrors(t *testing.T) {
	RegisterMode("erroring", func(*config.Config) (map[state.Status]Task, error) {
		return map[state.Status]Task{state.StatusNew: erroringTask{}}, nil
	})
	cfg := config.New(map[string]map[string]string{
		config.SectionCompute: {"type": "erroring"},
	})
	op, err := New(cfg, discardLogger())
	require.NoError(t, err)

	job := models.NewMapJob(5, map[string]any{models.AttrStatus: state.StatusNew})
	code, updates, err := op.Execute(context.Background(), job, cfg)
	require.NoError(t, err)
	assert.Equal(t, CodeFailed, code)
	assert.Equal(t, state.StatusFailed, updates[models.AttrStatus])
}
