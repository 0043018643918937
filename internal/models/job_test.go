package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobexec/internal/state"
)

func TestMapJob_Get(t *testing.T) {
	created := time.Now()
	job := NewMapJob(4, map[string]any{
		AttrStatus:      state.StatusNew,
		AttrTimeCreated: created,
		"something":     "else",
	})

	assert.Equal(t, int64(4), job.ID())
	assert.Equal(t, state.StatusNew, job.Status())
	assert.Equal(t, created, job.Get(AttrTimeCreated, nil))
	assert.Equal(t, "else", job.Get("something", ""))

	// Absent attributes degrade to the default instead of failing.
	assert.Equal(t, "fallback", job.Get(AttrResults, "fallback"))
	assert.Nil(t, job.Get(AttrTimeStarted, nil))
}

func TestMapJob_StatusFromString(t *testing.T) {
	job := NewMapJob(1, map[string]any{AttrStatus: "RUNNING"})
	assert.Equal(t, state.StatusRunning, job.Status())
}

func TestMapJob_CopiesAttrs(t *testing.T) {
	attrs := map[string]any{AttrStatus: state.StatusNew}
	job := NewMapJob(1, attrs)
	attrs[AttrStatus] = state.StatusFailed
	assert.Equal(t, state.StatusNew, job.Status())
}

func TestRecord_Get(t *testing.T) {
	started := time.Now()
	rec := &Record{
		JobID:       2,
		UUID:        "3b8656f7-9072-4a5b-a3e1-36db42692c13",
		JobType:     "dummy",
		JobStatus:   state.StatusRunning,
		TimeCreated: started.Add(-time.Minute),
		TimeStarted: &started,
		Params:      map[string]any{"fraction": "1"},
	}

	assert.Equal(t, int64(2), rec.ID())
	assert.Equal(t, state.StatusRunning, rec.Status())
	assert.Equal(t, started, rec.Get(AttrTimeStarted, nil))

	// Nil optional columns fall back to the default.
	assert.Equal(t, "none", rec.Get(AttrResults, "none"))
	assert.Nil(t, rec.Get(AttrTimeCompleted, nil))

	// Unknown attributes resolve through the params mapping.
	assert.Equal(t, "1", rec.Get("fraction", ""))
	assert.Equal(t, "missing", rec.Get("no_such_param", "missing"))
}

func TestUpdatableAttrs(t *testing.T) {
	variants := []Job{
		NewMapJob(1, map[string]any{AttrStatus: state.StatusNew}),
		&Record{JobID: 1, JobStatus: state.StatusNew},
	}

	for _, job := range variants {
		attrs := job.UpdatableAttrs()
		require.Contains(t, attrs, AttrStatus)
		require.Contains(t, attrs, AttrTimeStarted)
		require.Contains(t, attrs, AttrTimeCompleted)
		assert.NotContains(t, attrs, AttrUUID)
		assert.NotContains(t, attrs, AttrTimeCreated)
	}
}
