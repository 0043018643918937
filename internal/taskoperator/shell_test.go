package taskoperator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobexec/internal/config"
	"jobexec/internal/models"
	"jobexec/internal/state"
)

func shellConfig(t *testing.T, params map[string]string) *config.Config {
	t.Helper()
	section := map[string]string{"type": "shell", "output_dir": t.TempDir()}
	for k, v := range params {
		section[k] = v
	}
	return config.New(map[string]map[string]string{config.SectionCompute: section})
}

func TestShellStart_CapturesSchedulerID(t *testing.T) {
	cfg := shellConfig(t, map[string]string{"submit_command": "echo Submitted batch job 999"})
	job := models.NewMapJob(4, map[string]any{models.AttrStatus: state.StatusNew})

	code, updates, err := shellStart{}.Execute(context.Background(), job, cfg)
	require.NoError(t, err)
	assert.Equal(t, CodeOK, code)
	assert.Equal(t, state.StatusRunning, updates[models.AttrStatus])
	assert.Equal(t, "999", updates[models.AttrSchedulerJobID])
	assert.Contains(t, updates, models.AttrTimeStarted)
}

func TestShellStart_MissingCommand(t *testing.T) {
	cfg := shellConfig(t, nil)
	job := models.NewMapJob(4, map[string]any{models.AttrStatus: state.StatusNew})

	code, _, err := shellStart{}.Execute(context.Background(), job, cfg)
	assert.Equal(t, CodeFailed, code)
	require.Error(t, err)
}

func TestShellStart_CommandFailure(t *testing.T) {
	cfg := shellConfig(t, map[string]string{"submit_command": "exit 3"})
	job := models.NewMapJob(4, map[string]any{models.AttrStatus: state.StatusNew})

	code, _, err := shellStart{}.Execute(context.Background(), job, cfg)
	assert.Equal(t, CodeFailed, code)
	require.Error(t, err)
}

func TestShellCheckStatus_MapsSchedulerStates(t *testing.T) {
	tests := []struct {
		output string
		status state.Status
	}{
		{"pending", state.StatusRunning},
		{"RUNNING", state.StatusRunning},
		{"completed", state.StatusFinished},
		{"done", state.StatusFinished},
		{"cancelled", state.StatusFailed},
	}

	for _, tt := range tests {
		cfg := shellConfig(t, map[string]string{"poll_command": "echo " + tt.output + " #"})
		job := models.NewMapJob(2, map[string]any{
			models.AttrStatus:         state.StatusRunning,
			models.AttrSchedulerJobID: "999",
		})

		code, updates, err := shellCheckStatus{}.Execute(context.Background(), job, cfg)
		require.NoError(t, err, "output %q", tt.output)
		assert.Equal(t, CodeOK, code)
		assert.Equal(t, tt.status, updates[models.AttrStatus])
	}
}

func TestShellCheckStatus_UnknownState(t *testing.T) {
	cfg := shellConfig(t, map[string]string{"poll_command": "echo vanished #"})
	job := models.NewMapJob(2, map[string]any{
		models.AttrStatus:         state.StatusRunning,
		models.AttrSchedulerJobID: "999",
	})

	code, _, err := shellCheckStatus{}.Execute(context.Background(), job, cfg)
	assert.Equal(t, CodeFailed, code)
	require.Error(t, err)
}

func TestShellCheckStatus_NoSchedulerID(t *testing.T) {
	cfg := shellConfig(t, map[string]string{"poll_command": "echo running"})
	job := models.NewMapJob(2, map[string]any{models.AttrStatus: state.StatusRunning})

	code, updates, err := shellCheckStatus{}.Execute(context.Background(), job, cfg)
	require.NoError(t, err)
	assert.Equal(t, CodeFailed, code)
	assert.Equal(t, state.StatusFailed, updates[models.AttrStatus])
}
