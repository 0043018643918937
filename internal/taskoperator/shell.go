package taskoperator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"jobexec/internal/config"
	"jobexec/internal/models"
	"jobexec/internal/state"
)

// The shell strategy set drives real work through commands named in the
// [compute] section: submit_command hands a job to the local scheduler and
// poll_command asks it where a submitted job stands. The last whitespace
// field of the submit output is kept as the scheduler's job id, which is how
// sbatch reports one.

func newShellTasks(cfg *config.Config) (map[state.Status]Task, error) {
	return map[state.Status]Task{
		state.StatusNew:     shellStart{},
		state.StatusRunning: shellCheckStatus{},
	}, nil
}

type shellStart struct{}

func (shellStart) Execute(ctx context.Context, job models.Job, cfg *config.Config) (int, models.UpdateSet, error) {
	cmdline := cfg.Parameter(config.SectionCompute, "submit_command", "")
	if cmdline == "" {
		return CodeFailed, nil, errors.New("no submit_command configured in [compute]")
	}

	outputDir := cfg.Parameter(config.SectionCompute, "output_dir", os.TempDir())
	workDir := filepath.Join(outputDir, strconv.FormatInt(job.ID(), 10))
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return CodeFailed, nil, fmt.Errorf("create working directory: %w", err)
	}

	out, err := runCommand(ctx, cmdline, workDir)
	if err != nil {
		return CodeFailed, nil, err
	}

	updates := models.UpdateSet{
		models.AttrStatus:      state.StatusRunning,
		models.AttrTimeStarted: time.Now(),
	}
	if fields := strings.Fields(out); len(fields) > 0 {
		updates[models.AttrSchedulerJobID] = fields[len(fields)-1]
	}
	return CodeOK, updates, nil
}

type shellCheckStatus struct{}

func (shellCheckStatus) Execute(ctx context.Context, job models.Job, cfg *config.Config) (int, models.UpdateSet, error) {
	schedulerID, _ := job.Get(models.AttrSchedulerJobID, "").(string)
	if schedulerID == "" {
		// Submitted without a scheduler id; nothing left to poll.
		return CodeFailed, models.UpdateSet{models.AttrStatus: state.StatusFailed}, nil
	}

	cmdline := cfg.Parameter(config.SectionCompute, "poll_command", "")
	if cmdline == "" {
		return CodeFailed, nil, errors.New("no poll_command configured in [compute]")
	}

	out, err := runCommand(ctx, cmdline+" "+schedulerID, "")
	if err != nil {
		return CodeFailed, nil, err
	}

	switch strings.ToLower(strings.TrimSpace(out)) {
	case "pending", "running":
		return CodeOK, models.UpdateSet{models.AttrStatus: state.StatusRunning}, nil
	case "finished", "completed", "done":
		return CodeOK, models.UpdateSet{
			models.AttrStatus:        state.StatusFinished,
			models.AttrTimeCompleted: time.Now(),
		}, nil
	case "failed", "cancelled", "timeout":
		return CodeOK, models.UpdateSet{
			models.AttrStatus:        state.StatusFailed,
			models.AttrTimeCompleted: time.Now(),
		}, nil
	default:
		return CodeFailed, nil, fmt.Errorf("unrecognized scheduler state %q for job %d", out, job.ID())
	}
}

func runCommand(ctx context.Context, cmdline, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", cmdline)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("run %q: %w: %s", cmdline, err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}
