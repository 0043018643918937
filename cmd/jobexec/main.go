package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"jobexec/internal/config"
	"jobexec/internal/datahandler"
	"jobexec/internal/executor"
	"jobexec/internal/taskoperator"
)

func main() {
	os.Exit(run())
}

func run() int {
	confPath := flag.String("conf", "", "path to the INI or JSON configuration file (required)")
	logPath := flag.String("log", "", "append logs to this file instead of stdout")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	dryRun := flag.Bool("dry-run", false, "report updates without committing them")
	schedule := flag.String("schedule", "", "cron expression; run passes on this schedule until interrupted")
	flag.Parse()

	if *confPath == "" {
		fmt.Fprintln(os.Stderr, "missing required -conf flag")
		flag.Usage()
		return 2
	}

	logger, closeLog, err := newLogger(*logPath, *verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeLog()

	cfg, err := config.Load(*confPath)
	if err != nil {
		logger.Error("configuration failed", "error", err)
		return 1
	}

	handler, err := datahandler.New(cfg, logger)
	if err != nil {
		logger.Error("data handler setup failed", "error", err)
		return 1
	}
	operator, err := taskoperator.New(cfg, logger)
	if err != nil {
		logger.Error("task operator setup failed", "error", err)
		return 1
	}
	exec := executor.New(handler, operator, cfg, logger, executor.WithDryRun(*dryRun))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	expression := *schedule
	if expression == "" {
		expression = cfg.Parameter(config.SectionCompute, "schedule", "")
	}
	if expression != "" {
		if err := exec.RunSchedule(ctx, expression); err != nil {
			logger.Error("scheduler stopped", "error", err)
			return 1
		}
		logger.Info("scheduler shut down")
		return 0
	}

	stats, err := exec.RunPass(ctx)
	if err != nil {
		logger.Error("pass aborted", "error", err)
		return 1
	}
	logger.Info("pass completed",
		"processed", stats.Processed,
		"updated", stats.Updated,
		"failed", stats.Failed,
		"skipped", stats.Skipped)
	return 0
}

func newLogger(path string, verbose bool) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var out io.Writer = os.Stdout
	closeLog := func() {}
	if path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = file
		closeLog = func() { file.Close() }
	}

	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})), closeLog, nil
}
