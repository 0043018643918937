package custom_errors

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying every failure the executor can report.
// Callers match them with errors.Is.
var (
	// ErrConfiguration covers unknown strategy names and missing required
	// config parameters. Fatal, aborts startup.
	ErrConfiguration = errors.New("jobexec: invalid configuration")

	// ErrState covers operations issued against a data handler in the wrong
	// connection state. Programmer error.
	ErrState = errors.New("jobexec: wrong handler state")

	// ErrValidation covers update-sets naming attributes the job does not
	// permit mutating. Recoverable per job.
	ErrValidation = errors.New("jobexec: update-set rejected")

	// ErrUnsupportedStatus covers jobs whose status has no bound task.
	// Recoverable per job.
	ErrUnsupportedStatus = errors.New("jobexec: no task bound to status")

	// ErrPersistence covers backend write failures after the in-flight unit
	// of work has been rolled back. Recoverable per job.
	ErrPersistence = errors.New("jobexec: backend write failed")
)

func Configurationf(format string, args ...any) error {
	return wrapf(ErrConfiguration, format, args...)
}

func Statef(format string, args ...any) error {
	return wrapf(ErrState, format, args...)
}

func Validationf(format string, args ...any) error {
	return wrapf(ErrValidation, format, args...)
}

func UnsupportedStatusf(format string, args ...any) error {
	return wrapf(ErrUnsupportedStatus, format, args...)
}

func Persistencef(format string, args ...any) error {
	return wrapf(ErrPersistence, format, args...)
}

func wrapf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
