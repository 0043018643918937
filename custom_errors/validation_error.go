package custom_errors

import (
	"errors"
	"fmt"
)

// ValidationError collects every offending key of one update-set so the
// caller can report the whole rejection at once.
type ValidationError struct {
	Errors []error `json:"errors"`
}

func (c *ValidationError) Add(err error) {
	c.Errors = append(c.Errors, err)
}

func (c *ValidationError) HasError() bool {
	return len(c.Errors) > 0
}

func (c *ValidationError) Error() string {
	if len(c.Errors) == 0 {
		return ""
	}
	return fmt.Sprintf("%v", errors.Join(c.Errors...))
}

func (c *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
