package datahandler

import (
	"jobexec/custom_errors"
	"jobexec/internal/models"
)

// Cursor streams jobs from one fetch, consumed the way sql.Rows is. It is
// single-pass and bound to the session that produced it: reading after the
// session was released is a state error.
type Cursor struct {
	handler *Handler
	src     JobSource
	current models.Job
	err     error
	done    bool
}

// Next advances to the next job. It returns false when the stream ends or
// fails; Err distinguishes the two.
func (c *Cursor) Next() bool {
	if c.done || c.err != nil {
		return false
	}
	if !c.handler.connected {
		c.err = custom_errors.Statef("cursor consumed after session release")
		return false
	}
	job, ok, err := c.src.Next()
	if err != nil {
		c.err = err
		c.done = true
		return false
	}
	if !ok {
		c.done = true
		c.src.Close()
		return false
	}
	c.current = job
	return true
}

func (c *Cursor) Job() models.Job {
	return c.current
}

func (c *Cursor) Err() error {
	return c.err
}

func (c *Cursor) Close() error {
	if c.done {
		return nil
	}
	c.done = true
	return c.src.Close()
}
