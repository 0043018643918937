package models

import (
	"fmt"

	"jobexec/internal/state"
)

// Attribute names shared by every backend. They double as column names in
// the relational strategy and hash fields in the redis strategy.
const (
	AttrStatus         = "status"
	AttrUUID           = "uuid"
	AttrType           = "type"
	AttrTimeCreated    = "time_created"
	AttrTimeStarted    = "time_started"
	AttrTimeCompleted  = "time_completed"
	AttrParams         = "params"
	AttrResults        = "results"
	AttrSchedulerJobID = "scheduler_job_id"
)

// UpdateSet maps attribute names to new values. It is produced by one task
// execution and applied atomically to exactly one job by the data handler.
type UpdateSet map[string]any

// Job is the uniform surface over one submitted job, regardless of which
// backend it came from. Get never fails: an attribute the variant does not
// carry degrades to the supplied default.
type Job interface {
	ID() int64
	Status() state.Status
	Get(attr string, def any) any
	UpdatableAttrs() map[string]struct{}
	String() string
}

var updatableAttrs = map[string]struct{}{
	AttrStatus:         {},
	AttrTimeStarted:    {},
	AttrTimeCompleted:  {},
	AttrResults:        {},
	AttrSchedulerJobID: {},
}

// MapJob is the backend-agnostic variant: a bag of attributes keyed by name,
// as yielded by the in-memory storage strategy.
type MapJob struct {
	id    int64
	attrs map[string]any
}

func NewMapJob(id int64, attrs map[string]any) *MapJob {
	copied := make(map[string]any, len(attrs))
	for k, v := range attrs {
		copied[k] = v
	}
	return &MapJob{id: id, attrs: copied}
}

func (j *MapJob) ID() int64 {
	return j.id
}

func (j *MapJob) Status() state.Status {
	switch v := j.attrs[AttrStatus].(type) {
	case state.Status:
		return v
	case string:
		if s, ok := state.Parse(v); ok {
			return s
		}
	}
	return ""
}

func (j *MapJob) Get(attr string, def any) any {
	v, ok := j.attrs[attr]
	if !ok || v == nil {
		return def
	}
	return v
}

func (j *MapJob) UpdatableAttrs() map[string]struct{} {
	return updatableAttrs
}

func (j *MapJob) String() string {
	return fmt.Sprintf("<Job id=%d status=%s>", j.id, j.Status())
}
