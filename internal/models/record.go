package models

import (
	"fmt"
	"time"

	"jobexec/internal/state"
)

// Record is the persisted variant of a job: one row of the jobs table, or
// one hash in the redis strategy. Optional columns are pointers so absence
// survives the round trip.
type Record struct {
	JobID          int64
	UUID           string
	JobType        string
	JobStatus      state.Status
	TimeCreated    time.Time
	TimeStarted    *time.Time
	TimeCompleted  *time.Time
	Params         map[string]any
	Results        *string
	SchedulerJobID *string
}

func (r *Record) ID() int64 {
	return r.JobID
}

func (r *Record) Status() state.Status {
	return r.JobStatus
}

// Get resolves named attributes against the row's columns first and its
// open-ended params mapping second. Missing columns and nil optionals
// degrade to the default.
func (r *Record) Get(attr string, def any) any {
	switch attr {
	case AttrStatus:
		return r.JobStatus
	case AttrUUID:
		return r.UUID
	case AttrType:
		return r.JobType
	case AttrTimeCreated:
		return r.TimeCreated
	case AttrTimeStarted:
		if r.TimeStarted == nil {
			return def
		}
		return *r.TimeStarted
	case AttrTimeCompleted:
		if r.TimeCompleted == nil {
			return def
		}
		return *r.TimeCompleted
	case AttrParams:
		if r.Params == nil {
			return def
		}
		return r.Params
	case AttrResults:
		if r.Results == nil {
			return def
		}
		return *r.Results
	case AttrSchedulerJobID:
		if r.SchedulerJobID == nil {
			return def
		}
		return *r.SchedulerJobID
	}
	if v, ok := r.Params[attr]; ok && v != nil {
		return v
	}
	return def
}

func (r *Record) UpdatableAttrs() map[string]struct{} {
	return updatableAttrs
}

func (r *Record) String() string {
	switch {
	case r.JobStatus == state.StatusRunning && r.TimeStarted != nil:
		return fmt.Sprintf("<Job id=%d status=%s timeStarted=%s>", r.JobID, r.JobStatus, r.TimeStarted.Format(time.RFC3339))
	case r.JobStatus.Terminal() && r.TimeCompleted != nil:
		return fmt.Sprintf("<Job id=%d status=%s timeCompleted=%s>", r.JobID, r.JobStatus, r.TimeCompleted.Format(time.RFC3339))
	default:
		return fmt.Sprintf("<Job id=%d status=%s>", r.JobID, r.JobStatus)
	}
}
