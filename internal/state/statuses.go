package state

import "strings"

type Status string

const (
	StatusNew      Status = "new"
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
	StatusFailed   Status = "failed"
	StatusArchived Status = "archived"
)

func (s Status) String() string {
	return string(s)
}

var AllStatuses = []Status{
	StatusNew,
	StatusRunning,
	StatusFinished,
	StatusFailed,
	StatusArchived,
}

// Filter is a status grouping used to select jobs from a backend.
type Filter []Status

func (f Filter) Contains(s Status) bool {
	for _, member := range f {
		if member == s {
			return true
		}
	}
	return false
}

func (f Filter) Strings() []string {
	out := make([]string, len(f))
	for i, s := range f {
		out[i] = s.String()
	}
	return out
}

var (
	// Incomplete selects the non-terminal statuses still needing work.
	Incomplete = Filter{StatusNew, StatusRunning}
	Completed  = Filter{StatusFinished, StatusFailed, StatusArchived}
	Current    = Filter{StatusNew, StatusRunning, StatusFinished, StatusFailed}
	All        = Filter(AllStatuses)
)

// IsIncomplete reports whether a job in this status should still be picked
// up by a dispatch pass.
func (s Status) IsIncomplete() bool {
	return Incomplete.Contains(s)
}

func (s Status) Terminal() bool {
	return !s.IsIncomplete()
}

// Parse maps a stored status string onto the enumeration.
func Parse(raw string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	for _, member := range AllStatuses {
		if member == s {
			return s, true
		}
	}
	return "", false
}

type Transition struct {
	From Status
	To   Status
}

var ValidTransitions = []Transition{
	{From: StatusNew, To: StatusRunning},
	{From: StatusNew, To: StatusFailed},
	{From: StatusRunning, To: StatusFinished},
	{From: StatusRunning, To: StatusFailed},
	{From: StatusFinished, To: StatusArchived},
	{From: StatusFailed, To: StatusArchived},
}

// IsValidTransition reports whether moving a job from one status to another
// is legal. Re-asserting the current status is always legal, which lets a
// status check leave a still-running job untouched.
func IsValidTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, t := range ValidTransitions {
		if t.From == from && t.To == to {
			return true
		}
	}
	return false
}
