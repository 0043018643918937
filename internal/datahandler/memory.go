package datahandler

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"jobexec/custom_errors"
	"jobexec/internal/config"
	"jobexec/internal/models"
	"jobexec/internal/state"
)

// memoryStrategy keeps jobs in a process-local map keyed by id, standing in
// for a real backend during demos and tests. Open seeds a fresh fake
// dataset; the map is the primary key space of a relational table.
type memoryStrategy struct {
	data map[int64]map[string]any
}

func newMemoryStrategy(_ *config.Config) (Strategy, error) {
	return &memoryStrategy{}, nil
}

func (m *memoryStrategy) Name() string {
	return "memory"
}

func (m *memoryStrategy) Open(_ context.Context) error {
	if m.data == nil {
		m.data = seedJobs()
	}
	return nil
}

func (m *memoryStrategy) Close() error {
	return nil
}

func (m *memoryStrategy) FetchJobs(_ context.Context, filter state.Filter) (JobSource, error) {
	if m.data == nil {
		return nil, custom_errors.Statef("memory strategy is not open")
	}
	ids := make([]int64, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return &memorySource{strategy: m, ids: ids, filter: filter}, nil
}

func (m *memoryStrategy) UpdateJob(_ context.Context, job models.Job, updates models.UpdateSet) error {
	if m.data == nil {
		return custom_errors.Statef("memory strategy is not open")
	}
	row, ok := m.data[job.ID()]
	if !ok {
		return custom_errors.Persistencef("job %d is not present in the backend", job.ID())
	}
	for key, value := range updates {
		row[key] = value
	}
	return nil
}

type memorySource struct {
	strategy *memoryStrategy
	ids      []int64
	filter   state.Filter
	pos      int
}

func (s *memorySource) Next() (models.Job, bool, error) {
	for s.pos < len(s.ids) {
		id := s.ids[s.pos]
		s.pos++
		attrs, ok := s.strategy.data[id]
		if !ok {
			continue
		}
		job := models.NewMapJob(id, attrs)
		if s.filter.Contains(job.Status()) {
			return job, true, nil
		}
	}
	return nil, false, nil
}

func (s *memorySource) Close() error {
	return nil
}

// seedJobs builds the fake dataset: one job per lifecycle corner so a single
// pass exercises every path.
func seedJobs() map[int64]map[string]any {
	statuses := map[int64]state.Status{
		1: state.StatusFinished,
		2: state.StatusRunning,
		3: state.StatusRunning,
		4: state.StatusNew,
		5: state.StatusNew,
		6: state.StatusFailed,
		7: state.StatusArchived,
	}
	now := time.Now()
	data := make(map[int64]map[string]any, len(statuses))
	for id, status := range statuses {
		data[id] = map[string]any{
			models.AttrStatus:      status,
			models.AttrUUID:        uuid.NewString(),
			models.AttrType:        "dummy",
			models.AttrTimeCreated: now,
		}
	}
	return data
}
