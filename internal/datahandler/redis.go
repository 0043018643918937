package datahandler

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"jobexec/custom_errors"
	"jobexec/internal/config"
	"jobexec/internal/models"
	"jobexec/internal/state"
)

const (
	redisJobSetKey    = "jobexec:jobs"
	redisJobKeyPrefix = "jobexec:job:"
)

// redisStrategy keeps each job as a hash under jobexec:job:<id> with the ids
// collected in one set. Field names match the relational column names, so a
// fetched job comes back as the same Record variant.
type redisStrategy struct {
	opts   *redis.Options
	client *redis.Client
}

func newRedisStrategy(cfg *config.Config) (Strategy, error) {
	jobdb := cfg.Section(config.SectionJobDB)
	host := jobdb["host"]
	if host == "" {
		host = "127.0.0.1"
	}
	port := jobdb["port"]
	if port == "" {
		port = "6379"
	}
	dbNum := 0
	if raw := jobdb["db"]; raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, custom_errors.Configurationf("redis db index %q is not a number", raw)
		}
		dbNum = n
	}
	return &redisStrategy{
		opts: &redis.Options{
			Addr:     host + ":" + port,
			Password: jobdb["password"],
			DB:       dbNum,
		},
	}, nil
}

func (r *redisStrategy) Name() string {
	return "redis"
}

func (r *redisStrategy) Open(ctx context.Context) error {
	client := redis.NewClient(r.opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("connect to redis at %s: %w", r.opts.Addr, err)
	}
	r.client = client
	return nil
}

func (r *redisStrategy) Close() error {
	if r.client == nil {
		return nil
	}
	err := r.client.Close()
	r.client = nil
	return err
}

func (r *redisStrategy) FetchJobs(ctx context.Context, filter state.Filter) (JobSource, error) {
	if r.client == nil {
		return nil, custom_errors.Statef("redis strategy is not connected")
	}
	members, err := r.client.SMembers(ctx, redisJobSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch job ids: %w", err)
	}
	ids := make([]int64, 0, len(members))
	for _, member := range members {
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("job id %q in %s is not a number", member, redisJobSetKey)
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return &redisSource{ctx: ctx, client: r.client, ids: ids, filter: filter}, nil
}

func (r *redisStrategy) UpdateJob(ctx context.Context, job models.Job, updates models.UpdateSet) error {
	if r.client == nil {
		return custom_errors.Statef("redis strategy is not connected")
	}
	exists, err := r.client.SIsMember(ctx, redisJobSetKey, strconv.FormatInt(job.ID(), 10)).Result()
	if err != nil {
		return custom_errors.Persistencef("check job %d: %v", job.ID(), err)
	}
	if !exists {
		return custom_errors.Persistencef("job %d is not present in the backend", job.ID())
	}

	fields := make(map[string]any, len(updates))
	for key, value := range updates {
		fields[key] = encodeHashValue(value)
	}
	// MULTI/EXEC keeps the per-job write all-or-nothing.
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, redisJobKeyPrefix+strconv.FormatInt(job.ID(), 10), fields)
	if _, err := pipe.Exec(ctx); err != nil {
		return custom_errors.Persistencef("update job %d: %v", job.ID(), err)
	}
	return nil
}

type redisSource struct {
	ctx    context.Context
	client *redis.Client
	ids    []int64
	filter state.Filter
	pos    int
}

func (s *redisSource) Next() (models.Job, bool, error) {
	for s.pos < len(s.ids) {
		id := s.ids[s.pos]
		s.pos++
		fields, err := s.client.HGetAll(s.ctx, redisJobKeyPrefix+strconv.FormatInt(id, 10)).Result()
		if err != nil {
			return nil, false, fmt.Errorf("fetch job %d: %w", id, err)
		}
		if len(fields) == 0 {
			continue
		}
		rec, err := recordFromHash(id, fields)
		if err != nil {
			return nil, false, err
		}
		if s.filter.Contains(rec.Status()) {
			return rec, true, nil
		}
	}
	return nil, false, nil
}

func (s *redisSource) Close() error {
	return nil
}

func encodeHashValue(v any) string {
	switch value := v.(type) {
	case state.Status:
		return value.String()
	case time.Time:
		return value.Format(time.RFC3339Nano)
	case *time.Time:
		if value == nil {
			return ""
		}
		return value.Format(time.RFC3339Nano)
	case string:
		return value
	default:
		return fmt.Sprint(v)
	}
}

func recordFromHash(id int64, fields map[string]string) (*models.Record, error) {
	status, ok := state.Parse(fields[models.AttrStatus])
	if !ok {
		return nil, fmt.Errorf("job %d has unknown status %q", id, fields[models.AttrStatus])
	}
	rec := &models.Record{
		JobID:     id,
		UUID:      fields[models.AttrUUID],
		JobType:   fields[models.AttrType],
		JobStatus: status,
	}
	if raw := fields[models.AttrTimeCreated]; raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("job %d has unreadable %s: %w", id, models.AttrTimeCreated, err)
		}
		rec.TimeCreated = t
	}
	if raw := fields[models.AttrTimeStarted]; raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("job %d has unreadable %s: %w", id, models.AttrTimeStarted, err)
		}
		rec.TimeStarted = &t
	}
	if raw := fields[models.AttrTimeCompleted]; raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("job %d has unreadable %s: %w", id, models.AttrTimeCompleted, err)
		}
		rec.TimeCompleted = &t
	}
	if raw := fields[models.AttrParams]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &rec.Params); err != nil {
			return nil, fmt.Errorf("job %d has unreadable params: %w", id, err)
		}
	}
	if raw, ok := fields[models.AttrResults]; ok && raw != "" {
		rec.Results = &raw
	}
	if raw, ok := fields[models.AttrSchedulerJobID]; ok && raw != "" {
		rec.SchedulerJobID = &raw
	}
	return rec, nil
}
