package datahandler

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"jobexec/custom_errors"
	"jobexec/internal/config"
	"jobexec/internal/db"
	"jobexec/internal/models"
	"jobexec/internal/state"
)

// sqlStrategy serves jobs out of a relational jobs table over database/sql.
// The dialect (postgres or mysql) and connection parameters come from the
// [jobdb] section; the table is ensured on open.
type sqlStrategy struct {
	driver string
	dsn    string
	db     *sql.DB
}

func newSQLStrategy(cfg *config.Config) (Strategy, error) {
	driver, dsn, err := buildDSN(cfg.Section(config.SectionJobDB))
	if err != nil {
		return nil, err
	}
	return &sqlStrategy{driver: driver, dsn: dsn}, nil
}

// buildDSN maps the [jobdb] section onto a database/sql driver name and its
// connection string. The strategy name itself may carry the dialect
// (type=postgres, type=mysql); the generic type=sql defers to the dbi key.
func buildDSN(jobdb map[string]string) (driver, dsn string, err error) {
	dialect := strings.ToLower(jobdb["type"])
	if dialect == "sql" {
		dialect = strings.ToLower(jobdb["dbi"])
		if dialect == "" {
			dialect = "mysql"
		}
	}

	dbName := jobdb["db_name"]
	if dbName == "" {
		return "", "", custom_errors.Configurationf("a database name is required in section %q, key \"db_name\" for the sql data strategy", config.SectionJobDB)
	}
	user := jobdb["username"]
	if user == "" {
		user = jobdb["user"]
	}

	switch dialect {
	case "postgres":
		parts := []string{}
		if host := jobdb["host"]; host != "" {
			parts = append(parts, "host="+host)
		}
		if port := jobdb["port"]; port != "" {
			parts = append(parts, "port="+port)
		}
		if user != "" {
			parts = append(parts, "user="+user)
		}
		if password := jobdb["password"]; password != "" {
			parts = append(parts, "password="+password)
		}
		parts = append(parts, "dbname="+dbName)
		sslmode := jobdb["sslmode"]
		if sslmode == "" {
			sslmode = "disable"
		}
		parts = append(parts, "sslmode="+sslmode)
		return "postgres", strings.Join(parts, " "), nil

	case "mysql":
		mc := mysql.NewConfig()
		mc.User = user
		mc.Passwd = jobdb["password"]
		mc.Net = "tcp"
		host := jobdb["host"]
		if host == "" {
			host = "127.0.0.1"
		}
		port := jobdb["port"]
		if port == "" {
			port = "3306"
		}
		mc.Addr = host + ":" + port
		mc.DBName = dbName
		mc.ParseTime = true
		return "mysql", mc.FormatDSN(), nil

	default:
		return "", "", custom_errors.Configurationf("unsupported sql dialect %q in section %q", dialect, config.SectionJobDB)
	}
}

func (s *sqlStrategy) Name() string {
	return s.driver
}

func (s *sqlStrategy) Open(ctx context.Context) error {
	conn, err := sql.Open(s.driver, s.dsn)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.driver, err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("connect to %s: %w", s.driver, err)
	}
	if err := db.EnsureJobsTable(ctx, conn, s.driver); err != nil {
		conn.Close()
		return err
	}
	s.db = conn
	return nil
}

func (s *sqlStrategy) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

const jobColumns = "id, uuid, type, status, time_created, time_started, time_completed, params, results, scheduler_job_id"

func (s *sqlStrategy) FetchJobs(ctx context.Context, filter state.Filter) (JobSource, error) {
	if s.db == nil {
		return nil, custom_errors.Statef("sql strategy is not connected")
	}
	if len(filter) == 0 {
		return &sqlSource{}, nil
	}

	marks := strings.TrimSuffix(strings.Repeat("?,", len(filter)), ",")
	query := "SELECT " + jobColumns + " FROM jobs WHERE status IN (" + marks + ") ORDER BY id"
	args := make([]any, len(filter))
	for i, status := range filter {
		args[i] = status.String()
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("fetch jobs: %w", err)
	}
	return &sqlSource{rows: rows}, nil
}

func (s *sqlStrategy) UpdateJob(ctx context.Context, job models.Job, updates models.UpdateSet) error {
	if s.db == nil {
		return custom_errors.Statef("sql strategy is not connected")
	}

	keys := make([]string, 0, len(updates))
	for key := range updates {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	sets := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+1)
	for _, key := range keys {
		sets = append(sets, key+" = ?")
		args = append(args, toColumnValue(updates[key]))
	}
	args = append(args, job.ID())
	query := "UPDATE jobs SET " + strings.Join(sets, ", ") + " WHERE id = ?"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return custom_errors.Persistencef("begin update for job %d: %v", job.ID(), err)
	}
	res, err := tx.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		tx.Rollback()
		return custom_errors.Persistencef("update job %d: %v", job.ID(), err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		tx.Rollback()
		return custom_errors.Persistencef("job %d no longer exists", job.ID())
	}
	if err := tx.Commit(); err != nil {
		return custom_errors.Persistencef("commit update for job %d: %v", job.ID(), err)
	}
	return nil
}

// rebind rewrites ? placeholders to the $n form postgres expects. The mysql
// driver takes the query as written.
func (s *sqlStrategy) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func toColumnValue(v any) any {
	switch value := v.(type) {
	case state.Status:
		return value.String()
	case *time.Time:
		if value == nil {
			return nil
		}
		return *value
	default:
		return v
	}
}

// sqlSource adapts sql.Rows to the JobSource stream, building one Record per
// row. A zero sqlSource is an empty stream.
type sqlSource struct {
	rows *sql.Rows
}

func (s *sqlSource) Next() (models.Job, bool, error) {
	if s.rows == nil {
		return nil, false, nil
	}
	if !s.rows.Next() {
		return nil, false, s.rows.Err()
	}

	var (
		rec         models.Record
		statusRaw   string
		started     sql.NullTime
		completed   sql.NullTime
		params      sql.NullString
		results     sql.NullString
		schedulerID sql.NullString
	)
	err := s.rows.Scan(
		&rec.JobID, &rec.UUID, &rec.JobType, &statusRaw, &rec.TimeCreated,
		&started, &completed, &params, &results, &schedulerID,
	)
	if err != nil {
		return nil, false, fmt.Errorf("scan job row: %w", err)
	}

	status, ok := state.Parse(statusRaw)
	if !ok {
		return nil, false, fmt.Errorf("job %d has unknown status %q", rec.JobID, statusRaw)
	}
	rec.JobStatus = status
	if started.Valid {
		t := started.Time
		rec.TimeStarted = &t
	}
	if completed.Valid {
		t := completed.Time
		rec.TimeCompleted = &t
	}
	if params.Valid && params.String != "" {
		if err := json.Unmarshal([]byte(params.String), &rec.Params); err != nil {
			return nil, false, fmt.Errorf("job %d has unreadable params: %w", rec.JobID, err)
		}
	}
	if results.Valid {
		v := results.String
		rec.Results = &v
	}
	if schedulerID.Valid {
		v := schedulerID.String
		rec.SchedulerJobID = &v
	}
	return &rec, true, nil
}

func (s *sqlSource) Close() error {
	if s.rows == nil {
		return nil
	}
	return s.rows.Close()
}
