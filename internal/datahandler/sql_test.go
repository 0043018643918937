package datahandler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobexec/custom_errors"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name           string
		jobdb          map[string]string
		expectedDriver string
		expectedDSN    string
	}{
		{
			name: "postgres with full credentials",
			jobdb: map[string]string{
				"type":     "postgres",
				"host":     "127.0.0.1",
				"port":     "5432",
				"username": "username",
				"password": "password",
				"db_name":  "app",
			},
			expectedDriver: "postgres",
			expectedDSN:    "host=127.0.0.1 port=5432 user=username password=password dbname=app sslmode=disable",
		},
		{
			name: "postgres accepts the user key",
			jobdb: map[string]string{
				"type":    "postgres",
				"user":    "efi",
				"db_name": "jobs",
			},
			expectedDriver: "postgres",
			expectedDSN:    "user=efi dbname=jobs sslmode=disable",
		},
		{
			name: "mysql",
			jobdb: map[string]string{
				"type":     "mysql",
				"host":     "127.0.0.1",
				"port":     "3306",
				"username": "username",
				"password": "password",
				"db_name":  "app",
			},
			expectedDriver: "mysql",
			expectedDSN:    "username:password@tcp(127.0.0.1:3306)/app?parseTime=true",
		},
		{
			name: "generic sql defaults to mysql",
			jobdb: map[string]string{
				"type":     "sql",
				"username": "u",
				"db_name":  "app",
			},
			expectedDriver: "mysql",
			expectedDSN:    "u@tcp(127.0.0.1:3306)/app?parseTime=true",
		},
		{
			name: "generic sql honors dbi",
			jobdb: map[string]string{
				"type":    "sql",
				"dbi":     "postgres",
				"db_name": "app",
			},
			expectedDriver: "postgres",
			expectedDSN:    "dbname=app sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver, dsn, err := buildDSN(tt.jobdb)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedDriver, driver)
			assert.Equal(t, tt.expectedDSN, dsn)
		})
	}
}

func TestBuildDSN_Errors(t *testing.T) {
	tests := []struct {
		name  string
		jobdb map[string]string
	}{
		{
			name:  "missing db_name",
			jobdb: map[string]string{"type": "postgres", "host": "127.0.0.1"},
		},
		{
			name:  "unsupported dialect",
			jobdb: map[string]string{"type": "sql", "dbi": "oracle", "db_name": "app"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := buildDSN(tt.jobdb)
			require.Error(t, err)
			assert.True(t, errors.Is(err, custom_errors.ErrConfiguration))
		})
	}
}

func TestSQLStrategy_Rebind(t *testing.T) {
	pg := &sqlStrategy{driver: "postgres"}
	my := &sqlStrategy{driver: "mysql"}

	query := "UPDATE jobs SET status = ?, results = ? WHERE id = ?"
	assert.Equal(t, "UPDATE jobs SET status = $1, results = $2 WHERE id = $3", pg.rebind(query))
	assert.Equal(t, query, my.rebind(query))
}
