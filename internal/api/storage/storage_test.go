package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildListJobsQuery(t *testing.T) {
	yes := true
	no := false
	at := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		filter   JobFilter
		contains []string
		args     []any
	}{
		{
			name:     "no filters",
			filter:   JobFilter{PageSize: 20},
			contains: []string{"ORDER BY collected_at DESC, job_id DESC", "LIMIT $1"},
			args:     []any{21},
		},
		{
			name:     "string filters",
			filter:   JobFilter{State: "ID", CareerTrack: "Hospital Administration", PageSize: 10},
			contains: []string{"AND state = $1", "AND career_track = $2", "LIMIT $3"},
			args:     []any{"ID", "Hospital Administration", 11},
		},
		{
			name:     "boolean filters",
			filter:   JobFilter{EntryLevel: &yes, Remote: &no, PageSize: 5},
			contains: []string{"AND entry_level = $1", "AND remote = $2"},
			args:     []any{true, false, 6},
		},
		{
			name:     "cursor",
			filter:   JobFilter{Platform: "lever", PageSize: 2, Cursor: &Cursor{At: at, ID: "abc"}},
			contains: []string{"AND platform = $1", "AND (collected_at, job_id) < ($2, $3)", "LIMIT $4"},
			args:     []any{"lever", at, "abc", 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := buildListJobsQuery(tt.filter)
			for _, fragment := range tt.contains {
				assert.Contains(t, q.sql, fragment)
			}
			assert.Equal(t, tt.args, q.args)
			assert.Equal(t, 1, strings.Count(q.sql, "ORDER BY"))
		})
	}
}

func TestQuery_RunsPage(t *testing.T) {
	q := newQuery("SELECT run_id FROM collection_runs WHERE 1=1")
	q.where("status", "")
	q.where("status", "COMPLETED")
	q.page("created_at", "run_id", nil, 20)

	assert.Equal(t,
		"SELECT run_id FROM collection_runs WHERE 1=1 AND status = $1 ORDER BY created_at DESC, run_id DESC LIMIT $2",
		q.sql)
	assert.Equal(t, []any{"COMPLETED", 21}, q.args)
}
