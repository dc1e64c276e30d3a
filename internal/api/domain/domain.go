package domain

import (
	"errors"
)

const (
	RunStatusPending   = "PENDING"
	RunStatusRunning   = "RUNNING"
	RunStatusCompleted = "COMPLETED"
	RunStatusFailed    = "FAILED"

	TriggerAPI = "api"
)

var (
	ErrRunNotFound    = errors.New("run not found")
	ErrJobNotFound    = errors.New("job not found")
	ErrNoCompletedRun = errors.New("no completed run")
)

// ValidRunStatus reports whether s is a known run status
func ValidRunStatus(s string) bool {
	switch s {
	case RunStatusPending, RunStatusRunning, RunStatusCompleted, RunStatusFailed:
		return true
	}
	return false
}
