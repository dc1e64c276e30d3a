package domain

// Run status constants
const (
	RunStatusPending   = "PENDING"
	RunStatusRunning   = "RUNNING"
	RunStatusCompleted = "COMPLETED"
	RunStatusFailed    = "FAILED"
)

// Run trigger constants
const (
	TriggerAPI       = "api"
	TriggerScheduler = "scheduler"
)
