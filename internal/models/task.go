package models

import (
	"time"

	"gorm.io/gorm"
)

// Task status labels as reported by the GeeLark task query API. The remote
// system is the sole authority for transitions; local records only mirror
// what reconciliation reports, except Cancelled which is set right before
// the record is deleted.
const (
	StatusWaiting    = "Waiting"
	StatusInProgress = "In progress"
	StatusCompleted  = "Completed"
	StatusFailed     = "Failed"
	StatusCancelled  = "Cancelled"
)

// TerminalStatuses are the states a task never leaves.
var TerminalStatuses = []string{StatusCompleted, StatusFailed, StatusCancelled}

// IsTerminalStatus reports whether a task in the given status can still
// change on the remote side.
func IsTerminalStatus(status string) bool {
	for _, s := range TerminalStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Task is the local mirror of one accepted remote automation job. It is
// created at dispatch time, keyed by the task id the GeeLark API assigned,
// and mutated only by reconciliation or an explicit cancel.
type Task struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	TaskID      string         `gorm:"uniqueIndex;not null;size:255" json:"task_id"`
	TraceID     string         `gorm:"size:255" json:"trace_id"`
	MobileID    string         `gorm:"not null;size:255;index" json:"mobile_id"`
	Status      string         `gorm:"not null;size:50;default:'Waiting'" json:"status"`
	ScheduledAt time.Time      `gorm:"not null" json:"scheduled_at"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
