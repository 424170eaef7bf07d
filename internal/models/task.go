package models

import "time"

// Task statuses.
const (
	StatusPending   = "pending"
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
	StatusEscalated = "escalated"
)

// Task categories.
const (
	CategoryMonitor    = "monitor"
	CategoryCoordinate = "coordinate"
	CategoryExecute    = "execute"
)

// TaskStatuses lists all valid task statuses.
var TaskStatuses = []string{StatusPending, StatusOngoing, StatusCompleted, StatusEscalated}

// ValidStatus reports whether s is a recognized task status.
func ValidStatus(s string) bool {
	for _, v := range TaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ValidCategory reports whether c is a recognized task category.
func ValidCategory(c string) bool {
	return c == CategoryMonitor || c == CategoryCoordinate || c == CategoryExecute
}

// Task is the core work item in Callboard. Tasks nest under a phase and a
// step within their project; task_order gives deterministic intra-step order.
type Task struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	ProjectID   uint   `gorm:"not null;index;uniqueIndex:uq_task_position,priority:1"`
	Name        string `gorm:"not null"`
	Description string `gorm:"type:text"`
	PhaseName   string `gorm:"size:128;not null"`
	PhaseOrder  int    `gorm:"not null;index;uniqueIndex:uq_task_position,priority:2"`
	StepName    string `gorm:"size:128;not null"`
	StepOrder   int    `gorm:"not null;uniqueIndex:uq_task_position,priority:3"`
	TaskOrder   int    `gorm:"not null;uniqueIndex:uq_task_position,priority:4"`
	Status      string `gorm:"size:16;default:pending;index"`

	StartedAt           *time.Time
	CompletedAt         *time.Time
	EscalatedAt         *time.Time
	EscalationReason    *string `gorm:"type:text"`
	IsManuallyEscalated bool    `gorm:"default:false"`

	IsLoaded     bool    `gorm:"default:false;index"`
	IsCustom     bool    `gorm:"default:false"`
	ParentTaskID *uint   `gorm:"index"`
	Deadline     *time.Time
	Category     *string `gorm:"size:16"`
	Archived     bool    `gorm:"default:false"`
	CreatedBy    string  `gorm:"size:64"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Project     Project                 `gorm:"foreignKey:ProjectID"`
	Parent      *Task                   `gorm:"foreignKey:ParentTaskID"`
	Checklist   []ChecklistItem         `gorm:"foreignKey:TaskID"`
	Comments    []TaskComment           `gorm:"foreignKey:TaskID"`
	Assignments []ProjectTaskAssignment `gorm:"foreignKey:TaskID"`
}

// ChecklistItem is one entry in a task's ordered checklist.
type ChecklistItem struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	TaskID    uint   `gorm:"not null;index"`
	Position  int    `gorm:"not null"`
	Text      string `gorm:"not null"`
	Completed bool   `gorm:"default:false"`
}

// TaskComment is one entry in a task's append-only comment list.
type TaskComment struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	TaskID    uint   `gorm:"not null;index"`
	AuthorID  string `gorm:"size:64"`
	Body      string `gorm:"type:text;not null"`
	CreatedAt time.Time
}
