package models

import "time"

// Project statuses.
const (
	ProjectPending   = "pending"
	ProjectActive    = "active"
	ProjectCompleted = "completed"
	ProjectArchived  = "archived"
)

// Project groups phases, steps, and tasks under one production run.
// A project with IsTemplate set is a definition only: its tasks are never
// loaded directly, they are copied into new projects by template expansion.
type Project struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	Name       string `gorm:"not null"`
	Status     string `gorm:"size:16;default:pending;index"`
	IsTemplate bool   `gorm:"default:false;index"`
	Archived   bool   `gorm:"default:false"`
	CreatedBy  string `gorm:"size:64"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Roles []ProjectRole `gorm:"foreignKey:ProjectID"`
	Tasks []Task        `gorm:"foreignKey:ProjectID"`
}
