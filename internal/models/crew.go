package models

import "time"

// Crew is a person eligible for task and role assignment.
type Crew struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"not null"`
	Email     string `gorm:"size:128"`
	CreatedAt time.Time
}

// ProjectRole is a named position within a project that crew can hold and
// that tasks are staffed against.
type ProjectRole struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	ProjectID  uint   `gorm:"not null;index"`
	Department string `gorm:"size:64"`
	Name       string `gorm:"size:128;not null"`
	CreatedAt  time.Time
}

// ProjectCrewAssignment is a crew member's standing role within a project,
// independent of any specific task.
type ProjectCrewAssignment struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	ProjectID  uint   `gorm:"not null;index;uniqueIndex:uq_project_crew_role,priority:1"`
	CrewID     uint   `gorm:"not null;index;uniqueIndex:uq_project_crew_role,priority:2"`
	RoleID     uint   `gorm:"not null;uniqueIndex:uq_project_crew_role,priority:3"`
	AssignedBy string `gorm:"size:64"`
	CreatedAt  time.Time

	Crew Crew        `gorm:"foreignKey:CrewID"`
	Role ProjectRole `gorm:"foreignKey:RoleID"`
}

// ProjectTaskAssignment is a crew member's assignment to a specific task.
// RoleID is a point-in-time snapshot of the role resolved at assign time; it
// is not reconciled if the crew member's standing project role later changes.
type ProjectTaskAssignment struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	TaskID     uint   `gorm:"not null;index;uniqueIndex:uq_task_crew,priority:1"`
	CrewID     uint   `gorm:"not null;uniqueIndex:uq_task_crew,priority:2"`
	RoleID     uint   `gorm:"not null"`
	AssignedBy string `gorm:"size:64"`
	CreatedAt  time.Time

	Crew Crew        `gorm:"foreignKey:CrewID"`
	Role ProjectRole `gorm:"foreignKey:RoleID"`
}
