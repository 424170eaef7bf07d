package db

import (
	"fmt"

	"github.com/callboard/callboard/internal/config"
	"github.com/callboard/callboard/internal/models"
	"gorm.io/gorm"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Project{},
		&models.ProjectRole{},
		&models.Crew{},
		&models.ProjectCrewAssignment{},
		&models.Task{},
		&models.ChecklistItem{},
		&models.TaskComment{},
		&models.ProjectTaskAssignment{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedRoles inserts the configured default roles into a project, skipping
// names the project already has.
func SeedRoles(db *gorm.DB, projectID uint, departments []config.DepartmentConfig) error {
	for _, dc := range departments {
		role := models.ProjectRole{
			ProjectID:  projectID,
			Department: dc.Department,
			Name:       dc.Name,
		}
		result := db.Where("project_id = ? AND name = ?", projectID, dc.Name).
			FirstOrCreate(&role)
		if result.Error != nil {
			return fmt.Errorf("db: seed role %q for project %d: %w", dc.Name, projectID, result.Error)
		}
	}
	return nil
}
