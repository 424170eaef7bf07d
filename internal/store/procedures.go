// Package store implements the atomic server-side procedures the core
// components delegate to: template expansion, standing role assignment, role
// coverage, phase loading, and the overdue-escalation sweep.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/callboard/callboard/internal/models"
	"github.com/callboard/callboard/internal/taskops"
	"gorm.io/gorm"
)

// Procs runs the store-side procedures against an injected handle.
type Procs struct {
	DB *gorm.DB
}

// NewProcs returns a Procs bound to db.
func NewProcs(db *gorm.DB) *Procs {
	return &Procs{DB: db}
}

// ProjectFields holds caller-supplied fields for a new project.
type ProjectFields struct {
	Name string
}

// CreateProjectFromTemplate expands a template project into a new pending
// project: roles are copied as-is, tasks are copied with is_loaded=false and
// a clean pending lifecycle. Runs in a single transaction.
func (p *Procs) CreateProjectFromTemplate(templateID uint, fields ProjectFields, createdBy string) (uint, error) {
	if fields.Name == "" {
		return 0, fmt.Errorf("store: create project from template %d: name is required: %w", templateID, taskops.ErrValidation)
	}

	var projectID uint
	err := p.DB.Transaction(func(tx *gorm.DB) error {
		var tmpl models.Project
		result := tx.Where("id = ? AND is_template = ?", templateID, true).Find(&tmpl)
		if result.Error != nil {
			return fmt.Errorf("store: load template %d: %w", templateID, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("store: template %d: %w", templateID, taskops.ErrNotFound)
		}

		project := models.Project{
			Name:      fields.Name,
			Status:    models.ProjectPending,
			CreatedBy: createdBy,
		}
		if err := tx.Create(&project).Error; err != nil {
			return fmt.Errorf("store: create project from template %d: %w", templateID, err)
		}

		var roles []models.ProjectRole
		if err := tx.Where("project_id = ?", templateID).Order("id ASC").Find(&roles).Error; err != nil {
			return fmt.Errorf("store: load template %d roles: %w", templateID, err)
		}
		for _, r := range roles {
			role := models.ProjectRole{
				ProjectID:  project.ID,
				Department: r.Department,
				Name:       r.Name,
			}
			if err := tx.Create(&role).Error; err != nil {
				return fmt.Errorf("store: copy role %q to project %d: %w", r.Name, project.ID, err)
			}
		}

		var tasks []models.Task
		if err := tx.Where("project_id = ?", templateID).
			Order("phase_order ASC, step_order ASC, task_order ASC").
			Find(&tasks).Error; err != nil {
			return fmt.Errorf("store: load template %d tasks: %w", templateID, err)
		}
		for _, src := range tasks {
			task := models.Task{
				ProjectID:   project.ID,
				Name:        src.Name,
				Description: src.Description,
				PhaseName:   src.PhaseName,
				PhaseOrder:  src.PhaseOrder,
				StepName:    src.StepName,
				StepOrder:   src.StepOrder,
				TaskOrder:   src.TaskOrder,
				Status:      models.StatusPending,
				Category:    src.Category,
				CreatedBy:   createdBy,
			}
			if err := tx.Create(&task).Error; err != nil {
				return fmt.Errorf("store: copy task %q to project %d: %w", src.Name, project.ID, err)
			}
		}

		projectID = project.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return projectID, nil
}

// AssignCrewToProjectRole records a crew member's standing role within a
// project. Already holding the role is a no-op.
func (p *Procs) AssignCrewToProjectRole(projectID, roleID, crewID uint, assignedBy string) error {
	var role models.ProjectRole
	result := p.DB.Where("id = ? AND project_id = ?", roleID, projectID).Find(&role)
	if result.Error != nil {
		return fmt.Errorf("store: load role %d in project %d: %w", roleID, projectID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("store: role %d in project %d: %w", roleID, projectID, taskops.ErrNotFound)
	}

	row := models.ProjectCrewAssignment{
		ProjectID:  projectID,
		CrewID:     crewID,
		RoleID:     roleID,
		AssignedBy: assignedBy,
	}
	if err := p.DB.Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("store: assign crew %d to role %d in project %d: %w", crewID, roleID, projectID, err)
	}
	return nil
}

// CanProjectStart reports whether every project role has at least one
// standing crew assignment.
func (p *Procs) CanProjectStart(projectID uint) (bool, error) {
	covered := p.DB.Model(&models.ProjectCrewAssignment{}).
		Select("role_id").
		Where("project_id = ?", projectID)

	var unfilled int64
	err := p.DB.Model(&models.ProjectRole{}).
		Where("project_id = ?", projectID).
		Where("id NOT IN (?)", covered).
		Count(&unfilled).Error
	if err != nil {
		return false, fmt.Errorf("store: check role coverage for project %d: %w", projectID, err)
	}
	return unfilled == 0, nil
}

// LoadNextPhaseTasks marks the lowest unloaded phase's tasks is_loaded=true.
// Returns false when no further phase exists.
func (p *Procs) LoadNextPhaseTasks(projectID uint) (bool, error) {
	loaded := false
	err := p.DB.Transaction(func(tx *gorm.DB) error {
		type minRow struct {
			MinOrder *int
		}
		var row minRow
		err := tx.Model(&models.Task{}).
			Select("MIN(phase_order) AS min_order").
			Where("project_id = ? AND is_loaded = ? AND archived = ?", projectID, false, false).
			Scan(&row).Error
		if err != nil {
			return fmt.Errorf("store: find next phase for project %d: %w", projectID, err)
		}
		if row.MinOrder == nil {
			return nil
		}

		result := tx.Model(&models.Task{}).
			Where("project_id = ? AND phase_order = ? AND is_loaded = ? AND archived = ?",
				projectID, *row.MinOrder, false, false).
			Update("is_loaded", true)
		if result.Error != nil {
			return fmt.Errorf("store: load phase %d tasks for project %d: %w", *row.MinOrder, projectID, result.Error)
		}
		loaded = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return loaded, nil
}

// EscalateOverdueTasks flips every non-archived pending or ongoing task whose
// deadline has passed into escalated, in one conditional UPDATE. started_at
// is backfilled where unset so escalated tasks always carry a start time.
// Returns the number of tasks affected. Safe to re-run: already escalated
// tasks no longer match the predicate.
func (p *Procs) EscalateOverdueTasks() (int64, error) {
	now := time.Now()
	result := p.DB.Model(&models.Task{}).
		Where("archived = ?", false).
		Where("status IN ?", []string{models.StatusPending, models.StatusOngoing}).
		Where("deadline IS NOT NULL AND deadline < ?", now).
		Updates(map[string]interface{}{
			"status":       models.StatusEscalated,
			"escalated_at": now,
			"started_at":   gorm.Expr("COALESCE(started_at, ?)", now),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("store: escalate overdue tasks: %w", result.Error)
	}
	return result.RowsAffected, nil
}
