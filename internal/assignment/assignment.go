// Package assignment enforces crew-assignment invariants on tasks: role
// resolution on attach and last-assignee protection on detach.
package assignment

import (
	"errors"
	"fmt"

	"github.com/callboard/callboard/internal/db"
	"github.com/callboard/callboard/internal/models"
	"github.com/callboard/callboard/internal/taskops"
	"gorm.io/gorm"
)

// Guard is a stateless assignment service over an injected store handle.
type Guard struct {
	DB *gorm.DB
}

// NewGuard returns a Guard bound to db.
func NewGuard(gdb *gorm.DB) *Guard {
	return &Guard{DB: gdb}
}

// CrewRole is one explicit (crew, role) pair for batch assignment.
type CrewRole struct {
	CrewID uint
	RoleID uint
}

// Assign attaches a crew member to a task. Already assigned is a no-op.
//
// roleID selects the task-assignment role explicitly; when nil the role is
// resolved automatically: a role the crew member already holds in the task's
// project wins, otherwise the project's first role by ascending ID. A project
// with no roles at all fails with ErrNoAvailableRole.
func (g *Guard) Assign(taskID, crewID uint, assignedBy string, roleID *uint) error {
	return g.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.ProjectTaskAssignment
		result := tx.Where("task_id = ? AND crew_id = ?", taskID, crewID).Find(&existing)
		if result.Error != nil {
			return fmt.Errorf("assignment: check task %d crew %d: %w", taskID, crewID, result.Error)
		}
		if result.RowsAffected > 0 {
			return nil
		}

		var task models.Task
		result = tx.Where("id = ? AND archived = ?", taskID, false).Find(&task)
		if result.Error != nil {
			return fmt.Errorf("assignment: load task %d: %w", taskID, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("assignment: task %d: %w", taskID, taskops.ErrNotFound)
		}

		resolved := roleID
		if resolved == nil {
			r, err := resolveRole(tx, task.ProjectID, crewID)
			if err != nil {
				return err
			}
			resolved = &r
		}

		row := models.ProjectTaskAssignment{
			TaskID:     taskID,
			CrewID:     crewID,
			RoleID:     *resolved,
			AssignedBy: assignedBy,
		}
		if err := tx.Create(&row).Error; err != nil {
			// A concurrent assign of the same pair lost the race to the
			// unique index; the assignment exists, which is what we wanted.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil
			}
			return fmt.Errorf("assignment: assign crew %d to task %d: %w", crewID, taskID, err)
		}
		return nil
	})
}

// resolveRole picks a role for crewID within projectID: their standing
// project role if any, else the project's first role by ascending ID.
func resolveRole(tx *gorm.DB, projectID, crewID uint) (uint, error) {
	var standing models.ProjectCrewAssignment
	result := tx.Where("project_id = ? AND crew_id = ?", projectID, crewID).
		Order("role_id ASC").
		Limit(1).
		Find(&standing)
	if result.Error != nil {
		return 0, fmt.Errorf("assignment: resolve standing role for crew %d in project %d: %w", crewID, projectID, result.Error)
	}
	if result.RowsAffected > 0 {
		return standing.RoleID, nil
	}

	var role models.ProjectRole
	result = tx.Where("project_id = ?", projectID).
		Order("id ASC").
		Limit(1).
		Find(&role)
	if result.Error != nil {
		return 0, fmt.Errorf("assignment: resolve fallback role in project %d: %w", projectID, result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, fmt.Errorf("assignment: project %d: %w", projectID, taskops.ErrNoAvailableRole)
	}
	return role.ID, nil
}

// Remove detaches a crew member from a task. A task that has assignments must
// retain at least one, so removing the last assignee fails with
// ErrLastAssignee. The count and the delete run in one transaction with the
// assignment rows locked, so two concurrent removals cannot both pass the
// count.
func (g *Guard) Remove(taskID, crewID uint) error {
	return g.DB.Transaction(func(tx *gorm.DB) error {
		var rows []models.ProjectTaskAssignment
		result := db.LockForUpdate(tx).
			Where("task_id = ?", taskID).
			Find(&rows)
		if result.Error != nil {
			return fmt.Errorf("assignment: count assignments for task %d: %w", taskID, result.Error)
		}

		found := false
		for _, r := range rows {
			if r.CrewID == crewID {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("assignment: task %d crew %d: %w", taskID, crewID, taskops.ErrNotFound)
		}
		if len(rows) <= 1 {
			return fmt.Errorf("assignment: remove crew %d from task %d: %w", crewID, taskID, taskops.ErrLastAssignee)
		}

		if err := tx.Where("task_id = ? AND crew_id = ?", taskID, crewID).
			Delete(&models.ProjectTaskAssignment{}).Error; err != nil {
			return fmt.Errorf("assignment: remove crew %d from task %d: %w", crewID, taskID, err)
		}
		return nil
	})
}

// AssignMany inserts explicit (crew, role) pairs without auto-resolution.
// Each pair commits independently; a duplicate pair surfaces as ErrConflict
// when nothing has been inserted yet, or as ErrPartialFailure reporting how
// many pairs committed before the failure. Committed pairs are not rolled
// back.
func (g *Guard) AssignMany(taskID uint, pairs []CrewRole, assignedBy string) (int, error) {
	if len(pairs) == 0 {
		return 0, fmt.Errorf("assignment: assign many to task %d: no pairs: %w", taskID, taskops.ErrValidation)
	}

	var task models.Task
	result := g.DB.Where("id = ? AND archived = ?", taskID, false).Find(&task)
	if result.Error != nil {
		return 0, fmt.Errorf("assignment: load task %d: %w", taskID, result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, fmt.Errorf("assignment: task %d: %w", taskID, taskops.ErrNotFound)
	}

	committed := 0
	for _, p := range pairs {
		row := models.ProjectTaskAssignment{
			TaskID:     taskID,
			CrewID:     p.CrewID,
			RoleID:     p.RoleID,
			AssignedBy: assignedBy,
		}
		if err := g.DB.Create(&row).Error; err != nil {
			cause := err
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				cause = taskops.ErrConflict
			}
			if committed > 0 {
				return committed, fmt.Errorf("assignment: assign many to task %d: %d of %d committed, crew %d failed: %v: %w",
					taskID, committed, len(pairs), p.CrewID, cause, taskops.ErrPartialFailure)
			}
			return 0, fmt.Errorf("assignment: assign many to task %d: crew %d: %w", taskID, p.CrewID, cause)
		}
		committed++
	}
	return committed, nil
}
