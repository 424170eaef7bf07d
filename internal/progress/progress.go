// Package progress computes per-phase task statistics and gates project
// advancement.
package progress

import (
	"fmt"
	"sort"
	"time"

	"github.com/callboard/callboard/internal/models"
	"github.com/callboard/callboard/internal/taskops"
	"gorm.io/gorm"
)

// Procedures is the store-side contract this aggregator delegates to. It
// never computes role coverage or the overdue sweep itself.
type Procedures interface {
	CanProjectStart(projectID uint) (bool, error)
	LoadNextPhaseTasks(projectID uint) (bool, error)
	EscalateOverdueTasks() (int64, error)
}

// Aggregator is a stateless progression service over an injected store
// handle and procedure runner.
type Aggregator struct {
	DB    *gorm.DB
	Procs Procedures
}

// NewAggregator returns an Aggregator bound to db and procs.
func NewAggregator(db *gorm.DB, procs Procedures) *Aggregator {
	return &Aggregator{DB: db, Procs: procs}
}

// PhaseProgress is the per-phase status tally for one project phase.
type PhaseProgress struct {
	PhaseName  string `json:"phase_name"`
	PhaseOrder int    `json:"phase_order"`
	Total      int    `json:"total"`
	Completed  int    `json:"completed"`
	Ongoing    int    `json:"ongoing"`
	Pending    int    `json:"pending"`
	Escalated  int    `json:"escalated"`
}

// ComputePhaseProgress tallies loaded, non-archived tasks of the project by
// phase and status, ordered by ascending phase_order. Phases with no loaded
// tasks do not appear.
func (a *Aggregator) ComputePhaseProgress(projectID uint) ([]PhaseProgress, error) {
	type row struct {
		PhaseName  string
		PhaseOrder int
		Status     string
		Count      int
	}
	var rows []row
	err := a.DB.Model(&models.Task{}).
		Select("phase_name, phase_order, status, count(*) as count").
		Where("project_id = ? AND is_loaded = ? AND archived = ?", projectID, true, false).
		Group("phase_order, phase_name, status").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("progress: compute phase progress for project %d: %w", projectID, err)
	}

	byPhase := make(map[int]*PhaseProgress)
	for _, r := range rows {
		pp, ok := byPhase[r.PhaseOrder]
		if !ok {
			pp = &PhaseProgress{PhaseName: r.PhaseName, PhaseOrder: r.PhaseOrder}
			byPhase[r.PhaseOrder] = pp
		}
		pp.Total += r.Count
		switch r.Status {
		case models.StatusCompleted:
			pp.Completed += r.Count
		case models.StatusOngoing:
			pp.Ongoing += r.Count
		case models.StatusPending:
			pp.Pending += r.Count
		case models.StatusEscalated:
			pp.Escalated += r.Count
		}
	}

	result := make([]PhaseProgress, 0, len(byPhase))
	for _, pp := range byPhase {
		result = append(result, *pp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PhaseOrder < result[j].PhaseOrder })
	return result, nil
}

// CanProjectStart reports whether every required project role has a filled
// assignment.
func (a *Aggregator) CanProjectStart(projectID uint) (bool, error) {
	return a.Procs.CanProjectStart(projectID)
}

// StartProject activates a project: role coverage is checked, the first
// phase's tasks are loaded, and the project status is set to active.
//
// The three steps are not one transaction; each is individually idempotent so
// a retry after partial failure re-runs safely. An already active project is
// a no-op. On failure between steps the caller must re-query before relying
// on project state.
func (a *Aggregator) StartProject(projectID uint) error {
	var project models.Project
	result := a.DB.Where("id = ? AND archived = ?", projectID, false).Find(&project)
	if result.Error != nil {
		return fmt.Errorf("progress: load project %d: %w", projectID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("progress: project %d: %w", projectID, taskops.ErrNotFound)
	}
	if project.Status == models.ProjectActive {
		return nil
	}

	ok, err := a.Procs.CanProjectStart(projectID)
	if err != nil {
		return fmt.Errorf("progress: start project %d: %w", projectID, err)
	}
	if !ok {
		return fmt.Errorf("progress: start project %d: %w", projectID, taskops.ErrRoleCoverageIncomplete)
	}

	// Skip loading when a phase is already loaded, so a retry after a failed
	// status update does not pull in the second phase.
	var loadedCount int64
	if err := a.DB.Model(&models.Task{}).
		Where("project_id = ? AND is_loaded = ? AND archived = ?", projectID, true, false).
		Count(&loadedCount).Error; err != nil {
		return fmt.Errorf("progress: count loaded tasks for project %d: %w", projectID, err)
	}
	if loadedCount == 0 {
		loaded, err := a.Procs.LoadNextPhaseTasks(projectID)
		if err != nil {
			return fmt.Errorf("progress: start project %d: %w", projectID, err)
		}
		if !loaded {
			return fmt.Errorf("progress: start project %d: %w", projectID, taskops.ErrTaskLoadFailure)
		}
	}

	if err := a.DB.Model(&models.Project{}).
		Where("id = ?", projectID).
		Update("status", models.ProjectActive).Error; err != nil {
		return fmt.Errorf("progress: activate project %d: %w", projectID, err)
	}
	return nil
}

// CustomTaskInput holds caller-supplied fields for an ad hoc task.
type CustomTaskInput struct {
	Name         string
	Description  string
	Deadline     *time.Time
	Category     *string
	ParentTaskID *uint
	Checklist    []string
}

// CreateCustomTask appends an ad hoc task to the project's current position.
// Phase and step identity are inherited from the last loaded task by the
// listing sort order; task_order is max(loaded task_order)+1. A project with
// no loaded tasks has no anchor and fails with ErrNoAnchorTask.
func (a *Aggregator) CreateCustomTask(projectID uint, input CustomTaskInput, createdBy string) (*models.Task, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("progress: create custom task in project %d: name is required: %w", projectID, taskops.ErrValidation)
	}
	if input.Category != nil && !models.ValidCategory(*input.Category) {
		return nil, fmt.Errorf("progress: create custom task in project %d: category %q: %w", projectID, *input.Category, taskops.ErrValidation)
	}

	var task models.Task
	err := a.DB.Transaction(func(tx *gorm.DB) error {
		var anchor models.Task
		result := tx.Where("project_id = ? AND is_loaded = ? AND archived = ?", projectID, true, false).
			Order("phase_order DESC, step_order DESC, task_order DESC").
			Limit(1).
			Find(&anchor)
		if result.Error != nil {
			return fmt.Errorf("progress: find anchor task in project %d: %w", projectID, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("progress: project %d: %w", projectID, taskops.ErrNoAnchorTask)
		}

		type maxRow struct {
			MaxOrder int
		}
		var row maxRow
		err := tx.Model(&models.Task{}).
			Select("MAX(task_order) AS max_order").
			Where("project_id = ? AND is_loaded = ?", projectID, true).
			Scan(&row).Error
		if err != nil {
			return fmt.Errorf("progress: compute task order in project %d: %w", projectID, err)
		}

		task = models.Task{
			ProjectID:    projectID,
			Name:         input.Name,
			Description:  input.Description,
			PhaseName:    anchor.PhaseName,
			PhaseOrder:   anchor.PhaseOrder,
			StepName:     anchor.StepName,
			StepOrder:    anchor.StepOrder,
			TaskOrder:    row.MaxOrder + 1,
			Status:       models.StatusPending,
			IsLoaded:     true,
			IsCustom:     true,
			ParentTaskID: input.ParentTaskID,
			Deadline:     input.Deadline,
			Category:     input.Category,
			CreatedBy:    createdBy,
		}
		if err := tx.Create(&task).Error; err != nil {
			return fmt.Errorf("progress: create custom task %q in project %d: %w", input.Name, projectID, err)
		}

		for i, text := range input.Checklist {
			item := models.ChecklistItem{TaskID: task.ID, Position: i + 1, Text: text}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("progress: create checklist item %d for task %d: %w", i+1, task.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// EscalateOverdueTasks runs the store-side overdue sweep and returns the
// affected count. Callable on a schedule; re-runs are no-ops for tasks
// already escalated.
func (a *Aggregator) EscalateOverdueTasks() (int64, error) {
	n, err := a.Procs.EscalateOverdueTasks()
	if err != nil {
		return 0, fmt.Errorf("progress: escalate overdue tasks: %w", err)
	}
	return n, nil
}
