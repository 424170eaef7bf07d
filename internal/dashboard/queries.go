package dashboard

import (
	"fmt"

	"github.com/callboard/callboard/internal/models"
	"github.com/callboard/callboard/internal/taskops"
	"gorm.io/gorm"
)

// ProjectRow holds project data with task counts for display.
type ProjectRow struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Ongoing   int    `json:"ongoing"`
	Pending   int    `json:"pending"`
	Escalated int    `json:"escalated"`
}

// ProjectSummaries returns all non-archived, non-template projects with
// loaded-task counts grouped by status.
func ProjectSummaries(db *gorm.DB) ([]ProjectRow, error) {
	var projects []models.Project
	err := db.Where("archived = ? AND is_template = ?", false, false).
		Order("id ASC").
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("dashboard: list projects: %w", err)
	}

	type countRow struct {
		ProjectID uint
		Status    string
		Count     int
	}
	var counts []countRow
	err = db.Model(&models.Task{}).
		Select("project_id, status, count(*) as count").
		Where("is_loaded = ? AND archived = ?", true, false).
		Group("project_id, status").
		Find(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("dashboard: count tasks: %w", err)
	}

	byProject := make(map[uint]*ProjectRow, len(projects))
	rows := make([]ProjectRow, len(projects))
	for i, p := range projects {
		rows[i] = ProjectRow{ID: p.ID, Name: p.Name, Status: p.Status}
		byProject[p.ID] = &rows[i]
	}
	for _, c := range counts {
		row, ok := byProject[c.ProjectID]
		if !ok {
			continue
		}
		row.Total += c.Count
		switch c.Status {
		case models.StatusCompleted:
			row.Completed += c.Count
		case models.StatusOngoing:
			row.Ongoing += c.Count
		case models.StatusPending:
			row.Pending += c.Count
		case models.StatusEscalated:
			row.Escalated += c.Count
		}
	}
	return rows, nil
}

// ProjectSummary returns one project's row.
func ProjectSummary(db *gorm.DB, projectID uint) (*ProjectRow, error) {
	rows, err := ProjectSummaries(db)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].ID == projectID {
			return &rows[i], nil
		}
	}
	return nil, fmt.Errorf("dashboard: project %d: %w", projectID, taskops.ErrNotFound)
}
