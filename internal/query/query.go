// Package query composes filter predicates into consistent paginated and
// unpaginated task listings.
package query

import (
	"fmt"
	"strings"

	"github.com/callboard/callboard/internal/models"
	"github.com/callboard/callboard/internal/taskops"
	"gorm.io/gorm"
)

// DefaultPageSize is used when Paginate receives a non-positive page size.
const DefaultPageSize = 20

// Filters holds the recognized task listing predicates. All filters AND
// together except Search, which OR-matches over task name and description.
type Filters struct {
	ProjectID  uint
	Statuses   []string
	PhaseOrder *int
	StepOrder  *int
	Categories []string
	IsLoaded   *bool // nil means the default: loaded tasks only
	IsCustom   *bool
	Search     string

	// IncludeArchived widens the listing to archived tasks. Ordinary
	// listings exclude them.
	IncludeArchived bool
}

// Page is one page of a filtered task listing.
type Page struct {
	Items       []models.Task `json:"items"`
	TotalCount  int64         `json:"total_count"`
	HasNextPage bool          `json:"has_next_page"`
}

// Engine is a stateless listing service over an injected store handle.
type Engine struct {
	DB *gorm.DB
}

// NewEngine returns an Engine bound to db.
func NewEngine(db *gorm.DB) *Engine {
	return &Engine{DB: db}
}

// apply builds the filter predicate. The count query and the data query for
// one page request both go through here, so their predicate sets are
// identical by construction.
func (e *Engine) apply(f Filters) *gorm.DB {
	tx := e.DB.Model(&models.Task{}).Where("project_id = ?", f.ProjectID)

	if !f.IncludeArchived {
		tx = tx.Where("archived = ?", false)
	}
	if f.IsLoaded != nil {
		tx = tx.Where("is_loaded = ?", *f.IsLoaded)
	} else {
		tx = tx.Where("is_loaded = ?", true)
	}
	if len(f.Statuses) > 0 {
		tx = tx.Where("status IN ?", f.Statuses)
	}
	if f.PhaseOrder != nil {
		tx = tx.Where("phase_order = ?", *f.PhaseOrder)
	}
	if f.StepOrder != nil {
		tx = tx.Where("step_order = ?", *f.StepOrder)
	}
	if len(f.Categories) > 0 {
		tx = tx.Where("category IN ?", f.Categories)
	}
	if f.IsCustom != nil {
		tx = tx.Where("is_custom = ?", *f.IsCustom)
	}
	if f.Search != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(f.Search)) + "%"
		tx = tx.Where("(LOWER(name) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!')", like, like)
	}
	return tx
}

// likeEscaper neutralizes LIKE wildcards in search input so "100%" matches
// the literal text. '!' is the escape character on both MySQL and sqlite.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// ordered applies the fixed listing order: phase, then step, then task.
func ordered(tx *gorm.DB) *gorm.DB {
	return tx.Order("phase_order ASC, step_order ASC, task_order ASC")
}

// validate rejects filters that cannot produce a meaningful listing.
func validate(f Filters) error {
	if f.ProjectID == 0 {
		return fmt.Errorf("query: project id is required: %w", taskops.ErrValidation)
	}
	for _, s := range f.Statuses {
		if !models.ValidStatus(s) {
			return fmt.Errorf("query: status %q: %w", s, taskops.ErrValidation)
		}
	}
	for _, c := range f.Categories {
		if !models.ValidCategory(c) {
			return fmt.Errorf("query: category %q: %w", c, taskops.ErrValidation)
		}
	}
	return nil
}

// List returns all tasks matching the filters in the fixed listing order.
func (e *Engine) List(f Filters) ([]models.Task, error) {
	if err := validate(f); err != nil {
		return nil, err
	}
	var tasks []models.Task
	if err := ordered(e.apply(f)).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("query: list tasks for project %d: %w", f.ProjectID, err)
	}
	return tasks, nil
}

// Paginate returns one page of the filtered listing along with the total
// count and a next-page flag. The count and the slice come from the same
// predicate set; under concurrent writes they may still diverge between the
// two reads, which callers must tolerate as eventual consistency.
func (e *Engine) Paginate(f Filters, page, pageSize int) (*Page, error) {
	if err := validate(f); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var total int64
	if err := e.apply(f).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("query: count tasks for project %d: %w", f.ProjectID, err)
	}

	var tasks []models.Task
	err := ordered(e.apply(f)).
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("query: page %d of tasks for project %d: %w", page, f.ProjectID, err)
	}

	return &Page{
		Items:       tasks,
		TotalCount:  total,
		HasNextPage: int64(page)*int64(pageSize) < total,
	}, nil
}
