package dashboard

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/callboard/callboard/internal/progress"
	"github.com/callboard/callboard/internal/query"
	"github.com/callboard/callboard/internal/store"
	"github.com/callboard/callboard/internal/taskops"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// registerRoutes sets up all dashboard routes on the gin router.
func registerRoutes(router *gin.Engine, db *gorm.DB) {
	router.GET("/api/projects", handleProjectList(db))
	router.GET("/api/projects/:id", handleProjectSummary(db))
	router.GET("/api/projects/:id/progress", handleProjectProgress(db))
	router.GET("/api/projects/:id/tasks", handleProjectTasks(db))
}

func handleProjectList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := ProjectSummaries(db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"projects": rows})
	}
}

func handleProjectSummary(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		row, err := ProjectSummary(db, id)
		if err != nil {
			if errors.Is(err, taskops.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, row)
	}
}

func handleProjectProgress(db *gorm.DB) gin.HandlerFunc {
	agg := progress.NewAggregator(db, store.NewProcs(db))
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		phases, err := agg.ComputePhaseProgress(id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"phases": phases})
	}
}

func handleProjectTasks(db *gorm.DB) gin.HandlerFunc {
	engine := query.NewEngine(db)
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		f := query.Filters{ProjectID: id}
		if s := c.Query("status"); s != "" {
			f.Statuses = strings.Split(s, ",")
		}
		if s := c.Query("category"); s != "" {
			f.Categories = strings.Split(s, ",")
		}
		if s := c.Query("phase"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phase"})
				return
			}
			f.PhaseOrder = &v
		}
		if s := c.Query("step"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid step"})
				return
			}
			f.StepOrder = &v
		}
		if s := c.Query("custom"); s != "" {
			v := s == "true" || s == "1"
			f.IsCustom = &v
		}
		if s := c.Query("loaded"); s != "" {
			v := s == "true" || s == "1"
			f.IsLoaded = &v
		}
		f.Search = c.Query("search")

		page := intQuery(c, "page", 1)
		pageSize := intQuery(c, "page_size", query.DefaultPageSize)

		result, err := engine.Paginate(f, page, pageSize)
		if err != nil {
			if errors.Is(err, taskops.ErrValidation) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// parseID reads the :id route parameter, replying 400 on garbage.
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return 0, false
	}
	return uint(id), true
}

func intQuery(c *gin.Context, name string, fallback int) int {
	s := c.Query(name)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}
