package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/callboard/callboard/internal/db"
	"github.com/callboard/callboard/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return gdb
}

// seedProject creates a project with two loaded tasks in distinct phases and
// one unloaded task that listings and counts must ignore.
func seedProject(t *testing.T, gdb *gorm.DB) *models.Project {
	t.Helper()
	proj := models.Project{Name: "Night Shoot", Status: models.ProjectActive}
	if err := gdb.Create(&proj).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}
	tasks := []models.Task{
		{ProjectID: proj.ID, Name: "Rig lights", PhaseName: "Prep", PhaseOrder: 1, StepName: "Setup", StepOrder: 1, TaskOrder: 1, Status: models.StatusCompleted, IsLoaded: true},
		{ProjectID: proj.ID, Name: "Roll camera", PhaseName: "Production", PhaseOrder: 2, StepName: "Day 1", StepOrder: 1, TaskOrder: 2, Status: models.StatusOngoing, IsLoaded: true},
		{ProjectID: proj.ID, Name: "Color grade", PhaseName: "Post", PhaseOrder: 3, StepName: "Edit", StepOrder: 1, TaskOrder: 3, Status: models.StatusPending, IsLoaded: false},
	}
	for i := range tasks {
		if err := gdb.Create(&tasks[i]).Error; err != nil {
			t.Fatalf("create task: %v", err)
		}
	}
	return &proj
}

func doGET(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestProjectList(t *testing.T) {
	gdb := openTestDB(t)
	seedProject(t, gdb)

	// Templates and archived projects stay out of the listing.
	tmpl := models.Project{Name: "Template", IsTemplate: true}
	if err := gdb.Create(&tmpl).Error; err != nil {
		t.Fatalf("create template: %v", err)
	}
	old := models.Project{Name: "Wrapped", Archived: true}
	if err := gdb.Create(&old).Error; err != nil {
		t.Fatalf("create archived: %v", err)
	}

	rec := doGET(t, NewRouter(gdb), "/api/projects")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Projects []ProjectRow `json:"projects"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Projects) != 1 {
		t.Fatalf("projects = %d, want 1", len(body.Projects))
	}
	row := body.Projects[0]
	if row.Name != "Night Shoot" {
		t.Errorf("name = %q, want %q", row.Name, "Night Shoot")
	}
	if row.Total != 2 || row.Completed != 1 || row.Ongoing != 1 {
		t.Errorf("counts total=%d completed=%d ongoing=%d, want 2/1/1", row.Total, row.Completed, row.Ongoing)
	}
}

func TestProjectSummary(t *testing.T) {
	gdb := openTestDB(t)
	proj := seedProject(t, gdb)
	router := NewRouter(gdb)

	rec := doGET(t, router, "/api/projects/1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var row ProjectRow
	if err := json.Unmarshal(rec.Body.Bytes(), &row); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if row.ID != proj.ID || row.Total != 2 {
		t.Errorf("row = %+v, want id=%d total=2", row, proj.ID)
	}
}

func TestProjectSummary_NotFound(t *testing.T) {
	gdb := openTestDB(t)
	rec := doGET(t, NewRouter(gdb), "/api/projects/99")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestProjectSummary_BadID(t *testing.T) {
	gdb := openTestDB(t)
	rec := doGET(t, NewRouter(gdb), "/api/projects/banana")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestProjectProgress(t *testing.T) {
	gdb := openTestDB(t)
	seedProject(t, gdb)

	rec := doGET(t, NewRouter(gdb), "/api/projects/1/progress")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Phases []struct {
			PhaseName  string `json:"phase_name"`
			PhaseOrder int    `json:"phase_order"`
			Total      int    `json:"total"`
			Completed  int    `json:"completed"`
		} `json:"phases"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Only the two loaded phases show up, in phase order.
	if len(body.Phases) != 2 {
		t.Fatalf("phases = %d, want 2", len(body.Phases))
	}
	if body.Phases[0].PhaseName != "Prep" || body.Phases[0].Completed != 1 {
		t.Errorf("first phase = %+v, want Prep with 1 completed", body.Phases[0])
	}
	if body.Phases[1].PhaseName != "Production" {
		t.Errorf("second phase = %q, want Production", body.Phases[1].PhaseName)
	}
}

func TestProjectTasks(t *testing.T) {
	gdb := openTestDB(t)
	seedProject(t, gdb)
	router := NewRouter(gdb)

	rec := doGET(t, router, "/api/projects/1/tasks")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var page struct {
		Items      []models.Task `json:"items"`
		TotalCount int64         `json:"total_count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.TotalCount != 2 {
		t.Errorf("total = %d, want 2 (unloaded task excluded)", page.TotalCount)
	}
	if len(page.Items) != 2 || page.Items[0].Name != "Rig lights" {
		t.Errorf("items = %v, want Rig lights first", page.Items)
	}
}

func TestProjectTasks_StatusFilter(t *testing.T) {
	gdb := openTestDB(t)
	seedProject(t, gdb)
	router := NewRouter(gdb)

	rec := doGET(t, router, "/api/projects/1/tasks?status=ongoing")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var page struct {
		Items []models.Task `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Name != "Roll camera" {
		t.Errorf("items = %v, want only Roll camera", page.Items)
	}
}

func TestProjectTasks_InvalidStatus(t *testing.T) {
	gdb := openTestDB(t)
	seedProject(t, gdb)

	rec := doGET(t, NewRouter(gdb), "/api/projects/1/tasks?status=bogus")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestProjectTasks_InvalidPhase(t *testing.T) {
	gdb := openTestDB(t)
	seedProject(t, gdb)

	rec := doGET(t, NewRouter(gdb), "/api/projects/1/tasks?phase=abc")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestStart_NilDB(t *testing.T) {
	err := Start(context.Background(), StartOpts{DB: nil})
	if err == nil {
		t.Fatal("expected error for nil db")
	}
	if !strings.Contains(err.Error(), "db is required") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "db is required")
	}
}
