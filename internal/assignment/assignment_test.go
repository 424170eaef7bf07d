package assignment

import (
	"errors"
	"testing"

	"github.com/callboard/callboard/internal/db"
	"github.com/callboard/callboard/internal/models"
	"github.com/callboard/callboard/internal/taskops"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

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

// fixture seeds a project with two roles, two crew members, and one loaded task.
type fixture struct {
	project models.Project
	roleA   models.ProjectRole
	roleB   models.ProjectRole
	crew1   models.Crew
	crew2   models.Crew
	task    models.Task
}

func seedFixture(t *testing.T, gdb *gorm.DB) *fixture {
	t.Helper()
	f := &fixture{}

	f.project = models.Project{Name: "Pilot", Status: models.ProjectActive}
	if err := gdb.Create(&f.project).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}

	f.roleA = models.ProjectRole{ProjectID: f.project.ID, Department: "camera", Name: "First AC"}
	f.roleB = models.ProjectRole{ProjectID: f.project.ID, Department: "sound", Name: "Boom Operator"}
	for _, r := range []*models.ProjectRole{&f.roleA, &f.roleB} {
		if err := gdb.Create(r).Error; err != nil {
			t.Fatalf("create role: %v", err)
		}
	}

	f.crew1 = models.Crew{Name: "Dana"}
	f.crew2 = models.Crew{Name: "Lee"}
	for _, c := range []*models.Crew{&f.crew1, &f.crew2} {
		if err := gdb.Create(c).Error; err != nil {
			t.Fatalf("create crew: %v", err)
		}
	}

	f.task = models.Task{
		ProjectID:  f.project.ID,
		Name:       "Rig lighting",
		PhaseName:  "Prep",
		PhaseOrder: 1,
		StepName:   "Stage",
		StepOrder:  1,
		TaskOrder:  1,
		Status:     models.StatusPending,
		IsLoaded:   true,
	}
	if err := gdb.Create(&f.task).Error; err != nil {
		t.Fatalf("create task: %v", err)
	}
	return f
}

func assignmentCount(t *testing.T, gdb *gorm.DB, taskID uint) int64 {
	t.Helper()
	var n int64
	if err := gdb.Model(&models.ProjectTaskAssignment{}).Where("task_id = ?", taskID).Count(&n).Error; err != nil {
		t.Fatalf("count assignments: %v", err)
	}
	return n
}

func TestAssign_UsesStandingProjectRole(t *testing.T) {
	gdb := openTestDB(t)
	f := seedFixture(t, gdb)

	standing := models.ProjectCrewAssignment{
		ProjectID: f.project.ID, CrewID: f.crew1.ID, RoleID: f.roleB.ID, AssignedBy: "pm",
	}
	if err := gdb.Create(&standing).Error; err != nil {
		t.Fatalf("create standing assignment: %v", err)
	}

	g := NewGuard(gdb)
	if err := g.Assign(f.task.ID, f.crew1.ID, "pm", nil); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	var row models.ProjectTaskAssignment
	if err := gdb.Where("task_id = ? AND crew_id = ?", f.task.ID, f.crew1.ID).First(&row).Error; err != nil {
		t.Fatalf("load assignment: %v", err)
	}
	if row.RoleID != f.roleB.ID {
		t.Errorf("RoleID = %d, want standing role %d", row.RoleID, f.roleB.ID)
	}
}

func TestAssign_FallsBackToFirstProjectRole(t *testing.T) {
	gdb := openTestDB(t)
	f := seedFixture(t, gdb)

	g := NewGuard(gdb)
	if err := g.Assign(f.task.ID, f.crew1.ID, "pm", nil); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	var row models.ProjectTaskAssignment
	if err := gdb.Where("task_id = ? AND crew_id = ?", f.task.ID, f.crew1.ID).First(&row).Error; err != nil {
		t.Fatalf("load assignment: %v", err)
	}
	if row.RoleID != f.roleA.ID {
		t.Errorf("RoleID = %d, want first role %d", row.RoleID, f.roleA.ID)
	}
}

func TestAssign_ExplicitRoleWins(t *testing.T) {
	gdb := openTestDB(t)
	f := seedFixture(t, gdb)

	g := NewGuard(gdb)
	if err := g.Assign(f.task.ID, f.crew1.ID, "pm", &f.roleB.ID); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	var row models.ProjectTaskAssignment
	if err := gdb.Where("task_id = ? AND crew_id = ?", f.task.ID, f.crew1.ID).First(&row).Error; err != nil {
		t.Fatalf("load assignment: %v", err)
	}
	if row.RoleID != f.roleB.ID {
		t.Errorf("RoleID = %d, want explicit role %d", row.RoleID, f.roleB.ID)
	}
}

func TestAssign_Idempotent(t *testing.T) {
	gdb := openTestDB(t)
	f := seedFixture(t, gdb)

	g := NewGuard(gdb)
	for i := 0; i < 2; i++ {
		if err := g.Assign(f.task.ID, f.crew1.ID, "pm", nil); err != nil {
			t.Fatalf("Assign call %d: %v", i+1, err)
		}
	}
	if n := assignmentCount(t, gdb, f.task.ID); n != 1 {
		t.Errorf("assignment count = %d, want 1", n)
	}
}

func TestAssign_NoRolesInProject(t *testing.T) {
	gdb := openTestDB(t)
	f := seedFixture(t, gdb)
	if err := gdb.Where("project_id = ?", f.project.ID).Delete(&models.ProjectRole{}).Error; err != nil {
		t.Fatalf("delete roles: %v", err)
	}

	g := NewGuard(gdb)
	err := g.Assign(f.task.ID, f.crew1.ID, "pm", nil)
	if !errors.Is(err, taskops.ErrNoAvailableRole) {
		t.Errorf("err = %v, want ErrNoAvailableRole", err)
	}
	if n := assignmentCount(t, gdb, f.task.ID); n != 0 {
		t.Errorf("assignment count = %d, want 0", n)
	}
}

func TestAssign_MissingTask(t *testing.T) {
	gdb := openTestDB(t)
	f := seedFixture(t, gdb)

	g := NewGuard(gdb)
	err := g.Assign(9999, f.crew1.ID, "pm", nil)
	if !errors.Is(err, taskops.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRemove_LastAssigneeProtected(t *testing.T) {
	gdb := openTestDB(t)
	f := seedFixture(t, gdb)

	g := NewGuard(gdb)
	if err := g.Assign(f.task.ID, f.crew1.ID, "pm", nil); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	err := g.Remove(f.task.ID, f.crew1.ID)
	if !errors.Is(err, taskops.ErrLastAssignee) {
		t.Errorf("err = %v, want ErrLastAssignee", err)
	}
	if n := assignmentCount(t, gdb, f.task.ID); n != 1 {
		t.Errorf("assignment count = %d after failed remove, want 1", n)
	}
}

func TestRemove_SecondAssigneeSucceeds(t *testing.T) {
	gdb := openTestDB(t)
	f := seedFixture(t, gdb)

	g := NewGuard(gdb)
	if err := g.Assign(f.task.ID, f.crew1.ID, "pm", nil); err != nil {
		t.Fatalf("Assign crew1: %v", err)
	}
	if err := g.Assign(f.task.ID, f.crew2.ID, "pm", nil); err != nil {
		t.Fatalf("Assign crew2: %v", err)
	}

	if err := g.Remove(f.task.ID, f.crew2.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if n := assignmentCount(t, gdb, f.task.ID); n != 1 {
		t.Errorf("assignment count = %d, want 1", n)
	}

	var remaining models.ProjectTaskAssignment
	if err := gdb.Where("task_id = ?", f.task.ID).First(&remaining).Error; err != nil {
		t.Fatalf("load remaining: %v", err)
	}
	if remaining.CrewID != f.crew1.ID {
		t.Errorf("remaining crew = %d, want %d", remaining.CrewID, f.crew1.ID)
	}
}

func TestRemove_NotAssigned(t *testing.T) {
	gdb := openTestDB(t)
	f := seedFixture(t, gdb)

	g := NewGuard(gdb)
	if err := g.Assign(f.task.ID, f.crew1.ID, "pm", nil); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	err := g.Remove(f.task.ID, f.crew2.ID)
	if !errors.Is(err, taskops.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAssignMany_InsertsAllPairs(t *testing.T) {
	gdb := openTestDB(t)
	f := seedFixture(t, gdb)

	g := NewGuard(gdb)
	pairs := []CrewRole{
		{CrewID: f.crew1.ID, RoleID: f.roleA.ID},
		{CrewID: f.crew2.ID, RoleID: f.roleB.ID},
	}
	n, err := g.AssignMany(f.task.ID, pairs, "pm")
	if err != nil {
		t.Fatalf("AssignMany: %v", err)
	}
	if n != 2 {
		t.Errorf("committed = %d, want 2", n)
	}
	if got := assignmentCount(t, gdb, f.task.ID); got != 2 {
		t.Errorf("assignment count = %d, want 2", got)
	}
}

func TestAssignMany_DuplicateIsConflict(t *testing.T) {
	gdb := openTestDB(t)
	f := seedFixture(t, gdb)

	g := NewGuard(gdb)
	if _, err := g.AssignMany(f.task.ID, []CrewRole{{CrewID: f.crew1.ID, RoleID: f.roleA.ID}}, "pm"); err != nil {
		t.Fatalf("first AssignMany: %v", err)
	}

	_, err := g.AssignMany(f.task.ID, []CrewRole{{CrewID: f.crew1.ID, RoleID: f.roleA.ID}}, "pm")
	if !errors.Is(err, taskops.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestAssignMany_PartialFailureReportsCommitted(t *testing.T) {
	gdb := openTestDB(t)
	f := seedFixture(t, gdb)

	g := NewGuard(gdb)
	if _, err := g.AssignMany(f.task.ID, []CrewRole{{CrewID: f.crew2.ID, RoleID: f.roleB.ID}}, "pm"); err != nil {
		t.Fatalf("seed AssignMany: %v", err)
	}

	// crew1 inserts cleanly, crew2 collides with the existing row.
	pairs := []CrewRole{
		{CrewID: f.crew1.ID, RoleID: f.roleA.ID},
		{CrewID: f.crew2.ID, RoleID: f.roleB.ID},
	}
	n, err := g.AssignMany(f.task.ID, pairs, "pm")
	if !errors.Is(err, taskops.ErrPartialFailure) {
		t.Fatalf("err = %v, want ErrPartialFailure", err)
	}
	if n != 1 {
		t.Errorf("committed = %d, want 1", n)
	}
	// The committed insert stands.
	if got := assignmentCount(t, gdb, f.task.ID); got != 2 {
		t.Errorf("assignment count = %d, want 2", got)
	}
}

func TestAssignMany_EmptyPairs(t *testing.T) {
	gdb := openTestDB(t)
	f := seedFixture(t, gdb)

	g := NewGuard(gdb)
	_, err := g.AssignMany(f.task.ID, nil, "pm")
	if !errors.Is(err, taskops.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}
