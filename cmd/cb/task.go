package main

import (
	"fmt"
	"log"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/callboard/callboard/internal/lifecycle"
	"github.com/callboard/callboard/internal/models"
	"github.com/callboard/callboard/internal/notify"
	"github.com/callboard/callboard/internal/progress"
	"github.com/callboard/callboard/internal/query"
	"github.com/callboard/callboard/internal/store"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Task management commands",
	}

	cmd.AddCommand(newTaskListCmd())
	cmd.AddCommand(newTaskShowCmd())
	cmd.AddCommand(newTaskStatusCmd())
	cmd.AddCommand(newTaskCreateCmd())
	return cmd
}

func newTaskListCmd() *cobra.Command {
	var (
		configPath string
		projectID  uint
		statuses   []string
		categories []string
		phase      int
		step       int
		custom     bool
		unloaded   bool
		archived   bool
		search     string
		page       int
		pageSize   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Long:  "Lists a project's tasks with optional filters, ordered by phase, step, and task position.",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := query.Filters{
				ProjectID:       projectID,
				Statuses:        statuses,
				Categories:      categories,
				Search:          search,
				IncludeArchived: archived,
			}
			if cmd.Flags().Changed("phase") {
				f.PhaseOrder = &phase
			}
			if cmd.Flags().Changed("step") {
				f.StepOrder = &step
			}
			if cmd.Flags().Changed("custom") {
				f.IsCustom = &custom
			}
			if unloaded {
				v := false
				f.IsLoaded = &v
			}
			return runTaskList(cmd, configPath, f, page, pageSize)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "callboard.yaml", "path to Callboard config file")
	cmd.Flags().UintVar(&projectID, "project", 0, "project ID (required)")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "filter by status (repeatable)")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "filter by category (repeatable)")
	cmd.Flags().IntVar(&phase, "phase", 0, "filter by phase order")
	cmd.Flags().IntVar(&step, "step", 0, "filter by step order")
	cmd.Flags().BoolVar(&custom, "custom", false, "filter custom tasks")
	cmd.Flags().BoolVar(&unloaded, "unloaded", false, "show unloaded tasks instead of loaded")
	cmd.Flags().BoolVar(&archived, "archived", false, "include archived tasks")
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive search over name and description")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", query.DefaultPageSize, "tasks per page")
	cmd.MarkFlagRequired("project")
	return cmd
}

func runTaskList(cmd *cobra.Command, configPath string, f query.Filters, page, pageSize int) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	engine := query.NewEngine(gormDB)
	result, err := engine.Paginate(f, page, pageSize)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(result.Items) == 0 {
		fmt.Fprintln(out, "No tasks found.")
		return nil
	}

	nameWidth := nameColumnWidth()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPHASE\tSTEP\tSTATUS\tCATEGORY")
	for _, task := range result.Items {
		cat := "-"
		if task.Category != nil {
			cat = *task.Category
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			task.ID, truncate(task.Name, nameWidth), task.PhaseName, task.StepName, task.Status, cat)
	}
	w.Flush()

	fmt.Fprintf(out, "\n%d of %d tasks", len(result.Items), result.TotalCount)
	if result.HasNextPage {
		fmt.Fprintf(out, " (more on page %d)", page+1)
	}
	fmt.Fprintln(out)
	return nil
}

func newTaskShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show task details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseUintArg(args[0], "task id")
			if err != nil {
				return err
			}
			return runTaskShow(cmd, configPath, taskID)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "callboard.yaml", "path to Callboard config file")
	return cmd
}

func runTaskShow(cmd *cobra.Command, configPath string, taskID uint) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	var task models.Task
	err = gormDB.Preload("Checklist").Preload("Assignments").
		First(&task, taskID).Error
	if err != nil {
		return fmt.Errorf("load task %d: %w", taskID, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:          %d\n", task.ID)
	fmt.Fprintf(out, "Name:        %s\n", task.Name)
	fmt.Fprintf(out, "Status:      %s\n", task.Status)
	fmt.Fprintf(out, "Phase:       %s (%d)\n", task.PhaseName, task.PhaseOrder)
	fmt.Fprintf(out, "Step:        %s (%d)\n", task.StepName, task.StepOrder)
	fmt.Fprintf(out, "Position:    %d\n", task.TaskOrder)
	if task.Category != nil {
		fmt.Fprintf(out, "Category:    %s\n", *task.Category)
	}
	if task.IsCustom {
		fmt.Fprintln(out, "Custom:      yes")
	}
	if task.Deadline != nil {
		fmt.Fprintf(out, "Deadline:    %s\n", task.Deadline.Format("2006-01-02 15:04:05"))
	}
	if task.StartedAt != nil {
		fmt.Fprintf(out, "Started:     %s\n", task.StartedAt.Format("2006-01-02 15:04:05"))
	}
	if task.CompletedAt != nil {
		fmt.Fprintf(out, "Completed:   %s\n", task.CompletedAt.Format("2006-01-02 15:04:05"))
	}
	if task.EscalatedAt != nil {
		fmt.Fprintf(out, "Escalated:   %s\n", task.EscalatedAt.Format("2006-01-02 15:04:05"))
		if task.EscalationReason != nil {
			fmt.Fprintf(out, "Reason:      %s\n", *task.EscalationReason)
		}
		if task.IsManuallyEscalated {
			fmt.Fprintln(out, "Manual:      yes")
		}
	}

	if task.Description != "" {
		fmt.Fprintf(out, "\nDescription:\n%s\n", task.Description)
	}

	if len(task.Checklist) > 0 {
		fmt.Fprintln(out, "\nChecklist:")
		for _, item := range task.Checklist {
			mark := " "
			if item.Completed {
				mark = "x"
			}
			fmt.Fprintf(out, "  [%s] %s\n", mark, item.Text)
		}
	}

	if len(task.Assignments) > 0 {
		fmt.Fprintln(out, "\nAssignments:")
		for _, a := range task.Assignments {
			fmt.Fprintf(out, "  crew=%d role=%d by=%s\n", a.CrewID, a.RoleID, a.AssignedBy)
		}
	}

	return nil
}

func newTaskStatusCmd() *cobra.Command {
	var (
		configPath string
		actorID    string
		reason     string
		manual     bool
	)

	cmd := &cobra.Command{
		Use:   "status <task-id> <status>",
		Short: "Change a task's status",
		Long: `Moves a task to a new lifecycle status. Valid statuses: pending, ongoing,
completed, escalated. Timestamps are maintained automatically; moving a task
back to pending clears its whole lifecycle.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseUintArg(args[0], "task id")
			if err != nil {
				return err
			}

			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			notifiers, err := buildNotifiers(cfg)
			if err != nil {
				return err
			}

			opts := lifecycle.TransitionOpts{ManuallyEscalated: manual}
			if reason != "" {
				opts.EscalationReason = &reason
			}

			return runTaskStatus(cmd, gormDB, notifiers, taskID, args[1], actorID, opts)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "callboard.yaml", "path to Callboard config file")
	cmd.Flags().StringVar(&actorID, "by", "", "actor identifier")
	cmd.Flags().StringVar(&reason, "reason", "", "escalation reason (escalated only)")
	cmd.Flags().BoolVar(&manual, "manual", false, "mark the escalation as manual")
	return cmd
}

func runTaskStatus(cmd *cobra.Command, gormDB *gorm.DB, notifiers notify.Fanout, taskID uint, newStatus, actorID string, opts lifecycle.TransitionOpts) error {
	mgr := lifecycle.NewManager(gormDB)
	task, err := mgr.TransitionWith(taskID, newStatus, actorID, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Task %d is now %s\n", task.ID, task.Status)

	// Escalations raised here are invisible to the sweep, so they notify
	// directly.
	if task.Status == models.StatusEscalated && len(notifiers) > 0 {
		var full models.Task
		if err := gormDB.Preload("Project").First(&full, task.ID).Error; err != nil {
			log.Printf("task: load escalated task %d for notify: %v", task.ID, err)
			return nil
		}
		notifiers.NotifyAll(cmd.Context(), notify.FromTask(full))
	}
	return nil
}

func newTaskCreateCmd() *cobra.Command {
	var (
		configPath  string
		projectID   uint
		name        string
		description string
		category    string
		deadline    string
		parentID    uint
		checklist   []string
		createdBy   string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a custom task",
		Long: `Appends an ad hoc task at the project's current position. The task inherits
its phase and step from the last loaded task and is loaded immediately.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := progress.CustomTaskInput{
				Name:        name,
				Description: description,
				Checklist:   checklist,
			}
			if category != "" {
				input.Category = &category
			}
			if deadline != "" {
				t, err := time.Parse("2006-01-02", deadline)
				if err != nil {
					return fmt.Errorf("parse deadline %q: %w", deadline, err)
				}
				input.Deadline = &t
			}
			if cmd.Flags().Changed("parent") {
				input.ParentTaskID = &parentID
			}

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			agg := progress.NewAggregator(gormDB, store.NewProcs(gormDB))
			task, err := agg.CreateCustomTask(projectID, input, createdBy)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created task %d in %s / %s (position %d)\n",
				task.ID, task.PhaseName, task.StepName, task.TaskOrder)
			if len(checklist) > 0 {
				fmt.Fprintf(out, "Checklist: %s\n", strings.Join(checklist, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "callboard.yaml", "path to Callboard config file")
	cmd.Flags().UintVar(&projectID, "project", 0, "project ID (required)")
	cmd.Flags().StringVar(&name, "name", "", "task name (required)")
	cmd.Flags().StringVar(&description, "description", "", "detailed description")
	cmd.Flags().StringVar(&category, "category", "", "task category (monitor, coordinate, execute)")
	cmd.Flags().StringVar(&deadline, "deadline", "", "deadline (YYYY-MM-DD)")
	cmd.Flags().UintVar(&parentID, "parent", 0, "parent task ID")
	cmd.Flags().StringSliceVar(&checklist, "check", nil, "checklist item (repeatable)")
	cmd.Flags().StringVar(&createdBy, "by", "", "creator identifier")
	cmd.MarkFlagRequired("project")
	cmd.MarkFlagRequired("name")
	return cmd
}
