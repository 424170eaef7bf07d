package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/callboard/callboard/internal/db"
	"github.com/callboard/callboard/internal/models"
	"github.com/callboard/callboard/internal/progress"
	"github.com/callboard/callboard/internal/store"
	"github.com/spf13/cobra"
)

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project management commands",
	}

	cmd.AddCommand(newProjectCreateCmd())
	cmd.AddCommand(newProjectListCmd())
	cmd.AddCommand(newProjectStartCmd())
	cmd.AddCommand(newProjectProgressCmd())
	return cmd
}

func newProjectCreateCmd() *cobra.Command {
	var (
		configPath string
		templateID uint
		name       string
		createdBy  string
		seedRoles  bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project from a template",
		Long:  "Expands a template project into a new pending project: roles are copied, tasks start unloaded.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			procs := store.NewProcs(gormDB)
			projectID, err := procs.CreateProjectFromTemplate(templateID, store.ProjectFields{Name: name}, createdBy)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created project %d from template %d\n", projectID, templateID)

			if seedRoles && len(cfg.Departments) > 0 {
				if err := db.SeedRoles(gormDB, projectID, cfg.Departments); err != nil {
					return err
				}
				fmt.Fprintf(out, "Seeded %d department roles\n", len(cfg.Departments))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "callboard.yaml", "path to Callboard config file")
	cmd.Flags().UintVar(&templateID, "template", 0, "template project ID (required)")
	cmd.Flags().StringVar(&name, "name", "", "new project name (required)")
	cmd.Flags().StringVar(&createdBy, "by", "", "creator identifier")
	cmd.Flags().BoolVar(&seedRoles, "seed-roles", false, "also seed configured department roles")
	cmd.MarkFlagRequired("template")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newProjectListCmd() *cobra.Command {
	var (
		configPath string
		templates  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			var projects []models.Project
			err = gormDB.Where("archived = ? AND is_template = ?", false, templates).
				Order("id ASC").
				Find(&projects).Error
			if err != nil {
				return fmt.Errorf("list projects: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(projects) == 0 {
				fmt.Fprintln(out, "No projects found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTATUS\tCREATED")
			for _, p := range projects {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
					p.ID, truncate(p.Name, 40), p.Status, p.CreatedAt.Format("2006-01-02"))
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "callboard.yaml", "path to Callboard config file")
	cmd.Flags().BoolVar(&templates, "templates", false, "list templates instead of projects")
	return cmd
}

func newProjectStartCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "start <project-id>",
		Short: "Start a project",
		Long: `Activates a pending project: verifies every project role has at least one
crew member, loads the first phase's tasks, and marks the project active.
Starting an already active project is a no-op.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseUintArg(args[0], "project id")
			if err != nil {
				return err
			}

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			agg := progress.NewAggregator(gormDB, store.NewProcs(gormDB))
			if err := agg.StartProject(projectID); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Project %d started\n", projectID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "callboard.yaml", "path to Callboard config file")
	return cmd
}

func newProjectProgressCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "progress <project-id>",
		Short: "Show per-phase progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseUintArg(args[0], "project id")
			if err != nil {
				return err
			}

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			agg := progress.NewAggregator(gormDB, store.NewProcs(gormDB))
			phases, err := agg.ComputePhaseProgress(projectID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(phases) == 0 {
				fmt.Fprintln(out, "No loaded tasks.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PHASE\tTOTAL\tDONE\tONGOING\tPENDING\tESCALATED")
			for _, p := range phases {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\n",
					p.PhaseName, p.Total, p.Completed, p.Ongoing, p.Pending, p.Escalated)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "callboard.yaml", "path to Callboard config file")
	return cmd
}
