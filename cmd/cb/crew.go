package main

import (
	"fmt"
	"strings"

	"github.com/callboard/callboard/internal/assignment"
	"github.com/callboard/callboard/internal/store"
	"github.com/spf13/cobra"
)

func newCrewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crew",
		Short: "Crew assignment commands",
	}

	cmd.AddCommand(newCrewAssignCmd())
	cmd.AddCommand(newCrewRemoveCmd())
	cmd.AddCommand(newCrewAssignManyCmd())
	cmd.AddCommand(newCrewRoleCmd())
	return cmd
}

func newCrewAssignCmd() *cobra.Command {
	var (
		configPath string
		taskID     uint
		crewID     uint
		roleID     uint
		assignedBy string
	)

	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Assign a crew member to a task",
		Long: `Assigns a crew member to a task. Without --role, the role is resolved from
the crew member's standing project role, falling back to the project's first
role. Assigning an already assigned crew member is a no-op.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			var role *uint
			if cmd.Flags().Changed("role") {
				role = &roleID
			}

			guard := assignment.NewGuard(gormDB)
			if err := guard.Assign(taskID, crewID, assignedBy, role); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Assigned crew %d to task %d\n", crewID, taskID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "callboard.yaml", "path to Callboard config file")
	cmd.Flags().UintVar(&taskID, "task", 0, "task ID (required)")
	cmd.Flags().UintVar(&crewID, "crew", 0, "crew ID (required)")
	cmd.Flags().UintVar(&roleID, "role", 0, "explicit role ID")
	cmd.Flags().StringVar(&assignedBy, "by", "", "assigner identifier")
	cmd.MarkFlagRequired("task")
	cmd.MarkFlagRequired("crew")
	return cmd
}

func newCrewRemoveCmd() *cobra.Command {
	var (
		configPath string
		taskID     uint
		crewID     uint
	)

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a crew member from a task",
		Long:  "Removes a task assignment. The last remaining assignee cannot be removed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			guard := assignment.NewGuard(gormDB)
			if err := guard.Remove(taskID, crewID); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed crew %d from task %d\n", crewID, taskID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "callboard.yaml", "path to Callboard config file")
	cmd.Flags().UintVar(&taskID, "task", 0, "task ID (required)")
	cmd.Flags().UintVar(&crewID, "crew", 0, "crew ID (required)")
	cmd.MarkFlagRequired("task")
	cmd.MarkFlagRequired("crew")
	return cmd
}

func newCrewAssignManyCmd() *cobra.Command {
	var (
		configPath string
		taskID     uint
		pairs      []string
		assignedBy string
	)

	cmd := &cobra.Command{
		Use:   "assign-many",
		Short: "Assign several crew members to a task",
		Long: `Assigns a batch of crew/role pairs to one task. Each --pair is "crewID:roleID".
Rows are committed one by one; on a duplicate the committed rows stand and the
command reports how many went through.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseCrewRolePairs(pairs)
			if err != nil {
				return err
			}

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			guard := assignment.NewGuard(gormDB)
			committed, err := guard.AssignMany(taskID, parsed, assignedBy)

			out := cmd.OutOrStdout()
			if committed > 0 {
				fmt.Fprintf(out, "Assigned %d of %d crew to task %d\n", committed, len(parsed), taskID)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "callboard.yaml", "path to Callboard config file")
	cmd.Flags().UintVar(&taskID, "task", 0, "task ID (required)")
	cmd.Flags().StringSliceVar(&pairs, "pair", nil, "crewID:roleID pair (repeatable, required)")
	cmd.Flags().StringVar(&assignedBy, "by", "", "assigner identifier")
	cmd.MarkFlagRequired("task")
	cmd.MarkFlagRequired("pair")
	return cmd
}

// parseCrewRolePairs parses "crewID:roleID" strings into assignment pairs.
func parseCrewRolePairs(pairs []string) ([]assignment.CrewRole, error) {
	parsed := make([]assignment.CrewRole, 0, len(pairs))
	for _, p := range pairs {
		crew, role, ok := strings.Cut(p, ":")
		if !ok {
			return nil, fmt.Errorf("pair %q: want crewID:roleID", p)
		}
		crewID, err := parseUintArg(crew, "crew id")
		if err != nil {
			return nil, fmt.Errorf("pair %q: %w", p, err)
		}
		roleID, err := parseUintArg(role, "role id")
		if err != nil {
			return nil, fmt.Errorf("pair %q: %w", p, err)
		}
		parsed = append(parsed, assignment.CrewRole{CrewID: crewID, RoleID: roleID})
	}
	return parsed, nil
}

func newCrewRoleCmd() *cobra.Command {
	var (
		configPath string
		projectID  uint
		roleID     uint
		crewID     uint
		assignedBy string
	)

	cmd := &cobra.Command{
		Use:   "role",
		Short: "Give a crew member a standing project role",
		Long:  "Assigns a crew member to a project role. Repeat assignments are no-ops.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			procs := store.NewProcs(gormDB)
			if err := procs.AssignCrewToProjectRole(projectID, roleID, crewID, assignedBy); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Crew %d holds role %d in project %d\n", crewID, roleID, projectID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "callboard.yaml", "path to Callboard config file")
	cmd.Flags().UintVar(&projectID, "project", 0, "project ID (required)")
	cmd.Flags().UintVar(&roleID, "role", 0, "role ID (required)")
	cmd.Flags().UintVar(&crewID, "crew", 0, "crew ID (required)")
	cmd.Flags().StringVar(&assignedBy, "by", "", "assigner identifier")
	cmd.MarkFlagRequired("project")
	cmd.MarkFlagRequired("role")
	cmd.MarkFlagRequired("crew")
	return cmd
}
