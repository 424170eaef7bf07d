// Package taskops defines the shared error taxonomy for task operations.
//
// Callers match with errors.Is; producing packages wrap these sentinels with
// operation context via fmt.Errorf and %w so the raw store error text is
// preserved for diagnostics.
package taskops

import "errors"

var (
	// ErrValidation marks a missing or invalid required field. Caller-correctable.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a referenced task, project, crew, or role that does
	// not exist or is archived.
	ErrNotFound = errors.New("not found")

	// ErrLastAssignee marks an attempt to remove the last remaining crew
	// assignment from a task.
	ErrLastAssignee = errors.New("task must retain at least one assignee")

	// ErrNoAvailableRole marks a project with no roles to resolve an
	// assignment against.
	ErrNoAvailableRole = errors.New("project has no available roles")

	// ErrNoAnchorTask marks a custom-task creation on a project with no
	// loaded tasks to anchor phase and step identity.
	ErrNoAnchorTask = errors.New("project has no loaded tasks to anchor")

	// ErrRoleCoverageIncomplete marks a project start attempt while required
	// roles are unfilled.
	ErrRoleCoverageIncomplete = errors.New("required project roles are unfilled")

	// ErrTaskLoadFailure marks a failed first-phase task load during project
	// start.
	ErrTaskLoadFailure = errors.New("task loading failed")

	// ErrConflict marks a duplicate assignment or a concurrent-update
	// precondition failure. Caller may retry after re-reading state.
	ErrConflict = errors.New("conflicting write")

	// ErrPartialFailure marks a multi-step operation where an earlier step
	// committed and a later step failed. Committed steps are not rolled back.
	ErrPartialFailure = errors.New("operation partially applied")
)
