// Package lifecycle applies status transitions to tasks and derives the
// timestamp and escalation side effects of each transition.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/callboard/callboard/internal/db"
	"github.com/callboard/callboard/internal/models"
	"github.com/callboard/callboard/internal/taskops"
	"gorm.io/gorm"
)

// Manager is a stateless transition service over an injected store handle.
type Manager struct {
	DB *gorm.DB
}

// NewManager returns a Manager bound to db.
func NewManager(db *gorm.DB) *Manager {
	return &Manager{DB: db}
}

// TransitionOpts carries the caller-supplied escalation payload. It is only
// consulted on transitions into escalated.
type TransitionOpts struct {
	EscalationReason  *string
	ManuallyEscalated bool
}

// Transition moves a task to newStatus and applies the derived field effects.
func (m *Manager) Transition(taskID uint, newStatus, actorID string) (*models.Task, error) {
	return m.TransitionWith(taskID, newStatus, actorID, TransitionOpts{})
}

// TransitionWith is Transition with an explicit escalation payload.
//
// Timestamps already set are never overwritten, with one exception:
// completed_at is refreshed on every transition into completed. Transition
// into pending is a hard reset and discards all timestamp and escalation
// history. The read and the conditional write run in one transaction with the
// row locked, so "set iff unset" is evaluated against the committed value.
func (m *Manager) TransitionWith(taskID uint, newStatus, actorID string, opts TransitionOpts) (*models.Task, error) {
	if !models.ValidStatus(newStatus) {
		return nil, fmt.Errorf("lifecycle: transition task %d: status %q: %w", taskID, newStatus, taskops.ErrValidation)
	}

	var task models.Task
	err := m.DB.Transaction(func(tx *gorm.DB) error {
		result := db.LockForUpdate(tx).
			Where("id = ? AND archived = ?", taskID, false).
			Find(&task)
		if result.Error != nil {
			return fmt.Errorf("lifecycle: load task %d: %w", taskID, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("lifecycle: task %d: %w", taskID, taskops.ErrNotFound)
		}

		now := time.Now()
		patch := transitionPatch(&task, newStatus, now, opts)

		if err := tx.Model(&models.Task{}).Where("id = ?", taskID).Updates(patch).Error; err != nil {
			return fmt.Errorf("lifecycle: transition task %d to %s: %w", taskID, newStatus, err)
		}

		result = tx.Where("id = ?", taskID).Find(&task)
		if result.Error != nil {
			return fmt.Errorf("lifecycle: reload task %d: %w", taskID, result.Error)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// transitionPatch computes the column updates for moving task to newStatus at
// time now. Effects per status:
//
//	pending    — clear all timestamps and escalation fields
//	ongoing    — started_at set iff unset; escalation cleared
//	completed  — started_at set iff unset; completed_at refreshed; escalation cleared
//	escalated  — started_at set iff unset; escalated_at set iff unset; payload applied
func transitionPatch(task *models.Task, newStatus string, now time.Time, opts TransitionOpts) map[string]interface{} {
	patch := map[string]interface{}{"status": newStatus}

	switch newStatus {
	case models.StatusPending:
		patch["started_at"] = nil
		patch["completed_at"] = nil
		patch["escalated_at"] = nil
		patch["escalation_reason"] = nil
		patch["is_manually_escalated"] = false

	case models.StatusOngoing:
		if task.StartedAt == nil {
			patch["started_at"] = now
		}
		patch["escalated_at"] = nil
		patch["escalation_reason"] = nil
		patch["is_manually_escalated"] = false

	case models.StatusCompleted:
		if task.StartedAt == nil {
			patch["started_at"] = now
		}
		patch["completed_at"] = now
		patch["escalated_at"] = nil
		patch["escalation_reason"] = nil
		patch["is_manually_escalated"] = false

	case models.StatusEscalated:
		if task.StartedAt == nil {
			patch["started_at"] = now
		}
		if task.EscalatedAt == nil {
			patch["escalated_at"] = now
		}
		if opts.EscalationReason != nil {
			patch["escalation_reason"] = *opts.EscalationReason
		}
		patch["is_manually_escalated"] = opts.ManuallyEscalated
	}

	return patch
}
