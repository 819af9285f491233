package models

import (
	"errors"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedule is a stored cron entry that enqueues an execution of a workflow
// whenever it comes due. NextDueAt is precomputed so the dispatcher can poll
// for due schedules with a single indexed query instead of per-entry timers.
type Schedule struct {
	ID             string    `json:"id"              validate:"required"`
	WorkflowID     string    `json:"workflow_id"     validate:"required"`
	CronExpression string    `json:"cron_expression" validate:"required"`
	NextDueAt      time.Time `json:"next_due_at"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewSchedule creates a schedule with its first due time computed from now.
func NewSchedule(id, workflowID, cronExpression string) (*Schedule, error) {
	now := time.Now().UTC()
	schedule := &Schedule{
		ID:             id,
		WorkflowID:     workflowID,
		CronExpression: cronExpression,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := schedule.advance(now); err != nil {
		return nil, err
	}

	return schedule, nil
}

// UpdateNextDueAt recomputes the next due time from the current time. Called
// by the dispatcher after enqueueing a due schedule.
func (s *Schedule) UpdateNextDueAt() error {
	return s.advance(time.Now().UTC())
}

func (s *Schedule) advance(from time.Time) error {
	if s.CronExpression == "" {
		return errors.New("schedule cron expression is required")
	}

	parsed, err := cron.ParseStandard(s.CronExpression)
	if err != nil {
		return err
	}

	s.NextDueAt = parsed.Next(from)
	s.UpdatedAt = from

	return nil
}

// Due reports whether the schedule should fire at the given time.
func (s *Schedule) Due(now time.Time) bool {
	return s.Active && !s.NextDueAt.IsZero() && !now.Before(s.NextDueAt)
}
