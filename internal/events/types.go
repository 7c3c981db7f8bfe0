package events

import (
	"time"
)

// Event is the base interface for all events.
type Event interface {
	EventType() string
	Project() string
}

// Topic constants
const (
	TopicSchedule = "schedule"
	TopicProject  = "project"
)

// Event type constants
const (
	EventTypeScheduleGenerated = "schedule.generated"
	EventTypeScheduleRejected  = "schedule.rejected"
	EventTypeProjectChanged    = "project.changed"
)

// Project change actions
const (
	ActionProjectCreated = "project.created"
	ActionProjectDeleted = "project.deleted"
	ActionTaskSaved      = "task.saved"
	ActionTaskDeleted    = "task.deleted"
)

// ScheduleGeneratedEvent is published after a successful schedule.
type ScheduleGeneratedEvent struct {
	ProjectID string
	TaskCount int
	Order     []string
	Duration  time.Duration
	Timestamp time.Time
}

func (e ScheduleGeneratedEvent) EventType() string { return EventTypeScheduleGenerated }
func (e ScheduleGeneratedEvent) Project() string   { return e.ProjectID }

// ScheduleRejectedEvent is published when the scheduler refuses the input.
type ScheduleRejectedEvent struct {
	ProjectID string
	TaskCount int
	Reason    string
	Timestamp time.Time
}

func (e ScheduleRejectedEvent) EventType() string { return EventTypeScheduleRejected }
func (e ScheduleRejectedEvent) Project() string   { return e.ProjectID }

// ProjectChangedEvent is published when a project or one of its tasks changes.
type ProjectChangedEvent struct {
	ProjectID string
	Action    string // One of the Action* constants
	TaskID    string // Empty for project-level actions
	Timestamp time.Time
}

func (e ProjectChangedEvent) EventType() string { return EventTypeProjectChanged }
func (e ProjectChangedEvent) Project() string   { return e.ProjectID }
