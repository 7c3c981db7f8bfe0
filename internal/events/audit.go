package events

import (
	"log/slog"
)

// Audit logs every event received on feed until the channel is closed.
func Audit(logger *slog.Logger, feed <-chan Event) {
	for event := range feed {
		switch e := event.(type) {
		case ScheduleGeneratedEvent:
			logger.Info("schedule generated",
				"project_id", e.ProjectID,
				"tasks", e.TaskCount,
				"duration", e.Duration)
		case ScheduleRejectedEvent:
			logger.Info("schedule rejected",
				"project_id", e.ProjectID,
				"tasks", e.TaskCount,
				"reason", e.Reason)
		case ProjectChangedEvent:
			logger.Info("project changed",
				"project_id", e.ProjectID,
				"action", e.Action,
				"task_id", e.TaskID)
		default:
			logger.Debug("event", "type", event.EventType(), "project_id", event.Project())
		}
	}
}
