package api

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aristath/planner/internal/config"
	"github.com/aristath/planner/internal/scheduler"
)

// validateTitle checks a task or project title against the configured length.
func validateTitle(field, title string, limits config.LimitsConfig) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n == 0 {
		return invalid(field, "is required")
	}
	if n > limits.MaxTitleLength {
		return invalid(field, "must be at most %d characters", limits.MaxTitleLength)
	}
	return nil
}

func validateHours(field string, hours float64, limits config.LimitsConfig) error {
	if hours <= limits.MinEstimatedHours || hours > limits.MaxEstimatedHours {
		return invalid(field, "must be greater than %g and at most %g", limits.MinEstimatedHours, limits.MaxEstimatedHours)
	}
	return nil
}

// validateScheduleRequest bounds a schedule request before it reaches the scheduler.
func validateScheduleRequest(req scheduler.ScheduleRequest, limits config.LimitsConfig) error {
	if len(req.Tasks) > limits.MaxTasks {
		return invalid("tasks", "must contain at most %d entries", limits.MaxTasks)
	}
	for i, task := range req.Tasks {
		if err := validateTitle(indexed("tasks", i, "title"), task.Title, limits); err != nil {
			return err
		}
		if err := validateHours(indexed("tasks", i, "estimatedHours"), task.EstimatedHours, limits); err != nil {
			return err
		}
	}
	return nil
}

func indexed(list string, i int, field string) string {
	return fmt.Sprintf("%s[%d].%s", list, i, field)
}

// parseStoredDueDate accepts the same date formats as the scheduler.
// An empty string means no due date.
func parseStoredDueDate(field string, value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	due, ok := scheduler.ParseDueDate(*value)
	if !ok {
		return nil, invalid(field, "is not a recognized date")
	}
	return &due, nil
}
