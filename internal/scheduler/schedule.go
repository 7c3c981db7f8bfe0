// Package scheduler orders tasks so that every dependency comes first,
// breaking ties by due date, estimated hours and title.
//
// The package holds no state between calls; Schedule is safe for concurrent use.
package scheduler

// Schedule returns the recommended execution order of tasks.
//
// Checks run in a fixed sequence and the first failure wins:
// duplicate titles, unknown dependencies, cycles. No partial order is
// ever returned.
func Schedule(tasks []TaskInput) ([]string, error) {
	if len(tasks) == 0 {
		return []string{}, nil
	}

	byTitle, err := indexTasks(tasks)
	if err != nil {
		return nil, err
	}

	g := buildGraph(tasks)

	if err := validateDependencies(tasks, byTitle); err != nil {
		return nil, err
	}

	if err := detectCycle(tasks, g); err != nil {
		return nil, err
	}

	return prioritySort(tasks, byTitle, g)
}

// GenerateSchedule wraps Schedule in the request/response shapes used by the API.
func GenerateSchedule(req ScheduleRequest) (ScheduleResponse, error) {
	order, err := Schedule(req.Tasks)
	if err != nil {
		return ScheduleResponse{}, err
	}
	return ScheduleResponse{RecommendedOrder: order}, nil
}
