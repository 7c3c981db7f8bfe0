package scheduler

// TaskInput is one task in a schedule request.
// Title is the identity key; it must be unique within a request.
type TaskInput struct {
	Title          string   `json:"title"`
	EstimatedHours float64  `json:"estimatedHours"`
	DueDate        string   `json:"dueDate,omitempty"` // Optional; unparsable values count as absent
	Dependencies   []string `json:"dependencies"`      // Titles this task depends on
}

// ScheduleRequest is the input shape accepted from the API layer.
type ScheduleRequest struct {
	Tasks []TaskInput `json:"tasks"`
}

// ScheduleResponse carries the recommended execution order.
type ScheduleResponse struct {
	RecommendedOrder []string `json:"recommendedOrder"`
}
