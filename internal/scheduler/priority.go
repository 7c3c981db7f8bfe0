package scheduler

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// dueDateLayouts are tried in order by ParseDueDate.
var dueDateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"01/02/2006",
}

// ParseDueDate parses a calendar date. Values without a zone are read as UTC.
// Empty or unparsable input returns false; callers treat both as "no due date".
func ParseDueDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// priorityKey is the precomputed tie-break tuple of one task.
type priorityKey struct {
	due    time.Time
	hasDue bool
	hours  float64
	title  string
}

func newPriorityKey(task TaskInput) priorityKey {
	due, ok := ParseDueDate(task.DueDate)
	return priorityKey{due: due, hasDue: ok, hours: task.EstimatedHours, title: task.Title}
}

// compareKeys orders by due date (dateless last), then hours, then title.
func compareKeys(a, b priorityKey) int {
	switch {
	case a.hasDue && !b.hasDue:
		return -1
	case !a.hasDue && b.hasDue:
		return 1
	case a.hasDue && b.hasDue:
		if c := a.due.Compare(b.due); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(a.hours, b.hours); c != 0 {
		return c
	}
	return strings.Compare(a.title, b.title)
}

// Compare is the tie-break comparator applied among ready tasks.
func Compare(a, b TaskInput) int {
	return compareKeys(newPriorityKey(a), newPriorityKey(b))
}

// prioritySort runs Kahn's algorithm, re-sorting the ready set before every
// extraction. inDegree is consumed.
func prioritySort(tasks []TaskInput, byTitle map[string]TaskInput, g *graph) ([]string, error) {
	keys := make(map[string]priorityKey, len(byTitle))
	for title, task := range byTitle {
		keys[title] = newPriorityKey(task)
	}
	byPriority := func(a, b string) int {
		return compareKeys(keys[a], keys[b])
	}

	// Seed with every task that has no dependencies
	ready := []string{}
	for _, task := range tasks {
		if g.inDegree[task.Title] == 0 {
			ready = append(ready, task.Title)
		}
	}

	result := make([]string, 0, len(tasks))
	for len(ready) > 0 {
		slices.SortFunc(ready, byPriority)

		current := ready[0]
		ready = ready[1:]
		result = append(result, current)

		for _, dependent := range g.dependents[current] {
			g.inDegree[dependent]--
			if g.inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	// Unreachable after detectCycle, kept as a safety net
	if len(result) != len(tasks) {
		return nil, &CircularDependencyError{}
	}

	return result, nil
}
