package project

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gammazero/toposort"

	"github.com/aristath/planner/internal/persistence"
)

// ErrInvalidGraph is returned when a write would leave a project's stored
// dependencies dangling or circular.
var ErrInvalidGraph = errors.New("invalid dependency graph")

// checkGraph verifies every dependency names a task of the project and that
// the dependency relation is acyclic.
func checkGraph(tasks []*persistence.Task) error {
	titles := make(map[string]bool, len(tasks))
	for _, task := range tasks {
		titles[task.Title] = true
	}

	var dangling []string
	for _, task := range tasks {
		for _, dep := range task.Dependencies {
			if !titles[dep] {
				dangling = append(dangling, fmt.Sprintf("%q -> %q", task.Title, dep))
			}
		}
	}
	if len(dangling) > 0 {
		return fmt.Errorf("%w: unknown dependency %s", ErrInvalidGraph, strings.Join(dangling, ", "))
	}

	// Build edges for topological sort
	var edges []toposort.Edge
	seen := make(map[[2]string]bool)
	for _, task := range tasks {
		if len(task.Dependencies) == 0 {
			// Task with no dependencies - add edge from nil to ensure it's included
			edges = append(edges, toposort.Edge{nil, task.Title})
			continue
		}
		for _, dep := range task.Dependencies {
			// Repeated entries become a single edge
			if seen[[2]string{dep, task.Title}] {
				continue
			}
			seen[[2]string{dep, task.Title}] = true
			// Edge (dep, task) means dep must come before task
			edges = append(edges, toposort.Edge{dep, task.Title})
		}
	}

	if _, err := toposort.Toposort(edges); err != nil {
		return fmt.Errorf("%w: dependency cycle among %s", ErrInvalidGraph, strings.Join(cycleCandidates(tasks), ", "))
	}

	return nil
}

// cycleCandidates peels off tasks that can be ordered and returns the rest,
// which sit on or behind a cycle.
func cycleCandidates(tasks []*persistence.Task) []string {
	remaining := make(map[string][]string, len(tasks))
	for _, task := range tasks {
		remaining[task.Title] = task.Dependencies
	}

	for progress := true; progress; {
		progress = false
		for title, deps := range remaining {
			blocked := false
			for _, dep := range deps {
				if _, ok := remaining[dep]; ok {
					blocked = true
					break
				}
			}
			if !blocked {
				delete(remaining, title)
				progress = true
			}
		}
	}

	// Report in stored order
	var stuck []string
	for _, task := range tasks {
		if _, ok := remaining[task.Title]; ok {
			stuck = append(stuck, fmt.Sprintf("%q", task.Title))
		}
	}
	return stuck
}
