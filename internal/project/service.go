// Package project implements the project and task operations behind the HTTP API,
// including ownership checks and schedule generation.
package project

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/planner/internal/events"
	"github.com/aristath/planner/internal/logging"
	"github.com/aristath/planner/internal/persistence"
	"github.com/aristath/planner/internal/scheduler"
)

// DefaultEstimatedHours is used for stored tasks created without an estimate.
const DefaultEstimatedHours = 5

// Detail is a project together with its tasks.
type Detail struct {
	persistence.Project
	Tasks []*persistence.Task
}

// TaskSpec describes a new task.
type TaskSpec struct {
	Title          string
	DueDate        *time.Time
	EstimatedHours float64
	Dependencies   []string
}

// TaskUpdate is a partial task update; nil fields are left unchanged.
type TaskUpdate struct {
	Title          *string
	DueDate        *time.Time
	ClearDueDate   bool
	EstimatedHours *float64
	Dependencies   *[]string
	IsCompleted    *bool
}

// Service coordinates the store, the scheduler, and the event bus.
//
// Writes that change a project's dependency graph are serialized per project,
// so the graph check always sees the state the write lands on. This assumes
// one Service owns the database.
type Service struct {
	store  persistence.Store
	events events.Publisher
	locks  *projectLocks
	now    func() time.Time
}

// NewService creates a Service.
func NewService(store persistence.Store, publisher events.Publisher) *Service {
	return &Service{
		store:  store,
		events: publisher,
		locks:  newProjectLocks(),
		now:    time.Now,
	}
}

// ownedProject loads a project and hides it from anyone but its owner.
func (s *Service) ownedProject(ctx context.Context, owner, projectID string) (*persistence.Project, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != owner {
		return nil, fmt.Errorf("project %s: %w", projectID, persistence.ErrNotFound)
	}
	return project, nil
}

// ownedTask loads a task whose project belongs to owner.
func (s *Service) ownedTask(ctx context.Context, owner, taskID string) (*persistence.Task, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedProject(ctx, owner, task.ProjectID); err != nil {
		return nil, fmt.Errorf("task %s: %w", taskID, persistence.ErrNotFound)
	}
	return task, nil
}

// Authorize reports ErrNotFound unless projectID exists and belongs to owner.
func (s *Service) Authorize(ctx context.Context, owner, projectID string) error {
	_, err := s.ownedProject(ctx, owner, projectID)
	return err
}

func (s *Service) publishChange(projectID, action, taskID string) {
	s.events.Publish(events.TopicProject, events.ProjectChangedEvent{
		ProjectID: projectID,
		Action:    action,
		TaskID:    taskID,
		Timestamp: s.now(),
	})
}

// CreateProject stores a new project owned by owner.
func (s *Service) CreateProject(ctx context.Context, owner, title, description string) (*persistence.Project, error) {
	project := &persistence.Project{OwnerID: owner, Title: title, Description: description}
	if err := s.store.CreateProject(ctx, project); err != nil {
		return nil, err
	}
	s.publishChange(project.ID, events.ActionProjectCreated, "")
	return project, nil
}

// ListProjects returns the owner's projects with task counts.
func (s *Service) ListProjects(ctx context.Context, owner string) ([]persistence.ProjectSummary, error) {
	return s.store.ListProjects(ctx, owner)
}

// GetProject returns an owned project with its tasks.
func (s *Service) GetProject(ctx context.Context, owner, projectID string) (*Detail, error) {
	project, err := s.ownedProject(ctx, owner, projectID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.store.ListTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &Detail{Project: *project, Tasks: tasks}, nil
}

// DeleteProject removes an owned project and its tasks.
func (s *Service) DeleteProject(ctx context.Context, owner, projectID string) error {
	if _, err := s.ownedProject(ctx, owner, projectID); err != nil {
		return err
	}
	if err := s.store.DeleteProject(ctx, projectID); err != nil {
		return err
	}
	s.publishChange(projectID, events.ActionProjectDeleted, "")
	return nil
}

// CreateTask adds a task to an owned project. Its dependencies must already
// exist in the project.
func (s *Service) CreateTask(ctx context.Context, owner, projectID string, spec TaskSpec) (*persistence.Task, error) {
	if _, err := s.ownedProject(ctx, owner, projectID); err != nil {
		return nil, err
	}

	hours := spec.EstimatedHours
	if hours == 0 {
		hours = DefaultEstimatedHours
	}

	task := &persistence.Task{
		ProjectID:      projectID,
		Title:          spec.Title,
		DueDate:        spec.DueDate,
		EstimatedHours: hours,
		Dependencies:   append([]string{}, spec.Dependencies...),
	}

	unlock := s.locks.lock(projectID)
	defer unlock()

	existing, err := s.store.ListTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := checkGraph(append(existing, task)); err != nil {
		return nil, err
	}

	if err := s.store.SaveTask(ctx, task); err != nil {
		return nil, err
	}
	s.publishChange(projectID, events.ActionTaskSaved, task.ID)
	return task, nil
}

// UpdateTask applies a partial update to an owned task.
// A rename or dependency change that would leave the project graph invalid is rejected.
func (s *Service) UpdateTask(ctx context.Context, owner, taskID string, update TaskUpdate) (*persistence.Task, error) {
	owned, err := s.ownedTask(ctx, owner, taskID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(owned.ProjectID)
	defer unlock()

	// Reload under the lock; a concurrent write may have changed or removed it
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		task.Title = *update.Title
	}
	if update.ClearDueDate {
		task.DueDate = nil
	} else if update.DueDate != nil {
		task.DueDate = update.DueDate
	}
	if update.EstimatedHours != nil {
		task.EstimatedHours = *update.EstimatedHours
	}
	if update.Dependencies != nil {
		task.Dependencies = append([]string{}, (*update.Dependencies)...)
	}
	if update.IsCompleted != nil {
		task.IsCompleted = *update.IsCompleted
	}

	if update.Title != nil || update.Dependencies != nil {
		stored, err := s.store.ListTasks(ctx, task.ProjectID)
		if err != nil {
			return nil, err
		}
		if err := checkGraph(replaceTask(stored, task)); err != nil {
			return nil, err
		}
	}

	if err := s.store.SaveTask(ctx, task); err != nil {
		return nil, err
	}
	s.publishChange(task.ProjectID, events.ActionTaskSaved, task.ID)
	return task, nil
}

// DeleteTask removes an owned task. Tasks other tasks still depend on cannot be deleted.
func (s *Service) DeleteTask(ctx context.Context, owner, taskID string) error {
	task, err := s.ownedTask(ctx, owner, taskID)
	if err != nil {
		return err
	}

	unlock := s.locks.lock(task.ProjectID)
	defer unlock()

	stored, err := s.store.ListTasks(ctx, task.ProjectID)
	if err != nil {
		return err
	}
	if err := checkGraph(replaceTask(stored, nil, task.ID)); err != nil {
		return err
	}

	if err := s.store.DeleteTask(ctx, taskID); err != nil {
		return err
	}
	s.publishChange(task.ProjectID, events.ActionTaskDeleted, task.ID)
	return nil
}

// replaceTask returns stored with the task of the same ID swapped for updated,
// or with the IDs in drop removed when updated is nil.
func replaceTask(stored []*persistence.Task, updated *persistence.Task, drop ...string) []*persistence.Task {
	out := make([]*persistence.Task, 0, len(stored))
	for _, t := range stored {
		switch {
		case updated != nil && t.ID == updated.ID:
			out = append(out, updated)
		case updated == nil && contains(drop, t.ID):
			// removed
		default:
			out = append(out, t)
		}
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// Schedule orders the request's tasks for an owned project.
func (s *Service) Schedule(ctx context.Context, owner, projectID string, req scheduler.ScheduleRequest) (scheduler.ScheduleResponse, error) {
	if _, err := s.ownedProject(ctx, owner, projectID); err != nil {
		return scheduler.ScheduleResponse{}, err
	}
	return s.generate(ctx, projectID, req)
}

// ScheduleStored orders the project's incomplete stored tasks.
// Dependencies on completed tasks count as already satisfied.
func (s *Service) ScheduleStored(ctx context.Context, owner, projectID string) (scheduler.ScheduleResponse, error) {
	if _, err := s.ownedProject(ctx, owner, projectID); err != nil {
		return scheduler.ScheduleResponse{}, err
	}

	stored, err := s.store.ListTasks(ctx, projectID)
	if err != nil {
		return scheduler.ScheduleResponse{}, err
	}

	return s.generate(ctx, projectID, requestFromStored(stored))
}

// requestFromStored converts stored tasks into scheduler input, skipping completed ones.
func requestFromStored(stored []*persistence.Task) scheduler.ScheduleRequest {
	completed := make(map[string]bool)
	for _, task := range stored {
		if task.IsCompleted {
			completed[task.Title] = true
		}
	}

	req := scheduler.ScheduleRequest{Tasks: []scheduler.TaskInput{}}
	for _, task := range stored {
		if task.IsCompleted {
			continue
		}

		input := scheduler.TaskInput{
			Title:          task.Title,
			EstimatedHours: task.EstimatedHours,
			Dependencies:   []string{},
		}
		if task.DueDate != nil {
			input.DueDate = task.DueDate.UTC().Format(time.RFC3339)
		}
		for _, dep := range task.Dependencies {
			if !completed[dep] {
				input.Dependencies = append(input.Dependencies, dep)
			}
		}
		req.Tasks = append(req.Tasks, input)
	}
	return req
}

// generate runs the scheduler and publishes the outcome.
func (s *Service) generate(ctx context.Context, projectID string, req scheduler.ScheduleRequest) (scheduler.ScheduleResponse, error) {
	logger := logging.FromContext(ctx)
	start := s.now()

	resp, err := scheduler.GenerateSchedule(req)
	if err != nil {
		logger.Info("schedule rejected", "project_id", projectID, "tasks", len(req.Tasks), "error", err)
		s.events.Publish(events.TopicSchedule, events.ScheduleRejectedEvent{
			ProjectID: projectID,
			TaskCount: len(req.Tasks),
			Reason:    err.Error(),
			Timestamp: s.now(),
		})
		return scheduler.ScheduleResponse{}, err
	}

	elapsed := s.now().Sub(start)
	logger.Debug("schedule generated", "project_id", projectID, "tasks", len(req.Tasks), "elapsed", elapsed)
	s.events.Publish(events.TopicSchedule, events.ScheduleGeneratedEvent{
		ProjectID: projectID,
		TaskCount: len(req.Tasks),
		Order:     resp.RecommendedOrder,
		Duration:  elapsed,
		Timestamp: s.now(),
	})
	return resp, nil
}
