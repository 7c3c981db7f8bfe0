package persistence

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/aristath/planner/internal/config"
)

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("store unavailable")

// ResilientStore wraps a Store with retry on lock contention and a circuit breaker.
// Not-found and conflict errors pass through without retry and count as successes
// for the breaker.
type ResilientStore struct {
	inner     Store
	breaker   *gobreaker.CircuitBreaker
	retry     config.RetryConfig
	transient func(error) bool
}

// NewResilientStore wraps inner using the retry and breaker settings in cfg.
func NewResilientStore(inner Store, cfg config.StoreConfig, logger *slog.Logger) *ResilientStore {
	threshold := uint32(cfg.Breaker.ConsecutiveFailures)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "store",
		MaxRequests: 1, // One trial request in half-open state
		Interval:    0, // Don't clear counts automatically
		Timeout:     time.Duration(cfg.Breaker.OpenTimeoutSeconds) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// Caller mistakes and cancellation say nothing about database health
			return err == nil ||
				isDomainError(err) ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded)
		},
	})

	return &ResilientStore{inner: inner, breaker: breaker, retry: cfg.Retry, transient: IsTransient}
}

// State reports the current breaker state.
func (r *ResilientStore) State() gobreaker.State {
	return r.breaker.State()
}

// do runs op through the breaker, retrying transient errors with exponential backoff.
func (r *ResilientStore) do(ctx context.Context, op func() error) error {
	operation := func() error {
		// Fail fast if cancelled
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}

		_, err := r.breaker.Execute(func() (interface{}, error) {
			return nil, op()
		})
		if err == nil {
			return nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(ErrUnavailable)
		}
		if r.transient(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Duration(r.retry.InitialIntervalMs) * time.Millisecond
	policy.MaxInterval = time.Duration(r.retry.MaxIntervalMs) * time.Millisecond
	policy.MaxElapsedTime = time.Duration(r.retry.MaxElapsedMs) * time.Millisecond

	return backoff.Retry(operation, backoff.WithContext(policy, ctx))
}

func (r *ResilientStore) CreateProject(ctx context.Context, project *Project) error {
	return r.do(ctx, func() error { return r.inner.CreateProject(ctx, project) })
}

func (r *ResilientStore) GetProject(ctx context.Context, projectID string) (*Project, error) {
	var project *Project
	err := r.do(ctx, func() (err error) {
		project, err = r.inner.GetProject(ctx, projectID)
		return err
	})
	return project, err
}

func (r *ResilientStore) ListProjects(ctx context.Context, ownerID string) ([]ProjectSummary, error) {
	var projects []ProjectSummary
	err := r.do(ctx, func() (err error) {
		projects, err = r.inner.ListProjects(ctx, ownerID)
		return err
	})
	return projects, err
}

func (r *ResilientStore) DeleteProject(ctx context.Context, projectID string) error {
	return r.do(ctx, func() error { return r.inner.DeleteProject(ctx, projectID) })
}

func (r *ResilientStore) SaveTask(ctx context.Context, task *Task) error {
	return r.do(ctx, func() error { return r.inner.SaveTask(ctx, task) })
}

func (r *ResilientStore) GetTask(ctx context.Context, taskID string) (*Task, error) {
	var task *Task
	err := r.do(ctx, func() (err error) {
		task, err = r.inner.GetTask(ctx, taskID)
		return err
	})
	return task, err
}

func (r *ResilientStore) ListTasks(ctx context.Context, projectID string) ([]*Task, error) {
	var tasks []*Task
	err := r.do(ctx, func() (err error) {
		tasks, err = r.inner.ListTasks(ctx, projectID)
		return err
	})
	return tasks, err
}

func (r *ResilientStore) DeleteTask(ctx context.Context, taskID string) error {
	return r.do(ctx, func() error { return r.inner.DeleteTask(ctx, taskID) })
}

// Close closes the wrapped store.
func (r *ResilientStore) Close() error {
	return r.inner.Close()
}
