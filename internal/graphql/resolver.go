package graphql

import (
	"context"
	"fmt"

	"github.com/rpattn/sortable/internal/domain"
	"github.com/rpattn/sortable/internal/execctx"
	"github.com/rpattn/sortable/internal/middleware"
	"github.com/rpattn/sortable/internal/registry"
	"github.com/rpattn/sortable/internal/repository"
	"github.com/rpattn/sortable/pkg/sortspec"

	"github.com/google/uuid"
)

// Resolver handles GraphQL queries.
type Resolver struct {
	registry      *registry.Registry
	taskRepo      repository.TaskRepository
	projectRepo   repository.ProjectRepository
	userRepo      repository.UserRepository
	defaultPolicy sortspec.Policy
}

// NewResolver creates a new GraphQL resolver.
func NewResolver(
	reg *registry.Registry,
	taskRepo repository.TaskRepository,
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	defaultPolicy sortspec.Policy,
) *Resolver {
	return &Resolver{
		registry:      reg,
		taskRepo:      taskRepo,
		projectRepo:   projectRepo,
		userRepo:      userRepo,
		defaultPolicy: defaultPolicy,
	}
}

// policy resolves the violation policy for one request: the per-request
// override when middleware stamped one, otherwise the configured default.
func (r *Resolver) policy(ctx context.Context) sortspec.Policy {
	return execctx.Policy(ctx, r.defaultPolicy)
}

// Tasks returns one page of tasks ordered by the sort specification.
func (r *Resolver) Tasks(ctx context.Context, sort string, limit, offset int) (domain.TaskPage, error) {
	page, err := r.taskRepo.List(ctx, domain.ListParams{Sort: sort, Limit: limit, Offset: offset}, r.policy(ctx))
	if err != nil {
		return domain.TaskPage{}, fmt.Errorf("failed to list tasks: %w", err)
	}
	return page, nil
}

// Task returns a specific task by ID.
func (r *Resolver) Task(ctx context.Context, id string) (domain.Task, error) {
	taskID, err := uuid.Parse(id)
	if err != nil {
		return domain.Task{}, fmt.Errorf("invalid task ID: %w", err)
	}
	task, err := r.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return domain.Task{}, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// Projects returns all projects ordered by the sort specification.
func (r *Resolver) Projects(ctx context.Context, sort string) ([]domain.Project, error) {
	projects, err := r.projectRepo.List(ctx, sort, r.policy(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// Users returns all users ordered by the sort specification.
func (r *Resolver) Users(ctx context.Context, sort string) ([]domain.User, error) {
	users, err := r.userRepo.List(ctx, sort, r.policy(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// SortableFields returns the sort allow-list of a registered entity type.
func (r *Resolver) SortableFields(ctx context.Context, entityType string) ([]string, error) {
	t, ok := r.registry.Get(entityType)
	if !ok {
		return nil, fmt.Errorf("unknown entity type %q", entityType)
	}
	return t.SortableFields(), nil
}

// TaskProject resolves a task's project, batched through the request's
// dataloader when one is attached.
func (r *Resolver) TaskProject(ctx context.Context, projectID uuid.UUID) (*domain.Project, error) {
	if loaders := middleware.LoadersFromContext(ctx); loaders != nil {
		return loaders.LoadProject(ctx, projectID)
	}
	projects, err := r.projectRepo.GetByIDs(ctx, []uuid.UUID{projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if len(projects) == 0 {
		return nil, nil
	}
	return &projects[0], nil
}

// TaskAssignee resolves a task's assignee, batched through the request's
// dataloader when one is attached.
func (r *Resolver) TaskAssignee(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if loaders := middleware.LoadersFromContext(ctx); loaders != nil {
		return loaders.LoadUser(ctx, userID)
	}
	users, err := r.userRepo.GetByIDs(ctx, []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}
