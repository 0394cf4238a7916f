package repository

import (
	"context"

	"github.com/rpattn/sortable/internal/domain"
	"github.com/rpattn/sortable/pkg/sortspec"

	"github.com/google/uuid"
)

// TaskRepository defines the interface for task operations. Listing takes
// the raw sort specification inside ListParams plus the violation policy
// the request runs under; ordering decisions belong to the sort compiler.
type TaskRepository interface {
	List(ctx context.Context, params domain.ListParams, policy sortspec.Policy) (domain.TaskPage, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Task, error)
	BulkInsert(ctx context.Context, tasks []domain.Task) (int64, error)
}

// ProjectRepository defines the interface for project operations.
type ProjectRepository interface {
	List(ctx context.Context, sort string, policy sortspec.Policy) ([]domain.Project, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Project, error)
}

// UserRepository defines the interface for user operations.
type UserRepository interface {
	List(ctx context.Context, sort string, policy sortspec.Policy) ([]domain.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.User, error)
}

// ImportLogRepository stores row level import failures for observability.
type ImportLogRepository interface {
	Record(ctx context.Context, entry domain.ImportLogEntry) error
	ListRecent(ctx context.Context, limit int) ([]domain.ImportLogEntry, error)
}
