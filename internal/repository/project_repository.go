package repository

import (
	"context"
	"fmt"

	"github.com/rpattn/sortable/internal/domain"
	"github.com/rpattn/sortable/internal/registry"
	"github.com/rpattn/sortable/pkg/sortspec"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const projectColumns = "projects.id, projects.name, projects.code, projects.created_at, projects.updated_at"

type projectRepository struct {
	pool        *pgxpool.Pool
	projectType *registry.EntityType
	lenient     *sortspec.Compiler
	strict      *sortspec.Compiler
}

// NewProjectRepository creates a repository for project rows.
func NewProjectRepository(pool *pgxpool.Pool, projectType *registry.EntityType, logger sortspec.Logger) ProjectRepository {
	return &projectRepository{
		pool:        pool,
		projectType: projectType,
		lenient:     sortspec.New(projectType, sortspec.Lenient, sortspec.WithLogger(logger)),
		strict:      sortspec.New(projectType, sortspec.Strict, sortspec.WithLogger(logger)),
	}
}

func (r *projectRepository) compiler(policy sortspec.Policy) *sortspec.Compiler {
	if policy == sortspec.Strict {
		return r.strict
	}
	return r.lenient
}

func (r *projectRepository) List(ctx context.Context, sort string, policy sortspec.Policy) ([]domain.Project, error) {
	query := newSelectQuery(r.projectType, projectColumns)
	if err := r.compiler(policy).Apply(query, sort); err != nil {
		return nil, fmt.Errorf("compile sort specification: %w", err)
	}

	sql, err := query.SQL(r.projectType.Table() + ".name ASC")
	if err != nil {
		return nil, fmt.Errorf("render project query: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Code, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project row: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate project rows: %w", err)
	}
	return projects, nil
}

func (r *projectRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Project, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	sql := "SELECT " + projectColumns + " FROM projects WHERE projects.id = ANY($1)"
	rows, err := r.pool.Query(ctx, sql, ids)
	if err != nil {
		return nil, fmt.Errorf("get projects by ids: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Code, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project row: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate project rows: %w", err)
	}
	return projects, nil
}
