package repository

import (
	"context"
	"fmt"

	"github.com/rpattn/sortable/internal/domain"
	"github.com/rpattn/sortable/internal/registry"
	"github.com/rpattn/sortable/pkg/sortspec"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = "tasks.id, tasks.project_id, tasks.assignee_id, tasks.name, tasks.status, " +
	"tasks.priority, tasks.due_date, tasks.created_at, tasks.updated_at"

type taskRepository struct {
	pool     *pgxpool.Pool
	taskType *registry.EntityType
	lenient  *sortspec.Compiler
	strict   *sortspec.Compiler
}

// NewTaskRepository creates a repository for task rows. The entity type
// descriptor supplies the sort allow-list and join metadata; the logger
// receives lenient-mode sort warnings.
func NewTaskRepository(pool *pgxpool.Pool, taskType *registry.EntityType, logger sortspec.Logger) TaskRepository {
	return &taskRepository{
		pool:     pool,
		taskType: taskType,
		lenient:  sortspec.New(taskType, sortspec.Lenient, sortspec.WithLogger(logger)),
		strict:   sortspec.New(taskType, sortspec.Strict, sortspec.WithLogger(logger)),
	}
}

func (r *taskRepository) compiler(policy sortspec.Policy) *sortspec.Compiler {
	if policy == sortspec.Strict {
		return r.strict
	}
	return r.lenient
}

func (r *taskRepository) List(ctx context.Context, params domain.ListParams, policy sortspec.Policy) (domain.TaskPage, error) {
	params = params.Clamped()

	query := newSelectQuery(r.taskType, taskColumns)
	if err := r.compiler(policy).Apply(query, params.Sort); err != nil {
		return domain.TaskPage{}, fmt.Errorf("compile sort specification: %w", err)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM " + r.taskType.Table()
	if err := r.pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return domain.TaskPage{}, fmt.Errorf("count tasks: %w", err)
	}

	sql, err := query.SQL(r.taskType.Table() + ".created_at DESC")
	if err != nil {
		return domain.TaskPage{}, fmt.Errorf("render task query: %w", err)
	}

	builder := newSQLBuilder()
	limitIdx := builder.addArg(params.Limit)
	offsetIdx := builder.addArg(params.Offset)
	sql += fmt.Sprintf(" LIMIT %s OFFSET %s", builder.placeholder(limitIdx), builder.placeholder(offsetIdx))

	rows, err := r.pool.Query(ctx, sql, builder.args...)
	if err != nil {
		return domain.TaskPage{}, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Task, 0, params.Limit)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return domain.TaskPage{}, err
		}
		items = append(items, task)
	}
	if err := rows.Err(); err != nil {
		return domain.TaskPage{}, fmt.Errorf("iterate task rows: %w", err)
	}

	return domain.TaskPage{
		Items:      items,
		TotalCount: total,
		Limit:      params.Limit,
		Offset:     params.Offset,
	}, nil
}

func (r *taskRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Task, error) {
	sql := "SELECT " + taskColumns + " FROM tasks WHERE tasks.id = $1"
	rows, err := r.pool.Query(ctx, sql, id)
	if err != nil {
		return domain.Task{}, fmt.Errorf("get task: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.Task{}, fmt.Errorf("get task: %w", err)
		}
		return domain.Task{}, fmt.Errorf("get task %s: %w", id, pgx.ErrNoRows)
	}
	return scanTask(rows)
}

func (r *taskRepository) BulkInsert(ctx context.Context, tasks []domain.Task) (int64, error) {
	if len(tasks) == 0 {
		return 0, nil
	}

	rows := make([][]any, len(tasks))
	for i, task := range tasks {
		rows[i] = []any{
			task.ID,
			task.ProjectID,
			task.AssigneeID,
			task.Name,
			string(task.Status),
			task.Priority,
			task.DueDate,
			task.CreatedAt,
			task.UpdatedAt,
		}
	}

	copied, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"tasks"},
		[]string{"id", "project_id", "assignee_id", "name", "status", "priority", "due_date", "created_at", "updated_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("bulk insert tasks: %w", err)
	}
	return copied, nil
}

// scanTask reads one task row in taskColumns order.
func scanTask(rows pgx.Rows) (domain.Task, error) {
	var (
		task    domain.Task
		dueDate pgtype.Date
	)
	if err := rows.Scan(
		&task.ID,
		&task.ProjectID,
		&task.AssigneeID,
		&task.Name,
		&task.Status,
		&task.Priority,
		&dueDate,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return domain.Task{}, fmt.Errorf("scan task row: %w", err)
	}
	if dueDate.Valid {
		due := dueDate.Time
		task.DueDate = &due
	}
	return task, nil
}
