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

const userColumns = "users.id, users.email, users.full_name, users.created_at, users.updated_at"

type userRepository struct {
	pool     *pgxpool.Pool
	userType *registry.EntityType
	lenient  *sortspec.Compiler
	strict   *sortspec.Compiler
}

// NewUserRepository creates a repository for user rows.
func NewUserRepository(pool *pgxpool.Pool, userType *registry.EntityType, logger sortspec.Logger) UserRepository {
	return &userRepository{
		pool:     pool,
		userType: userType,
		lenient:  sortspec.New(userType, sortspec.Lenient, sortspec.WithLogger(logger)),
		strict:   sortspec.New(userType, sortspec.Strict, sortspec.WithLogger(logger)),
	}
}

func (r *userRepository) compiler(policy sortspec.Policy) *sortspec.Compiler {
	if policy == sortspec.Strict {
		return r.strict
	}
	return r.lenient
}

func (r *userRepository) List(ctx context.Context, sort string, policy sortspec.Policy) ([]domain.User, error) {
	query := newSelectQuery(r.userType, userColumns)
	if err := r.compiler(policy).Apply(query, sort); err != nil {
		return nil, fmt.Errorf("compile sort specification: %w", err)
	}

	sql, err := query.SQL(r.userType.Table() + ".email ASC")
	if err != nil {
		return nil, fmt.Errorf("render user query: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}
	return users, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	sql := "SELECT " + userColumns + " FROM users WHERE users.id = ANY($1)"
	rows, err := r.pool.Query(ctx, sql, ids)
	if err != nil {
		return nil, fmt.Errorf("get users by ids: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}
	return users, nil
}
