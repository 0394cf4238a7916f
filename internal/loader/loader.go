package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/rpattn/sortable/internal/domain"
	"github.com/rpattn/sortable/internal/repository"

	"github.com/google/uuid"
	"github.com/graph-gophers/dataloader"
)

// Loaders batches the per-row relation lookups a task listing fans out:
// resolving Task.project and Task.assignee over a page of tasks becomes one
// query per relation instead of one per row. A fresh instance is created
// for every request so the cache never outlives it.
type Loaders struct {
	Projects *dataloader.Loader
	Users    *dataloader.Loader
}

// New builds request-scoped loaders over the relation repositories.
func New(projects repository.ProjectRepository, users repository.UserRepository) *Loaders {
	return &Loaders{
		Projects: dataloader.NewBatchedLoader(projectBatchFn(projects), dataloader.WithWait(5*time.Millisecond)),
		Users:    dataloader.NewBatchedLoader(userBatchFn(users), dataloader.WithWait(5*time.Millisecond)),
	}
}

// LoadProject resolves one project through the batch loader. Missing rows
// resolve to nil without error so dangling references stay renderable.
func (l *Loaders) LoadProject(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	data, err := l.Projects.Load(ctx, dataloader.StringKey(id.String()))()
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	project, ok := data.(domain.Project)
	if !ok {
		return nil, fmt.Errorf("unexpected project loader result %T", data)
	}
	return &project, nil
}

// LoadUser resolves one user through the batch loader.
func (l *Loaders) LoadUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	data, err := l.Users.Load(ctx, dataloader.StringKey(id.String()))()
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	user, ok := data.(domain.User)
	if !ok {
		return nil, fmt.Errorf("unexpected user loader result %T", data)
	}
	return &user, nil
}

func projectBatchFn(repo repository.ProjectRepository) dataloader.BatchFunc {
	return func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids, errResult := parseKeys(keys)
		if errResult != nil {
			return errResult
		}

		projects, err := repo.GetByIDs(ctx, ids)
		if err != nil {
			return errorResults(len(keys), err)
		}

		byID := make(map[uuid.UUID]domain.Project, len(projects))
		for _, p := range projects {
			byID[p.ID] = p
		}

		results := make([]*dataloader.Result, len(keys))
		for i, id := range ids {
			if p, ok := byID[id]; ok {
				results[i] = &dataloader.Result{Data: p}
			} else {
				results[i] = &dataloader.Result{Data: nil}
			}
		}
		return results
	}
}

func userBatchFn(repo repository.UserRepository) dataloader.BatchFunc {
	return func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids, errResult := parseKeys(keys)
		if errResult != nil {
			return errResult
		}

		users, err := repo.GetByIDs(ctx, ids)
		if err != nil {
			return errorResults(len(keys), err)
		}

		byID := make(map[uuid.UUID]domain.User, len(users))
		for _, u := range users {
			byID[u.ID] = u
		}

		results := make([]*dataloader.Result, len(keys))
		for i, id := range ids {
			if u, ok := byID[id]; ok {
				results[i] = &dataloader.Result{Data: u}
			} else {
				results[i] = &dataloader.Result{Data: nil}
			}
		}
		return results
	}
}

// parseKeys converts loader keys back to UUIDs, failing the whole batch on
// the first malformed key.
func parseKeys(keys dataloader.Keys) ([]uuid.UUID, []*dataloader.Result) {
	ids := make([]uuid.UUID, len(keys))
	for i, k := range keys {
		id, err := uuid.Parse(k.String())
		if err != nil {
			return nil, errorResults(len(keys), fmt.Errorf("invalid UUID key: %w", err))
		}
		ids[i] = id
	}
	return ids, nil
}

func errorResults(n int, err error) []*dataloader.Result {
	results := make([]*dataloader.Result, n)
	for i := range results {
		results[i] = &dataloader.Result{Error: err}
	}
	return results
}
