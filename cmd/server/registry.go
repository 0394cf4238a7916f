package main

import (
	"github.com/rpattn/sortable/internal/config"
	"github.com/rpattn/sortable/internal/registry"
	"github.com/rpattn/sortable/pkg/sortspec"
)

var defaultSortableFields = map[string][]string{
	"tasks": {
		"name", "status", "priority", "due_date", "created_at",
		"project__name", "project__code", "assignee__email", "assignee__full_name",
		"c_urgency",
	},
	"projects": {"name", "code", "created_at"},
	"users":    {"email", "full_name", "created_at"},
}

// buildRegistry registers the sortable entity types. Config may replace a
// type's allow-list wholesale; relations and custom scopes stay fixed.
func buildRegistry(sorting config.SortingConfig) (*registry.Registry, error) {
	reg := registry.NewRegistry()

	tasks, err := registry.NewType("tasks", "tasks").
		SortableBy(sortableFields(sorting, "tasks")...).
		Relation("project", "projects", "project_id", "id").
		Relation("assignee", "users", "assignee_id", "id").
		CustomScope("c_urgency", urgencyScope).
		Build()
	if err != nil {
		return nil, err
	}

	projects, err := registry.NewType("projects", "projects").
		SortableBy(sortableFields(sorting, "projects")...).
		Build()
	if err != nil {
		return nil, err
	}

	users, err := registry.NewType("users", "users").
		SortableBy(sortableFields(sorting, "users")...).
		Build()
	if err != nil {
		return nil, err
	}

	for _, entityType := range []*registry.EntityType{tasks, projects, users} {
		if err := reg.Register(entityType); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func sortableFields(sorting config.SortingConfig, typeName string) []string {
	if fields, ok := sorting.Fields[typeName]; ok && len(fields) > 0 {
		return fields
	}
	return defaultSortableFields[typeName]
}

// urgencyScope surfaces blocked work first, then in-progress, then open,
// with higher priority breaking ties inside each band. The requested
// direction flips the band order.
func urgencyScope(q sortspec.Query, dir sortspec.Direction) error {
	q.Order("CASE tasks.status WHEN 'blocked' THEN 0 WHEN 'in_progress' THEN 1 WHEN 'open' THEN 2 ELSE 3 END " + dir.SQL())
	q.Order("tasks.priority DESC")
	return nil
}
