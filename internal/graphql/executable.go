package graphql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rpattn/sortable/internal/domain"

	gql "github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// NewExecutableSchema wires the resolver into a hand-maintained executable
// schema over the gqlgen runtime. The surface is a handful of read-only
// queries, so the field dispatch below replaces generated code; the gqlgen
// handler still does transport, parsing, validation and extensions.
func NewExecutableSchema(resolver *Resolver) gql.ExecutableSchema {
	return &executableSchema{resolver: resolver}
}

type executableSchema struct {
	resolver *Resolver
}

func (e *executableSchema) Schema() *ast.Schema {
	return parsedSchema
}

func (e *executableSchema) Complexity(ctx context.Context, typeName, field string, childComplexity int, args map[string]interface{}) (int, bool) {
	return 0, false
}

func (e *executableSchema) Exec(ctx context.Context) gql.ResponseHandler {
	return func(ctx context.Context) *gql.Response {
		oc := gql.GetOperationContext(ctx)
		if oc.Operation == nil || oc.Operation.Operation != ast.Query {
			return gql.ErrorResponse(ctx, "only query operations are supported")
		}

		data, err := e.resolveQuery(ctx, oc, oc.Operation.SelectionSet)
		if err != nil {
			return &gql.Response{Errors: gqlerror.List{gqlerror.Errorf("%s", err.Error())}}
		}

		payload, err := json.Marshal(data)
		if err != nil {
			return gql.ErrorResponse(ctx, "failed to encode response: %v", err)
		}
		return &gql.Response{Data: payload}
	}
}

// resolveQuery dispatches the top level selection set. Queries reaching
// this point were already validated against the schema, so unknown fields
// indicate a schema/dispatch mismatch rather than bad input.
func (e *executableSchema) resolveQuery(ctx context.Context, oc *gql.OperationContext, sel ast.SelectionSet) (map[string]any, error) {
	fields := gql.CollectFields(oc, sel, []string{"Query"})
	out := make(map[string]any, len(fields))

	for _, field := range fields {
		args := field.ArgumentMap(oc.Variables)

		switch field.Name {
		case "tasks":
			page, err := e.resolver.Tasks(ctx, stringArg(args, "sort"), intArg(args, "limit"), intArg(args, "offset"))
			if err != nil {
				return nil, err
			}
			view, err := e.projectTaskConnection(ctx, oc, field.Selections, page)
			if err != nil {
				return nil, err
			}
			out[field.Alias] = view

		case "task":
			task, err := e.resolver.Task(ctx, stringArg(args, "id"))
			if err != nil {
				return nil, err
			}
			view, err := e.projectTask(ctx, oc, field.Selections, task)
			if err != nil {
				return nil, err
			}
			out[field.Alias] = view

		case "projects":
			projects, err := e.resolver.Projects(ctx, stringArg(args, "sort"))
			if err != nil {
				return nil, err
			}
			views := make([]map[string]any, len(projects))
			for i, project := range projects {
				views[i] = projectProject(oc, field.Selections, project)
			}
			out[field.Alias] = views

		case "users":
			users, err := e.resolver.Users(ctx, stringArg(args, "sort"))
			if err != nil {
				return nil, err
			}
			views := make([]map[string]any, len(users))
			for i, user := range users {
				views[i] = projectUser(oc, field.Selections, user)
			}
			out[field.Alias] = views

		case "sortableFields":
			fieldsList, err := e.resolver.SortableFields(ctx, stringArg(args, "entityType"))
			if err != nil {
				return nil, err
			}
			out[field.Alias] = fieldsList

		case "__typename":
			out[field.Alias] = "Query"

		case "__schema", "__type":
			return nil, fmt.Errorf("introspection is not supported")

		default:
			return nil, fmt.Errorf("unknown query field %q", field.Name)
		}
	}
	return out, nil
}

func (e *executableSchema) projectTaskConnection(ctx context.Context, oc *gql.OperationContext, sel ast.SelectionSet, page domain.TaskPage) (map[string]any, error) {
	fields := gql.CollectFields(oc, sel, []string{"TaskConnection"})
	out := make(map[string]any, len(fields))

	for _, field := range fields {
		switch field.Name {
		case "items":
			items := make([]map[string]any, len(page.Items))
			for i, task := range page.Items {
				view, err := e.projectTask(ctx, oc, field.Selections, task)
				if err != nil {
					return nil, err
				}
				items[i] = view
			}
			out[field.Alias] = items
		case "pageInfo":
			out[field.Alias] = projectPageInfo(oc, field.Selections, page)
		case "__typename":
			out[field.Alias] = "TaskConnection"
		default:
			return nil, fmt.Errorf("unknown field %q on TaskConnection", field.Name)
		}
	}
	return out, nil
}

func projectPageInfo(oc *gql.OperationContext, sel ast.SelectionSet, page domain.TaskPage) map[string]any {
	fields := gql.CollectFields(oc, sel, []string{"PageInfo"})
	out := make(map[string]any, len(fields))

	for _, field := range fields {
		switch field.Name {
		case "totalCount":
			out[field.Alias] = page.TotalCount
		case "hasNextPage":
			out[field.Alias] = page.Offset+page.Limit < page.TotalCount
		case "hasPreviousPage":
			out[field.Alias] = page.Offset > 0
		case "__typename":
			out[field.Alias] = "PageInfo"
		}
	}
	return out
}

func (e *executableSchema) projectTask(ctx context.Context, oc *gql.OperationContext, sel ast.SelectionSet, task domain.Task) (map[string]any, error) {
	fields := gql.CollectFields(oc, sel, []string{"Task"})
	out := make(map[string]any, len(fields))

	for _, field := range fields {
		switch field.Name {
		case "id":
			out[field.Alias] = task.ID.String()
		case "name":
			out[field.Alias] = task.Name
		case "status":
			out[field.Alias] = string(task.Status)
		case "priority":
			out[field.Alias] = task.Priority
		case "dueDate":
			out[field.Alias] = formatDate(task.DueDate)
		case "project":
			if task.ProjectID == nil {
				out[field.Alias] = nil
				continue
			}
			project, err := e.resolver.TaskProject(ctx, *task.ProjectID)
			if err != nil {
				return nil, err
			}
			if project == nil {
				out[field.Alias] = nil
				continue
			}
			out[field.Alias] = projectProject(oc, field.Selections, *project)
		case "assignee":
			if task.AssigneeID == nil {
				out[field.Alias] = nil
				continue
			}
			assignee, err := e.resolver.TaskAssignee(ctx, *task.AssigneeID)
			if err != nil {
				return nil, err
			}
			if assignee == nil {
				out[field.Alias] = nil
				continue
			}
			out[field.Alias] = projectUser(oc, field.Selections, *assignee)
		case "createdAt":
			out[field.Alias] = formatTime(task.CreatedAt)
		case "updatedAt":
			out[field.Alias] = formatTime(task.UpdatedAt)
		case "__typename":
			out[field.Alias] = "Task"
		default:
			return nil, fmt.Errorf("unknown field %q on Task", field.Name)
		}
	}
	return out, nil
}

func projectProject(oc *gql.OperationContext, sel ast.SelectionSet, project domain.Project) map[string]any {
	fields := gql.CollectFields(oc, sel, []string{"Project"})
	out := make(map[string]any, len(fields))

	for _, field := range fields {
		switch field.Name {
		case "id":
			out[field.Alias] = project.ID.String()
		case "name":
			out[field.Alias] = project.Name
		case "code":
			out[field.Alias] = project.Code
		case "createdAt":
			out[field.Alias] = formatTime(project.CreatedAt)
		case "updatedAt":
			out[field.Alias] = formatTime(project.UpdatedAt)
		case "__typename":
			out[field.Alias] = "Project"
		}
	}
	return out
}

func projectUser(oc *gql.OperationContext, sel ast.SelectionSet, user domain.User) map[string]any {
	fields := gql.CollectFields(oc, sel, []string{"User"})
	out := make(map[string]any, len(fields))

	for _, field := range fields {
		switch field.Name {
		case "id":
			out[field.Alias] = user.ID.String()
		case "email":
			out[field.Alias] = user.Email
		case "fullName":
			out[field.Alias] = user.FullName
		case "createdAt":
			out[field.Alias] = formatTime(user.CreatedAt)
		case "updatedAt":
			out[field.Alias] = formatTime(user.UpdatedAt)
		case "__typename":
			out[field.Alias] = "User"
		}
	}
	return out
}
