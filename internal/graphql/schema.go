package graphql

import (
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

// schemaSDL is the whole GraphQL surface. It is small and changes rarely,
// so the executable schema over it is maintained by hand instead of
// generated; see executable.go.
const schemaSDL = `
type Query {
  """
  tasks lists tasks ordered by the given sort specification, for example
  "priority:desc,project__name" or "c_urgency:desc".
  """
  tasks(sort: String, limit: Int, offset: Int): TaskConnection!
  task(id: ID!): Task
  projects(sort: String): [Project!]!
  users(sort: String): [User!]!

  "sortableFields returns the sort allow-list of an entity type."
  sortableFields(entityType: String!): [String!]!
}

type TaskConnection {
  items: [Task!]!
  pageInfo: PageInfo!
}

type PageInfo {
  totalCount: Int!
  hasNextPage: Boolean!
  hasPreviousPage: Boolean!
}

type Task {
  id: ID!
  name: String!
  status: String!
  priority: Int!
  dueDate: String
  project: Project
  assignee: User
  createdAt: String!
  updatedAt: String!
}

type Project {
  id: ID!
  name: String!
  code: String!
  createdAt: String!
  updatedAt: String!
}

type User {
  id: ID!
  email: String!
  fullName: String!
  createdAt: String!
  updatedAt: String!
}
`

var parsedSchema = gqlparser.MustLoadSchema(&ast.Source{
	Name:  "schema.graphql",
	Input: schemaSDL,
})
