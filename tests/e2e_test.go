package tests

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestSortedTaskListingE2E(t *testing.T) {
	base := serverURL(t)

	// STEP 1: Discover the sortable surface
	fieldsResp := gqlRequest(t, `
		query {
			sortableFields(entityType: "tasks")
		}
	`, nil)
	fields, ok := fieldsResp.Data["sortableFields"].([]interface{})
	if !ok || len(fields) == 0 {
		t.Fatalf("expected sortable fields for tasks, got %v", fieldsResp.Data["sortableFields"])
	}
	seen := map[string]bool{}
	for _, f := range fields {
		seen[fmt.Sprint(f)] = true
	}
	for _, want := range []string{"name", "priority", "project__name"} {
		if !seen[want] {
			t.Errorf("expected %q in sortable fields, got %v", want, fields)
		}
	}

	// STEP 2: List tasks ordered by priority, highest first
	tasksResp := gqlRequest(t, `
		query Sorted($sort: String!) {
			tasks(sort: $sort, limit: 10) {
				items {
					name
					priority
					project { name }
				}
				pageInfo { totalCount }
			}
		}
	`, map[string]interface{}{"sort": "priority:desc,name"})

	conn, ok := tasksResp.Data["tasks"].(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected tasks payload: %v", tasksResp.Data["tasks"])
	}
	items, _ := conn["items"].([]interface{})
	if len(items) == 0 {
		t.Fatal("expected seeded tasks, got none")
	}
	last := float64(1 << 30)
	for i, raw := range items {
		item := raw.(map[string]interface{})
		priority := item["priority"].(float64)
		if priority > last {
			t.Errorf("item %d out of order: priority %v after %v", i, priority, last)
		}
		last = priority
	}

	// STEP 3: Sort across the project relation
	joined := gqlRequest(t, `
		query {
			tasks(sort: "project__name:asc", limit: 5) {
				items { name project { name } }
			}
		}
	`, nil)
	if _, ok := joined.Data["tasks"]; !ok {
		t.Fatalf("expected joined sort to succeed, got %v", joined)
	}

	// STEP 4: Strict mode turns a disallowed field into a GraphQL error
	strict := gqlRequestRaw(t, `
		query {
			tasks(sort: "password", limit: 5) {
				items { name }
			}
		}
	`, nil, map[string]string{"X-Sort-Strict": "1"})
	if len(strict.Errors) == 0 {
		t.Fatal("expected strict mode to reject a disallowed sort field")
	}

	// STEP 5: The same ordering drives the REST listing
	listResp, err := http.Get(base + "/api/tasks?sort=priority:desc&limit=5")
	if err != nil {
		t.Fatalf("failed to call REST listing: %v", err)
	}
	defer listResp.Body.Close()
	if listResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from REST listing, got %d", listResp.StatusCode)
	}

	// STEP 6: Export the sorted collection as CSV
	exportResp, err := http.Get(base + "/api/tasks/export?format=csv&sort=priority:desc,name")
	if err != nil {
		t.Fatalf("failed to call export: %v", err)
	}
	defer exportResp.Body.Close()
	if exportResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from export, got %d", exportResp.StatusCode)
	}
	if ct := exportResp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("expected CSV content type, got %q", ct)
	}
	records, err := csv.NewReader(exportResp.Body).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse export CSV: %v", err)
	}
	if len(records) < 2 {
		t.Fatalf("expected header plus at least one row, got %d records", len(records))
	}
	if records[0][0] != "id" || records[0][1] != "name" {
		t.Errorf("unexpected export header: %v", records[0])
	}
}
