package export

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rpattn/sortable/internal/domain"
	"github.com/rpattn/sortable/internal/repository"
	"github.com/rpattn/sortable/pkg/sortspec"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned when the requested export format is not supported.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format selects the file encoding of a task export.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat maps the format query parameter onto a Format. Empty input
// defaults to CSV.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, raw)
	}
}

// ContentType returns the MIME type for download responses.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// FileName returns the suggested download file name.
func (f Format) FileName() string {
	return "tasks." + string(f)
}

var exportHeaders = []string{"id", "name", "status", "priority", "due_date", "project", "assignee", "created_at"}

// Service streams sorted task collections as CSV or XLSX files. The sort
// specification is compiled by the repository layer, so exports come out
// in exactly the order a listing with the same specification would.
type Service struct {
	tasks    repository.TaskRepository
	projects repository.ProjectRepository
	users    repository.UserRepository
	pageSize int
}

type Option func(*Service)

// WithPageSize adjusts how many rows each repository read fetches.
func WithPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 && size <= domain.MaxPageSize {
			s.pageSize = size
		}
	}
}

func NewService(
	tasks repository.TaskRepository,
	projects repository.ProjectRepository,
	users repository.UserRepository,
	opts ...Option,
) *Service {
	service := &Service{
		tasks:    tasks,
		projects: projects,
		users:    users,
		pageSize: domain.MaxPageSize,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// List returns one JSON-ready page of tasks.
func (s *Service) List(ctx context.Context, params domain.ListParams, policy sortspec.Policy) (domain.TaskPage, error) {
	return s.tasks.List(ctx, params, policy)
}

// RowCount validates the sort specification and reports how many rows the
// export would stream, before any response bytes are committed.
func (s *Service) RowCount(ctx context.Context, sort string, policy sortspec.Policy) (int, error) {
	page, err := s.tasks.List(ctx, domain.ListParams{Sort: sort, Limit: 1}, policy)
	if err != nil {
		return 0, err
	}
	return page.TotalCount, nil
}

// Export streams every task matching the sort specification into w and
// returns the number of data rows written.
func (s *Service) Export(ctx context.Context, w io.Writer, format Format, sort string, policy sortspec.Policy) (int, error) {
	refs, err := s.loadRefs(ctx)
	if err != nil {
		return 0, err
	}
	if format == FormatXLSX {
		return s.writeXLSX(ctx, w, sort, policy, refs)
	}
	return s.writeCSV(ctx, w, sort, policy, refs)
}

// refTables resolve foreign keys to the human-readable identifiers used in
// export rows, mirroring the columns the importer accepts.
type refTables struct {
	projectCodes map[uuid.UUID]string
	userEmails   map[uuid.UUID]string
}

func (s *Service) loadRefs(ctx context.Context) (refTables, error) {
	refs := refTables{
		projectCodes: make(map[uuid.UUID]string),
		userEmails:   make(map[uuid.UUID]string),
	}
	projects, err := s.projects.List(ctx, "", sortspec.Lenient)
	if err != nil {
		return refs, fmt.Errorf("load projects: %w", err)
	}
	for _, project := range projects {
		refs.projectCodes[project.ID] = project.Code
	}
	users, err := s.users.List(ctx, "", sortspec.Lenient)
	if err != nil {
		return refs, fmt.Errorf("load users: %w", err)
	}
	for _, user := range users {
		refs.userEmails[user.ID] = user.Email
	}
	return refs, nil
}

func (s *Service) writeCSV(ctx context.Context, w io.Writer, sort string, policy sortspec.Policy, refs refTables) (int, error) {
	buffered := bufio.NewWriterSize(w, 1<<20) // 1 MiB buffer for streaming writes
	csvWriter := csv.NewWriter(buffered)

	if err := csvWriter.Write(exportHeaders); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	rowsExported := 0
	offset := 0
	for {
		if ctx.Err() != nil {
			return rowsExported, ctx.Err()
		}
		page, err := s.tasks.List(ctx, domain.ListParams{Sort: sort, Limit: s.pageSize, Offset: offset}, policy)
		if err != nil {
			return rowsExported, fmt.Errorf("list tasks: %w", err)
		}
		if len(page.Items) == 0 {
			break
		}
		for _, task := range page.Items {
			if err := csvWriter.Write(taskRow(task, refs)); err != nil {
				return rowsExported, fmt.Errorf("write task row: %w", err)
			}
			rowsExported++
		}
		csvWriter.Flush()
		if err := csvWriter.Error(); err != nil {
			return rowsExported, fmt.Errorf("flush rows: %w", err)
		}
		if err := buffered.Flush(); err != nil {
			return rowsExported, fmt.Errorf("flush buffered rows: %w", err)
		}
		if len(page.Items) < page.Limit {
			break
		}
		offset += page.Limit
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return rowsExported, fmt.Errorf("final flush: %w", err)
	}
	if err := buffered.Flush(); err != nil {
		return rowsExported, fmt.Errorf("final buffered flush: %w", err)
	}
	return rowsExported, nil
}

func (s *Service) writeXLSX(ctx context.Context, w io.Writer, sort string, policy sortspec.Policy, refs refTables) (int, error) {
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	stream, err := file.NewStreamWriter(file.GetSheetName(0))
	if err != nil {
		return 0, fmt.Errorf("create stream writer: %w", err)
	}

	header := make([]interface{}, len(exportHeaders))
	for i, name := range exportHeaders {
		header[i] = name
	}
	if err := stream.SetRow("A1", header); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	rowsExported := 0
	offset := 0
	for {
		if ctx.Err() != nil {
			return rowsExported, ctx.Err()
		}
		page, err := s.tasks.List(ctx, domain.ListParams{Sort: sort, Limit: s.pageSize, Offset: offset}, policy)
		if err != nil {
			return rowsExported, fmt.Errorf("list tasks: %w", err)
		}
		if len(page.Items) == 0 {
			break
		}
		for _, task := range page.Items {
			cell, err := excelize.CoordinatesToCellName(1, rowsExported+2)
			if err != nil {
				return rowsExported, fmt.Errorf("compute cell name: %w", err)
			}
			values := taskRow(task, refs)
			row := make([]interface{}, len(values))
			for i, v := range values {
				row[i] = v
			}
			row[3] = task.Priority // keep priority numeric in spreadsheets
			if err := stream.SetRow(cell, row); err != nil {
				return rowsExported, fmt.Errorf("write task row: %w", err)
			}
			rowsExported++
		}
		if len(page.Items) < page.Limit {
			break
		}
		offset += page.Limit
	}

	if err := stream.Flush(); err != nil {
		return rowsExported, fmt.Errorf("flush stream: %w", err)
	}
	if err := file.Write(w); err != nil {
		return rowsExported, fmt.Errorf("write workbook: %w", err)
	}
	return rowsExported, nil
}

func taskRow(task domain.Task, refs refTables) []string {
	row := make([]string, len(exportHeaders))
	row[0] = task.ID.String()
	row[1] = task.Name
	row[2] = string(task.Status)
	row[3] = strconv.Itoa(task.Priority)
	if task.DueDate != nil {
		row[4] = task.DueDate.Format("2006-01-02")
	}
	if task.ProjectID != nil {
		row[5] = refs.projectCodes[*task.ProjectID]
	}
	if task.AssigneeID != nil {
		row[6] = refs.userEmails[*task.AssigneeID]
	}
	row[7] = task.CreatedAt.UTC().Format(time.RFC3339)
	return row
}
