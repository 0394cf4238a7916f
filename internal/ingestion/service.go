package ingestion

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rpattn/sortable/internal/domain"
	"github.com/rpattn/sortable/internal/repository"
	"github.com/rpattn/sortable/pkg/sortspec"
	"github.com/rpattn/sortable/pkg/validator"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned when an uploaded file is not supported.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

	dateLayouts = []string{
		"2006-01-02",
		time.RFC3339,
		"2006/01/02",
		"01/02/2006",
		"02/01/2006",
	}
)

// Task rows accept these columns; name, status and priority are required.
// Unknown columns are ignored so exports can be re-imported untouched.
const (
	columnName     = "name"
	columnStatus   = "status"
	columnPriority = "priority"
	columnDueDate  = "due_date"
	columnProject  = "project_code"
	columnAssignee = "assignee_email"
)

// maxReportedErrors caps how many row errors one summary carries; the full
// set is always recorded to the import log.
const maxReportedErrors = 100

// Service ingests tabular task data.
type Service struct {
	tasks     repository.TaskRepository
	projects  repository.ProjectRepository
	users     repository.UserRepository
	logs      repository.ImportLogRepository
	validator *validator.RowValidator
}

// NewService creates a new ingestion service.
func NewService(
	tasks repository.TaskRepository,
	projects repository.ProjectRepository,
	users repository.UserRepository,
	logs repository.ImportLogRepository,
) *Service {
	return &Service{
		tasks:     tasks,
		projects:  projects,
		users:     users,
		logs:      logs,
		validator: validator.NewRowValidator(),
	}
}

// Request describes the ingestion input.
type Request struct {
	FileName string
	Data     io.Reader
}

// RowError describes one rejected or flagged row.
type RowError struct {
	RowNumber int    `json:"rowNumber"`
	Message   string `json:"message"`
}

// Summary returns ingestion level metrics.
type Summary struct {
	TotalRows   int        `json:"totalRows"`
	ValidRows   int        `json:"validRows"`
	InvalidRows int        `json:"invalidRows"`
	Inserted    int64      `json:"inserted"`
	Errors      []RowError `json:"errors"`
}

type tableData struct {
	headers        []string
	rows           [][]string
	headerRowIndex int
}

// Ingest reads the uploaded file, validates each row, and bulk inserts the
// valid tasks. Row failures never abort the import; they are recorded to
// the import log and reported in the summary.
func (s *Service) Ingest(ctx context.Context, req Request) (Summary, error) {
	summary := Summary{Errors: []RowError{}}

	if req.Data == nil {
		return summary, errors.New("data reader is required")
	}

	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return summary, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(payload) == 0 {
		return summary, errors.New("file is empty")
	}

	table, err := parseTable(req.FileName, payload)
	if err != nil {
		return summary, err
	}
	if len(table.headers) == 0 {
		return summary, errors.New("no header row detected")
	}

	columns := mapColumns(table.headers)
	if _, ok := columns[columnName]; !ok {
		return summary, fmt.Errorf("missing required column %q", columnName)
	}

	refs, err := s.loadRefs(ctx)
	if err != nil {
		return summary, err
	}

	summary.TotalRows = len(table.rows)
	rules := taskFieldRules()
	valid := make([]domain.Task, 0, len(table.rows))

	for rowIdx, row := range table.rows {
		rowNumber := table.headerRowIndex + rowIdx + 2 // include header row (1-based)

		task, warnings, rowErr := s.buildTask(row, columns, refs, rules)
		if rowErr != nil {
			summary.InvalidRows++
			s.reportRowError(ctx, &summary, req.FileName, rowNumber, rowErr)
			continue
		}
		for _, warning := range warnings {
			s.reportRowError(ctx, &summary, req.FileName, rowNumber, fmt.Errorf("warning %s: %s", warning.Field, warning.Message))
		}
		valid = append(valid, task)
	}

	if len(valid) > 0 {
		inserted, err := s.tasks.BulkInsert(ctx, valid)
		if err != nil {
			return summary, fmt.Errorf("failed to insert tasks: %w", err)
		}
		summary.Inserted = inserted
	}
	summary.ValidRows = len(valid)
	return summary, nil
}

// RecentErrors lists the latest import log entries.
func (s *Service) RecentErrors(ctx context.Context, limit int) ([]domain.ImportLogEntry, error) {
	return s.logs.ListRecent(ctx, limit)
}

// refTables resolve the human-readable identifiers import rows carry to
// foreign keys.
type refTables struct {
	projectIDs map[string]uuid.UUID
	userIDs    map[string]uuid.UUID
}

func (s *Service) loadRefs(ctx context.Context) (refTables, error) {
	refs := refTables{
		projectIDs: make(map[string]uuid.UUID),
		userIDs:    make(map[string]uuid.UUID),
	}
	projects, err := s.projects.List(ctx, "", sortspec.Lenient)
	if err != nil {
		return refs, fmt.Errorf("load projects: %w", err)
	}
	for _, project := range projects {
		refs.projectIDs[strings.ToUpper(strings.TrimSpace(project.Code))] = project.ID
	}
	users, err := s.users.List(ctx, "", sortspec.Lenient)
	if err != nil {
		return refs, fmt.Errorf("load users: %w", err)
	}
	for _, user := range users {
		refs.userIDs[strings.ToLower(strings.TrimSpace(user.Email))] = user.ID
	}
	return refs, nil
}

func taskFieldRules() map[string]validator.FieldRule {
	minPriority, maxPriority := 0, 5
	return map[string]validator.FieldRule{
		columnName:     {Type: validator.FieldTypeString, Required: true, MaxLength: 200},
		columnStatus:   {Type: validator.FieldTypeEnum, Required: true, Enum: []string{"open", "in_progress", "blocked", "done"}},
		columnPriority: {Type: validator.FieldTypeInteger, Required: true, Min: &minPriority, Max: &maxPriority},
		columnDueDate:  {Type: validator.FieldTypeDate},
		columnProject:  {Type: validator.FieldTypeString},
		columnAssignee: {Type: validator.FieldTypeString},
	}
}

// buildTask coerces, validates and resolves one data row. The returned
// warnings do not block the insert.
func (s *Service) buildTask(row []string, columns map[string]int, refs refTables, rules map[string]validator.FieldRule) (domain.Task, []validator.ValidationError, error) {
	values := make(map[string]any)
	for column, idx := range columns {
		if idx >= len(row) {
			continue
		}
		raw := strings.TrimSpace(row[idx])
		if raw == "" {
			continue
		}
		coerced, err := coerceValue(column, raw)
		if err != nil {
			return domain.Task{}, nil, fmt.Errorf("field %s: %w", column, err)
		}
		values[column] = coerced
	}

	result := s.validator.ValidateRow(values, rules)
	if !result.IsValid {
		messages := make([]string, len(result.Errors))
		for i, validationErr := range result.Errors {
			messages[i] = fmt.Sprintf("%s: %s", validationErr.Field, validationErr.Message)
		}
		return domain.Task{}, nil, errors.New(strings.Join(messages, "; "))
	}

	name, _ := values[columnName].(string)
	status, _ := values[columnStatus].(string)
	priority, _ := values[columnPriority].(int64)

	task := domain.NewTask(name, domain.TaskStatus(status), int(priority))
	if due, ok := values[columnDueDate].(time.Time); ok {
		task.DueDate = &due
	}
	if code, ok := values[columnProject].(string); ok {
		id, found := refs.projectIDs[strings.ToUpper(code)]
		if !found {
			return domain.Task{}, nil, fmt.Errorf("unknown project code %q", code)
		}
		task.ProjectID = &id
	}
	if email, ok := values[columnAssignee].(string); ok {
		id, found := refs.userIDs[strings.ToLower(email)]
		if !found {
			return domain.Task{}, nil, fmt.Errorf("unknown assignee email %q", email)
		}
		task.AssigneeID = &id
	}
	return task, result.Warnings, nil
}

func coerceValue(column, raw string) (any, error) {
	switch column {
	case columnStatus:
		return strings.ToLower(raw), nil
	case columnPriority:
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return i, nil
		}
		// Allow float representations that can be losslessly converted to int.
		if f, err := strconv.ParseFloat(raw, 64); err == nil && math.Mod(f, 1) == 0 {
			return int64(f), nil
		}
		return nil, fmt.Errorf("unable to coerce %q to integer", raw)
	case columnDueDate:
		ts, err := parseDate(raw)
		if err != nil {
			return nil, fmt.Errorf("unable to coerce %q to date: %w", raw, err)
		}
		return ts, nil
	default:
		return raw, nil
	}
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, errors.New("unrecognized date format")
}

// mapColumns maps known column names to their position in the header row.
// Columns the importer does not understand are skipped silently.
func mapColumns(headers []string) map[string]int {
	known := map[string]bool{
		columnName:     true,
		columnStatus:   true,
		columnPriority: true,
		columnDueDate:  true,
		columnProject:  true,
		columnAssignee: true,
	}
	columns := make(map[string]int)
	for idx, header := range headers {
		if known[header] {
			if _, dup := columns[header]; !dup {
				columns[header] = idx
			}
		}
	}
	return columns
}

func parseTable(fileName string, payload []byte) (tableData, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return parseCSV(payload)
	case ".xlsx":
		return parseExcel(payload)
	default:
		return tableData{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func parseCSV(payload []byte) (tableData, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read csv: %w", err)
	}
	return normalizeTable(records)
}

func parseExcel(payload []byte) (tableData, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return tableData{}, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return tableData{}, errors.New("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}
	return normalizeTable(rows)
}

// normalizeTable treats the first non-empty row as the header and pads the
// data rows to the header width.
func normalizeTable(records [][]string) (tableData, error) {
	if len(records) == 0 {
		return tableData{}, errors.New("no rows found in file")
	}

	var headerRow []string
	var dataRows [][]string
	headerIndex := -1

	for idx, row := range records {
		if len(cleanRow(row)) == 0 {
			continue
		}
		if headerRow == nil {
			headerRow = row
			headerIndex = idx
			continue
		}
		dataRows = append(dataRows, row)
	}

	if headerRow == nil {
		return tableData{}, errors.New("header row could not be detected")
	}

	headers := sanitizeHeaders(headerRow)
	for i := range dataRows {
		dataRows[i] = padRow(dataRows[i], len(headers))
	}
	dataRows = filterEmptyRows(dataRows)

	return tableData{
		headers:        headers,
		rows:           dataRows,
		headerRowIndex: headerIndex,
	}, nil
}

func cleanRow(row []string) []string {
	var cleaned []string
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			cleaned = append(cleaned, cell)
		}
	}
	return cleaned
}

func sanitizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int)

	for idx, value := range raw {
		name := strings.ToLower(strings.TrimSpace(value))
		name = strings.ReplaceAll(name, " ", "_")
		name = strings.ReplaceAll(name, ".", "_")
		name = strings.ReplaceAll(name, "-", "_")
		name = strings.Trim(name, "_")
		if name == "" {
			name = fmt.Sprintf("column_%d", idx+1)
		}

		base := name
		count := seen[base]
		if count > 0 {
			name = fmt.Sprintf("%s_%d", base, count+1)
		}
		seen[base] = count + 1

		headers[idx] = name
	}

	return headers
}

func padRow(row []string, length int) []string {
	if len(row) >= length {
		return row[:length]
	}
	padded := make([]string, length)
	copy(padded, row)
	for i := len(row); i < length; i++ {
		padded[i] = ""
	}
	return padded
}

func filterEmptyRows(rows [][]string) [][]string {
	var filtered [][]string
	for _, row := range rows {
		keep := false
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				keep = true
				break
			}
		}
		if keep {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

func (s *Service) reportRowError(ctx context.Context, summary *Summary, fileName string, rowNumber int, err error) {
	if err == nil {
		return
	}
	if len(summary.Errors) < maxReportedErrors {
		summary.Errors = append(summary.Errors, RowError{RowNumber: rowNumber, Message: err.Error()})
	}
	s.logRowError(ctx, fileName, rowNumber, err)
}

func (s *Service) logRowError(ctx context.Context, fileName string, rowNumber int, err error) {
	if s.logs == nil || err == nil {
		return
	}
	entry := domain.ImportLogEntry{
		FileName:     fileName,
		RowNumber:    &rowNumber,
		ErrorMessage: err.Error(),
	}
	_ = s.logs.Record(ctx, entry)
}
