package repositories

import (
	"regexp"
	"strings"

	"github.com/clipstream/backend/internal/models"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// ListParams captures the query knobs shared by list endpoints. Values come
// straight from the request; Normalize must run before they touch SQL.
type ListParams struct {
	Page     int
	Limit    int
	SortBy   string
	SortType string
	Query    string
	OwnerID  string
}

// Normalize clamps page and limit into sane bounds and lower-cases the sort
// direction. It returns a copy; the input is untouched.
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	p.SortType = strings.ToLower(strings.TrimSpace(p.SortType))
	p.Query = strings.TrimSpace(p.Query)
	return p
}

// Offset returns the number of rows to skip for the requested page.
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// SortColumn maps the user-supplied sort field through an allow-list.
// Unrecognized fields silently fall back to the default column; user input
// is never interpolated into an ORDER BY clause.
func (p ListParams) SortColumn(allowed map[string]string, fallback string) string {
	if column, ok := allowed[p.SortBy]; ok {
		return column
	}
	return fallback
}

// SortDirection returns the SQL keyword for the requested direction,
// defaulting to descending.
func (p ListParams) SortDirection() string {
	switch p.SortType {
	case "asc", "ascending":
		return "ASC"
	default:
		return "DESC"
	}
}

// SearchPattern turns a free-text query into a case-insensitive alternation
// pattern: tokens split on whitespace, each quoted so regex metacharacters in
// user input match literally. Empty queries yield an empty pattern, which the
// list queries treat as "match everything".
func (p ListParams) SearchPattern() string {
	fields := strings.Fields(p.Query)
	if len(fields) == 0 {
		return ""
	}
	quoted := make([]string, len(fields))
	for i, field := range fields {
		quoted[i] = regexp.QuoteMeta(field)
	}
	return strings.Join(quoted, "|")
}

// NewPagination computes page metadata for a filtered universe of total rows.
func NewPagination(total int64, params ListParams) models.Pagination {
	totalPages := int(total / int64(params.Limit))
	if total%int64(params.Limit) != 0 {
		totalPages++
	}
	return models.Pagination{
		Total:       total,
		CurrentPage: params.Page,
		TotalPages:  totalPages,
	}
}
