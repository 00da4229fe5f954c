package papers

import (
	"net/url"

	"github.com/avid-platform/avid/pkg/query"
	"github.com/avid-platform/avid/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "papers", "p").
	Project("id", "ID").
	Project("title", "Title").
	Project("author", "Author").
	Project("source_key", "SourceKey").
	Project("status", "Status").
	Project("status_reason", "StatusReason").
	Project("block_count", "BlockCount").
	Project("submitted_at", "SubmittedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "SubmittedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for paper queries. Nil
// fields are ignored. Status uses exact matching; Title and Author use
// case-insensitive contains matching.
type Filters struct {
	Status *string `json:"status,omitempty"`
	Title  *string `json:"title,omitempty"`
	Author *string `json:"author,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereContains("Title", f.Title).
		WhereContains("Author", f.Author)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	if t := values.Get("title"); t != "" {
		f.Title = &t
	}

	if a := values.Get("author"); a != "" {
		f.Author = &a
	}

	return f
}

func scanPaper(s repository.Scanner) (Paper, error) {
	var p Paper
	err := s.Scan(
		&p.ID,
		&p.Title,
		&p.Author,
		&p.SourceKey,
		&p.Status,
		&p.StatusReason,
		&p.BlockCount,
		&p.SubmittedAt,
		&p.UpdatedAt,
	)
	return p, err
}
