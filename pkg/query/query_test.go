package query_test

import (
	"testing"

	"github.com/avid-platform/avid/pkg/query"
)

func testProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "papers", "p").
		Project("id", "id").
		Project("title", "title").
		Project("submitted_at", "submittedAt")
}

func ptr(s string) *string { return &s }

func TestProjectionMapTable(t *testing.T) {
	p := testProjection()
	got := p.Table()
	want := "public.papers p"
	if got != want {
		t.Errorf("Table() = %q, want %q", got, want)
	}
}

func TestProjectionMapAlias(t *testing.T) {
	p := testProjection()
	if got := p.Alias(); got != "p" {
		t.Errorf("Alias() = %q, want %q", got, "p")
	}
}

func TestProjectionMapColumns(t *testing.T) {
	p := testProjection()
	got := p.Columns()
	want := "p.id, p.title, p.submitted_at"
	if got != want {
		t.Errorf("Columns() = %q, want %q", got, want)
	}
}

func TestProjectionMapColumnList(t *testing.T) {
	p := testProjection()
	got := p.ColumnList()
	if len(got) != 3 {
		t.Fatalf("ColumnList() length = %d, want 3", len(got))
	}
	want := []string{"p.id", "p.title", "p.submitted_at"}
	for i, col := range got {
		if col != want[i] {
			t.Errorf("ColumnList()[%d] = %q, want %q", i, col, want[i])
		}
	}
}

func TestProjectionMapColumnLookup(t *testing.T) {
	p := testProjection()

	tests := []struct {
		name     string
		viewName string
		want     string
	}{
		{"mapped field", "title", "p.title"},
		{"mapped camel", "submittedAt", "p.submitted_at"},
		{"unmapped passthrough", "unknown", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Column(tt.viewName); got != tt.want {
				t.Errorf("Column(%q) = %q, want %q", tt.viewName, got, tt.want)
			}
		})
	}
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []query.SortField
	}{
		{
			name:  "empty string",
			input: "",
			want:  nil,
		},
		{
			name:  "single ascending",
			input: "title",
			want:  []query.SortField{{Field: "title", Descending: false}},
		},
		{
			name:  "single descending",
			input: "-submittedAt",
			want:  []query.SortField{{Field: "submittedAt", Descending: true}},
		},
		{
			name:  "multiple mixed",
			input: "title,-submittedAt",
			want: []query.SortField{
				{Field: "title", Descending: false},
				{Field: "submittedAt", Descending: true},
			},
		},
		{
			name:  "with spaces",
			input: " title , -submittedAt ",
			want: []query.SortField{
				{Field: "title", Descending: false},
				{Field: "submittedAt", Descending: true},
			},
		},
		{
			name:  "empty parts skipped",
			input: "title,,submittedAt",
			want: []query.SortField{
				{Field: "title", Descending: false},
				{Field: "submittedAt", Descending: false},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := query.ParseSortFields(tt.input)
			if tt.want == nil {
				if got != nil {
					t.Errorf("ParseSortFields(%q) = %v, want nil", tt.input, got)
				}
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseSortFields(%q) length = %d, want %d", tt.input, len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseSortFields(%q)[%d] = %v, want %v", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuilderBuild(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	sql, args := b.Build()

	wantSQL := "SELECT p.id, p.title, p.submitted_at FROM public.papers p"
	if sql != wantSQL {
		t.Errorf("Build() sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 0 {
		t.Errorf("Build() args = %v, want empty", args)
	}
}

func TestBuilderBuildCount(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	sql, args := b.BuildCount()

	wantSQL := "SELECT COUNT(*) FROM public.papers p"
	if sql != wantSQL {
		t.Errorf("BuildCount() sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 0 {
		t.Errorf("BuildCount() args = %v, want empty", args)
	}
}

func TestBuilderBuildPage(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p, query.SortField{Field: "submittedAt", Descending: true})
	sql, args := b.BuildPage(2, 10)

	wantSQL := "SELECT p.id, p.title, p.submitted_at FROM public.papers p ORDER BY p.submitted_at DESC LIMIT 10 OFFSET 10"
	if sql != wantSQL {
		t.Errorf("BuildPage() sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 0 {
		t.Errorf("BuildPage() args = %v, want empty", args)
	}
}

func TestBuilderBuildSingle(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	sql, args := b.BuildSingle("id", "abc-123")

	wantSQL := "SELECT p.id, p.title, p.submitted_at FROM public.papers p WHERE p.id = $1"
	if sql != wantSQL {
		t.Errorf("BuildSingle() sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 1 || args[0] != "abc-123" {
		t.Errorf("BuildSingle() args = %v, want [abc-123]", args)
	}
}

func TestBuilderBuildSingleOrNull(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereEquals("title", "On Prime Gaps")
	sql, args := b.BuildSingleOrNull()

	wantSQL := "SELECT p.id, p.title, p.submitted_at FROM public.papers p WHERE p.title = $1 LIMIT 1"
	if sql != wantSQL {
		t.Errorf("BuildSingleOrNull() sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 1 || args[0] != "On Prime Gaps" {
		t.Errorf("BuildSingleOrNull() args = %v, want [On Prime Gaps]", args)
	}
}

func TestBuilderWhereEquals(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereEquals("title", "On Prime Gaps")
	sql, args := b.Build()

	wantSQL := "SELECT p.id, p.title, p.submitted_at FROM public.papers p WHERE p.title = $1"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 1 || args[0] != "On Prime Gaps" {
		t.Errorf("args = %v, want [On Prime Gaps]", args)
	}
}

func TestBuilderWhereEqualsNilSkipped(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereEquals("title", nil)
	sql, args := b.Build()

	wantSQL := "SELECT p.id, p.title, p.submitted_at FROM public.papers p"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want empty", args)
	}
}

func TestBuilderWhereContains(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereContains("title", ptr("prime"))
	sql, args := b.Build()

	wantSQL := "SELECT p.id, p.title, p.submitted_at FROM public.papers p WHERE p.title ILIKE $1"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 1 || args[0] != "%prime%" {
		t.Errorf("args = %v, want [%%prime%%]", args)
	}
}

func TestBuilderWhereContainsNilSkipped(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereContains("title", nil)
	_, args := b.Build()

	if len(args) != 0 {
		t.Errorf("args = %v, want empty", args)
	}
}

func TestBuilderWhereContainsEmptySkipped(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereContains("title", ptr(""))
	_, args := b.Build()

	if len(args) != 0 {
		t.Errorf("args = %v, want empty", args)
	}
}

func TestBuilderWhereIn(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereIn("id", []any{"a", "b", "c"})
	sql, args := b.Build()

	wantSQL := "SELECT p.id, p.title, p.submitted_at FROM public.papers p WHERE p.id IN ($1, $2, $3)"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 3 {
		t.Errorf("args length = %d, want 3", len(args))
	}
}

func TestBuilderWhereInEmptySkipped(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereIn("id", []any{})
	_, args := b.Build()

	if len(args) != 0 {
		t.Errorf("args = %v, want empty", args)
	}
}

func TestBuilderWhereNullable(t *testing.T) {
	t.Run("nil value generates IS NULL", func(t *testing.T) {
		p := testProjection()
		b := query.NewBuilder(p)
		b.WhereNullable("title", nil)
		sql, args := b.Build()

		wantSQL := "SELECT p.id, p.title, p.submitted_at FROM public.papers p WHERE p.title IS NULL"
		if sql != wantSQL {
			t.Errorf("sql = %q, want %q", sql, wantSQL)
		}
		if len(args) != 0 {
			t.Errorf("args = %v, want empty", args)
		}
	})

	t.Run("non-nil value generates equals", func(t *testing.T) {
		p := testProjection()
		b := query.NewBuilder(p)
		b.WhereNullable("title", "On Prime Gaps")
		sql, args := b.Build()

		wantSQL := "SELECT p.id, p.title, p.submitted_at FROM public.papers p WHERE p.title = $1"
		if sql != wantSQL {
			t.Errorf("sql = %q, want %q", sql, wantSQL)
		}
		if len(args) != 1 || args[0] != "On Prime Gaps" {
			t.Errorf("args = %v, want [On Prime Gaps]", args)
		}
	})
}

func TestBuilderWhereSearch(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereSearch(ptr("prime"), "title", "id")
	sql, args := b.Build()

	wantSQL := "SELECT p.id, p.title, p.submitted_at FROM public.papers p WHERE (p.title ILIKE $1 OR p.id ILIKE $2)"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 2 || args[0] != "%prime%" || args[1] != "%prime%" {
		t.Errorf("args = %v, want [%%prime%% %%prime%%]", args)
	}
}

func TestBuilderWhereSearchNilSkipped(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereSearch(nil, "title")
	_, args := b.Build()

	if len(args) != 0 {
		t.Errorf("args = %v, want empty", args)
	}
}

func TestBuilderMultipleConditions(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereEquals("title", "On Prime Gaps")
	b.WhereContains("id", ptr("abc"))
	sql, args := b.Build()

	wantSQL := "SELECT p.id, p.title, p.submitted_at FROM public.papers p WHERE p.title = $1 AND p.id ILIKE $2"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 2 {
		t.Errorf("args length = %d, want 2", len(args))
	}
	if args[0] != "On Prime Gaps" {
		t.Errorf("args[0] = %v, want On Prime Gaps", args[0])
	}
	if args[1] != "%abc%" {
		t.Errorf("args[1] = %v, want %%abc%%", args[1])
	}
}

func TestBuilderOrderByFields(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p, query.SortField{Field: "id", Descending: false})
	b.OrderByFields([]query.SortField{
		{Field: "submittedAt", Descending: true},
		{Field: "title", Descending: false},
	})
	sql, _ := b.Build()

	wantSQL := "SELECT p.id, p.title, p.submitted_at FROM public.papers p ORDER BY p.submitted_at DESC, p.title ASC"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
}

func TestBuilderDefaultSort(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p, query.SortField{Field: "submittedAt", Descending: true})
	sql, _ := b.Build()

	wantSQL := "SELECT p.id, p.title, p.submitted_at FROM public.papers p ORDER BY p.submitted_at DESC"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
}

func TestBuilderBuildCountWithConditions(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p)
	b.WhereEquals("title", "On Prime Gaps")
	sql, args := b.BuildCount()

	wantSQL := "SELECT COUNT(*) FROM public.papers p WHERE p.title = $1"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 1 || args[0] != "On Prime Gaps" {
		t.Errorf("args = %v, want [On Prime Gaps]", args)
	}
}

func TestBuilderBuildPageWithConditions(t *testing.T) {
	p := testProjection()
	b := query.NewBuilder(p, query.SortField{Field: "id"})
	b.WhereContains("title", ptr("gaps"))
	sql, args := b.BuildPage(3, 25)

	wantSQL := "SELECT p.id, p.title, p.submitted_at FROM public.papers p WHERE p.title ILIKE $1 ORDER BY p.id ASC LIMIT 25 OFFSET 50"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 1 || args[0] != "%gaps%" {
		t.Errorf("args = %v, want [%%gaps%%]", args)
	}
}
