package completion_test

import (
	"strings"
	"testing"

	"github.com/rlch/hiveql/catalog"
	"github.com/rlch/hiveql/completion"
	"github.com/rlch/hiveql/facts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// complete runs the engine on input, where `|` marks the cursor.
func complete(t *testing.T, e *completion.Engine, input string) (string, completion.CompletionList) {
	t.Helper()

	offset := strings.IndexByte(input, '|')
	require.GreaterOrEqual(t, offset, 0, "input needs a cursor marker")

	text := input[:offset] + input[offset+1:]

	return text, e.Complete(text, offset)
}

func sampleEngine(opts ...completion.Option) *completion.Engine {
	return completion.NewEngine(catalog.NewSnapshot(catalog.Sample()), opts...)
}

type expected struct {
	label  string
	detail completion.Category
	result string
}

func TestEngine_Complete(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		// want lists candidates in order; the list must match exactly.
		want []expected
	}{
		{
			name:  "use",
			input: "use |",
			want: []expected{
				{"school", completion.CategoryDatabase, "use school"},
				{"library", completion.CategoryDatabase, "use library"},
				{"default", completion.CategoryKeyword, "use default"},
			},
		},
		{
			name:  "use partial database",
			input: "use sch|",
			want: []expected{
				{"school", completion.CategoryDatabase, "use school"},
				{"library", completion.CategoryDatabase, "use library"},
				{"default", completion.CategoryKeyword, "use default"},
			},
		},
		{
			name:  "from without use",
			input: "select * from |",
			want: []expected{
				{"school", completion.CategoryDatabase, "select * from school"},
				{"library", completion.CategoryDatabase, "select * from library"},
			},
		},
		{
			name:  "from after use",
			input: "use school; select * from |",
			want: []expected{
				{"student", completion.CategoryTable, "use school; select * from student"},
				{"course", completion.CategoryTable, "use school; select * from course"},
				{"school", completion.CategoryDatabase, "use school; select * from school"},
				{"library", completion.CategoryDatabase, "use school; select * from library"},
			},
		},
		{
			name:  "partial from target",
			input: "use school; select * from stu|",
			want: []expected{
				{"student", completion.CategoryTable, "use school; select * from student"},
				{"course", completion.CategoryTable, "use school; select * from course"},
				{"school", completion.CategoryDatabase, "use school; select * from school"},
				{"library", completion.CategoryDatabase, "use school; select * from library"},
			},
		},
		{
			name:  "qualified from target",
			input: "select * from school.|",
			want: []expected{
				{"student", completion.CategoryTable, "select * from school.student"},
				{"course", completion.CategoryTable, "select * from school.course"},
			},
		},
		{
			name:  "qualified column",
			input: "SELECT s.| FROM school.student s",
			want: []expected{
				{"id", completion.CategoryColumn, "SELECT s.id FROM school.student s"},
				{"sex", completion.CategoryColumn, "SELECT s.sex FROM school.student s"},
				{"age", completion.CategoryColumn, "SELECT s.age FROM school.student s"},
				{"name", completion.CategoryColumn, "SELECT s.name FROM school.student s"},
				{"*", completion.CategoryKeyword, "SELECT s.* FROM school.student s"},
			},
		},
		{
			name:  "qualified column without alias",
			input: "select student.| from school.student",
			want: []expected{
				{"id", completion.CategoryColumn, "select student.id from school.student"},
				{"sex", completion.CategoryColumn, "select student.sex from school.student"},
				{"age", completion.CategoryColumn, "select student.age from school.student"},
				{"name", completion.CategoryColumn, "select student.name from school.student"},
				{"*", completion.CategoryKeyword, "select student.* from school.student"},
			},
		},
		{
			name:  "qualified column through use",
			input: "use library; select b.| from book b",
			want: []expected{
				{"bookid", completion.CategoryColumn, "use library; select b.bookid from book b"},
				{"bookname", completion.CategoryColumn, "use library; select b.bookname from book b"},
				{"*", completion.CategoryKeyword, "use library; select b.* from book b"},
			},
		},
		{
			name:  "cte projection",
			input: "with s as (select id, name from school.student) select | from s",
			want: []expected{
				{"id", completion.CategoryColumn, "with s as (select id, name from school.student) select id from s"},
				{"name", completion.CategoryColumn, "with s as (select id, name from school.student) select name from s"},
				{"*", completion.CategoryKeyword, "with s as (select id, name from school.student) select * from s"},
			},
		},
		{
			name:  "cte wildcard keeps every column",
			input: "with b as (select * from library.book) select x.| from b x",
			want: []expected{
				{"bookid", completion.CategoryColumn, "with b as (select * from library.book) select x.bookid from b x"},
				{"bookname", completion.CategoryColumn, "with b as (select * from library.book) select x.bookname from b x"},
				{"*", completion.CategoryKeyword, "with b as (select * from library.book) select x.* from b x"},
			},
		},
		{
			name:  "nested cte",
			input: "with a as (select userid, password from library.user), b as (select userid from a) select | from b",
			want: []expected{
				{"userid", completion.CategoryColumn, "with a as (select userid, password from library.user), b as (select userid from a) select userid from b"},
				{"*", completion.CategoryKeyword, "with a as (select userid, password from library.user), b as (select userid from a) select * from b"},
			},
		},
		{
			name:  "cte names in from",
			input: "use school; with s as (select id from student) select * from |",
			want: []expected{
				{"s", completion.CategoryVariable, "use school; with s as (select id from student) select * from s"},
				{"student", completion.CategoryTable, "use school; with s as (select id from student) select * from student"},
				{"course", completion.CategoryTable, "use school; with s as (select id from student) select * from course"},
				{"school", completion.CategoryDatabase, "use school; with s as (select id from student) select * from school"},
				{"library", completion.CategoryDatabase, "use school; with s as (select id from student) select * from library"},
			},
		},
		{
			name:  "select list over join",
			input: "select | from library.user u join library.book b on u.userid = b.bookid",
			want: []expected{
				{"userid", completion.CategoryColumn, "select userid from library.user u join library.book b on u.userid = b.bookid"},
				{"password", completion.CategoryColumn, "select password from library.user u join library.book b on u.userid = b.bookid"},
				{"*", completion.CategoryKeyword, "select * from library.user u join library.book b on u.userid = b.bookid"},
				{"bookid", completion.CategoryColumn, "select bookid from library.user u join library.book b on u.userid = b.bookid"},
				{"bookname", completion.CategoryColumn, "select bookname from library.user u join library.book b on u.userid = b.bookid"},
			},
		},
		{
			name:  "dangling join",
			input: "use school; select * from student s join |",
			want: []expected{
				{"student", completion.CategoryTable, "use school; select * from student s join student"},
				{"course", completion.CategoryTable, "use school; select * from student s join course"},
				{"school", completion.CategoryDatabase, "use school; select * from student s join school"},
				{"library", completion.CategoryDatabase, "use school; select * from student s join library"},
			},
		},
		{
			name:  "qualified join target",
			input: "select * from school.student s join school.|",
			want: []expected{
				{"student", completion.CategoryTable, "select * from school.student s join school.student"},
				{"course", completion.CategoryTable, "select * from school.student s join school.course"},
			},
		},
		{
			name:  "use before semicolon",
			input: "use |;",
			want: []expected{
				{"school", completion.CategoryDatabase, "use school;"},
				{"library", completion.CategoryDatabase, "use library;"},
				{"default", completion.CategoryKeyword, "use default;"},
			},
		},
		{
			name:  "after table reference",
			input: "use school; select * from student s |",
			want: []expected{
				{"student", completion.CategoryTable, "use school; select * from student s student"},
				{"course", completion.CategoryTable, "use school; select * from student s course"},
				{"school", completion.CategoryDatabase, "use school; select * from student s school"},
				{"library", completion.CategoryDatabase, "use school; select * from student s library"},
			},
		},
		{
			name:  "top level tables of database",
			input: "school.|",
			want: []expected{
				{"student", completion.CategoryTable, "school.student"},
				{"course", completion.CategoryTable, "school.course"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			text, list := complete(t, sampleEngine(), tt.input)
			assert.False(t, list.IsIncomplete)

			got := make([]expected, len(list.Items))
			for i, item := range list.Items {
				got[i] = expected{item.Label, item.Detail, item.Apply(text)}
			}

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngine_TopLevel(t *testing.T) {
	t.Parallel()

	e := sampleEngine()
	set := facts.Default()

	inputs := []string{
		"u|", "|", "sel|", "select 1; |",
		// a keyword still being typed is not yet a context
		"use|", "select|",
		"use school;|", "use school; select * from student;|",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			t.Parallel()

			_, list := complete(t, e, input)
			require.Len(t, list.Items, len(set.Keywords)+len(set.Functions)+2)

			school, ok := list.Find("school")
			require.True(t, ok)
			assert.Equal(t, completion.CategoryDatabase, school.Detail)

			library, ok := list.Find("library")
			require.True(t, ok)
			assert.Equal(t, completion.CategoryDatabase, library.Detail)

			// keywords, then functions, then databases
			assert.Equal(t, completion.CategoryKeyword, list.Items[0].Detail)
			assert.Equal(t, "library", list.Items[len(list.Items)-1].Label)
		})
	}
}

func TestEngine_AfterSemicolon(t *testing.T) {
	t.Parallel()

	text, list := complete(t, sampleEngine(), "use school;|")
	require.NotEmpty(t, list.Items)

	for _, item := range list.Items {
		assert.Equal(t, completion.Span{Start: len(text), End: len(text)}, item.Span, item.Label)
	}

	first := list.Items[0]
	assert.Equal(t, "use school;"+first.Label, first.Apply(text))
}

func TestEngine_FunctionSnippet(t *testing.T) {
	t.Parallel()

	text, list := complete(t, sampleEngine(), "select cou|")

	count, ok := list.Find("count()")
	require.True(t, ok)
	assert.Equal(t, completion.CategoryFunction, count.Detail)
	assert.Equal(t, completion.FormatSnippet, count.Format)
	assert.Equal(t, "count($1)", count.InsertText)
	assert.Equal(t, "select count()", count.Apply(text))
	require.NotNil(t, count.Documentation)
	assert.Contains(t, *count.Documentation, "Syntax: ")
}

func TestEngine_SelectWithoutFrom(t *testing.T) {
	t.Parallel()

	_, list := complete(t, sampleEngine(), "select |")

	require.Len(t, list.Items, len(facts.Default().Functions))

	for _, item := range list.Items {
		assert.Equal(t, completion.CategoryFunction, item.Detail)
	}
}

func TestEngine_Misses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "unknown alias", input: "select z.| from school.student s"},
		{name: "unknown table", input: "select s.| from school.professor s"},
		{name: "unknown database", input: "select * from nowhere.|"},
		{name: "bare table without use", input: "select s.| from student s"},
		{name: "cte with two tables", input: "with c as (select * from school.student, school.course) select x.| from c x"},
		{name: "self referencing cte", input: "with c as (select * from c) select x.| from c x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, list := complete(t, sampleEngine(), tt.input)
			assert.Empty(t, list.Items)
		})
	}
}

func TestEngine_StatementBoundary(t *testing.T) {
	t.Parallel()

	_, list := complete(t, sampleEngine(), "use library; select * from |; use school;")

	assert.Equal(t, []string{"user", "book", "school", "library"}, list.Labels())
}

func TestEngine_DottedSpanStartsAfterDot(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"SELECT s.| FROM school.student s",
		"SELECT s.na| FROM school.student s",
		"select * from school.|",
		"select * from school.stu|",
		"school.|",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			t.Parallel()

			text, list := complete(t, sampleEngine(), input)
			require.NotEmpty(t, list.Items)

			dot := strings.LastIndexByte(text[:strings.IndexByte(input, '|')], '.')
			for _, item := range list.Items {
				assert.Equal(t, dot+1, item.Span.Start, item.Label)
			}
		})
	}
}

func TestEngine_Idempotent(t *testing.T) {
	t.Parallel()

	e := sampleEngine()

	text, list := complete(t, e, "SELECT s.| FROM school.student s")

	name, ok := list.Find("name")
	require.True(t, ok)

	applied := name.Apply(text)
	require.Equal(t, "SELECT s.name FROM school.student s", applied)

	// Completing again at the end of the inserted column only rewrites the
	// column, never the qualifier.
	cursor := strings.Index(applied, "name") + len("name")
	again := e.Complete(applied, cursor)
	require.NotEmpty(t, again.Items)

	id, ok := again.Find("id")
	require.True(t, ok)
	assert.Equal(t, "SELECT s.id FROM school.student s", id.Apply(applied))

	for _, item := range again.Items {
		assert.NotContains(t, item.Apply(applied), "s.s.")
	}
}

func TestEngine_NoDuplicates(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"u|",
		"use |",
		"select | from school.student, school.student",
		"select | from school.student a join school.student b",
		"use school; select * from |",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			t.Parallel()

			_, list := complete(t, sampleEngine(), input)

			type key struct {
				label  string
				detail completion.Category
				span   completion.Span
			}

			seen := make(map[key]string)

			for _, item := range list.Items {
				k := key{item.Label, item.Detail, item.Span}
				if insert, ok := seen[k]; ok {
					assert.Equal(t, insert, item.InsertText, "conflicting duplicate %q", item.Label)
				}

				seen[k] = item.InsertText
			}
		})
	}
}

func TestEngine_QualifiedTablePolicy(t *testing.T) {
	t.Parallel()

	e := sampleEngine(completion.WithQualifiedTablePolicy(completion.TablesAndDatabases))

	_, list := complete(t, e, "select * from school.|")
	assert.Equal(t, []string{"student", "course", "school", "library"}, list.Labels())

	assert.Equal(t, completion.TablesAndDatabases, completion.ParsePolicy("tables_and_databases"))
	assert.Equal(t, completion.TablesOnly, completion.ParsePolicy("tables_only"))
	assert.Equal(t, completion.TablesOnly, completion.ParsePolicy("bogus"))
}

func TestEngine_Override(t *testing.T) {
	t.Parallel()

	e := sampleEngine()
	override := catalog.NewSnapshot([]catalog.Database{{Name: "warehouse"}})

	text := "use "
	doc := completion.NewDocument(text)
	pos := doc.PositionAt(len(text))

	list := e.DoComplete(doc, pos, completion.ParseProgram(text), override)
	assert.Equal(t, []string{"warehouse", "default"}, list.Labels())

	// the engine's own catalog is untouched
	list = e.DoComplete(doc, pos, nil, nil)
	assert.Equal(t, []string{"school", "library", "default"}, list.Labels())
}

func TestEngine_StoreSwap(t *testing.T) {
	t.Parallel()

	store := catalog.NewStore(nil, catalog.Sample())
	e := completion.NewEngine(store)

	_, list := complete(t, e, "select * from |")
	assert.Equal(t, []string{"school", "library"}, list.Labels())

	store.Set([]catalog.Database{{Name: "sales"}})

	_, list = complete(t, e, "select * from |")
	assert.Equal(t, []string{"sales"}, list.Labels())
}

func TestEngine_NilProvider(t *testing.T) {
	t.Parallel()

	e := completion.NewEngine(nil)

	_, list := complete(t, e, "select * from |")
	assert.Empty(t, list.Items)

	_, list = complete(t, e, "use |")
	assert.Equal(t, []string{"default"}, list.Labels())
}
