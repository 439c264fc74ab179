package filter_test

import (
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/huandu/go-sqlbuilder"
	"github.com/xcono/relfilter/filter"
)

func compileValues(t *testing.T, entity string, params url.Values) (string, []interface{}) {
	t.Helper()
	c := newCatalog(t)

	root, err := filter.NewParser(c, nil).ParseValues(entity, params)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	sb, err := filter.NewCompiler(c).Select(root)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return sb.BuildWithFlavor(sqlbuilder.MySQL)
}

func TestCompileBaseConditions(t *testing.T) {
	sql, args := compileValues(t, "posts", url.Values{
		"filters[title][$eq]": {"laravel purity is the best"},
	})

	expected := "SELECT t1.* FROM posts AS t1 WHERE t1.title = ?"
	if sql != expected {
		t.Errorf("expected SQL %q, got %q", expected, sql)
	}
	if !reflect.DeepEqual(args, []interface{}{"laravel purity is the best"}) {
		t.Errorf("unexpected args %v", args)
	}
}

func TestCompileRelationExists(t *testing.T) {
	sql, args := compileValues(t, "posts", url.Values{
		"filters[comments][content][$eq]": {"first comment"},
	})

	expected := "SELECT t1.* FROM posts AS t1 WHERE EXISTS (SELECT 1 FROM comments AS t2 WHERE t2.post_id = t1.id AND t2.content = ?)"
	if sql != expected {
		t.Errorf("expected SQL %q, got %q", expected, sql)
	}
	if !reflect.DeepEqual(args, []interface{}{"first comment"}) {
		t.Errorf("unexpected args %v", args)
	}
}

func TestCompileSameRelationSharesOneExists(t *testing.T) {
	sql, args := compileValues(t, "products", url.Values{
		"filters[book][name][$eq]":       {"book"},
		"filters[book][page_count][$eq]": {"100"},
	})

	if n := strings.Count(sql, "EXISTS"); n != 1 {
		t.Fatalf("expected a single EXISTS, got %d in %s", n, sql)
	}
	if !strings.Contains(sql, "WHERE t2.product_id = t1.id AND t2.name = ? AND t2.page_count = ?") {
		t.Errorf("expected both conditions inside the book subquery, got %s", sql)
	}
	if !reflect.DeepEqual(args, []interface{}{"book", "100"}) {
		t.Errorf("unexpected args %v", args)
	}
}

func TestCompileDifferentRelationsScopedIndependently(t *testing.T) {
	sql, _ := compileValues(t, "posts", url.Values{
		"filters[comments][content][$eq]": {"first comment"},
		"filters[tags][name][$eq]":        {"Laravel"},
	})

	if n := strings.Count(sql, "EXISTS"); n != 2 {
		t.Fatalf("expected 2 EXISTS, got %d in %s", n, sql)
	}
	for _, fragment := range []string{
		"FROM comments AS t2 WHERE t2.post_id = t1.id",
		"FROM tags AS t3 JOIN post_tag AS t4 ON t4.tag_id = t3.id WHERE t4.post_id = t1.id AND t3.name = ?",
	} {
		if !strings.Contains(sql, fragment) {
			t.Errorf("expected %q in %s", fragment, sql)
		}
	}
}

func TestCompileRelationKinds(t *testing.T) {
	tt := []struct {
		name     string
		entity   string
		params   url.Values
		fragment string
	}{
		{
			name:     "has one",
			entity:   "products",
			params:   url.Values{"filters[book][name][$eq]": {"book"}},
			fragment: "FROM books AS t2 WHERE t2.product_id = t1.id AND t2.name = ?",
		},
		{
			name:     "belongs to",
			entity:   "posts",
			params:   url.Values{"filters[user][name][$eq]": {"Test"}},
			fragment: "FROM users AS t2 WHERE t2.id = t1.user_id AND t2.name = ?",
		},
		{
			name:     "belongs to many",
			entity:   "posts",
			params:   url.Values{"filters[tags][name][$eq]": {"Laravel"}},
			fragment: "FROM tags AS t2 JOIN post_tag AS t3 ON t3.tag_id = t2.id WHERE t3.post_id = t1.id AND t2.name = ?",
		},
		{
			name:     "nested",
			entity:   "posts",
			params:   url.Values{"filters[comments][author][name][$eq]": {"Test"}},
			fragment: "FROM comments AS t2 WHERE t2.post_id = t1.id AND EXISTS (SELECT 1 FROM users AS t3 WHERE t3.id = t2.author_id AND t3.name = ?)",
		},
		{
			name:     "field shadowing a relation",
			entity:   "products",
			params:   url.Values{"filters[book][$eq]": {"title"}},
			fragment: "WHERE t1.book_title = ?",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			sql, _ := compileValues(t, tc.entity, tc.params)
			if !strings.Contains(sql, tc.fragment) {
				t.Errorf("expected %q in %s", tc.fragment, sql)
			}
		})
	}
}

func TestCompileOperators(t *testing.T) {
	tt := []struct {
		name     string
		params   url.Values
		fragment string
		args     []interface{}
	}{
		{"ne", url.Values{"filters[title][$ne]": {"a"}}, "t1.title <> ?", []interface{}{"a"}},
		{"gt", url.Values{"filters[id][$gt]": {"1"}}, "t1.id > ?", []interface{}{"1"}},
		{"gte", url.Values{"filters[id][$gte]": {"1"}}, "t1.id >= ?", []interface{}{"1"}},
		{"lt", url.Values{"filters[id][$lt]": {"1"}}, "t1.id < ?", []interface{}{"1"}},
		{"lte", url.Values{"filters[id][$lte]": {"1"}}, "t1.id <= ?", []interface{}{"1"}},
		{"eqc", url.Values{"filters[title][$eqc]": {"A"}}, "LOWER(t1.title) = LOWER(?)", []interface{}{"A"}},
		{"like", url.Values{"filters[title][$like]": {"a_c"}}, "t1.title LIKE ?", []interface{}{"a_c"}},
		{"contains", url.Values{"filters[title][$contains]": {"pur"}}, "t1.title LIKE ?", []interface{}{"%pur%"}},
		{"contains fold", url.Values{"filters[title][$containsc]": {"PUR"}}, "LOWER(t1.title) LIKE LOWER(?)", []interface{}{"%PUR%"}},
		{"not contains fold", url.Values{"filters[title][$notContainsc]": {"PUR"}}, "LOWER(t1.title) NOT LIKE LOWER(?)", []interface{}{"%PUR%"}},
		{"not contains", url.Values{"filters[title][$notContains]": {"pur"}}, "t1.title NOT LIKE ?", []interface{}{"%pur%"}},
		{"starts with", url.Values{"filters[title][$startsWith]": {"lar"}}, "t1.title LIKE ?", []interface{}{"lar%"}},
		{"ends with", url.Values{"filters[title][$endsWith]": {"best"}}, "t1.title LIKE ?", []interface{}{"%best"}},
		{"starts with fold", url.Values{"filters[title][$startsWithc]": {"LAR"}}, "LOWER(t1.title) LIKE LOWER(?)", []interface{}{"LAR%"}},
		{"ends with fold", url.Values{"filters[title][$endsWithc]": {"BEST"}}, "LOWER(t1.title) LIKE LOWER(?)", []interface{}{"%BEST"}},
		{"in", url.Values{"filters[id][$in][]": {"1", "2"}}, "t1.id IN (?, ?)", []interface{}{"1", "2"}},
		{"not in", url.Values{"filters[id][$notIn][]": {"1"}}, "t1.id NOT IN (?)", []interface{}{"1"}},
		{"null", url.Values{"filters[user_id][$null]": {"true"}}, "t1.user_id IS NULL", nil},
		{"null false", url.Values{"filters[user_id][$null]": {"false"}}, "t1.user_id IS NOT NULL", nil},
		{"not null", url.Values{"filters[user_id][$notNull]": {"true"}}, "t1.user_id IS NOT NULL", nil},
		{"between", url.Values{"filters[id][$between][0]": {"1"}, "filters[id][$between][1]": {"9"}}, "t1.id BETWEEN ? AND ?", []interface{}{"1", "9"}},
		{"not between", url.Values{"filters[id][$notBetween][]": {"1", "9"}}, "t1.id NOT BETWEEN ? AND ?", []interface{}{"1", "9"}},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			sql, args := compileValues(t, "posts", tc.params)
			if !strings.Contains(sql, tc.fragment) {
				t.Errorf("expected %q in %s", tc.fragment, sql)
			}
			if len(args) != len(tc.args) || (len(args) > 0 && !reflect.DeepEqual(args, tc.args)) {
				t.Errorf("expected args %v, got %v", tc.args, args)
			}
		})
	}
}

func TestCompileIdempotent(t *testing.T) {
	c := newCatalog(t)
	root, err := filter.NewParser(c, nil).ParseValues("posts", url.Values{
		"filters[title][$contains]":            {"purity"},
		"filters[comments][content][$eq]":      {"first comment"},
		"filters[comments][author][name][$eq]": {"Test"},
		"filters[tags][name][$in][]":           {"Laravel", "Go"},
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	compiler := filter.NewCompiler(c)
	first, err := compiler.Select(root)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	second, err := compiler.Select(root)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	sql1, args1 := first.BuildWithFlavor(sqlbuilder.PostgreSQL)
	sql2, args2 := second.BuildWithFlavor(sqlbuilder.PostgreSQL)
	if sql1 != sql2 || !reflect.DeepEqual(args1, args2) {
		t.Errorf("expected identical queries:\n%s %v\n%s %v", sql1, args1, sql2, args2)
	}
	if !strings.Contains(sql1, "$5") {
		t.Errorf("expected nested placeholders to be numbered across subqueries, got %s", sql1)
	}
}

func TestCompileOntoExistingQuery(t *testing.T) {
	c := newCatalog(t)
	root, err := filter.NewParser(c, nil).ParseValues("posts", url.Values{
		"filters[comments][content][$eq]": {"first comment"},
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("p.id").From("posts AS p")
	if err := filter.NewCompiler(c).Compile(root, sb, "p"); err != nil {
		t.Fatalf("compile: %v", err)
	}

	sql, _ := sb.BuildWithFlavor(sqlbuilder.MySQL)
	if !strings.Contains(sql, "FROM comments AS t1 WHERE t1.post_id = p.id") {
		t.Errorf("expected subquery correlated with p, got %s", sql)
	}
}

func TestCompileEmptyGroup(t *testing.T) {
	c := newCatalog(t)
	sb, err := filter.NewCompiler(c).Select(filter.NewGroup("posts"))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	sql, args := sb.BuildWithFlavor(sqlbuilder.MySQL)
	if sql != "SELECT t1.* FROM posts AS t1" || len(args) != 0 {
		t.Errorf("unexpected query %s %v", sql, args)
	}
}

func TestCompileUnknownEntity(t *testing.T) {
	_, err := filter.NewCompiler(newCatalog(t)).Select(filter.NewGroup("invoices"))
	if err == nil {
		t.Fatal("expected error for unknown entity")
	}
}
