package dbseed

import (
	"database/sql"
	"testing"

	"github.com/huandu/go-sqlbuilder"
)

type table struct {
	name    string
	columns [][]string
	cols    []string
	rows    [][]interface{}
}

// blog is the data set shared by every dialect.
//
// Post 1 has two comments and the Laravel tag. Post 2 has one comment by Bob
// and the Go tag. Post 3 has no user. Product 1 has a single matching book,
// product 2 has two books that each match one condition only.
var blog = []table{
	{
		name:    "users",
		columns: [][]string{{"id", "INTEGER", "PRIMARY KEY"}, {"name", "VARCHAR(255)", "NOT NULL"}},
		cols:    []string{"id", "name"},
		rows:    [][]interface{}{{1, "Alice"}, {2, "Bob"}},
	},
	{
		name:    "posts",
		columns: [][]string{{"id", "INTEGER", "PRIMARY KEY"}, {"title", "VARCHAR(255)", "NOT NULL"}, {"user_id", "INTEGER"}},
		cols:    []string{"id", "title", "user_id"},
		rows: [][]interface{}{
			{1, "laravel purity is the best", 1},
			{2, "go is fun", 2},
			{3, "untouched", nil},
		},
	},
	{
		name: "comments",
		columns: [][]string{
			{"id", "INTEGER", "PRIMARY KEY"}, {"post_id", "INTEGER"}, {"content", "VARCHAR(255)"}, {"author_id", "INTEGER"},
		},
		cols: []string{"id", "post_id", "content", "author_id"},
		rows: [][]interface{}{
			{1, 1, "first comment", 1},
			{2, 1, "second comment", 1},
			{3, 2, "first comment", 2},
		},
	},
	{
		name:    "tags",
		columns: [][]string{{"id", "INTEGER", "PRIMARY KEY"}, {"name", "VARCHAR(255)", "NOT NULL"}},
		cols:    []string{"id", "name"},
		rows:    [][]interface{}{{1, "Laravel"}, {2, "Go"}},
	},
	{
		name:    "post_tag",
		columns: [][]string{{"post_id", "INTEGER", "NOT NULL"}, {"tag_id", "INTEGER", "NOT NULL"}},
		cols:    []string{"post_id", "tag_id"},
		rows:    [][]interface{}{{1, 1}, {2, 2}},
	},
	{
		name:    "products",
		columns: [][]string{{"id", "INTEGER", "PRIMARY KEY"}, {"name", "VARCHAR(255)", "NOT NULL"}},
		cols:    []string{"id", "name"},
		rows:    [][]interface{}{{1, "Laravel Purity"}, {2, "Laravel Purity"}},
	},
	{
		name: "books",
		columns: [][]string{
			{"id", "INTEGER", "PRIMARY KEY"}, {"product_id", "INTEGER"}, {"name", "VARCHAR(255)"},
			{"description", "VARCHAR(255)"}, {"page_count", "INTEGER"},
		},
		cols: []string{"id", "product_id", "name", "description", "page_count"},
		rows: [][]interface{}{
			{1, 1, "book", "book for product", 100},
			{2, 2, "book", "book for product", 200},
			{3, 2, "book2", "book2 for product2", 100},
		},
	},
}

// SeedBlog creates the blog tables and inserts the shared data set
func SeedBlog(t *testing.T, db *sql.DB, flavor sqlbuilder.Flavor) {
	t.Helper()

	for _, tbl := range blog {
		ctb := sqlbuilder.NewCreateTableBuilder()
		ctb.CreateTable(tbl.name).IfNotExists()
		for _, def := range tbl.columns {
			ctb.Define(def...)
		}
		query, _ := ctb.BuildWithFlavor(flavor)
		if _, err := db.Exec(query); err != nil {
			t.Fatalf("Failed to create table %s: %v", tbl.name, err)
		}

		if _, err := db.Exec("DELETE FROM " + tbl.name); err != nil {
			t.Fatalf("Failed to clean table %s: %v", tbl.name, err)
		}

		ib := sqlbuilder.NewInsertBuilder()
		ib.InsertInto(tbl.name).Cols(tbl.cols...)
		for _, row := range tbl.rows {
			ib.Values(row...)
		}
		query, args := ib.BuildWithFlavor(flavor)
		if _, err := db.Exec(query, args...); err != nil {
			t.Fatalf("Failed to seed table %s: %v", tbl.name, err)
		}
	}

	t.Logf("Seeded %d tables", len(blog))
}
