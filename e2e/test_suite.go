package e2e

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/xcono/relfilter/e2e/compare"
	"github.com/xcono/relfilter/e2e/dbseed"
	"github.com/xcono/relfilter/schema"
	"github.com/xcono/relfilter/web"
)

// BlogSchemas describes the seeded tables. Fields are loaded from the database.
func BlogSchemas() schema.Schemas {
	return schema.Schemas{
		"posts": {
			Relations: schema.Relations{
				"comments": {Kind: "hasMany", Schema: "comments", ForeignKey: "post_id"},
				"user":     {Kind: "belongsTo", Schema: "users"},
				"tags":     {Kind: "belongsToMany", Schema: "tags", Pivot: "post_tag", PivotLocalKey: "post_id", PivotForeignKey: "tag_id"},
			},
		},
		"comments": {
			Relations: schema.Relations{
				"post":   {Kind: "belongsTo", Schema: "posts"},
				"author": {Kind: "belongsTo", Schema: "users", LocalKey: "author_id"},
			},
		},
		"users": {
			Relations: schema.Relations{"posts": {Kind: "hasMany", Schema: "posts", ForeignKey: "user_id"}},
		},
		"tags": {},
		"products": {
			Relations: schema.Relations{"book": {Kind: "hasOne", Schema: "books", ForeignKey: "product_id"}},
		},
		"books": {},
	}
}

// TestCase is a filter request and the ids of the rows it must return
type TestCase struct {
	Name   string
	Entity string
	Query  url.Values
	Status int
	IDs    []string
}

// TestCases run against every dialect with the same expectations
var TestCases = []TestCase{
	{Name: "no filters", Entity: "posts", IDs: []string{"1", "2", "3"}},
	{
		Name: "has many", Entity: "posts",
		Query: url.Values{"filters[comments][content][$eq]": {"second comment"}},
		IDs:   []string{"1"},
	},
	{
		Name: "belongs to", Entity: "posts",
		Query: url.Values{"filters[user][name][$eq]": {"Bob"}},
		IDs:   []string{"2"},
	},
	{
		Name: "belongs to many", Entity: "posts",
		Query: url.Values{"filters[tags][name][$eq]": {"Laravel"}},
		IDs:   []string{"1"},
	},
	{
		Name: "has one", Entity: "products",
		Query: url.Values{"filters[book][name][$eq]": {"book"}},
		IDs:   []string{"1", "2"},
	},
	{
		Name: "same relation scoped to one row", Entity: "products",
		Query: url.Values{
			"filters[book][name][$eq]":       {"book"},
			"filters[book][page_count][$eq]": {"100"},
		},
		IDs: []string{"1"},
	},
	{
		Name: "no single row matches", Entity: "products",
		Query: url.Values{
			"filters[book][name][$eq]":       {"book2"},
			"filters[book][page_count][$eq]": {"200"},
		},
		IDs: []string{},
	},
	{
		Name: "nested relation", Entity: "posts",
		Query: url.Values{"filters[comments][author][name][$eq]": {"Bob"}},
		IDs:   []string{"2"},
	},
	{
		Name: "reverse relation", Entity: "users",
		Query: url.Values{"filters[posts][comments][content][$startsWith]": {"second"}},
		IDs:   []string{"1"},
	},
	{
		Name: "sibling relations", Entity: "posts",
		Query: url.Values{
			"filters[comments][content][$eq]": {"first comment"},
			"filters[tags][name][$eq]":        {"Go"},
		},
		IDs: []string{"2"},
	},
	{
		Name: "list operator", Entity: "books",
		Query: url.Values{"filters[page_count][$in][]": {"100", "300"}},
		IDs:   []string{"1", "3"},
	},
	{
		Name: "range operator", Entity: "books",
		Query: url.Values{"filters[page_count][$between][]": {"150", "250"}},
		IDs:   []string{"2"},
	},
	{
		Name: "case insensitive", Entity: "posts",
		Query: url.Values{"filters[title][$containsc]": {"PURITY"}},
		IDs:   []string{"1"},
	},
	{
		Name: "null", Entity: "posts",
		Query: url.Values{"filters[user_id][$null]": {"true"}},
		IDs:   []string{"3"},
	},
	{
		Name: "unknown operator", Entity: "posts",
		Query:  url.Values{"filters[comments][content][$equal]": {"x"}},
		Status: http.StatusBadRequest,
	},
	{
		Name: "unknown relation", Entity: "posts",
		Query:  url.Values{"filters[likes][id][$eq]": {"1"}},
		Status: http.StatusBadRequest,
	},
}

// TestSuite serves one seeded database
type TestSuite struct {
	db      *sql.DB
	service *web.Service
	server  *httptest.Server
}

// NewTestSuite seeds the database behind dsn and starts a server for it.
// The seeding connection stays open so in-memory databases survive.
func NewTestSuite(t *testing.T, dsn string) *TestSuite {
	db, driver, err := schema.OpenDB(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to %s: %v", dsn, err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping %s: %v", driver, err)
	}
	dbseed.SeedBlog(t, db, schema.Flavor(driver))

	svc, err := web.OpenService(context.Background(), schema.Service{DSN: dsn, Schemas: BlogSchemas()})
	if err != nil {
		db.Close()
		t.Fatalf("Failed to open service: %v", err)
	}

	return &TestSuite{
		db:      db,
		service: svc,
		server:  httptest.NewServer(web.NewHandler(svc, schema.Config{})),
	}
}

// Close cleans up the test suite
func (ts *TestSuite) Close() {
	if ts.server != nil {
		ts.server.Close()
	}
	if ts.service != nil {
		ts.service.DB.Close()
	}
	if ts.db != nil {
		ts.db.Close()
	}
}

// Query requests entity with the given filters
func (ts *TestSuite) Query(t *testing.T, entity string, query url.Values) compare.Response {
	u := ts.server.URL + "/" + entity
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return queryAPI(t, u)
}

// RunTestCase runs a single test case
func (ts *TestSuite) RunTestCase(t *testing.T, tc TestCase) {
	t.Run(tc.Name, func(t *testing.T) {
		status := tc.Status
		if status == 0 {
			status = http.StatusOK
		}

		expected := compare.Response{StatusCode: status, Data: idRows(tc.IDs)}
		actual := ts.Query(t, tc.Entity, tc.Query)
		if err := compare.CompareResponses(expected, actual); err != nil {
			t.Errorf("Response mismatch for %s %s: %v", tc.Entity, tc.Query.Encode(), err)
		}
	})
}

// RunTestCases runs multiple test cases
func (ts *TestSuite) RunTestCases(t *testing.T, testCases []TestCase) {
	for _, tc := range testCases {
		ts.RunTestCase(t, tc)
	}
}

func idRows(ids []string) []map[string]string {
	rows := make([]map[string]string, len(ids))
	for i, id := range ids {
		rows[i] = map[string]string{"id": id}
	}
	return rows
}

func queryAPI(t *testing.T, url string) compare.Response {
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("Failed to query %s: %v", url, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	var data interface{}
	json.Unmarshal(body, &data)

	return compare.Response{
		Data:       data,
		StatusCode: resp.StatusCode,
		Total:      resp.Header.Get("X-Total-Count"),
	}
}
