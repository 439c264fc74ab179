package filter_test

import (
	"testing"

	"github.com/xcono/relfilter/schema"
)

// blogSchemas mirrors the tables created by setupTestDB.
func blogSchemas() schema.Schemas {
	return schema.Schemas{
		"posts": {
			Fields: schema.Fields{"id": {}, "title": {}, "user_id": {}},
			Relations: schema.Relations{
				"comments": {Kind: "hasMany", Schema: "comments", ForeignKey: "post_id"},
				"user":     {Kind: "belongsTo", Schema: "users"},
				"tags":     {Kind: "belongsToMany", Schema: "tags", Pivot: "post_tag", PivotLocalKey: "post_id", PivotForeignKey: "tag_id"},
			},
		},
		"comments": {
			Fields: schema.Fields{"id": {}, "post_id": {}, "content": {}, "author_id": {}},
			Relations: schema.Relations{
				"post":   {Kind: "belongsTo", Schema: "posts"},
				"author": {Kind: "belongsTo", Schema: "users", LocalKey: "author_id"},
			},
		},
		"users": {
			Fields: schema.Fields{"id": {}, "name": {}},
			Relations: schema.Relations{
				"posts": {Kind: "hasMany", Schema: "posts", ForeignKey: "user_id"},
			},
		},
		"tags": {
			Fields: schema.Fields{"id": {}, "name": {}},
		},
		"products": {
			Fields: schema.Fields{
				"id":   {},
				"name": {},
				// same name as the relation below
				"book": {Column: "book_title"},
			},
			Relations: schema.Relations{
				"book": {Kind: "hasOne", Schema: "books", ForeignKey: "product_id"},
			},
		},
		"books": {
			Fields: schema.Fields{"id": {}, "product_id": {}, "name": {}, "description": {}, "page_count": {}},
		},
	}
}

func newCatalog(t *testing.T) *schema.Catalog {
	t.Helper()
	c, err := schema.NewCatalog(blogSchemas())
	if err != nil {
		t.Fatalf("failed to build catalog: %v", err)
	}
	return c
}
