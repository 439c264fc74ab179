package filter_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/xcono/relfilter/filter"
	"github.com/xcono/relfilter/schema"
)

func TestResolve(t *testing.T) {
	r := filter.NewResolver(newCatalog(t))

	tt := []struct {
		name     string
		entity   string
		segments []string
		expected filter.ResolvedPath
	}{
		{
			name:     "base field",
			entity:   "posts",
			segments: []string{"title"},
			expected: filter.ResolvedPath{Field: "title"},
		},
		{
			name:     "has many",
			entity:   "posts",
			segments: []string{"comments", "content"},
			expected: filter.ResolvedPath{
				Hops:  []filter.Hop{{Relation: "comments", Kind: schema.HasMany, Entity: "comments"}},
				Field: "content",
			},
		},
		{
			name:     "two hops",
			entity:   "posts",
			segments: []string{"comments", "author", "name"},
			expected: filter.ResolvedPath{
				Hops: []filter.Hop{
					{Relation: "comments", Kind: schema.HasMany, Entity: "comments"},
					{Relation: "author", Kind: schema.BelongsTo, Entity: "users"},
				},
				Field: "name",
			},
		},
		{
			name:     "terminal name that is also a relation is a field",
			entity:   "products",
			segments: []string{"book"},
			expected: filter.ResolvedPath{Field: "book"},
		},
		{
			name:     "non-terminal name that is also a field is a relation",
			entity:   "products",
			segments: []string{"book", "page_count"},
			expected: filter.ResolvedPath{
				Hops:  []filter.Hop{{Relation: "book", Kind: schema.HasOne, Entity: "books"}},
				Field: "page_count",
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			rp, err := r.Resolve(tc.entity, tc.segments)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(rp, tc.expected) {
				t.Errorf("expected %+v, got %+v", tc.expected, rp)
			}
		})
	}
}

func TestResolveUnresolved(t *testing.T) {
	r := filter.NewResolver(newCatalog(t))

	tt := []struct {
		name     string
		entity   string
		segments []string
	}{
		{"empty path", "posts", nil},
		{"unknown entity", "invoices", []string{"id"}},
		{"unknown field", "posts", []string{"body"}},
		{"unknown relation", "posts", []string{"likes", "id"}},
		{"terminal relation", "posts", []string{"comments"}},
		{"field used as hop", "posts", []string{"title", "id"}},
		{"unknown nested field", "posts", []string{"comments", "title"}},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.Resolve(tc.entity, tc.segments)
			if !errors.Is(err, filter.ErrUnresolvedPath) {
				t.Fatalf("expected ErrUnresolvedPath, got %v", err)
			}
			var ferr *filter.Error
			if !errors.As(err, &ferr) {
				t.Fatalf("expected *filter.Error, got %T", err)
			}
			if !reflect.DeepEqual(ferr.Path, tc.segments) {
				t.Errorf("expected path %v, got %v", tc.segments, ferr.Path)
			}
		})
	}
}
