package filter_test

import (
	"errors"
	"testing"

	"github.com/xcono/relfilter/filter"
)

func TestRegistryLookup(t *testing.T) {
	tt := []struct {
		token      string
		comparator filter.Comparator
		arity      filter.Arity
	}{
		{"$eq", filter.Equals, filter.Scalar},
		{"$ne", filter.NotEquals, filter.Scalar},
		{"$gt", filter.GreaterThan, filter.Scalar},
		{"$gte", filter.GreaterOrEqual, filter.Scalar},
		{"$lt", filter.LessThan, filter.Scalar},
		{"$lte", filter.LessOrEqual, filter.Scalar},
		{"$like", filter.Like, filter.Scalar},
		{"$contains", filter.Contains, filter.Scalar},
		{"$in", filter.InList, filter.List},
		{"$notIn", filter.NotInList, filter.List},
		{"$null", filter.IsNull, filter.Scalar},
		{"$between", filter.Between, filter.Range},
	}

	for _, tc := range tt {
		t.Run(tc.token, func(t *testing.T) {
			spec, err := filter.DefaultRegistry.Lookup(tc.token)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if spec.Token != tc.token {
				t.Errorf("expected token %s, got %s", tc.token, spec.Token)
			}
			if spec.Comparator != tc.comparator {
				t.Errorf("expected comparator %d, got %d", tc.comparator, spec.Comparator)
			}
			if spec.Arity != tc.arity {
				t.Errorf("expected arity %s, got %s", tc.arity, spec.Arity)
			}
		})
	}
}

func TestRegistryUnknownOperator(t *testing.T) {
	for _, token := range []string{"$equals", "eq", "", "$EQ"} {
		_, err := filter.DefaultRegistry.Lookup(token)
		if !errors.Is(err, filter.ErrUnknownOperator) {
			t.Errorf("%q: expected ErrUnknownOperator, got %v", token, err)
		}
	}
}

func TestNewRegistry(t *testing.T) {
	r, err := filter.NewRegistry(filter.OperatorSpec{Token: "$is", Comparator: filter.Equals, Arity: filter.Scalar})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Lookup("$is"); err != nil {
		t.Errorf("expected $is to be registered: %v", err)
	}
	if _, err := r.Lookup("$eq"); err == nil {
		t.Errorf("expected $eq to be unknown in a custom registry")
	}

	_, err = filter.NewRegistry(
		filter.OperatorSpec{Token: "$is", Comparator: filter.Equals, Arity: filter.Scalar},
		filter.OperatorSpec{Token: "$is", Comparator: filter.NotEquals, Arity: filter.Scalar},
	)
	if err == nil {
		t.Errorf("expected duplicate token error")
	}
}

func TestRegistryTokensSorted(t *testing.T) {
	tokens := filter.DefaultRegistry.Tokens()
	if len(tokens) == 0 {
		t.Fatal("expected tokens")
	}
	for i := 1; i < len(tokens); i++ {
		if tokens[i-1] >= tokens[i] {
			t.Fatalf("tokens not sorted: %v", tokens)
		}
	}
}
