package filter

import (
	"fmt"
	"sort"
)

// Comparator identifies the comparison semantics of an operator.
type Comparator int

const (
	Equals Comparator = iota + 1
	EqualsFold
	NotEquals
	GreaterThan
	GreaterOrEqual
	LessThan
	LessOrEqual
	Like
	Contains
	ContainsFold
	NotContains
	NotContainsFold
	StartsWith
	StartsWithFold
	EndsWith
	EndsWithFold
	InList
	NotInList
	IsNull
	NotNull
	Between
	NotBetween
)

// Arity is the shape of the value an operator expects.
type Arity int

const (
	// Scalar is exactly one value without list syntax.
	Scalar Arity = iota + 1
	// List is one or more values given with list syntax.
	List
	// Range is exactly two values given with list syntax.
	Range
)

func (a Arity) String() string {
	switch a {
	case Scalar:
		return "scalar"
	case List:
		return "list"
	case Range:
		return "range"
	default:
		return fmt.Sprintf("Arity(%d)", int(a))
	}
}

// Operator tokens
const (
	OpEq           = "$eq"
	OpEqc          = "$eqc"
	OpNe           = "$ne"
	OpGt           = "$gt"
	OpGte          = "$gte"
	OpLt           = "$lt"
	OpLte          = "$lte"
	OpLike         = "$like"
	OpContains     = "$contains"
	OpContainsc    = "$containsc"
	OpNotContains  = "$notContains"
	OpNotContainsc = "$notContainsc"
	OpStartsWith   = "$startsWith"
	OpStartsWithc  = "$startsWithc"
	OpEndsWith     = "$endsWith"
	OpEndsWithc    = "$endsWithc"
	OpIn           = "$in"
	OpNotIn        = "$notIn"
	OpNull         = "$null"
	OpNotNull      = "$notNull"
	OpBetween      = "$between"
	OpNotBetween   = "$notBetween"
)

// OperatorSpec declares what an operator token means.
type OperatorSpec struct {
	Token      string
	Comparator Comparator
	Arity      Arity
}

// Registry is a read-only mapping of operator tokens.
type Registry struct {
	specs map[string]OperatorSpec
}

// DefaultRegistry holds the built-in operators.
var DefaultRegistry = MustRegistry(
	OperatorSpec{OpEq, Equals, Scalar},
	OperatorSpec{OpEqc, EqualsFold, Scalar},
	OperatorSpec{OpNe, NotEquals, Scalar},
	OperatorSpec{OpGt, GreaterThan, Scalar},
	OperatorSpec{OpGte, GreaterOrEqual, Scalar},
	OperatorSpec{OpLt, LessThan, Scalar},
	OperatorSpec{OpLte, LessOrEqual, Scalar},
	OperatorSpec{OpLike, Like, Scalar},
	OperatorSpec{OpContains, Contains, Scalar},
	OperatorSpec{OpContainsc, ContainsFold, Scalar},
	OperatorSpec{OpNotContains, NotContains, Scalar},
	OperatorSpec{OpNotContainsc, NotContainsFold, Scalar},
	OperatorSpec{OpStartsWith, StartsWith, Scalar},
	OperatorSpec{OpStartsWithc, StartsWithFold, Scalar},
	OperatorSpec{OpEndsWith, EndsWith, Scalar},
	OperatorSpec{OpEndsWithc, EndsWithFold, Scalar},
	OperatorSpec{OpIn, InList, List},
	OperatorSpec{OpNotIn, NotInList, List},
	OperatorSpec{OpNull, IsNull, Scalar},
	OperatorSpec{OpNotNull, NotNull, Scalar},
	OperatorSpec{OpBetween, Between, Range},
	OperatorSpec{OpNotBetween, NotBetween, Range},
)

// NewRegistry builds a registry. Tokens must be unique.
func NewRegistry(specs ...OperatorSpec) (*Registry, error) {
	r := &Registry{specs: make(map[string]OperatorSpec, len(specs))}
	for _, s := range specs {
		if s.Token == "" {
			return nil, fmt.Errorf("operator token is required")
		}
		if _, dup := r.specs[s.Token]; dup {
			return nil, fmt.Errorf("duplicate operator %s", s.Token)
		}
		r.specs[s.Token] = s
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error.
func MustRegistry(specs ...OperatorSpec) *Registry {
	r, err := NewRegistry(specs...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup resolves an operator token.
func (r *Registry) Lookup(token string) (OperatorSpec, error) {
	s, ok := r.specs[token]
	if !ok {
		return OperatorSpec{}, newError(ErrUnknownOperator, nil, token, "not registered")
	}
	return s, nil
}

// Tokens returns the registered tokens in sorted order.
func (r *Registry) Tokens() []string {
	tokens := make([]string, 0, len(r.specs))
	for t := range r.specs {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)
	return tokens
}
