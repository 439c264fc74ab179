// Package filter compiles nested query-string filters such as
// filters[comments][content][$eq]=x into SQL predicates.
package filter

import (
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/xcono/relfilter/schema"
)

// DefaultParam is the query parameter that carries filters.
const DefaultParam = "filters"

// Token is a raw (path, operator, values) triple taken from the parameters.
// List is set when the values were given with list syntax.
type Token struct {
	Path     []string
	Operator string
	Values   []string
	List     bool
}

// Params maps a dotted path to operator tokens and their values.
type Params map[string]map[string][]string

// Parser turns filter parameters into a group tree.
type Parser struct {
	// Param is the name of the filters parameter, "filters" by default.
	Param string

	registry *Registry
	resolver *Resolver
}

// NewParser creates a new filter parser. A nil registry uses DefaultRegistry.
func NewParser(s schema.Descriptor, registry *Registry) *Parser {
	if registry == nil {
		registry = DefaultRegistry
	}
	return &Parser{
		Param:    DefaultParam,
		registry: registry,
		resolver: NewResolver(s),
	}
}

// ParseValues tokenizes URL values and parses the tokens.
func (p *Parser) ParseValues(entity string, values url.Values) (*Group, error) {
	tokens, err := Tokenize(p.Param, values)
	if err != nil {
		return nil, p.unknownOperator(err)
	}
	return p.Parse(entity, tokens)
}

// unknownOperator reports a malformed key whose operator is not registered
// as an unknown operator, e.g. the logical group form filters[$or][0][...].
func (p *Parser) unknownOperator(err error) error {
	var ferr *Error
	if !errors.As(err, &ferr) || ferr.Kind != ErrMalformedParameter || ferr.Operator == "" {
		return err
	}
	if _, lerr := p.registry.Lookup(ferr.Operator); lerr == nil {
		return err
	}
	return newError(ErrUnknownOperator, ferr.Path, ferr.Operator, "not registered")
}

// ParseParams parses the dotted-path form.
// Values of list and range operators are always taken as lists.
func (p *Parser) ParseParams(entity string, params Params) (*Group, error) {
	var tokens []Token
	for path, ops := range params {
		segments, err := splitPath(path)
		if err != nil {
			return nil, err
		}
		for op, values := range ops {
			list := len(values) != 1
			if spec, err := p.registry.Lookup(op); err == nil && spec.Arity != Scalar {
				list = true
			}
			tokens = append(tokens, Token{Path: segments, Operator: op, Values: values, List: list})
		}
	}
	sortTokens(tokens)
	return p.Parse(entity, tokens)
}

// Parse resolves every token and folds it into the group of its relation path.
// The first error aborts parsing.
func (p *Parser) Parse(entity string, tokens []Token) (*Group, error) {
	root := NewGroup(entity)

	for _, t := range tokens {
		spec, err := p.registry.Lookup(t.Operator)
		if err != nil {
			return nil, newError(ErrUnknownOperator, t.Path, t.Operator, "not registered")
		}

		rp, err := p.resolver.Resolve(entity, t.Path)
		if err != nil {
			return nil, err
		}

		values, err := checkValues(spec, t)
		if err != nil {
			return nil, err
		}

		root.Add(rp.Hops, Condition{
			Field:    rp.Field,
			Operator: spec,
			Values:   values,
		})
	}

	return root, nil
}

// checkValues validates arity and normalizes boolean values of null checks.
func checkValues(spec OperatorSpec, t Token) ([]string, error) {
	n := len(t.Values)

	switch spec.Arity {
	case Scalar:
		if t.List || n != 1 {
			return nil, newError(ErrValueArityMismatch, t.Path, t.Operator, "expected a single value, got %d", n)
		}
	case List:
		if !t.List || n == 0 {
			return nil, newError(ErrValueArityMismatch, t.Path, t.Operator, "expected a list of values")
		}
	case Range:
		if !t.List || n != 2 {
			return nil, newError(ErrValueArityMismatch, t.Path, t.Operator, "expected two bounds, got %d", n)
		}
	}

	if spec.Comparator == IsNull || spec.Comparator == NotNull {
		b, err := strconv.ParseBool(t.Values[0])
		if err != nil {
			return nil, newError(ErrInvalidValue, t.Path, t.Operator, "expected a boolean, got %q", t.Values[0])
		}
		return []string{strconv.FormatBool(b)}, nil
	}

	return t.Values, nil
}

// pending accumulates the values of one (path, operator) pair.
type pending struct {
	path    []string
	op      string
	scalar  []string
	indexed map[int][]string
	appends []string
	list    bool
}

// Tokenize extracts tokens from keys of the form
//
//	param[seg][seg][$op]=v
//	param[seg.seg][$op]=v
//	param[seg][$op][]=v
//	param[seg][$op][0]=v
//
// Keys not starting with param are ignored. Tokens are sorted by path and operator.
func Tokenize(param string, values url.Values) ([]Token, error) {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	byKey := make(map[string]*pending)
	var order []string

	for _, key := range keys {
		if key != param && !strings.HasPrefix(key, param+"[") {
			continue
		}

		segments, err := splitKey(key, param)
		if err != nil {
			return nil, err
		}

		opAt := -1
		for i, seg := range segments {
			if strings.HasPrefix(seg, "$") {
				opAt = i
				break
			}
		}
		if opAt < 0 {
			return nil, newError(ErrMalformedParameter, segments, "", "missing operator in %q", key)
		}

		var path []string
		for _, seg := range segments[:opAt] {
			parts, err := splitPath(seg)
			if err != nil {
				return nil, err
			}
			path = append(path, parts...)
		}
		op := segments[opAt]
		suffix := segments[opAt+1:]
		if len(suffix) > 1 {
			return nil, newError(ErrMalformedParameter, path, op, "unexpected segments after operator in %q", key)
		}

		id := strings.Join(path, ".") + " " + op
		pd, ok := byKey[id]
		if !ok {
			pd = &pending{path: path, op: op}
			byKey[id] = pd
			order = append(order, id)
		}

		switch {
		case len(suffix) == 0:
			pd.scalar = append(pd.scalar, values[key]...)
		case suffix[0] == "":
			pd.list = true
			pd.appends = append(pd.appends, values[key]...)
		default:
			idx, err := strconv.Atoi(suffix[0])
			if err != nil || idx < 0 {
				return nil, newError(ErrMalformedParameter, path, op, "invalid list index %q", suffix[0])
			}
			pd.list = true
			if pd.indexed == nil {
				pd.indexed = make(map[int][]string)
			}
			pd.indexed[idx] = append(pd.indexed[idx], values[key]...)
		}
	}

	tokens := make([]Token, 0, len(order))
	for _, id := range order {
		pd := byKey[id]
		if pd.list && len(pd.scalar) > 0 {
			return nil, newError(ErrMalformedParameter, pd.path, pd.op, "mixed scalar and list values")
		}

		t := Token{Path: pd.path, Operator: pd.op, List: pd.list}
		if !pd.list {
			t.Values = pd.scalar
		} else {
			indexes := make([]int, 0, len(pd.indexed))
			for idx := range pd.indexed {
				indexes = append(indexes, idx)
			}
			sort.Ints(indexes)
			for _, idx := range indexes {
				t.Values = append(t.Values, pd.indexed[idx]...)
			}
			t.Values = append(t.Values, pd.appends...)
		}
		tokens = append(tokens, t)
	}

	sortTokens(tokens)
	return tokens, nil
}

// splitKey returns the bracketed segments of param[a][b]...
func splitKey(key, param string) ([]string, error) {
	rest := key[len(param):]
	if rest == "" {
		return nil, newError(ErrMalformedParameter, nil, "", "%q has no path", key)
	}

	var segments []string
	for rest != "" {
		if rest[0] != '[' {
			return nil, newError(ErrMalformedParameter, segments, "", "unexpected %q in %q", rest, key)
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, newError(ErrMalformedParameter, segments, "", "unbalanced brackets in %q", key)
		}
		seg := rest[1:end]
		if strings.ContainsRune(seg, '[') {
			return nil, newError(ErrMalformedParameter, segments, "", "unbalanced brackets in %q", key)
		}
		segments = append(segments, seg)
		rest = rest[end+1:]
	}

	return segments, nil
}

// splitPath splits a dotted path segment.
func splitPath(path string) ([]string, error) {
	parts := strings.Split(path, ".")
	for _, part := range parts {
		if part == "" {
			return nil, newError(ErrUnresolvedPath, parts, "", "empty path segment")
		}
	}
	return parts, nil
}

func sortTokens(tokens []Token) {
	sort.SliceStable(tokens, func(i, j int) bool {
		pi, pj := strings.Join(tokens[i].Path, "."), strings.Join(tokens[j].Path, ".")
		if pi != pj {
			return pi < pj
		}
		return tokens[i].Operator < tokens[j].Operator
	})
}
