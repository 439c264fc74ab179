package filter

import (
	"fmt"

	"github.com/huandu/go-sqlbuilder"
	"github.com/xcono/relfilter/schema"
)

// Compiler turns a group tree into SQL predicates.
//
// Conditions of the root group are applied directly to the base query.
// Every child group becomes a single correlated EXISTS subquery holding all
// of the group's conditions and, recursively, its own children. All
// conditions of one group are therefore checked against the same related row.
type Compiler struct {
	schema schema.Descriptor
}

// NewCompiler creates a new query compiler
func NewCompiler(s schema.Descriptor) *Compiler {
	return &Compiler{schema: s}
}

// Select builds `SELECT t1.* FROM <table> AS t1` for the root entity
// and compiles the group onto it.
func (c *Compiler) Select(root *Group) (*sqlbuilder.SelectBuilder, error) {
	table := c.schema.Table(root.Entity)
	if table == "" {
		return nil, newError(ErrUnresolvedPath, nil, "", "unknown entity %q", root.Entity)
	}

	aliases := newAliasManager()
	alias := aliases.alias("")

	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(alias + ".*")
	sb.From(fmt.Sprintf("%s AS %s", table, alias))

	if err := c.compileGroup(sb, root, alias, "", aliases); err != nil {
		return nil, err
	}
	return sb, nil
}

// Compile applies the group to a query whose root table is aliased as alias.
func (c *Compiler) Compile(root *Group, sb *sqlbuilder.SelectBuilder, alias string) error {
	aliases := newAliasManager()
	aliases.reserve("", alias)
	return c.compileGroup(sb, root, alias, "", aliases)
}

func (c *Compiler) compileGroup(sb *sqlbuilder.SelectBuilder, g *Group, alias, scope string, aliases *aliasManager) error {
	for _, cond := range g.Conditions {
		expr, err := c.condition(sb, g.Entity, alias, cond)
		if err != nil {
			return err
		}
		sb.Where(expr)
	}

	for _, child := range g.Children {
		sub, err := c.subquery(g.Entity, alias, scope, child, aliases)
		if err != nil {
			return err
		}
		sb.Where(sb.Exists(sub))
	}

	return nil
}

// subquery builds the existence check of one relation group.
func (c *Compiler) subquery(parent, parentAlias, scope string, g *Group, aliases *aliasManager) (*sqlbuilder.SelectBuilder, error) {
	link, ok := c.schema.Link(parent, g.Relation)
	if !ok {
		return nil, newError(ErrUnresolvedPath, []string{g.Relation}, "", "%q is not a relation of %s", g.Relation, parent)
	}

	if scope != "" {
		scope += "."
	}
	scope += g.Relation
	alias := aliases.alias(scope)

	sub := sqlbuilder.NewSelectBuilder()
	sub.Select("1")
	sub.From(fmt.Sprintf("%s AS %s", link.Table, alias))

	switch link.Kind {
	case schema.HasOne, schema.HasMany, schema.BelongsTo:
		// related.fk = parent.id, or owner.id = parent.fk for belongsTo; Link resolves the roles
		sub.Where(fmt.Sprintf("%s.%s = %s.%s", alias, link.ForeignKey, parentAlias, link.LocalKey))
	case schema.BelongsToMany:
		pivot := aliases.alias(scope + "#pivot")
		sub.Join(
			fmt.Sprintf("%s AS %s", link.Pivot, pivot),
			fmt.Sprintf("%s.%s = %s.%s", pivot, link.PivotForeignKey, alias, link.ForeignKey),
		)
		sub.Where(fmt.Sprintf("%s.%s = %s.%s", pivot, link.PivotLocalKey, parentAlias, link.LocalKey))
	default:
		return nil, fmt.Errorf("relation %s: unsupported kind %s", g.Relation, link.Kind)
	}

	if err := c.compileGroup(sub, g, alias, scope, aliases); err != nil {
		return nil, err
	}
	return sub, nil
}

// condition renders one comparison on alias.column.
func (c *Compiler) condition(sb *sqlbuilder.SelectBuilder, entity, alias string, cond Condition) (string, error) {
	column := c.schema.Column(entity, cond.Field)
	if column == "" {
		return "", newError(ErrUnresolvedPath, []string{cond.Field}, cond.Operator.Token, "%q is not a field of %s", cond.Field, entity)
	}
	col := alias + "." + column

	if len(cond.Values) == 0 {
		return "", newError(ErrValueArityMismatch, []string{cond.Field}, cond.Operator.Token, "no value")
	}
	v := cond.Values[0]

	switch cond.Operator.Comparator {
	case Equals:
		return sb.EQ(col, v), nil
	case EqualsFold:
		return fmt.Sprintf("LOWER(%s) = LOWER(%s)", col, sb.Var(v)), nil
	case NotEquals:
		return sb.NE(col, v), nil
	case GreaterThan:
		return sb.GT(col, v), nil
	case GreaterOrEqual:
		return sb.GE(col, v), nil
	case LessThan:
		return sb.LT(col, v), nil
	case LessOrEqual:
		return sb.LE(col, v), nil
	case Like:
		return sb.Like(col, v), nil
	case Contains:
		return sb.Like(col, "%"+v+"%"), nil
	case ContainsFold:
		return foldLike(sb, col, "%"+v+"%", false), nil
	case NotContains:
		return sb.NotLike(col, "%"+v+"%"), nil
	case NotContainsFold:
		return foldLike(sb, col, "%"+v+"%", true), nil
	case StartsWith:
		return sb.Like(col, v+"%"), nil
	case StartsWithFold:
		return foldLike(sb, col, v+"%", false), nil
	case EndsWith:
		return sb.Like(col, "%"+v), nil
	case EndsWithFold:
		return foldLike(sb, col, "%"+v, false), nil
	case InList:
		return sb.In(col, args(cond.Values)...), nil
	case NotInList:
		return sb.NotIn(col, args(cond.Values)...), nil
	case IsNull, NotNull:
		// the boolean value flips the test
		if (cond.Operator.Comparator == IsNull) == (v == "true") {
			return sb.IsNull(col), nil
		}
		return sb.IsNotNull(col), nil
	case Between, NotBetween:
		if len(cond.Values) != 2 {
			return "", newError(ErrValueArityMismatch, []string{cond.Field}, cond.Operator.Token, "expected two bounds, got %d", len(cond.Values))
		}
		if cond.Operator.Comparator == Between {
			return sb.Between(col, cond.Values[0], cond.Values[1]), nil
		}
		return sb.NotBetween(col, cond.Values[0], cond.Values[1]), nil
	default:
		return "", newError(ErrUnknownOperator, []string{cond.Field}, cond.Operator.Token, "no comparator")
	}
}

// foldLike lowers both sides so the match ignores case on every dialect.
func foldLike(sb *sqlbuilder.SelectBuilder, col, pattern string, not bool) string {
	op := "LIKE"
	if not {
		op = "NOT LIKE"
	}
	return fmt.Sprintf("LOWER(%s) %s LOWER(%s)", col, op, sb.Var(pattern))
}

func args(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
