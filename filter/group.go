package filter

import (
	"fmt"
	"strings"

	"github.com/xcono/relfilter/schema"
)

// Condition is a resolved comparison on a field of the group's entity.
type Condition struct {
	Field    string
	Operator OperatorSpec
	Values   []string
}

// Group holds the conditions that must hold for one row of its entity,
// plus one child group per relation followed from that row.
// The root group has no relation.
type Group struct {
	Relation   string
	Kind       schema.RelationKind
	Entity     string
	Conditions []Condition
	Children   []*Group

	children map[string]*Group
}

// NewGroup creates the root group of an entity.
func NewGroup(entity string) *Group {
	return &Group{Entity: entity}
}

// Child returns the child group of a relation, or nil.
func (g *Group) Child(relation string) *Group {
	return g.children[relation]
}

// Empty reports whether the group and all of its children hold no condition.
func (g *Group) Empty() bool {
	if len(g.Conditions) > 0 {
		return false
	}
	for _, c := range g.Children {
		if !c.Empty() {
			return false
		}
	}
	return true
}

// Add places a condition into the group reached by following hops,
// creating intermediate groups on demand.
func (g *Group) Add(hops []Hop, c Condition) {
	target := g
	for _, h := range hops {
		target = target.child(h)
	}
	target.Conditions = append(target.Conditions, c)
}

func (g *Group) child(h Hop) *Group {
	if c, ok := g.children[h.Relation]; ok {
		return c
	}
	if g.children == nil {
		g.children = make(map[string]*Group)
	}
	c := &Group{Relation: h.Relation, Kind: h.Kind, Entity: h.Entity}
	g.children[h.Relation] = c
	g.Children = append(g.Children, c)
	return c
}

// String renders the tree, one group per line.
func (g *Group) String() string {
	var b strings.Builder
	g.write(&b, 0)
	return b.String()
}

func (g *Group) write(b *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	if g.Relation == "" {
		fmt.Fprintf(b, "%s%s\n", indent, g.Entity)
	} else {
		fmt.Fprintf(b, "%s%s (%s %s)\n", indent, g.Relation, g.Kind, g.Entity)
	}
	for _, c := range g.Conditions {
		fmt.Fprintf(b, "%s  %s %s %v\n", indent, c.Field, c.Operator.Token, c.Values)
	}
	for _, c := range g.Children {
		c.write(b, depth+1)
	}
}
