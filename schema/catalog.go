package schema

import (
	"context"
	"fmt"
	"sort"
)

// Descriptor reports which fields and relations exist and how to join them.
// Implementations must be safe for concurrent reads.
type Descriptor interface {
	HasEntity(entity string) bool
	HasField(entity, name string) bool
	HasRelation(entity, name string) bool
	RelationKind(entity, name string) RelationKind
	RelatedEntity(entity, name string) string
	Table(entity string) string
	Column(entity, field string) string
	Link(entity, relation string) (Link, bool)
}

type entity struct {
	table     string
	columns   map[string]string
	relations map[string]Link
}

// Catalog is a Descriptor built from configured schemas.
type Catalog struct {
	entities map[string]*entity
}

var _ Descriptor = (*Catalog)(nil)

// NewCatalog validates schemas and resolves relation key defaults.
func NewCatalog(schemas Schemas) (*Catalog, error) {
	c := &Catalog{entities: make(map[string]*entity, len(schemas))}

	for name, s := range schemas {
		e := &entity{
			table:     s.TableName(name),
			columns:   make(map[string]string, len(s.Fields)),
			relations: make(map[string]Link, len(s.Relations)),
		}
		for field, f := range s.Fields {
			e.columns[field] = orDefault(f.Column, field)
		}
		c.entities[name] = e
	}

	for name, s := range schemas {
		e := c.entities[name]
		for relName, r := range s.Relations {
			related, ok := schemas[r.Schema]
			if !ok {
				return nil, fmt.Errorf("schema %s: relation %s: unknown schema %q", name, relName, r.Schema)
			}
			link, err := newLink(relName, e.table, r.Schema, related.TableName(r.Schema), r)
			if err != nil {
				return nil, fmt.Errorf("schema %s: %w", name, err)
			}
			e.relations[relName] = link
		}
	}

	return c, nil
}

// Load fills the fields of every entity that has none configured
// with the columns reported by the database.
func (c *Catalog) Load(ctx context.Context, db Database) error {
	var tables []string
	byTable := make(map[string][]*entity)
	for _, e := range c.entities {
		if len(e.columns) > 0 {
			continue
		}
		if _, seen := byTable[e.table]; !seen {
			tables = append(tables, e.table)
		}
		byTable[e.table] = append(byTable[e.table], e)
	}
	if len(tables) == 0 {
		return nil
	}
	sort.Strings(tables)

	loaded, err := db.Tables(ctx, tables...)
	if err != nil {
		return fmt.Errorf("failed to load columns: %w", err)
	}

	for _, t := range loaded {
		if len(t.Columns) == 0 {
			return fmt.Errorf("table %s has no columns", t.Name)
		}
		for _, e := range byTable[t.Name] {
			for _, col := range t.Columns {
				e.columns[col.Name] = col.Name
			}
		}
	}

	return nil
}

// Entities returns the sorted entity names.
func (c *Catalog) Entities() []string {
	names := make([]string, 0, len(c.entities))
	for name := range c.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fields returns the sorted field names of an entity.
func (c *Catalog) Fields(entity string) []string {
	e, ok := c.entities[entity]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(e.columns))
	for name := range e.columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasEntity reports whether the entity is configured.
func (c *Catalog) HasEntity(entity string) bool {
	_, ok := c.entities[entity]
	return ok
}

// HasField reports whether name is a field of entity.
func (c *Catalog) HasField(entity, name string) bool {
	e, ok := c.entities[entity]
	if !ok {
		return false
	}
	_, ok = e.columns[name]
	return ok
}

// HasRelation reports whether name is a relation of entity.
func (c *Catalog) HasRelation(entity, name string) bool {
	_, ok := c.Link(entity, name)
	return ok
}

// RelationKind returns zero when the relation is unknown.
func (c *Catalog) RelationKind(entity, name string) RelationKind {
	l, _ := c.Link(entity, name)
	return l.Kind
}

// RelatedEntity returns the entity a relation points to, empty when unknown.
func (c *Catalog) RelatedEntity(entity, name string) string {
	l, _ := c.Link(entity, name)
	return l.Entity
}

// Table returns the table of an entity, empty when unknown.
func (c *Catalog) Table(entity string) string {
	if e, ok := c.entities[entity]; ok {
		return e.table
	}
	return ""
}

// Column returns the column behind a field, empty when unknown.
func (c *Catalog) Column(entity, field string) string {
	if e, ok := c.entities[entity]; ok {
		return e.columns[field]
	}
	return ""
}

// Link returns the join keys of a relation.
func (c *Catalog) Link(entity, relation string) (Link, bool) {
	e, ok := c.entities[entity]
	if !ok {
		return Link{}, false
	}
	l, ok := e.relations[relation]
	return l, ok
}
