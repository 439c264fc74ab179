package schema

import "fmt"

// RelationKind is the closed set of supported relation shapes.
type RelationKind int

const (
	// HasOne: the related row holds a key pointing at this row; at most one.
	HasOne RelationKind = iota + 1
	// HasMany: the related rows hold a key pointing at this row.
	HasMany
	// BelongsTo: this row holds a key pointing at the related row.
	BelongsTo
	// BelongsToMany: rows are linked through a pivot table.
	BelongsToMany
)

// Cardinality of a relation hop.
type Cardinality int

const (
	ToOne Cardinality = iota + 1
	ToMany
)

var relationKindNames = map[RelationKind]string{
	HasOne:        "hasOne",
	HasMany:       "hasMany",
	BelongsTo:     "belongsTo",
	BelongsToMany: "belongsToMany",
}

// ParseRelationKind parses a configured relation kind.
func ParseRelationKind(s string) (RelationKind, error) {
	for kind, name := range relationKindNames {
		if name == s {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown relation kind %q", s)
}

func (k RelationKind) String() string {
	if name, ok := relationKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("RelationKind(%d)", int(k))
}

// Cardinality reports whether following the relation yields one or many rows.
func (k RelationKind) Cardinality() Cardinality {
	switch k {
	case HasMany, BelongsToMany:
		return ToMany
	default:
		return ToOne
	}
}

// Link carries the join keys of a resolved relation.
//
// The related row R is correlated with the parent row P by
// R.ForeignKey = P.LocalKey, except for BelongsToMany where the pivot row J
// satisfies J.PivotLocalKey = P.LocalKey and J.PivotForeignKey = R.ForeignKey.
type Link struct {
	Kind            RelationKind
	Entity          string
	Table           string
	LocalKey        string
	ForeignKey      string
	Pivot           string
	PivotLocalKey   string
	PivotForeignKey string
}

// newLink applies key defaults for the relation kind.
// Defaults follow the <table>_id naming convention.
func newLink(name, parentTable, relatedEntity, relatedTable string, r Relation) (Link, error) {
	kind, err := ParseRelationKind(r.Kind)
	if err != nil {
		return Link{}, err
	}

	l := Link{
		Kind:            kind,
		Entity:          relatedEntity,
		Table:           relatedTable,
		LocalKey:        r.LocalKey,
		ForeignKey:      r.ForeignKey,
		Pivot:           r.Pivot,
		PivotLocalKey:   r.PivotLocalKey,
		PivotForeignKey: r.PivotForeignKey,
	}

	switch kind {
	case HasOne, HasMany:
		l.LocalKey = orDefault(l.LocalKey, "id")
		l.ForeignKey = orDefault(l.ForeignKey, parentTable+"_id")
	case BelongsTo:
		l.LocalKey = orDefault(l.LocalKey, name+"_id")
		l.ForeignKey = orDefault(l.ForeignKey, "id")
	case BelongsToMany:
		if l.Pivot == "" {
			return Link{}, fmt.Errorf("relation %s: pivot table is required for %s", name, kind)
		}
		l.LocalKey = orDefault(l.LocalKey, "id")
		l.ForeignKey = orDefault(l.ForeignKey, "id")
		l.PivotLocalKey = orDefault(l.PivotLocalKey, parentTable+"_id")
		l.PivotForeignKey = orDefault(l.PivotForeignKey, relatedTable+"_id")
	}

	return l, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
