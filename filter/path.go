package filter

import (
	"github.com/xcono/relfilter/schema"
)

// Hop is one traversal from an entity to a related entity.
type Hop struct {
	Relation string
	Kind     schema.RelationKind
	Entity   string
}

// ResolvedPath is zero or more relation hops followed by a field.
type ResolvedPath struct {
	Hops  []Hop
	Field string
}

// Resolver resolves path segments against a schema descriptor.
type Resolver struct {
	schema schema.Descriptor
}

// NewResolver creates a new path resolver
func NewResolver(s schema.Descriptor) *Resolver {
	return &Resolver{schema: s}
}

// Resolve walks segments left to right starting at entity.
// A non-terminal segment must be a relation, the terminal one a field.
func (r *Resolver) Resolve(entity string, segments []string) (ResolvedPath, error) {
	if len(segments) == 0 {
		return ResolvedPath{}, newError(ErrUnresolvedPath, segments, "", "empty path")
	}
	if !r.schema.HasEntity(entity) {
		return ResolvedPath{}, newError(ErrUnresolvedPath, segments, "", "unknown entity %q", entity)
	}

	var rp ResolvedPath
	current := entity
	last := len(segments) - 1

	for i, seg := range segments {
		if i < last {
			if !r.schema.HasRelation(current, seg) {
				return ResolvedPath{}, newError(ErrUnresolvedPath, segments, "", "%q is not a relation of %s", seg, current)
			}
			next := r.schema.RelatedEntity(current, seg)
			rp.Hops = append(rp.Hops, Hop{
				Relation: seg,
				Kind:     r.schema.RelationKind(current, seg),
				Entity:   next,
			})
			current = next
			continue
		}

		if r.schema.HasField(current, seg) {
			rp.Field = seg
			return rp, nil
		}
		if r.schema.HasRelation(current, seg) {
			return ResolvedPath{}, newError(ErrUnresolvedPath, segments, "", "%q is a relation of %s, expected a field", seg, current)
		}
		return ResolvedPath{}, newError(ErrUnresolvedPath, segments, "", "%q is not a field of %s", seg, current)
	}

	return rp, nil
}
