package path

import (
	cerrors "github.com/conduit-lang/querymodel/internal/compiler/errors"
	"github.com/conduit-lang/querymodel/internal/orm/queryspace"
	"github.com/conduit-lang/querymodel/internal/orm/schema"
)

// FromClause is one scope of identification variables. A child clause, as
// used by a subquery, sees the aliases of its parents.
type FromClause struct {
	parent   *FromClause
	registry *schema.Registry
	spaces   *queryspace.QuerySpaces
	elements []*FromElement
	aliases  map[string]*FromElement
}

// NewFromClause creates a top-level from clause
func NewFromClause(registry *schema.Registry, spaces *queryspace.QuerySpaces) *FromClause {
	return &FromClause{
		registry: registry,
		spaces:   spaces,
		aliases:  make(map[string]*FromElement),
	}
}

// Child creates a nested scope
func (c *FromClause) Child() *FromClause {
	child := NewFromClause(c.registry, c.spaces)
	child.parent = c
	return child
}

// Parent returns the enclosing scope, nil at the top level
func (c *FromClause) Parent() *FromClause {
	return c.parent
}

// AddRoot adds an entity root with an optional alias
func (c *FromClause) AddRoot(entity, alias string) (*FromElement, error) {
	if _, ok := c.registry.Entity(entity); !ok {
		return nil, cerrors.NewUnknownPersister("entity", entity)
	}
	if alias != "" {
		if _, exists := c.Lookup(alias); exists {
			return nil, cerrors.NewDuplicateAlias(cerrors.Whole(alias), alias)
		}
	}

	space := c.spaces.MakeRootEntitySpace(c.spaceUID(alias), entity)
	binding := &Binding{path: alias, navType: schema.EntityType(entity), navigable: true}
	if binding.path == "" {
		binding.path = entity
	}

	fe := &FromElement{alias: alias, space: space, binding: binding, clause: c}
	binding.SetFromElement(fe)
	c.add(fe)
	return fe, nil
}

// Lookup finds an identification variable in this scope or an enclosing one
func (c *FromClause) Lookup(alias string) (*FromElement, bool) {
	for clause := c; clause != nil; clause = clause.parent {
		if fe, ok := clause.aliases[alias]; ok {
			return fe, true
		}
	}
	return nil, false
}

// Elements returns the roots and explicit joins of this scope in
// declaration order
func (c *FromClause) Elements() []*FromElement {
	out := make([]*FromElement, len(c.elements))
	copy(out, c.elements)
	return out
}

// exposing returns the first from-element whose type has the named
// attribute, searching this scope before enclosing ones
func (c *FromClause) exposing(attribute string) (*FromElement, bool) {
	for clause := c; clause != nil; clause = clause.parent {
		for _, fe := range clause.elements {
			mt, ok := fe.binding.ManagedType()
			if !ok {
				continue
			}
			if _, ok := c.registry.Attribute(mt, attribute); ok {
				return fe, true
			}
		}
	}
	return nil, false
}

func (c *FromClause) add(fe *FromElement) {
	c.elements = append(c.elements, fe)
	if fe.alias != "" {
		c.aliases[fe.alias] = fe
	}
}

// spaceUID uses the alias as uid unless it is empty or taken by a sibling scope
func (c *FromClause) spaceUID(alias string) string {
	if alias != "" {
		if _, taken := c.spaces.FindQuerySpaceByUID(alias); !taken {
			return alias
		}
	}
	return c.spaces.GenerateImplicitUID()
}
