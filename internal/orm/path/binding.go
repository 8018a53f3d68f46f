// Package path resolves dotted attribute paths such as "p.author.address.city"
// against a from clause, creating or reusing joins in the query-space graph.
package path

import (
	cerrors "github.com/conduit-lang/querymodel/internal/compiler/errors"
	"github.com/conduit-lang/querymodel/internal/orm/queryspace"
	"github.com/conduit-lang/querymodel/internal/orm/schema"
)

// Binding is the resolved meaning of one path segment. The source and
// attribute are fixed at construction; the exported from-element is filled
// in at most once, when the binding is realized as a join.
type Binding struct {
	source    *Binding
	attribute *schema.Attribute
	path      string
	navType   schema.ManagedType
	navigable bool
	treats    []string
	from      *FromElement
}

// Source returns the parent binding, nil for a root
func (b *Binding) Source() *Binding { return b.source }

// Attribute returns the navigated attribute, nil for a root
func (b *Binding) Attribute() *schema.Attribute { return b.attribute }

// Path returns the path text that produced this binding
func (b *Binding) Path() string { return b.path }

// Treats returns the subtype downcasts applied to this binding, outermost last
func (b *Binding) Treats() []string {
	out := make([]string, len(b.treats))
	copy(out, b.treats)
	return out
}

// ManagedType returns the type a path continues into from this binding.
// Basic and any-typed attributes have none.
func (b *Binding) ManagedType() (schema.ManagedType, bool) {
	return b.navType, b.navigable
}

// FromElement returns the from-element the binding was realized as
func (b *Binding) FromElement() (*FromElement, bool) {
	return b.from, b.from != nil
}

// IsJoined reports whether the binding has been realized as a from-element
func (b *Binding) IsJoined() bool {
	return b.from != nil
}

// Join returns the join that realized the binding, nil for roots and
// unjoined attribute references
func (b *Binding) Join() *queryspace.Join {
	if b.from == nil {
		return nil
	}
	return b.from.join
}

// SetFromElement assigns the exported from-element. Assigning twice is a
// programming error and panics.
func (b *Binding) SetFromElement(fe *FromElement) {
	if b.from != nil {
		panic(cerrors.NewFromElementReassigned(b.path))
	}
	b.from = fe
}

// prefix is the text paths continuing from b start with: the alias of an
// identification variable, the full path otherwise
func (b *Binding) prefix() string {
	if b.from != nil && b.from.alias != "" && b.from.binding == b {
		return b.from.alias
	}
	return b.path
}

// String returns the path text, with applied treats
func (b *Binding) String() string {
	s := b.path
	for _, t := range b.treats {
		s = "treat(" + s + " as " + t + ")"
	}
	return s
}

// FromElement is a query space exposed to path resolution, either a root
// or a join. Aliased from-elements are identification variables.
type FromElement struct {
	alias     string
	space     *queryspace.QuerySpace
	join      *queryspace.Join
	binding   *Binding
	clause    *FromClause
	treatedAs string
}

// Alias returns the identification variable, empty for implicit joins
func (fe *FromElement) Alias() string { return fe.alias }

// Space returns the query space the element exposes
func (fe *FromElement) Space() *queryspace.QuerySpace { return fe.space }

// Join returns the join that created the element, nil for roots
func (fe *FromElement) Join() *queryspace.Join { return fe.join }

// Binding returns the binding paths starting at this element navigate from
func (fe *FromElement) Binding() *Binding { return fe.binding }

// Clause returns the from clause the element belongs to
func (fe *FromElement) Clause() *FromClause { return fe.clause }

// TreatedAs returns the subtype of a treat alias, empty otherwise
func (fe *FromElement) TreatedAs() string { return fe.treatedAs }

// IsRoot reports whether the element is a from-clause root
func (fe *FromElement) IsRoot() bool { return fe.join == nil }
