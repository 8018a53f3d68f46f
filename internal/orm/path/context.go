package path

import (
	cerrors "github.com/conduit-lang/querymodel/internal/compiler/errors"
	"github.com/conduit-lang/querymodel/internal/orm/queryspace"
)

// TerminalPolicy decides whether the last segment of a path becomes a join
type TerminalPolicy int

const (
	// TerminalAttribute never joins the terminal segment
	TerminalAttribute TerminalPolicy = iota
	// TerminalAssociation joins terminal segments whose type is joinable
	TerminalAssociation
	// TerminalJoin always joins the terminal segment
	TerminalJoin
)

// Context is the policy one resolution runs under
type Context struct {
	Name     string
	JoinType queryspace.JoinType
	Fetched  bool

	// Alias names the terminal join of an explicit join
	Alias string

	ReuseJoins          bool
	Terminal            TerminalPolicy
	ForbidImplicitJoins bool

	// ValidateRoot, when set, vets the from-element a path starts at
	ValidateRoot func(root *FromElement, loc cerrors.Location) error
}

// CanReuseImplicitJoins reports whether existing joins may be reused
func (c *Context) CanReuseImplicitJoins() bool {
	return c.ReuseJoins
}

// PlainContext resolves paths in restrictions and orderings: implicit joins
// are reused and the terminal stays an attribute reference.
func PlainContext() *Context {
	return &Context{
		Name:       "path",
		JoinType:   queryspace.InnerJoin,
		ReuseJoins: true,
		Terminal:   TerminalAttribute,
	}
}

// SelectionContext resolves selected paths. Joinable terminals are joined
// because a selected value must be materialized.
func SelectionContext() *Context {
	return &Context{
		Name:       "selection",
		JoinType:   queryspace.InnerJoin,
		ReuseJoins: true,
		Terminal:   TerminalAssociation,
	}
}

// JoinAttributeContext resolves the path of an explicit join. Every join it
// creates is new and uses the requested join type and fetch flag.
func JoinAttributeContext(alias string, joinType queryspace.JoinType, fetched bool) *Context {
	return &Context{
		Name:     "join",
		JoinType: joinType,
		Fetched:  fetched,
		Alias:    alias,
		Terminal: TerminalJoin,
	}
}

// JoinPredicateContext resolves the on-clause of join. Paths must start in
// the join's own from clause and may not create entity or collection joins.
func JoinPredicateContext(join *FromElement) *Context {
	return &Context{
		Name:                "on",
		JoinType:            queryspace.InnerJoin,
		Terminal:            TerminalAttribute,
		ForbidImplicitJoins: true,
		ValidateRoot: func(root *FromElement, loc cerrors.Location) error {
			if root.clause != join.clause {
				name := root.alias
				if name == "" {
					name = root.binding.path
				}
				return cerrors.NewOutOfScopeReference(loc, name)
			}
			return nil
		},
	}
}
