// Package loadplan decides how every association reachable from one root is
// fetched and assembles the resulting load plan: a tree of fetches under a
// single entity or collection return, backed by a query-space graph.
package loadplan

import (
	"fmt"
	"strings"

	cerrors "github.com/conduit-lang/querymodel/internal/compiler/errors"
	"github.com/conduit-lang/querymodel/internal/orm/queryspace"
	"github.com/conduit-lang/querymodel/internal/orm/schema"
)

// FetchKind classifies what a fetch loads
type FetchKind int

const (
	FetchEntity FetchKind = iota
	FetchCollection
	FetchComposite
	FetchAny
)

// String returns the string representation of the fetch kind
func (k FetchKind) String() string {
	switch k {
	case FetchEntity:
		return "entity"
	case FetchCollection:
		return "collection"
	case FetchComposite:
		return "composite"
	case FetchAny:
		return "any"
	default:
		return "unknown"
	}
}

// Fetch is one association or composite loaded as part of its owner
type Fetch struct {
	Attribute *schema.Attribute
	Owner     string
	Kind      FetchKind

	// Target is the entity, collection role or composite type fetched
	Target string

	Strategy   schema.FetchStrategy
	Configured schema.FetchStrategy
	Reason     DowngradeReason
	Depth      int

	// Join realizes the fetch; set only for join fetches
	Join *queryspace.Join

	Fetches []*Fetch

	// Element and Index describe a join-fetched collection
	Element *CollectionPart
	Index   *CollectionPart
}

// IsJoinFetch reports whether the fetch is realized by a join
func (f *Fetch) IsJoinFetch() bool {
	return f.Join != nil
}

// Downgraded reports whether the configured strategy was replaced
func (f *Fetch) Downgraded() bool {
	return f.Reason != NotDowngraded
}

// CollectionPart is the element or index of a loaded collection
type CollectionPart struct {
	Kind    schema.ElementKind
	Target  string
	Type    schema.PrimitiveType
	Join    *queryspace.Join
	Fetches []*Fetch
}

// Return is the root of a load plan: *EntityReturn or *CollectionReturn
type Return interface {
	rootName() string
}

// EntityReturn is an entity root
type EntityReturn struct {
	Entity            string
	Space             *queryspace.QuerySpace
	IdentifierFetches []*Fetch
	Fetches           []*Fetch
}

func (r *EntityReturn) rootName() string { return r.Entity }

// CollectionReturn is a collection root
type CollectionReturn struct {
	Role    string
	Space   *queryspace.QuerySpace
	Element *CollectionPart
	Index   *CollectionPart
}

func (r *CollectionReturn) rootName() string { return r.Role }

// LoadPlan is the compiled fetch tree of one root
type LoadPlan struct {
	root     Return
	spaces   *queryspace.QuerySpaces
	profile  string
	maxDepth int
}

// NewLoadPlan creates an empty plan over spaces
func NewLoadPlan(spaces *queryspace.QuerySpaces) *LoadPlan {
	return &LoadPlan{spaces: spaces}
}

// AddRoot sets the single root return. A second root is rejected.
func (lp *LoadPlan) AddRoot(r Return) error {
	if lp.root != nil {
		return cerrors.NewDuplicateRootReturn(lp.root.rootName(), r.rootName())
	}
	lp.root = r
	return nil
}

// Root returns the root return
func (lp *LoadPlan) Root() Return {
	return lp.root
}

// EntityReturn returns the root if it is an entity return
func (lp *LoadPlan) EntityReturn() (*EntityReturn, bool) {
	r, ok := lp.root.(*EntityReturn)
	return r, ok
}

// CollectionReturn returns the root if it is a collection return
func (lp *LoadPlan) CollectionReturn() (*CollectionReturn, bool) {
	r, ok := lp.root.(*CollectionReturn)
	return r, ok
}

// Spaces returns the query-space graph backing the plan
func (lp *LoadPlan) Spaces() *queryspace.QuerySpaces {
	return lp.spaces
}

// ProfileName returns the fetch profile the plan was built with, if any
func (lp *LoadPlan) ProfileName() string {
	return lp.profile
}

// MaxDepth returns the maximum fetch depth the plan was built with
func (lp *LoadPlan) MaxDepth() int {
	return lp.maxDepth
}

// Fetches returns every fetch of the plan, depth first
func (lp *LoadPlan) Fetches() []*Fetch {
	var all []*Fetch
	var visit func(fetches []*Fetch)
	visitPart := func(part *CollectionPart) {
		if part != nil {
			visit(part.Fetches)
		}
	}
	visit = func(fetches []*Fetch) {
		for _, f := range fetches {
			all = append(all, f)
			visit(f.Fetches)
			visitPart(f.Element)
			visitPart(f.Index)
		}
	}

	switch r := lp.root.(type) {
	case *EntityReturn:
		visit(r.IdentifierFetches)
		visit(r.Fetches)
	case *CollectionReturn:
		visitPart(r.Element)
		visitPart(r.Index)
	}
	return all
}

// CollectionJoinFetches counts the join-fetched collections of the plan
func (lp *LoadPlan) CollectionJoinFetches() int {
	n := 0
	for _, f := range lp.Fetches() {
		if f.Kind == FetchCollection && f.IsJoinFetch() {
			n++
		}
	}
	return n
}

// Describe renders the plan as an indented tree
func (lp *LoadPlan) Describe() string {
	var b strings.Builder

	switch r := lp.root.(type) {
	case *EntityReturn:
		fmt.Fprintf(&b, "%s [entity root %s]\n", r.Entity, r.Space.UID())
		for _, f := range r.IdentifierFetches {
			b.WriteString("  identifier ")
			describeFetch(&b, f, 1, false)
		}
		for _, f := range r.Fetches {
			describeFetch(&b, f, 1, true)
		}
	case *CollectionReturn:
		fmt.Fprintf(&b, "%s [collection root %s]\n", r.Role, r.Space.UID())
		describePart(&b, "element", r.Element, 1)
		describePart(&b, "index", r.Index, 1)
	default:
		b.WriteString("<empty plan>\n")
	}
	return b.String()
}

func describeFetch(b *strings.Builder, f *Fetch, indent int, pad bool) {
	if pad {
		b.WriteString(strings.Repeat("  ", indent))
	}

	switch f.Kind {
	case FetchComposite:
		fmt.Fprintf(b, "%s -> %s (composite)\n", f.Attribute.Name, f.Target)
	default:
		fmt.Fprintf(b, "%s -> %s %s depth=%d", f.Attribute.Name, f.Target, f.Strategy, f.Depth)
		if f.Downgraded() {
			fmt.Fprintf(b, " (%s: %s)", f.Reason, f.Configured)
		}
		b.WriteString("\n")
	}

	for _, child := range f.Fetches {
		describeFetch(b, child, indent+1, true)
	}
	describePart(b, "element", f.Element, indent+1)
	describePart(b, "index", f.Index, indent+1)
}

func describePart(b *strings.Builder, label string, part *CollectionPart, indent int) {
	if part == nil {
		return
	}
	b.WriteString(strings.Repeat("  ", indent))
	switch part.Kind {
	case schema.ElementBasic:
		fmt.Fprintf(b, "%s %s (basic)\n", label, part.Type)
	case schema.ElementComposite:
		fmt.Fprintf(b, "%s %s (composite)\n", label, part.Target)
	default:
		fmt.Fprintf(b, "%s %s\n", label, part.Target)
	}
	for _, child := range part.Fetches {
		describeFetch(b, child, indent+1, true)
	}
}
