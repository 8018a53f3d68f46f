package planner

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conduit-lang/querymodel/internal/orm/path"
	"github.com/conduit-lang/querymodel/internal/orm/query"
	"github.com/conduit-lang/querymodel/internal/orm/queryspace"
	"github.com/conduit-lang/querymodel/internal/orm/schema"
)

// Query is the state of one compilation: its query spaces, from clause,
// resolver, restriction and bind parameters
type Query struct {
	id       string
	spaces   *queryspace.QuerySpaces
	clause   *path.FromClause
	resolver *path.Resolver
	where    *query.CompoundPredicate
	params   *query.ParameterCollector
	logger   *zap.Logger
}

func newQuery(registry *schema.Registry, logger *zap.Logger) *Query {
	id := uuid.New().String()
	logger = logger.With(zap.String("compilation", id))

	spaces := queryspace.NewQuerySpaces(logger)
	clause := path.NewFromClause(registry, spaces)
	return &Query{
		id:       id,
		spaces:   spaces,
		clause:   clause,
		resolver: path.NewResolver(clause, logger),
		where:    query.Conjunction(),
		params:   query.NewParameterCollector(),
		logger:   logger,
	}
}

// ID returns the compilation id
func (q *Query) ID() string {
	return q.id
}

// From adds an entity root
func (q *Query) From(entity, alias string) (*path.FromElement, error) {
	return q.clause.AddRoot(entity, alias)
}

// Join declares an explicit join
func (q *Query) Join(p, alias string, joinType queryspace.JoinType, fetched bool) (*path.FromElement, error) {
	return q.resolver.Join(p, alias, joinType, fetched)
}

// JoinOn resolves the attribute references of join's on-clause predicate
// and registers its parameters
func (q *Query) JoinOn(join *path.FromElement, on query.Predicate) error {
	if _, err := q.resolver.JoinOn(join, refPaths(on)...); err != nil {
		return err
	}
	on.RegisterParameters(q.params)
	return nil
}

// Select resolves a path of the select clause
func (q *Query) Select(p string) (*path.Binding, error) {
	return q.resolver.Select(p)
}

// Resolve resolves a path outside the select clause
func (q *Query) Resolve(p string) (*path.Binding, error) {
	return q.resolver.Resolve(path.PlainContext(), p)
}

// Where resolves every attribute reference of predicate, registers its
// parameters and adds it to the restriction. On error the restriction and
// parameters are unchanged, but joins materialized for the references
// resolved before the failing one stay in the graph; a failed compilation
// is meant to be discarded.
func (q *Query) Where(predicate query.Predicate) error {
	for _, p := range refPaths(predicate) {
		if _, err := q.Resolve(p); err != nil {
			return err
		}
	}
	predicate.RegisterParameters(q.params)
	q.where.Add(predicate)
	return nil
}

// Restriction returns the conjunction of every Where predicate
func (q *Query) Restriction() *query.CompoundPredicate {
	return q.where
}

// Parameters returns the bind parameters in registration order
func (q *Query) Parameters() []*query.Parameter {
	return q.params.Parameters()
}

// Spaces returns the compilation's query-space graph
func (q *Query) Spaces() *queryspace.QuerySpaces {
	return q.spaces
}

// Clause returns the top-level from clause
func (q *Query) Clause() *path.FromClause {
	return q.clause
}

// Resolver returns the compilation's resolver
func (q *Query) Resolver() *path.Resolver {
	return q.resolver
}

func refPaths(expr query.Expression) []string {
	refs := query.AttributeRefs(expr)
	paths := make([]string, 0, len(refs))
	for _, ref := range refs {
		paths = append(paths, ref.Path)
	}
	return paths
}
