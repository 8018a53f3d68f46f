package planner_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/conduit-lang/querymodel/internal/compiler/errors"
	"github.com/conduit-lang/querymodel/internal/orm/planner"
	"github.com/conduit-lang/querymodel/internal/orm/query"
	"github.com/conduit-lang/querymodel/internal/orm/queryspace"
)

func TestQueryWhere(t *testing.T) {
	p := newPlanner(t, planner.DefaultOptions())
	q := p.NewQuery()

	_, err := uuid.Parse(q.ID())
	require.NoError(t, err)
	assert.NotEqual(t, q.ID(), p.NewQuery().ID())

	_, err = q.From("Post", "p")
	require.NoError(t, err)

	name := query.Param("name")
	err = q.Where(query.And(
		query.Eq(query.Attr("p.author.name"), name),
		query.Gt(query.Attr("p.title"), query.PositionalParam(1)),
		query.Like(query.Attr("p.author.address.city"), name),
	))
	require.NoError(t, err)

	params := q.Parameters()
	require.Len(t, params, 2)
	assert.Same(t, name, params[0])
	assert.Equal(t, "?1", params[1].String())

	// p.author joined once and reused by both references
	assert.Equal(t, 1, q.Spaces().JoinCount()-countCompositeJoins(q.Spaces()))
	assert.Equal(t, 1, q.Restriction().Len())
}

func TestQueryWhereErrors(t *testing.T) {
	p := newPlanner(t, planner.DefaultOptions())
	q := p.NewQuery()
	_, err := q.From("Post", "p")
	require.NoError(t, err)

	t.Run("unresolved root", func(t *testing.T) {
		err := q.Where(query.Eq(query.Attr("x.title"), query.Param("t")))
		assert.Equal(t, cerrors.ErrUnresolvedPath, cerrors.CodeOf(err))
		assert.Equal(t, 0, q.Restriction().Len())
		assert.Empty(t, q.Parameters())
	})

	t.Run("a later reference fails", func(t *testing.T) {
		q := p.NewQuery()
		_, err := q.From("Post", "p")
		require.NoError(t, err)
		spaces := q.Spaces().Len()

		err = q.Where(query.And(
			query.Eq(query.Attr("p.author.name"), query.Param("n")),
			query.IsNull(query.Attr("p.bogus")),
		))
		assert.Equal(t, cerrors.ErrUnresolvedNavigable, cerrors.CodeOf(err))
		assert.Equal(t, 0, q.Restriction().Len())
		assert.Empty(t, q.Parameters())
		// p.author was joined before p.bogus failed
		assert.Greater(t, q.Spaces().Len(), spaces)
	})

	t.Run("plural dereference", func(t *testing.T) {
		err := q.Where(query.IsNull(query.Attr("p.comments.body")))
		assert.Equal(t, cerrors.ErrPluralDereference, cerrors.CodeOf(err))
		assert.True(t, cerrors.IsSemantic(err))
	})
}

func TestQueryJoins(t *testing.T) {
	p := newPlanner(t, planner.DefaultOptions())
	q := p.NewQuery()
	_, err := q.From("Post", "p")
	require.NoError(t, err)

	c, err := q.Join("p.comments", "c", queryspace.LeftJoin, false)
	require.NoError(t, err)
	assert.Equal(t, "c", c.Alias())

	t.Run("on clause", func(t *testing.T) {
		on := query.Eq(query.Attr("c.body"), query.Param("body"))
		require.NoError(t, q.JoinOn(c, on))
		require.Len(t, q.Parameters(), 1)
		assert.Equal(t, ":body", q.Parameters()[0].String())
	})

	t.Run("implicit join in on clause", func(t *testing.T) {
		on := query.Eq(query.Attr("c.author.name"), query.Lit("x"))
		err := q.JoinOn(c, on)
		assert.Equal(t, cerrors.ErrImplicitJoinInOnClause, cerrors.CodeOf(err))
	})

	t.Run("select through the alias", func(t *testing.T) {
		b, err := q.Select("c.author")
		require.NoError(t, err)
		assert.Equal(t, "c.author", b.Path())
		assert.True(t, b.IsJoined())
	})

	t.Run("duplicate alias", func(t *testing.T) {
		_, err := q.From("Tag", "c")
		assert.Equal(t, cerrors.ErrDuplicateAlias, cerrors.CodeOf(err))
	})
}

func countCompositeJoins(spaces *queryspace.QuerySpaces) int {
	n := 0
	for _, s := range spaces.Spaces() {
		if s.Disposition() == queryspace.DispositionComposite {
			n++
		}
	}
	return n
}
