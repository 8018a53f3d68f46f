package queryspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cerrors "github.com/conduit-lang/querymodel/internal/compiler/errors"
	"github.com/conduit-lang/querymodel/internal/orm/schema"
)

var (
	authorAttr   = &schema.Attribute{Name: "author", Kind: schema.KindManyToOne, Target: "User"}
	addressAttr  = &schema.Attribute{Name: "address", Kind: schema.KindEmbedded, Target: "Address"}
	geoAttr      = &schema.Attribute{Name: "geo", Kind: schema.KindEmbedded, Target: "GeoPoint"}
	commentsAttr = &schema.Attribute{Name: "comments", Kind: schema.KindOneToMany, Target: "Post.comments"}
)

func TestRoundTripLookup(t *testing.T) {
	qs := NewQuerySpaces(zap.NewNop())
	root := qs.MakeRootEntitySpace("p", "Post")

	join := qs.AddEntityJoin(root, authorAttr, "", "User", InnerJoin)

	right, ok := qs.FindQuerySpaceByUID(join.RightUID)
	require.True(t, ok)
	assert.Same(t, right, mustFind(t, qs, join.RightUID))
	assert.Equal(t, DispositionEntity, right.Disposition())
	assert.Equal(t, "User", right.EntityName())

	left, ok := qs.FindQuerySpaceByUID(join.LeftUID)
	require.True(t, ok)
	assert.Same(t, root, left)
	assert.Equal(t, []*Join{join}, root.Joins())
}

func mustFind(t *testing.T, qs *QuerySpaces, uid string) *QuerySpace {
	t.Helper()
	space, ok := qs.FindQuerySpaceByUID(uid)
	require.True(t, ok)
	return space
}

func TestRegisterQuerySpace(t *testing.T) {
	t.Run("duplicate uid panics", func(t *testing.T) {
		qs := NewQuerySpaces(nil)
		qs.RegisterQuerySpace(NewEntitySpace("p", "Post"))

		defer func() {
			r := recover()
			require.NotNil(t, r)
			err, ok := r.(*cerrors.CompilerError)
			require.True(t, ok)
			assert.Equal(t, cerrors.ErrDuplicateQuerySpace, err.Code)
		}()
		qs.RegisterQuerySpace(NewEntitySpace("p", "User"))
	})

	t.Run("foreign space panics", func(t *testing.T) {
		a := NewQuerySpaces(nil)
		b := NewQuerySpaces(nil)
		root := a.MakeRootEntitySpace("p", "Post")

		assert.Panics(t, func() { b.RegisterQuerySpace(root) })
		assert.Panics(t, func() { b.AddEntityJoin(root, authorAttr, "", "User", InnerJoin) })
	})

	t.Run("registration order", func(t *testing.T) {
		qs := NewQuerySpaces(nil)
		qs.RegisterQuerySpace(NewEntitySpace("b", "Post"))
		qs.RegisterQuerySpace(NewEntitySpace("a", "User"))

		spaces := qs.Spaces()
		require.Len(t, spaces, 2)
		assert.Equal(t, "b", spaces[0].UID())
		assert.Equal(t, "a", spaces[1].UID())
		assert.Empty(t, qs.RootSpaces())
	})
}

func TestGenerateImplicitUID(t *testing.T) {
	qs := NewQuerySpaces(nil)
	qs.RegisterQuerySpace(NewEntitySpace("<gen:1>", "Post"))

	seen := map[string]bool{"<gen:1>": true}
	for i := 0; i < 10; i++ {
		uid := qs.GenerateImplicitUID()
		assert.False(t, seen[uid], "uid %s generated twice", uid)
		_, exists := qs.FindQuerySpaceByUID(uid)
		assert.False(t, exists)
		seen[uid] = true
	}
}

func TestJoinBuilders(t *testing.T) {
	qs := NewQuerySpaces(nil)
	root := qs.MakeRootEntitySpace("u", "User")

	t.Run("composite owner", func(t *testing.T) {
		address := qs.AddCompositeJoin(root, addressAttr, "", "Address")
		addressSpace := mustFind(t, qs, address.RightUID)
		assert.Equal(t, DispositionComposite, addressSpace.Disposition())
		assert.Equal(t, "u", addressSpace.OwnerUID())
		assert.False(t, address.Optional())

		geo := qs.AddCompositeJoin(addressSpace, geoAttr, "", "GeoPoint")
		geoSpace := mustFind(t, qs, geo.RightUID)
		assert.Equal(t, "u", geoSpace.OwnerUID(), "nested composites share the entity table")

		mt, ok := geoSpace.ManagedType()
		require.True(t, ok)
		assert.Equal(t, schema.CompositeType("GeoPoint"), mt)
	})

	t.Run("collection element and index", func(t *testing.T) {
		posts := qs.MakeRootEntitySpace("p", "Post")
		collection := qs.AddCollectionJoin(posts, commentsAttr, "c_coll", "Post.comments", LeftJoin)
		assert.True(t, collection.Optional())

		cspace := mustFind(t, qs, "c_coll")
		assert.Equal(t, "Post.comments", cspace.CollectionRole())
		_, ok := cspace.ManagedType()
		assert.False(t, ok)

		element := qs.AddElementEntityJoin(cspace, "c", "Comment", LeftJoin)
		assert.Equal(t, RoleElement, element.Role)
		assert.Nil(t, element.Attribute)

		index := qs.AddIndexEntityJoin(cspace, "", "Region", InnerJoin)
		assert.Equal(t, RoleIndex, index.Role)

		elemComposite := qs.AddElementCompositeJoin(cspace, "", "Attachment")
		assert.Equal(t, "c_coll", mustFind(t, qs, elemComposite.RightUID).OwnerUID())

		indexComposite := qs.AddIndexCompositeJoin(cspace, "", "GeoPoint")
		assert.Equal(t, RoleIndex, indexComposite.Role)

		assert.Len(t, cspace.Joins(), 4)
	})

	t.Run("element joins require a collection space", func(t *testing.T) {
		assert.Panics(t, func() { qs.AddElementEntityJoin(root, "", "Comment", InnerJoin) })
		assert.Panics(t, func() { qs.AddIndexCompositeJoin(root, "", "GeoPoint") })
	})

	assert.Len(t, qs.RootSpaces(), 2)
	assert.Equal(t, 7, qs.JoinCount())
	assert.Equal(t, 9, qs.Len())
}

func TestDescribe(t *testing.T) {
	qs := NewQuerySpaces(nil)
	root := qs.MakeRootEntitySpace("p", "Post")
	author := qs.AddEntityJoin(root, authorAttr, "a", "User", LeftJoin)
	author.Fetched = true
	qs.AddCompositeJoin(mustFind(t, qs, "a"), addressAttr, "", "Address")
	qs.RegisterQuerySpace(NewEntitySpace("x", "Tag"))

	expected := "p(entity Post)\n" +
		"  p -[LEFT author]-> a fetch\n" +
		"    a(entity User)\n" +
		"      a -[INNER address]-> <gen:1>\n" +
		"        <gen:1>(composite Address)\n" +
		"x(entity Tag)\n"
	assert.Equal(t, expected, qs.Describe())
}

func TestParseJoinType(t *testing.T) {
	tests := []struct {
		input    string
		expected JoinType
		outer    bool
	}{
		{"", InnerJoin, false},
		{"inner", InnerJoin, false},
		{"LEFT", LeftJoin, true},
		{"right", RightJoin, true},
		{"full", FullJoin, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			jt, err := ParseJoinType(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, jt)
			assert.Equal(t, tt.outer, jt.IsOuter())
		})
	}

	_, err := ParseJoinType("cross")
	assert.Error(t, err)
}
