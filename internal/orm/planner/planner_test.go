package planner_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	cerrors "github.com/conduit-lang/querymodel/internal/compiler/errors"
	"github.com/conduit-lang/querymodel/internal/orm/loadplan"
	"github.com/conduit-lang/querymodel/internal/orm/planner"
	"github.com/conduit-lang/querymodel/internal/orm/schema"
	"github.com/conduit-lang/querymodel/internal/orm/schema/schematest"
)

// lazyAuthors delays every Post.author fetch and has no fingerprint
type lazyAuthors struct{}

func (lazyAuthors) Name() string { return "lazy-authors" }

func (lazyAuthors) Override(entity, attribute string) (schema.FetchStrategy, bool) {
	if entity == "Post" && attribute == "author" {
		return schema.DelayedSelect, true
	}
	return schema.FetchStrategy{}, false
}

func newPlanner(t *testing.T, opts planner.Options) *planner.Planner {
	t.Helper()
	p, err := planner.New(schematest.Blog(t), opts, zaptest.NewLogger(t))
	require.NoError(t, err)
	return p
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    planner.Options
		wantErr string
	}{
		{name: "defaults", opts: planner.DefaultOptions()},
		{name: "no cache", opts: planner.Options{MaxFetchDepth: 1}},
		{name: "negative depth", opts: planner.Options{MaxFetchDepth: -1}, wantErr: "max fetch depth"},
		{name: "two collections", opts: planner.Options{CollectionJoinLimit: 2}, wantErr: "0 or 1"},
		{name: "negative cache", opts: planner.Options{CacheSize: -5}, wantErr: "plan cache size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			_, err = planner.New(schematest.Blog(t), tt.opts, nil)
			assert.Error(t, err)
		})
	}
}

func TestPlanCache(t *testing.T) {
	t.Run("plans are cached per root and profile", func(t *testing.T) {
		p := newPlanner(t, planner.DefaultOptions())

		first, err := p.EntityLoadPlan("Post", nil)
		require.NoError(t, err)
		second, err := p.EntityLoadPlan("Post", nil)
		require.NoError(t, err)
		assert.Same(t, first, second)

		profile, err := p.Profile("with-attachments")
		require.NoError(t, err)
		withProfile, err := p.EntityLoadPlan("Post", profile)
		require.NoError(t, err)
		assert.NotSame(t, first, withProfile)
		assert.Equal(t, "with-attachments", withProfile.ProfileName())

		_, err = p.CollectionLoadPlan("Post.comments", nil)
		require.NoError(t, err)
		assert.Equal(t, 3, p.CachedPlans())

		p.Purge()
		assert.Equal(t, 0, p.CachedPlans())
	})

	t.Run("profiles sharing a name are keyed by their overrides", func(t *testing.T) {
		p := newPlanner(t, planner.DefaultOptions())

		plain, err := p.EntityLoadPlan("Post", loadplan.NewNamedFetchProfile("x"))
		require.NoError(t, err)
		assert.Contains(t, plain.Describe(), "author -> User immediate/join depth=1")

		lazy := loadplan.NewNamedFetchProfile("x").Set("Post", "author", schema.DelayedSelect)
		withLazy, err := p.EntityLoadPlan("Post", lazy)
		require.NoError(t, err)
		assert.NotSame(t, plain, withLazy)
		assert.Contains(t, withLazy.Describe(), "author -> User delayed/select depth=1")

		again, err := p.EntityLoadPlan("Post", loadplan.NewNamedFetchProfile("x").Set("Post", "author", schema.DelayedSelect))
		require.NoError(t, err)
		assert.Same(t, withLazy, again)
		assert.Equal(t, 2, p.CachedPlans())
	})

	t.Run("a profile changed after caching gets a new plan", func(t *testing.T) {
		p := newPlanner(t, planner.DefaultOptions())
		profile := loadplan.NewNamedFetchProfile("x")

		before, err := p.EntityLoadPlan("Post", profile)
		require.NoError(t, err)
		profile.Set("Post", "author", schema.DelayedSelect)
		after, err := p.EntityLoadPlan("Post", profile)
		require.NoError(t, err)

		assert.NotSame(t, before, after)
		assert.Contains(t, after.Describe(), "author -> User delayed/select depth=1")
	})

	t.Run("profiles without a fingerprint are not cached", func(t *testing.T) {
		p := newPlanner(t, planner.DefaultOptions())

		first, err := p.EntityLoadPlan("Post", lazyAuthors{})
		require.NoError(t, err)
		second, err := p.EntityLoadPlan("Post", lazyAuthors{})
		require.NoError(t, err)

		assert.NotSame(t, first, second)
		assert.Contains(t, second.Describe(), "author -> User delayed/select depth=1")
		assert.Equal(t, 0, p.CachedPlans())
	})

	t.Run("disabled cache builds every time", func(t *testing.T) {
		opts := planner.DefaultOptions()
		opts.CacheSize = 0
		p := newPlanner(t, opts)

		first, err := p.EntityLoadPlan("Post", nil)
		require.NoError(t, err)
		second, err := p.EntityLoadPlan("Post", nil)
		require.NoError(t, err)
		assert.NotSame(t, first, second)
		assert.Equal(t, first.Describe(), second.Describe())
		assert.Equal(t, 0, p.CachedPlans())
	})

	t.Run("errors are not cached", func(t *testing.T) {
		p := newPlanner(t, planner.DefaultOptions())
		_, err := p.EntityLoadPlan("Nope", nil)
		assert.Equal(t, cerrors.ErrUnknownPersister, cerrors.CodeOf(err))
		assert.Equal(t, 0, p.CachedPlans())
	})

	t.Run("concurrent lookups", func(t *testing.T) {
		p := newPlanner(t, planner.DefaultOptions())

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := p.EntityLoadPlan("Post", nil)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, p.CachedPlans())
	})
}

func TestPlannerOptionsReachTheBuilder(t *testing.T) {
	p := newPlanner(t, planner.Options{MaxFetchDepth: 1, CollectionJoinLimit: 0})

	plan, err := p.EntityLoadPlan("Post", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.MaxDepth())
	assert.Equal(t, 0, plan.CollectionJoinFetches())

	for _, f := range plan.Fetches() {
		if f.Depth > 1 {
			assert.False(t, f.IsJoinFetch(), "%s.%s at depth %d", f.Owner, f.Attribute.Name, f.Depth)
		}
		if f.Kind == loadplan.FetchCollection && f.Configured.IsImmediateJoin() {
			assert.Equal(t, loadplan.DowngradeCollectionLimit, f.Reason)
		}
	}
}

func TestProfileLookup(t *testing.T) {
	p := newPlanner(t, planner.DefaultOptions())

	profile, err := p.Profile("with-attachments")
	require.NoError(t, err)
	assert.Equal(t, "with-attachments", profile.Name())

	_, err = p.Profile("missing")
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrUnknownPersister, cerrors.CodeOf(err))
}
