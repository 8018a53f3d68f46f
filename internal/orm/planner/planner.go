// Package planner is the entry point for hosts: it owns the metadata
// registry, caches entity and collection load plans and hands out one Query
// per compilation.
package planner

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	cerrors "github.com/conduit-lang/querymodel/internal/compiler/errors"
	"github.com/conduit-lang/querymodel/internal/orm/loadplan"
	"github.com/conduit-lang/querymodel/internal/orm/schema"
)

// Options configure a Planner
type Options struct {
	MaxFetchDepth int

	// CollectionJoinLimit is 0 or 1
	CollectionJoinLimit int

	// CacheSize is the number of load plans kept; 0 disables caching
	CacheSize int
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		MaxFetchDepth:       loadplan.DefaultMaxFetchDepth,
		CollectionJoinLimit: 1,
		CacheSize:           128,
	}
}

// Validate checks the option ranges
func (o Options) Validate() error {
	if o.MaxFetchDepth < 0 {
		return fmt.Errorf("max fetch depth must be >= 0, got %d", o.MaxFetchDepth)
	}
	if o.CollectionJoinLimit < 0 || o.CollectionJoinLimit > 1 {
		return fmt.Errorf("collection join limit must be 0 or 1, got %d", o.CollectionJoinLimit)
	}
	if o.CacheSize < 0 {
		return fmt.Errorf("plan cache size must be >= 0, got %d", o.CacheSize)
	}
	return nil
}

// Planner compiles queries and load plans against one registry. It is safe
// for concurrent use; the queries it creates are not.
type Planner struct {
	registry *schema.Registry
	builder  *loadplan.Builder
	opts     Options
	cache    *lru.Cache
	logger   *zap.Logger
}

// New creates a planner
func New(registry *schema.Registry, opts Options, logger *zap.Logger) (*Planner, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid planner options: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Planner{
		registry: registry,
		opts:     opts,
		logger:   logger,
		builder: loadplan.NewBuilder(registry, loadplan.Options{
			MaxFetchDepth: opts.MaxFetchDepth,
			Limiter:       loadplan.SingleCollectionLimiter{Limit: opts.CollectionJoinLimit},
		}, logger),
	}

	if opts.CacheSize > 0 {
		cache, err := lru.New(opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create plan cache: %w", err)
		}
		p.cache = cache
	}
	return p, nil
}

// Registry returns the metadata registry
func (p *Planner) Registry() *schema.Registry {
	return p.registry
}

// Profile returns a fetch profile declared in the model
func (p *Planner) Profile(name string) (loadplan.FetchProfile, error) {
	declared, ok := p.registry.FetchProfile(name)
	if !ok {
		return nil, cerrors.NewUnknownPersister("fetch profile", name)
	}
	return loadplan.ProfileFromSchema(declared), nil
}

// EntityLoadPlan returns the load plan of entity under profile, which may be
// nil. Cached plans are shared and must not be modified.
func (p *Planner) EntityLoadPlan(entity string, profile loadplan.FetchProfile) (*loadplan.LoadPlan, error) {
	return p.loadPlan("entity", entity, profile, func(b *loadplan.Builder) (*loadplan.LoadPlan, error) {
		return b.EntityLoadPlan(entity)
	})
}

// CollectionLoadPlan returns the load plan of a collection role under
// profile, which may be nil
func (p *Planner) CollectionLoadPlan(role string, profile loadplan.FetchProfile) (*loadplan.LoadPlan, error) {
	return p.loadPlan("collection", role, profile, func(b *loadplan.Builder) (*loadplan.LoadPlan, error) {
		return b.CollectionLoadPlan(role)
	})
}

// CachedPlans returns the number of cached load plans
func (p *Planner) CachedPlans() int {
	if p.cache == nil {
		return 0
	}
	return p.cache.Len()
}

// Purge empties the plan cache
func (p *Planner) Purge() {
	if p.cache != nil {
		p.cache.Purge()
	}
}

// NewQuery starts a new compilation
func (p *Planner) NewQuery() *Query {
	return newQuery(p.registry, p.logger)
}

// fingerprinter is implemented by profiles whose overrides can be part of
// a cache key
type fingerprinter interface {
	Fingerprint() string
}

// cacheKey returns the plan cache key, or false when profile cannot be
// identified by content and the plan must be built uncached
func (p *Planner) cacheKey(kind, root string, profile loadplan.FetchProfile) (string, bool) {
	if p.cache == nil {
		return "", false
	}
	fingerprint := ""
	if profile != nil {
		fp, ok := profile.(fingerprinter)
		if !ok {
			return "", false
		}
		fingerprint = fp.Fingerprint()
	}
	return fmt.Sprintf("%s:%s:%d:%s", kind, root, p.opts.MaxFetchDepth, fingerprint), true
}

// loadPlan looks a plan up by kind, root, depth and profile content
func (p *Planner) loadPlan(kind, root string, profile loadplan.FetchProfile, build func(*loadplan.Builder) (*loadplan.LoadPlan, error)) (*loadplan.LoadPlan, error) {
	key, cacheable := p.cacheKey(kind, root, profile)
	if cacheable {
		if cached, ok := p.cache.Get(key); ok {
			p.logger.Debug("load plan cache hit", zap.String("key", key))
			return cached.(*loadplan.LoadPlan), nil
		}
		p.logger.Debug("load plan cache miss", zap.String("key", key))
	}

	plan, err := build(p.builder.WithProfile(profile))
	if err != nil {
		return nil, err
	}
	if cacheable {
		p.cache.Add(key, plan)
	}
	return plan, nil
}
