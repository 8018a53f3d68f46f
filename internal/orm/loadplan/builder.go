package loadplan

import (
	"fmt"

	"go.uber.org/zap"

	cerrors "github.com/conduit-lang/querymodel/internal/compiler/errors"
	"github.com/conduit-lang/querymodel/internal/orm/queryspace"
	"github.com/conduit-lang/querymodel/internal/orm/schema"
)

// DefaultMaxFetchDepth bounds join fetching when no depth is configured
const DefaultMaxFetchDepth = 3

// Options configure a Builder
type Options struct {
	// MaxFetchDepth is the deepest association that may still be join
	// fetched. Direct associations of the root are at depth 1.
	MaxFetchDepth int

	// Limiter defaults to SingleCollectionLimiter{Limit: 1}
	Limiter CollectionFetchLimiter

	// Profile is optional
	Profile FetchProfile
}

// Builder builds load plans against one metadata registry. A Builder holds
// no per-plan state and may be shared between goroutines.
type Builder struct {
	registry *schema.Registry
	opts     Options
	logger   *zap.Logger
}

// NewBuilder creates a new load plan builder
func NewBuilder(registry *schema.Registry, opts Options, logger *zap.Logger) *Builder {
	if opts.Limiter == nil {
		opts.Limiter = SingleCollectionLimiter{Limit: 1}
	}
	if opts.MaxFetchDepth < 0 {
		opts.MaxFetchDepth = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{registry: registry, opts: opts, logger: logger}
}

// WithProfile returns a builder that applies profile; nil removes it
func (b *Builder) WithProfile(profile FetchProfile) *Builder {
	opts := b.opts
	opts.Profile = profile
	return &Builder{registry: b.registry, opts: opts, logger: b.logger}
}

// EntityLoadPlan builds the plan that loads one entity and its fetch graph
func (b *Builder) EntityLoadPlan(entity string) (*LoadPlan, error) {
	if _, ok := b.registry.Entity(entity); !ok {
		return nil, cerrors.NewUnknownPersister("entity", entity)
	}

	w := b.newWalk()
	root := w.spaces.MakeRootEntitySpace("", entity)

	identifierFetches, err := w.identifierFetches(root, entity)
	if err != nil {
		return nil, err
	}
	fetches, err := w.entityFetches(root, entity, 0)
	if err != nil {
		return nil, err
	}

	ret := &EntityReturn{
		Entity:            entity,
		Space:             root,
		IdentifierFetches: identifierFetches,
		Fetches:           fetches,
	}
	if err := w.plan.AddRoot(ret); err != nil {
		return nil, err
	}

	b.logger.Debug("built entity load plan",
		zap.String("entity", entity),
		zap.Int("spaces", w.spaces.Len()),
		zap.Int("collection_joins", w.collections))
	return w.plan, nil
}

// CollectionLoadPlan builds the plan that loads one collection by role
func (b *Builder) CollectionLoadPlan(role string) (*LoadPlan, error) {
	collection, ok := b.registry.Collection(role)
	if !ok {
		return nil, cerrors.NewUnknownPersister("collection", role)
	}

	w := b.newWalk()
	w.collectionRoot = true
	root := w.spaces.MakeRootCollectionSpace("", role)

	element, err := w.collectionPart(root, collection.Element, queryspace.RoleElement, 0)
	if err != nil {
		return nil, err
	}
	ret := &CollectionReturn{Role: role, Space: root, Element: element}
	if collection.Index != nil {
		index, err := w.collectionPart(root, *collection.Index, queryspace.RoleIndex, 0)
		if err != nil {
			return nil, err
		}
		ret.Index = index
	}
	if err := w.plan.AddRoot(ret); err != nil {
		return nil, err
	}

	b.logger.Debug("built collection load plan",
		zap.String("role", role),
		zap.Int("spaces", w.spaces.Len()),
		zap.Int("collection_joins", w.collections))
	return w.plan, nil
}

// walk is the state of building one plan
type walk struct {
	*Builder
	plan   *LoadPlan
	spaces *queryspace.QuerySpaces

	// collections counts join-fetched collections. A collection root
	// already occupies the one collection a plan may join.
	collections    int
	collectionRoot bool

	onPath map[string]bool
}

func (b *Builder) newWalk() *walk {
	spaces := queryspace.NewQuerySpaces(b.logger)
	plan := NewLoadPlan(spaces)
	plan.maxDepth = b.opts.MaxFetchDepth
	if b.opts.Profile != nil {
		plan.profile = b.opts.Profile.Name()
	}
	return &walk{
		Builder: b,
		plan:    plan,
		spaces:  spaces,
		onPath:  make(map[string]bool),
	}
}

// identifierFetches collects the fetches inside an entity identifier. A
// collection anywhere inside an identifier is a mapping error.
func (w *walk) identifierFetches(space *queryspace.QuerySpace, entity string) ([]*Fetch, error) {
	id, ok := w.registry.EntityIdentifier(entity)
	if !ok || id.Attribute == nil {
		return nil, nil
	}

	attr := id.Attribute
	switch attr.Kind {
	case schema.KindBasic:
		return nil, nil
	case schema.KindEmbedded:
		f, err := w.identifierComposite(space, entity, attr, map[string]bool{})
		if err != nil {
			return nil, err
		}
		return []*Fetch{f}, nil
	case schema.KindManyToOne, schema.KindOneToOne:
		f, err := w.entityFetch(space, entity, attr, 0)
		if err != nil {
			return nil, err
		}
		return []*Fetch{f}, nil
	case schema.KindOneToMany, schema.KindManyToMany, schema.KindAny:
		if attr.Kind.IsPlural() {
			return nil, cerrors.NewCollectionInIdentifier(entity, attr.Name)
		}
		return nil, nil
	default:
		panic(fmt.Sprintf("unhandled attribute kind %d", int(attr.Kind)))
	}
}

func (w *walk) identifierComposite(space *queryspace.QuerySpace, entity string, attr *schema.Attribute, seen map[string]bool) (*Fetch, error) {
	composite, ok := w.registry.Composite(attr.Target)
	if !ok {
		return nil, cerrors.NewUnknownPersister("composite", attr.Target)
	}
	if seen[composite.Name] {
		return nil, fmt.Errorf("identifier composite %s embeds itself", composite.Name)
	}
	seen[composite.Name] = true

	join := w.spaces.AddCompositeJoin(space, attr, "", composite.Name)
	join.Fetched = true
	right := w.space(join.RightUID)

	f := &Fetch{
		Attribute:  attr,
		Owner:      entity,
		Kind:       FetchComposite,
		Target:     composite.Name,
		Strategy:   schema.ImmediateJoin,
		Configured: schema.ImmediateJoin,
		Join:       join,
	}
	for _, nested := range composite.Attributes {
		switch {
		case nested.Kind.IsPlural():
			return nil, cerrors.NewCollectionInIdentifier(entity, nested.Name)
		case nested.Kind == schema.KindEmbedded:
			child, err := w.identifierComposite(right, entity, nested, seen)
			if err != nil {
				return nil, err
			}
			f.Fetches = append(f.Fetches, child)
		case nested.Kind.IsEntityValued():
			// key-many-to-one
			child, err := w.entityFetch(right, composite.Name, nested, 0)
			if err != nil {
				return nil, err
			}
			f.Fetches = append(f.Fetches, child)
		}
	}
	return f, nil
}

// entityFetches walks every non-identifier attribute of an entity located
// at depth
func (w *walk) entityFetches(space *queryspace.QuerySpace, entity string, depth int) ([]*Fetch, error) {
	var fetches []*Fetch
	for _, attr := range w.registry.EntityAttributes(entity) {
		f, err := w.attributeFetch(space, entity, attr, depth)
		if err != nil {
			return nil, err
		}
		if f != nil {
			fetches = append(fetches, f)
		}
	}
	return fetches, nil
}

func (w *walk) compositeFetches(space *queryspace.QuerySpace, composite string, depth int) ([]*Fetch, error) {
	c, ok := w.registry.Composite(composite)
	if !ok {
		return nil, cerrors.NewUnknownPersister("composite", composite)
	}
	var fetches []*Fetch
	for _, attr := range c.Attributes {
		f, err := w.attributeFetch(space, composite, attr, depth)
		if err != nil {
			return nil, err
		}
		if f != nil {
			fetches = append(fetches, f)
		}
	}
	return fetches, nil
}

func (w *walk) attributeFetch(space *queryspace.QuerySpace, owner string, attr *schema.Attribute, depth int) (*Fetch, error) {
	switch attr.Kind {
	case schema.KindBasic:
		return nil, nil
	case schema.KindEmbedded:
		return w.compositeFetch(space, owner, attr, depth)
	case schema.KindManyToOne, schema.KindOneToOne:
		return w.entityFetch(space, owner, attr, depth)
	case schema.KindOneToMany, schema.KindManyToMany:
		return w.collectionFetch(space, owner, attr, depth)
	case schema.KindAny:
		return w.anyFetch(owner, attr, depth), nil
	default:
		panic(fmt.Sprintf("unhandled attribute kind %d", int(attr.Kind)))
	}
}

// compositeFetch shares its owner's table and does not add depth
func (w *walk) compositeFetch(space *queryspace.QuerySpace, owner string, attr *schema.Attribute, depth int) (*Fetch, error) {
	join := w.spaces.AddCompositeJoin(space, attr, "", attr.Target)
	join.Fetched = true

	children, err := w.compositeFetches(w.space(join.RightUID), attr.Target, depth)
	if err != nil {
		return nil, err
	}
	return &Fetch{
		Attribute:  attr,
		Owner:      owner,
		Kind:       FetchComposite,
		Target:     attr.Target,
		Strategy:   schema.ImmediateJoin,
		Configured: schema.ImmediateJoin,
		Depth:      depth,
		Join:       join,
		Fetches:    children,
	}, nil
}

func (w *walk) entityFetch(space *queryspace.QuerySpace, owner string, attr *schema.Attribute, depth int) (*Fetch, error) {
	f := w.newFetch(owner, attr, FetchEntity, attr.Target, depth+1)
	key := owner + "." + attr.Name

	if f.Strategy.IsImmediateJoin() {
		switch {
		case f.Depth > w.opts.MaxFetchDepth:
			w.downgrade(f, DowngradeMaxDepth)
		case w.onPath[key]:
			w.downgrade(f, DowngradeCircular)
		}
	}
	if !f.Strategy.IsImmediateJoin() {
		return f, nil
	}

	joinType := queryspace.InnerJoin
	if attr.Nullable {
		joinType = queryspace.LeftJoin
	}
	f.Join = w.spaces.AddEntityJoin(space, attr, "", attr.Target, joinType)
	f.Join.Fetched = true

	w.onPath[key] = true
	children, err := w.entityFetches(w.space(f.Join.RightUID), attr.Target, f.Depth)
	delete(w.onPath, key)
	if err != nil {
		return nil, err
	}
	f.Fetches = children
	return f, nil
}

func (w *walk) collectionFetch(space *queryspace.QuerySpace, owner string, attr *schema.Attribute, depth int) (*Fetch, error) {
	collection, ok := w.registry.Collection(attr.Target)
	if !ok {
		return nil, cerrors.NewUnknownPersister("collection", attr.Target)
	}

	f := w.newFetch(owner, attr, FetchCollection, collection.Role, depth+1)
	key := owner + "." + attr.Name

	if f.Strategy.IsImmediateJoin() {
		switch {
		case f.Depth > w.opts.MaxFetchDepth:
			w.downgrade(f, DowngradeMaxDepth)
		case w.onPath[key]:
			w.downgrade(f, DowngradeCircular)
		case w.collectionRoot || w.collections >= 1 || !w.opts.Limiter.AllowCollectionJoin(w.collections, attr):
			w.downgrade(f, DowngradeCollectionLimit)
		}
	}
	if !f.Strategy.IsImmediateJoin() {
		return f, nil
	}

	w.collections++
	f.Join = w.spaces.AddCollectionJoin(space, attr, "", collection.Role, queryspace.LeftJoin)
	f.Join.Fetched = true
	cspace := w.space(f.Join.RightUID)

	w.onPath[key] = true
	defer delete(w.onPath, key)

	element, err := w.collectionPart(cspace, collection.Element, queryspace.RoleElement, f.Depth)
	if err != nil {
		return nil, err
	}
	f.Element = element
	if collection.Index != nil {
		index, err := w.collectionPart(cspace, *collection.Index, queryspace.RoleIndex, f.Depth)
		if err != nil {
			return nil, err
		}
		f.Index = index
	}
	return f, nil
}

// collectionPart joins the element or index of a collection space and walks
// its attributes at the collection's depth
func (w *walk) collectionPart(cspace *queryspace.QuerySpace, d schema.ElementDescriptor, role queryspace.JoinRole, depth int) (*CollectionPart, error) {
	part := &CollectionPart{Kind: d.Kind, Target: d.Target, Type: d.Type}

	switch d.Kind {
	case schema.ElementEntity:
		if _, ok := w.registry.Entity(d.Target); !ok {
			return nil, cerrors.NewUnknownPersister("entity", d.Target)
		}
		if role == queryspace.RoleIndex {
			part.Join = w.spaces.AddIndexEntityJoin(cspace, "", d.Target, queryspace.InnerJoin)
		} else {
			part.Join = w.spaces.AddElementEntityJoin(cspace, "", d.Target, queryspace.InnerJoin)
		}
		part.Join.Fetched = true
		fetches, err := w.entityFetches(w.space(part.Join.RightUID), d.Target, depth)
		if err != nil {
			return nil, err
		}
		part.Fetches = fetches
	case schema.ElementComposite:
		if role == queryspace.RoleIndex {
			part.Join = w.spaces.AddIndexCompositeJoin(cspace, "", d.Target)
		} else {
			part.Join = w.spaces.AddElementCompositeJoin(cspace, "", d.Target)
		}
		part.Join.Fetched = true
		fetches, err := w.compositeFetches(w.space(part.Join.RightUID), d.Target, depth)
		if err != nil {
			return nil, err
		}
		part.Fetches = fetches
	case schema.ElementBasic:
	}
	return part, nil
}

// anyFetch has no single target table, so it is never join fetched
func (w *walk) anyFetch(owner string, attr *schema.Attribute, depth int) *Fetch {
	f := w.newFetch(owner, attr, FetchAny, "any", depth+1)
	if f.Strategy.Style == schema.StyleJoin {
		w.downgrade(f, DowngradeNotJoinable)
	}
	return f
}

func (w *walk) newFetch(owner string, attr *schema.Attribute, kind FetchKind, target string, depth int) *Fetch {
	fs := w.strategy(owner, attr)
	return &Fetch{
		Attribute:  attr,
		Owner:      owner,
		Kind:       kind,
		Target:     target,
		Strategy:   fs,
		Configured: fs,
		Depth:      depth,
	}
}

// strategy applies the fetch profile on top of the mapped strategy. Profile
// keys name the entity or any of its supertypes.
func (w *walk) strategy(owner string, attr *schema.Attribute) schema.FetchStrategy {
	if w.opts.Profile == nil {
		return attr.Fetch
	}
	seen := make(map[string]bool)
	for name := owner; name != "" && !seen[name]; {
		seen[name] = true
		if fs, ok := w.opts.Profile.Override(name, attr.Name); ok {
			return fs
		}
		e, ok := w.registry.Entity(name)
		if !ok {
			break
		}
		name = e.Supertype
	}
	return attr.Fetch
}

func (w *walk) downgrade(f *Fetch, reason DowngradeReason) {
	f.Strategy = schema.FetchStrategy{Timing: f.Strategy.Timing, Style: schema.StyleSelect}
	f.Reason = reason

	w.logger.Debug("downgraded fetch",
		zap.String("attribute", f.Owner+"."+f.Attribute.Name),
		zap.Int("depth", f.Depth),
		zap.Stringer("reason", reason))
}

func (w *walk) space(uid string) *queryspace.QuerySpace {
	space, _ := w.spaces.FindQuerySpaceByUID(uid)
	return space
}
