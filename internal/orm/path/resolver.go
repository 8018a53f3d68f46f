package path

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	cerrors "github.com/conduit-lang/querymodel/internal/compiler/errors"
	"github.com/conduit-lang/querymodel/internal/orm/queryspace"
	"github.com/conduit-lang/querymodel/internal/orm/schema"
)

type bindingKey struct {
	source *Binding
	name   string
}

// Resolver resolves path expressions against one from clause. A resolver
// belongs to a single compilation and is not safe for concurrent use.
type Resolver struct {
	registry *schema.Registry
	spaces   *queryspace.QuerySpaces
	clause   *FromClause
	cache    map[bindingKey]*Binding
	logger   *zap.Logger
}

// NewResolver creates a resolver over clause
func NewResolver(clause *FromClause, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		registry: clause.registry,
		spaces:   clause.spaces,
		clause:   clause,
		cache:    make(map[bindingKey]*Binding),
		logger:   logger,
	}
}

// WithScope returns a resolver over a nested clause that shares this
// resolver's reusable joins
func (r *Resolver) WithScope(clause *FromClause) *Resolver {
	scoped := *r
	scoped.clause = clause
	return &scoped
}

// Clause returns the scope the resolver declares joins in
func (r *Resolver) Clause() *FromClause {
	return r.clause
}

// Resolve resolves a dotted path under ctx
func (r *Resolver) Resolve(ctx *Context, path string) (*Binding, error) {
	parts, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	root, consumed, err := r.resolveRoot(ctx, parts, path)
	if err != nil {
		return nil, err
	}

	return r.resolveSegments(ctx, root, parts[consumed:], path, consumed)
}

// ResolveFrom continues resolution of a relative path from an existing
// binding, typically a treated one
func (r *Resolver) ResolveFrom(ctx *Context, from *Binding, path string) (*Binding, error) {
	parts, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	if ctx.ValidateRoot != nil && from.from != nil {
		if err := ctx.ValidateRoot(from.from, cerrors.At(path, 0)); err != nil {
			return nil, err
		}
	}
	return r.resolveSegments(ctx, from, parts, path, 0)
}

// Select resolves a path in selection context
func (r *Resolver) Select(path string) (*Binding, error) {
	return r.Resolve(SelectionContext(), path)
}

// Join declares an explicit join of path under alias and returns the new
// from-element. The alias becomes an identification variable of the
// resolver's clause.
func (r *Resolver) Join(path, alias string, joinType queryspace.JoinType, fetched bool) (*FromElement, error) {
	if alias != "" {
		if _, exists := r.clause.Lookup(alias); exists {
			return nil, cerrors.NewDuplicateAlias(cerrors.Whole(path), alias)
		}
	}

	parts, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	if len(parts) == 1 {
		if fe, ok := r.clause.Lookup(parts[0]); ok {
			if fe.treatedAs != "" {
				return nil, cerrors.NewTreatJoinTarget(cerrors.At(path, 0), parts[0])
			}
			return nil, cerrors.NewUnresolvedPath(cerrors.At(path, 0), parts[0]).
				WithSuggestion("A join must navigate an attribute, not an identification variable")
		}
	}

	binding, err := r.Resolve(JoinAttributeContext(alias, joinType, fetched), path)
	if err != nil {
		return nil, err
	}
	return binding.from, nil
}

// JoinOn resolves the paths of join's on-clause
func (r *Resolver) JoinOn(join *FromElement, paths ...string) ([]*Binding, error) {
	ctx := JoinPredicateContext(join)
	bindings := make([]*Binding, 0, len(paths))
	for _, p := range paths {
		b, err := r.Resolve(ctx, p)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}
	return bindings, nil
}

// Treat narrows an entity-valued binding to subtype. An unjoined reference
// is joined first under ctx, so an on-clause context rejects it; nil means
// PlainContext. A non-empty alias declares the treated reference as an
// identification variable.
func (r *Resolver) Treat(ctx *Context, b *Binding, subtype, alias string) (*Binding, error) {
	if ctx == nil {
		ctx = PlainContext()
	}
	loc := cerrors.Whole(b.path)

	mt, ok := b.ManagedType()
	if !ok || mt.Kind != schema.ManagedEntity {
		return nil, cerrors.NewInvalidTreat(loc, b.String(), subtype, "not an entity reference")
	}
	if _, ok := r.registry.Entity(subtype); !ok {
		return nil, cerrors.NewInvalidTreat(loc, b.String(), subtype, "unknown entity")
	}
	if !r.registry.IsSubtypeOf(subtype, mt.Name) {
		return nil, cerrors.NewInvalidTreat(loc, b.String(), subtype,
			fmt.Sprintf("%s is not a subtype of %s", subtype, mt.Name))
	}
	if alias != "" {
		if _, exists := r.clause.Lookup(alias); exists {
			return nil, cerrors.NewDuplicateAlias(loc, alias)
		}
	}

	if !b.IsJoined() {
		if ctx.ForbidImplicitJoins {
			return nil, cerrors.NewImplicitJoinInOnClause(loc, b.attribute.Name)
		}
		r.materialize(ctx, b, "")
	}

	treated := &Binding{
		source:    b.source,
		attribute: b.attribute,
		path:      b.path,
		navType:   schema.EntityType(subtype),
		navigable: true,
		treats:    append(b.Treats(), subtype),
		from:      b.from,
	}
	if alias != "" {
		fe := &FromElement{
			alias:     alias,
			space:     b.from.space,
			join:      b.from.join,
			binding:   treated,
			clause:    r.clause,
			treatedAs: subtype,
		}
		r.clause.add(fe)
		treated.from = fe
	}

	r.logger.Debug("treat",
		zap.String("path", b.path),
		zap.String("subtype", subtype))
	return treated, nil
}

func (r *Resolver) resolveRoot(ctx *Context, parts []string, path string) (*Binding, int, error) {
	loc := cerrors.At(path, 0)

	fe, consumed, ok := r.lookupAlias(parts[0])
	if !ok {
		fe, ok = r.lookupExposing(parts[0])
	}
	if !ok {
		return nil, 0, cerrors.NewUnresolvedPath(loc, parts[0])
	}

	if ctx.ValidateRoot != nil {
		if err := ctx.ValidateRoot(fe, loc); err != nil {
			return nil, 0, err
		}
	}
	return fe.binding, consumed, nil
}

func (r *Resolver) lookupAlias(name string) (*FromElement, int, bool) {
	fe, ok := r.clause.Lookup(name)
	if !ok {
		r.logger.Debug("resolution miss", zap.String("name", name), zap.String("as", "identification variable"))
		return nil, 0, false
	}
	return fe, 1, true
}

func (r *Resolver) lookupExposing(name string) (*FromElement, bool) {
	fe, ok := r.clause.exposing(name)
	if !ok {
		r.logger.Debug("resolution miss", zap.String("name", name), zap.String("as", "attribute"))
	}
	return fe, ok
}

func (r *Resolver) resolveSegments(ctx *Context, current *Binding, segments []string, path string, offset int) (*Binding, error) {
	for i, segment := range segments {
		idx := offset + i
		if err := r.dereference(ctx, current, i > 0, cerrors.At(path, idx-1)); err != nil {
			return nil, err
		}

		next, err := r.bind(ctx, current, segment, path, idx)
		if err != nil {
			return nil, err
		}
		current = next
	}

	join, err := r.joinsTerminal(ctx, current, cerrors.Whole(path))
	if err != nil {
		return nil, err
	}
	if join {
		if current.IsJoined() {
			r.logger.Debug("reused join", zap.String("context", ctx.Name), zap.String("path", current.path))
		} else {
			r.materialize(ctx, current, ctx.Alias)
		}
	}
	return current, nil
}

// dereference checks that a path may continue past b and joins b if needed.
// inPath is false when b is the starting point of the path.
func (r *Resolver) dereference(ctx *Context, b *Binding, inPath bool, loc cerrors.Location) error {
	attr := b.attribute
	if attr != nil && attr.Kind.IsPlural() && (inPath || !b.IsJoined()) {
		return cerrors.NewPluralDereference(loc, attr.Name)
	}
	if !b.navigable {
		kind := "basic collection element"
		name := b.path
		if attr != nil {
			name = attr.Name
			if !attr.Kind.IsPlural() {
				kind = attr.Kind.String()
			}
		}
		return cerrors.NewNotDereferenceable(loc, name, kind)
	}
	if b.IsJoined() {
		return nil
	}
	if ctx.ForbidImplicitJoins && attr.Kind.IsEntityValued() {
		return cerrors.NewImplicitJoinInOnClause(loc, attr.Name)
	}
	r.materialize(ctx, b, "")
	return nil
}

func (r *Resolver) bind(ctx *Context, source *Binding, name, path string, idx int) (*Binding, error) {
	mt, _ := source.ManagedType()
	attr, ok := r.registry.Attribute(mt, name)
	if !ok {
		return nil, cerrors.NewUnresolvedNavigable(cerrors.At(path, idx), mt.Name, name)
	}

	key := bindingKey{source: source, name: attr.Name}
	if ctx.CanReuseImplicitJoins() {
		if b, ok := r.cache[key]; ok {
			return b, nil
		}
	}

	navType, navigable, err := r.navigableType(attr)
	if err != nil {
		return nil, err
	}
	b := &Binding{
		source:    source,
		attribute: attr,
		path:      source.prefix() + "." + attr.Name,
		navType:   navType,
		navigable: navigable,
	}
	if ctx.CanReuseImplicitJoins() {
		r.cache[key] = b
	}
	return b, nil
}

func (r *Resolver) navigableType(attr *schema.Attribute) (schema.ManagedType, bool, error) {
	switch attr.Kind {
	case schema.KindEmbedded:
		return schema.CompositeType(attr.Target), true, nil
	case schema.KindManyToOne, schema.KindOneToOne:
		return schema.EntityType(attr.Target), true, nil
	case schema.KindOneToMany, schema.KindManyToMany:
		collection, ok := r.registry.Collection(attr.Target)
		if !ok {
			return schema.ManagedType{}, false, cerrors.NewUnknownPersister("collection", attr.Target)
		}
		mt, ok := collection.Element.ManagedType()
		return mt, ok, nil
	case schema.KindBasic, schema.KindAny:
		return schema.ManagedType{}, false, nil
	default:
		panic(fmt.Sprintf("unhandled attribute kind %d", int(attr.Kind)))
	}
}

func (r *Resolver) joinsTerminal(ctx *Context, b *Binding, loc cerrors.Location) (bool, error) {
	if b.attribute == nil {
		return false, nil
	}
	switch ctx.Terminal {
	case TerminalAttribute:
		return false, nil
	case TerminalAssociation:
		return b.attribute.Kind.IsJoinable(), nil
	case TerminalJoin:
		if !b.attribute.Kind.IsJoinable() {
			return false, cerrors.NewNotDereferenceable(loc, b.attribute.Name, b.attribute.Kind.String()).
				WithSuggestion("Only embedded attributes, associations and collections can be joined")
		}
		return true, nil
	default:
		panic(fmt.Sprintf("unhandled terminal policy %d", int(ctx.Terminal)))
	}
}

// materialize realizes b as a join from its source's from-element
func (r *Resolver) materialize(ctx *Context, b *Binding, alias string) {
	source := b.source.from
	left := source.space
	attr := b.attribute

	clause := source.clause
	uid := ""
	if alias != "" {
		clause = r.clause
		uid = clause.spaceUID(alias)
	}

	var join *queryspace.Join
	var target *queryspace.QuerySpace
	switch attr.Kind {
	case schema.KindEmbedded:
		join = r.spaces.AddCompositeJoin(left, attr, uid, attr.Target)
		target = r.space(join.RightUID)
	case schema.KindManyToOne, schema.KindOneToOne:
		join = r.spaces.AddEntityJoin(left, attr, uid, attr.Target, ctx.JoinType)
		target = r.space(join.RightUID)
	case schema.KindOneToMany, schema.KindManyToMany:
		join, target = r.joinCollection(ctx, left, attr, uid)
	default:
		panic(fmt.Sprintf("attribute %s is not joinable", attr))
	}
	join.Fetched = ctx.Fetched

	fe := &FromElement{alias: alias, space: target, join: join, binding: b, clause: clause}
	b.SetFromElement(fe)
	if alias != "" {
		clause.add(fe)
	}

	r.logger.Debug("materialized join",
		zap.String("context", ctx.Name),
		zap.String("path", b.path),
		zap.String("alias", alias),
		zap.String("space", target.UID()))
}

// joinCollection joins the collection table and then its element. The
// alias names the element, which is what the path continues into.
func (r *Resolver) joinCollection(ctx *Context, left *queryspace.QuerySpace, attr *schema.Attribute, uid string) (*queryspace.Join, *queryspace.QuerySpace) {
	collection, ok := r.registry.Collection(attr.Target)
	if !ok {
		panic(cerrors.NewUnknownPersister("collection", attr.Target))
	}

	switch collection.Element.Kind {
	case schema.ElementEntity:
		cj := r.spaces.AddCollectionJoin(left, attr, "", collection.Role, ctx.JoinType)
		ej := r.spaces.AddElementEntityJoin(r.space(cj.RightUID), uid, collection.Element.Target, ctx.JoinType)
		ej.Fetched = ctx.Fetched
		return cj, r.space(ej.RightUID)
	case schema.ElementComposite:
		cj := r.spaces.AddCollectionJoin(left, attr, "", collection.Role, ctx.JoinType)
		ej := r.spaces.AddElementCompositeJoin(r.space(cj.RightUID), uid, collection.Element.Target)
		return cj, r.space(ej.RightUID)
	default:
		cj := r.spaces.AddCollectionJoin(left, attr, uid, collection.Role, ctx.JoinType)
		return cj, r.space(cj.RightUID)
	}
}

func (r *Resolver) space(uid string) *queryspace.QuerySpace {
	space, _ := r.spaces.FindQuerySpaceByUID(uid)
	return space
}

func splitPath(path string) ([]string, error) {
	parts := strings.Split(path, ".")
	for i, part := range parts {
		if part == "" {
			return nil, cerrors.NewUnresolvedPath(cerrors.At(path, i), path)
		}
	}
	return parts, nil
}
