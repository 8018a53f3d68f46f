package queryspace

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	cerrors "github.com/conduit-lang/querymodel/internal/compiler/errors"
	"github.com/conduit-lang/querymodel/internal/orm/schema"
)

// QuerySpaces is the registry of every query space of one compilation. It is
// not safe for concurrent use; a compilation is single threaded.
type QuerySpaces struct {
	spaces   map[string]*QuerySpace
	order    []string
	roots    []string
	implicit int
	logger   *zap.Logger
}

// NewQuerySpaces creates an empty registry
func NewQuerySpaces(logger *zap.Logger) *QuerySpaces {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuerySpaces{
		spaces: make(map[string]*QuerySpace),
		logger: logger,
	}
}

// RegisterQuerySpace adds a space to the registry. Registering a uid twice,
// or a space that belongs to another registry, is a programming error and
// panics.
func (qs *QuerySpaces) RegisterQuerySpace(space *QuerySpace) {
	if _, exists := qs.spaces[space.uid]; exists {
		panic(cerrors.NewDuplicateQuerySpace(space.uid))
	}
	if space.registry != nil && space.registry != qs {
		panic(fmt.Sprintf("query space %s belongs to another registry", space.uid))
	}

	space.registry = qs
	qs.spaces[space.uid] = space
	qs.order = append(qs.order, space.uid)

	qs.logger.Debug("registered query space",
		zap.String("uid", space.uid),
		zap.Stringer("disposition", space.disposition))
}

// GenerateImplicitUID returns a fresh uid for an implicit join target
func (qs *QuerySpaces) GenerateImplicitUID() string {
	for {
		qs.implicit++
		uid := fmt.Sprintf("<gen:%d>", qs.implicit)
		if _, exists := qs.spaces[uid]; !exists {
			return uid
		}
	}
}

// FindQuerySpaceByUID looks a space up by uid
func (qs *QuerySpaces) FindQuerySpaceByUID(uid string) (*QuerySpace, bool) {
	space, ok := qs.spaces[uid]
	return space, ok
}

// MakeRootEntitySpace creates and registers a root entity space
func (qs *QuerySpaces) MakeRootEntitySpace(uid, entity string) *QuerySpace {
	space := NewEntitySpace(qs.uidOrImplicit(uid), entity)
	qs.RegisterQuerySpace(space)
	qs.roots = append(qs.roots, space.uid)
	return space
}

// MakeRootCollectionSpace creates and registers a root collection space
func (qs *QuerySpaces) MakeRootCollectionSpace(uid, role string) *QuerySpace {
	space := NewCollectionSpace(qs.uidOrImplicit(uid), role)
	qs.RegisterQuerySpace(space)
	qs.roots = append(qs.roots, space.uid)
	return space
}

// AddEntityJoin joins left through attr to a new entity space
func (qs *QuerySpaces) AddEntityJoin(left *QuerySpace, attr *schema.Attribute, uid, entity string, joinType JoinType) *Join {
	qs.checkOwned(left)
	right := NewEntitySpace(qs.uidOrImplicit(uid), entity)
	return qs.join(left, right, RoleAttribute, attr, joinType)
}

// AddCollectionJoin joins left through attr to a new collection space
func (qs *QuerySpaces) AddCollectionJoin(left *QuerySpace, attr *schema.Attribute, uid, role string, joinType JoinType) *Join {
	qs.checkOwned(left)
	right := NewCollectionSpace(qs.uidOrImplicit(uid), role)
	return qs.join(left, right, RoleAttribute, attr, joinType)
}

// AddCompositeJoin joins left through an embedded attribute to a new
// composite space. The composite shares the table of left's owner.
func (qs *QuerySpaces) AddCompositeJoin(left *QuerySpace, attr *schema.Attribute, uid, composite string) *Join {
	qs.checkOwned(left)
	right := NewCompositeSpace(qs.uidOrImplicit(uid), composite, tableOwner(left))
	return qs.join(left, right, RoleAttribute, attr, InnerJoin)
}

// AddElementEntityJoin joins a collection space to its entity element
func (qs *QuerySpaces) AddElementEntityJoin(collection *QuerySpace, uid, entity string, joinType JoinType) *Join {
	qs.checkCollection(collection)
	right := NewEntitySpace(qs.uidOrImplicit(uid), entity)
	return qs.join(collection, right, RoleElement, nil, joinType)
}

// AddIndexEntityJoin joins a collection space to its entity map key
func (qs *QuerySpaces) AddIndexEntityJoin(collection *QuerySpace, uid, entity string, joinType JoinType) *Join {
	qs.checkCollection(collection)
	right := NewEntitySpace(qs.uidOrImplicit(uid), entity)
	return qs.join(collection, right, RoleIndex, nil, joinType)
}

// AddElementCompositeJoin joins a collection space to its composite element
func (qs *QuerySpaces) AddElementCompositeJoin(collection *QuerySpace, uid, composite string) *Join {
	qs.checkCollection(collection)
	right := NewCompositeSpace(qs.uidOrImplicit(uid), composite, collection.uid)
	return qs.join(collection, right, RoleElement, nil, InnerJoin)
}

// AddIndexCompositeJoin joins a collection space to its composite map key
func (qs *QuerySpaces) AddIndexCompositeJoin(collection *QuerySpace, uid, composite string) *Join {
	qs.checkCollection(collection)
	right := NewCompositeSpace(qs.uidOrImplicit(uid), composite, collection.uid)
	return qs.join(collection, right, RoleIndex, nil, InnerJoin)
}

// RootSpaces returns the root spaces in creation order
func (qs *QuerySpaces) RootSpaces() []*QuerySpace {
	out := make([]*QuerySpace, 0, len(qs.roots))
	for _, uid := range qs.roots {
		out = append(out, qs.spaces[uid])
	}
	return out
}

// Spaces returns every space in registration order
func (qs *QuerySpaces) Spaces() []*QuerySpace {
	out := make([]*QuerySpace, 0, len(qs.order))
	for _, uid := range qs.order {
		out = append(out, qs.spaces[uid])
	}
	return out
}

// Len returns the number of registered spaces
func (qs *QuerySpaces) Len() int {
	return len(qs.spaces)
}

// JoinCount returns the number of joins between registered spaces
func (qs *QuerySpaces) JoinCount() int {
	n := 0
	for _, space := range qs.spaces {
		n += len(space.joins)
	}
	return n
}

// Describe renders the graph as an indented tree, one root after another
func (qs *QuerySpaces) Describe() string {
	var b strings.Builder
	for _, root := range qs.RootSpaces() {
		qs.describe(&b, root, 0)
	}

	// Spaces registered without a join from a root are listed last
	reachable := qs.reachable()
	var orphans []string
	for _, uid := range qs.order {
		if !reachable[uid] {
			orphans = append(orphans, uid)
		}
	}
	sort.Strings(orphans)
	for _, uid := range orphans {
		qs.describe(&b, qs.spaces[uid], 0)
	}
	return b.String()
}

func (qs *QuerySpaces) describe(b *strings.Builder, space *QuerySpace, indent int) {
	b.WriteString(strings.Repeat("  ", indent))
	b.WriteString(space.String())
	b.WriteString("\n")
	for _, join := range space.joins {
		b.WriteString(strings.Repeat("  ", indent+1))
		b.WriteString(join.String())
		b.WriteString("\n")
		if right, ok := qs.spaces[join.RightUID]; ok {
			qs.describe(b, right, indent+2)
		}
	}
}

func (qs *QuerySpaces) reachable() map[string]bool {
	seen := make(map[string]bool)
	var visit func(uid string)
	visit = func(uid string) {
		if seen[uid] {
			return
		}
		seen[uid] = true
		for _, join := range qs.spaces[uid].joins {
			visit(join.RightUID)
		}
	}
	for _, uid := range qs.roots {
		visit(uid)
	}
	return seen
}

func (qs *QuerySpaces) join(left, right *QuerySpace, role JoinRole, attr *schema.Attribute, joinType JoinType) *Join {
	qs.RegisterQuerySpace(right)

	join := &Join{
		LeftUID:   left.uid,
		RightUID:  right.uid,
		Role:      role,
		Attribute: attr,
		Type:      joinType,
	}
	left.joins = append(left.joins, join)

	qs.logger.Debug("created join",
		zap.String("left", join.LeftUID),
		zap.String("right", join.RightUID),
		zap.Stringer("role", role),
		zap.Stringer("type", joinType))
	return join
}

func (qs *QuerySpaces) uidOrImplicit(uid string) string {
	if uid == "" {
		return qs.GenerateImplicitUID()
	}
	return uid
}

func (qs *QuerySpaces) checkOwned(space *QuerySpace) {
	if space.registry != qs {
		panic(fmt.Sprintf("query space %s is not registered here", space.uid))
	}
}

func (qs *QuerySpaces) checkCollection(space *QuerySpace) {
	qs.checkOwned(space)
	if space.disposition != DispositionCollection {
		panic(fmt.Sprintf("query space %s is not a collection space", space.uid))
	}
}

// tableOwner returns the uid of the space whose table holds space's columns
func tableOwner(space *QuerySpace) string {
	if space.disposition == DispositionComposite {
		return space.ownerUID
	}
	return space.uid
}
