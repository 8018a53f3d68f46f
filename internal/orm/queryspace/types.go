// Package queryspace provides the query-space graph of one query
// compilation: the relational units (entity, collection and composite
// spaces) that take part in the query and the joins between them.
//
// All spaces and joins are owned by a single QuerySpaces registry. Joins
// reference the spaces they connect by uid only.
package queryspace

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/querymodel/internal/orm/schema"
)

// Disposition classifies what a query space represents
type Disposition int

const (
	DispositionEntity Disposition = iota
	DispositionCollection
	DispositionComposite
)

// String returns the string representation of the disposition
func (d Disposition) String() string {
	switch d {
	case DispositionEntity:
		return "entity"
	case DispositionCollection:
		return "collection"
	case DispositionComposite:
		return "composite"
	default:
		return "unknown"
	}
}

// JoinType represents the type of SQL join
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	FullJoin
)

// String returns the string representation of the join type
func (j JoinType) String() string {
	switch j {
	case InnerJoin:
		return "INNER"
	case LeftJoin:
		return "LEFT"
	case RightJoin:
		return "RIGHT"
	case FullJoin:
		return "FULL"
	default:
		return "INNER"
	}
}

// IsOuter reports whether the join keeps unmatched rows of either side
func (j JoinType) IsOuter() bool {
	return j != InnerJoin
}

// ParseJoinType converts a string to a JoinType
func ParseJoinType(s string) (JoinType, error) {
	switch strings.ToLower(s) {
	case "", "inner":
		return InnerJoin, nil
	case "left":
		return LeftJoin, nil
	case "right":
		return RightJoin, nil
	case "full":
		return FullJoin, nil
	default:
		return InnerJoin, fmt.Errorf("unknown join type: %s", s)
	}
}

// JoinRole tells what part of the left-hand space a join navigates
type JoinRole int

const (
	// RoleAttribute joins through a mapped attribute
	RoleAttribute JoinRole = iota
	// RoleElement joins a collection space to its element
	RoleElement
	// RoleIndex joins a collection space to its map key or list index
	RoleIndex
)

// String returns the string representation of the join role
func (r JoinRole) String() string {
	switch r {
	case RoleAttribute:
		return "attribute"
	case RoleElement:
		return "element"
	case RoleIndex:
		return "index"
	default:
		return "unknown"
	}
}

// QuerySpace is one relational unit participating in a query
type QuerySpace struct {
	uid         string
	disposition Disposition
	entity      string
	collection  string
	composite   string
	ownerUID    string
	joins       []*Join
	registry    *QuerySpaces
}

// NewEntitySpace creates an unregistered entity query space
func NewEntitySpace(uid, entity string) *QuerySpace {
	return &QuerySpace{uid: uid, disposition: DispositionEntity, entity: entity}
}

// NewCollectionSpace creates an unregistered collection query space
func NewCollectionSpace(uid, role string) *QuerySpace {
	return &QuerySpace{uid: uid, disposition: DispositionCollection, collection: role}
}

// NewCompositeSpace creates an unregistered composite query space. The
// owner uid names the entity or collection space whose table holds the
// composite's columns.
func NewCompositeSpace(uid, composite, ownerUID string) *QuerySpace {
	return &QuerySpace{uid: uid, disposition: DispositionComposite, composite: composite, ownerUID: ownerUID}
}

// UID returns the registry-unique id of the space
func (s *QuerySpace) UID() string { return s.uid }

// Disposition returns whether this is an entity, collection or composite space
func (s *QuerySpace) Disposition() Disposition { return s.disposition }

// EntityName returns the entity persister name of an entity space
func (s *QuerySpace) EntityName() string { return s.entity }

// CollectionRole returns the collection role of a collection space
func (s *QuerySpace) CollectionRole() string { return s.collection }

// CompositeName returns the composite type name of a composite space
func (s *QuerySpace) CompositeName() string { return s.composite }

// OwnerUID returns the uid of the space a composite space belongs to
func (s *QuerySpace) OwnerUID() string { return s.ownerUID }

// Joins returns the outgoing joins in creation order
func (s *QuerySpace) Joins() []*Join {
	out := make([]*Join, len(s.joins))
	copy(out, s.joins)
	return out
}

// ManagedType returns the navigable type of an entity or composite space
func (s *QuerySpace) ManagedType() (schema.ManagedType, bool) {
	switch s.disposition {
	case DispositionEntity:
		return schema.EntityType(s.entity), true
	case DispositionComposite:
		return schema.CompositeType(s.composite), true
	default:
		return schema.ManagedType{}, false
	}
}

// String returns "uid(disposition Name)"
func (s *QuerySpace) String() string {
	name := s.entity
	switch s.disposition {
	case DispositionCollection:
		name = s.collection
	case DispositionComposite:
		name = s.composite
	}
	return fmt.Sprintf("%s(%s %s)", s.uid, s.disposition, name)
}

// Join is a directed edge between two query spaces of one registry
type Join struct {
	LeftUID   string
	RightUID  string
	Role      JoinRole
	Attribute *schema.Attribute // nil for element and index joins
	Type      JoinType
	Fetched   bool
}

// Optional reports outer join intent
func (j *Join) Optional() bool {
	return j.Type.IsOuter()
}

// String returns a one-line description of the join
func (j *Join) String() string {
	via := j.Role.String()
	if j.Attribute != nil {
		via = j.Attribute.Name
	}
	s := fmt.Sprintf("%s -[%s %s]-> %s", j.LeftUID, j.Type, via, j.RightUID)
	if j.Fetched {
		s += " fetch"
	}
	return s
}
