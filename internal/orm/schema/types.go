// Package schema provides the read-only metadata model consumed by the
// query-model compiler: entity persisters, embeddable composite types,
// collection persisters and the attribute descriptors that connect them.
//
// Schemas are built once by the host, registered in a Registry, and then
// shared by any number of concurrent compilations. Nothing in the compiler
// mutates them.
package schema

import (
	"fmt"
)

// PrimitiveType represents the value type of a basic attribute
type PrimitiveType int

const (
	TypeString PrimitiveType = iota
	TypeText
	TypeInt
	TypeBigInt
	TypeFloat
	TypeDecimal
	TypeBool
	TypeTimestamp
	TypeDate
	TypeUUID
	TypeJSON
)

// String returns the string representation of the primitive type
func (p PrimitiveType) String() string {
	switch p {
	case TypeString:
		return "string"
	case TypeText:
		return "text"
	case TypeInt:
		return "int"
	case TypeBigInt:
		return "bigint"
	case TypeFloat:
		return "float"
	case TypeDecimal:
		return "decimal"
	case TypeBool:
		return "bool"
	case TypeTimestamp:
		return "timestamp"
	case TypeDate:
		return "date"
	case TypeUUID:
		return "uuid"
	case TypeJSON:
		return "json"
	default:
		return "unknown"
	}
}

// ParsePrimitiveType converts a string to a PrimitiveType
func ParsePrimitiveType(s string) (PrimitiveType, error) {
	switch s {
	case "string":
		return TypeString, nil
	case "text":
		return TypeText, nil
	case "int":
		return TypeInt, nil
	case "bigint":
		return TypeBigInt, nil
	case "float":
		return TypeFloat, nil
	case "decimal":
		return TypeDecimal, nil
	case "bool":
		return TypeBool, nil
	case "timestamp":
		return TypeTimestamp, nil
	case "date":
		return TypeDate, nil
	case "uuid":
		return TypeUUID, nil
	case "json":
		return TypeJSON, nil
	default:
		return 0, fmt.Errorf("unknown primitive type: %s", s)
	}
}

// AttributeKind classifies an attribute. The set is closed: every switch over
// it in this module lists all seven kinds and panics on anything else.
type AttributeKind int

const (
	KindBasic AttributeKind = iota
	KindEmbedded
	KindManyToOne
	KindOneToOne
	KindOneToMany
	KindManyToMany
	KindAny
)

// String returns the string representation of the attribute kind
func (k AttributeKind) String() string {
	switch k {
	case KindBasic:
		return "basic"
	case KindEmbedded:
		return "embedded"
	case KindManyToOne:
		return "many_to_one"
	case KindOneToOne:
		return "one_to_one"
	case KindOneToMany:
		return "one_to_many"
	case KindManyToMany:
		return "many_to_many"
	case KindAny:
		return "any"
	default:
		return "unknown"
	}
}

// ParseAttributeKind converts a string to an AttributeKind
func ParseAttributeKind(s string) (AttributeKind, error) {
	switch s {
	case "basic":
		return KindBasic, nil
	case "embedded":
		return KindEmbedded, nil
	case "many_to_one":
		return KindManyToOne, nil
	case "one_to_one":
		return KindOneToOne, nil
	case "one_to_many":
		return KindOneToMany, nil
	case "many_to_many":
		return KindManyToMany, nil
	case "any":
		return KindAny, nil
	default:
		return 0, fmt.Errorf("unknown attribute kind: %s", s)
	}
}

// IsPlural returns true for collection-valued kinds
func (k AttributeKind) IsPlural() bool {
	switch k {
	case KindOneToMany, KindManyToMany:
		return true
	case KindBasic, KindEmbedded, KindManyToOne, KindOneToOne, KindAny:
		return false
	default:
		panic(fmt.Sprintf("unhandled attribute kind %d", int(k)))
	}
}

// IsDereferenceable returns true if a path may continue past an attribute of this kind
func (k AttributeKind) IsDereferenceable() bool {
	switch k {
	case KindEmbedded, KindManyToOne, KindOneToOne:
		return true
	case KindBasic, KindOneToMany, KindManyToMany, KindAny:
		return false
	default:
		panic(fmt.Sprintf("unhandled attribute kind %d", int(k)))
	}
}

// IsJoinable returns true if an attribute of this kind can be realized as a join.
// Any-associations have no single target table and are not joinable.
func (k AttributeKind) IsJoinable() bool {
	switch k {
	case KindEmbedded, KindManyToOne, KindOneToOne, KindOneToMany, KindManyToMany:
		return true
	case KindBasic, KindAny:
		return false
	default:
		panic(fmt.Sprintf("unhandled attribute kind %d", int(k)))
	}
}

// IsAssociation returns true for kinds that reference another persister
func (k AttributeKind) IsAssociation() bool {
	switch k {
	case KindManyToOne, KindOneToOne, KindOneToMany, KindManyToMany, KindAny:
		return true
	case KindBasic, KindEmbedded:
		return false
	default:
		panic(fmt.Sprintf("unhandled attribute kind %d", int(k)))
	}
}

// IsEntityValued returns true for singular associations to an entity
func (k AttributeKind) IsEntityValued() bool {
	switch k {
	case KindManyToOne, KindOneToOne:
		return true
	case KindBasic, KindEmbedded, KindOneToMany, KindManyToMany, KindAny:
		return false
	default:
		panic(fmt.Sprintf("unhandled attribute kind %d", int(k)))
	}
}

// Attribute describes one mapped attribute of an entity or composite type
type Attribute struct {
	Name string
	Kind AttributeKind

	// Type is the value type of a basic attribute
	Type PrimitiveType

	// Target names the referenced entity (many_to_one, one_to_one), composite
	// type (embedded) or collection role (one_to_many, many_to_many).
	Target string

	Nullable bool
	Fetch    FetchStrategy
}

// String returns "name(kind)"
func (a *Attribute) String() string {
	return fmt.Sprintf("%s(%s)", a.Name, a.Kind)
}

// Identifier describes an entity identifier. The attribute may be basic,
// embedded (a composite id, whose attributes may include many_to_one
// key-many-to-one references) or many_to_one (a derived id).
type Identifier struct {
	Attribute *Attribute
}

// Name returns the identifier attribute name
func (id *Identifier) Name() string {
	if id == nil || id.Attribute == nil {
		return ""
	}
	return id.Attribute.Name
}

// EntitySchema is the entity persister descriptor
type EntitySchema struct {
	Name       string
	TableName  string
	Supertype  string
	Abstract   bool
	Identifier *Identifier
	Attributes []*Attribute
}

// NewEntitySchema creates a new EntitySchema
func NewEntitySchema(name string) *EntitySchema {
	return &EntitySchema{
		Name:       name,
		TableName:  toSnakeCase(name),
		Attributes: make([]*Attribute, 0),
	}
}

// WithIdentifier sets the identifier attribute and returns the schema
func (e *EntitySchema) WithIdentifier(attr *Attribute) *EntitySchema {
	e.Identifier = &Identifier{Attribute: attr}
	return e
}

// WithAttributes appends attributes in declaration order and returns the schema
func (e *EntitySchema) WithAttributes(attrs ...*Attribute) *EntitySchema {
	e.Attributes = append(e.Attributes, attrs...)
	return e
}

// DeclaredAttribute returns an attribute declared directly on this entity.
// The identifier counts as declared.
func (e *EntitySchema) DeclaredAttribute(name string) (*Attribute, bool) {
	if e.Identifier != nil && e.Identifier.Name() == name {
		return e.Identifier.Attribute, true
	}
	return findAttribute(e.Attributes, name)
}

// CompositeSchema describes an embeddable composite type
type CompositeSchema struct {
	Name       string
	Attributes []*Attribute
}

// NewCompositeSchema creates a new CompositeSchema
func NewCompositeSchema(name string, attrs ...*Attribute) *CompositeSchema {
	return &CompositeSchema{Name: name, Attributes: attrs}
}

// DeclaredAttribute returns the named attribute of the composite
func (c *CompositeSchema) DeclaredAttribute(name string) (*Attribute, bool) {
	return findAttribute(c.Attributes, name)
}

// ElementKind classifies a collection element or index
type ElementKind int

const (
	ElementBasic ElementKind = iota
	ElementEntity
	ElementComposite
)

// String returns the string representation of the element kind
func (k ElementKind) String() string {
	switch k {
	case ElementBasic:
		return "basic"
	case ElementEntity:
		return "entity"
	case ElementComposite:
		return "composite"
	default:
		return "unknown"
	}
}

// ParseElementKind converts a string to an ElementKind
func ParseElementKind(s string) (ElementKind, error) {
	switch s {
	case "basic":
		return ElementBasic, nil
	case "entity":
		return ElementEntity, nil
	case "composite":
		return ElementComposite, nil
	default:
		return 0, fmt.Errorf("unknown element kind: %s", s)
	}
}

// ElementDescriptor describes a collection element or index
type ElementDescriptor struct {
	Kind   ElementKind
	Target string // entity or composite name
	Type   PrimitiveType
}

// ManagedType returns the navigable type of the element, if it has one
func (d ElementDescriptor) ManagedType() (ManagedType, bool) {
	switch d.Kind {
	case ElementEntity:
		return EntityType(d.Target), true
	case ElementComposite:
		return CompositeType(d.Target), true
	default:
		return ManagedType{}, false
	}
}

// CollectionSchema is the collection persister descriptor
type CollectionSchema struct {
	Role      string // "Owner.attribute"
	Owner     string
	TableName string
	Element   ElementDescriptor
	Index     *ElementDescriptor
}

// NewCollectionSchema creates a new CollectionSchema for owner.attribute
func NewCollectionSchema(owner, attribute string, element ElementDescriptor) *CollectionSchema {
	return &CollectionSchema{
		Role:      owner + "." + attribute,
		Owner:     owner,
		TableName: toSnakeCase(owner) + "_" + toSnakeCase(attribute),
		Element:   element,
	}
}

// ManagedKind distinguishes entity and composite managed types
type ManagedKind int

const (
	ManagedEntity ManagedKind = iota
	ManagedComposite
)

// ManagedType identifies a type whose attributes can be navigated
type ManagedType struct {
	Kind ManagedKind
	Name string
}

// EntityType returns the managed type of the named entity
func EntityType(name string) ManagedType {
	return ManagedType{Kind: ManagedEntity, Name: name}
}

// CompositeType returns the managed type of the named composite
func CompositeType(name string) ManagedType {
	return ManagedType{Kind: ManagedComposite, Name: name}
}

// String returns the type name
func (m ManagedType) String() string {
	return m.Name
}

func findAttribute(attrs []*Attribute, name string) (*Attribute, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// toSnakeCase converts a string to snake_case
func toSnakeCase(s string) string {
	var result []rune
	runes := []rune(s)

	for i, r := range runes {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := runes[i-1]
			if prev >= 'a' && prev <= 'z' {
				result = append(result, '_')
			} else if i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z' {
				result = append(result, '_')
			}
		}
		if r >= 'A' && r <= 'Z' {
			result = append(result, r+('a'-'A'))
		} else {
			result = append(result, r)
		}
	}
	return string(result)
}
