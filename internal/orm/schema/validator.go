package schema

import (
	"fmt"
	"sort"
	"strings"

	cerrors "github.com/conduit-lang/querymodel/internal/compiler/errors"
)

// ValidationError represents a schema validation error with context
type ValidationError struct {
	Owner     string
	Attribute string
	Message   string
	Hint      string
	Code      cerrors.ErrorCode
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	var b strings.Builder

	if e.Code != "" {
		b.WriteString(fmt.Sprintf("[%s] ", e.Code))
	}
	if e.Owner != "" {
		b.WriteString(e.Owner)
		if e.Attribute != "" {
			b.WriteString(".")
			b.WriteString(e.Attribute)
		}
		b.WriteString(": ")
	}

	b.WriteString(e.Message)

	if e.Hint != "" {
		b.WriteString("\n  hint: ")
		b.WriteString(e.Hint)
	}

	return b.String()
}

// ValidationErrors aggregates every problem found in one validation pass
type ValidationErrors []*ValidationError

// Error implements the error interface
func (ve ValidationErrors) Error() string {
	msgs := make([]string, 0, len(ve))
	for _, err := range ve {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation error(s):\n%s", len(ve), strings.Join(msgs, "\n"))
}

// SchemaValidator performs structural checks on a single descriptor, without
// looking at other registered types. Registration uses it so forward
// references remain possible.
type SchemaValidator struct{}

// NewSchemaValidator creates a new schema validator
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{}
}

// ValidateEntity validates one entity persister
func (v *SchemaValidator) ValidateEntity(schema *EntitySchema) error {
	var errs ValidationErrors

	if schema.Name == "" {
		errs = append(errs, &ValidationError{Message: "entity name is required"})
	}
	if schema.Identifier == nil && schema.Supertype == "" {
		errs = append(errs, &ValidationError{
			Owner:   schema.Name,
			Message: "entity must declare an identifier",
			Hint:    "Root entities declare the identifier; subtypes inherit it",
		})
	}
	if schema.Identifier != nil {
		id := schema.Identifier.Attribute
		if id == nil {
			errs = append(errs, &ValidationError{Owner: schema.Name, Message: "identifier has no attribute"})
		} else if id.Kind.IsPlural() {
			errs = append(errs, &ValidationError{
				Owner:     schema.Name,
				Attribute: id.Name,
				Message:   "identifier cannot be collection-valued",
				Code:      cerrors.ErrCollectionInIdentifier,
			})
		} else if id.Kind != KindBasic && id.Kind != KindEmbedded && id.Kind != KindManyToOne {
			errs = append(errs, &ValidationError{
				Owner:     schema.Name,
				Attribute: id.Name,
				Message:   fmt.Sprintf("identifier kind %s is not supported", id.Kind),
				Hint:      "Use basic, embedded or many_to_one",
			})
		}
	}

	attrs := schema.Attributes
	if schema.Identifier != nil && schema.Identifier.Attribute != nil {
		attrs = append([]*Attribute{schema.Identifier.Attribute}, attrs...)
	}
	errs = append(errs, validateAttributes(schema.Name, attrs)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateComposite validates one composite type
func (v *SchemaValidator) ValidateComposite(schema *CompositeSchema) error {
	var errs ValidationErrors

	if schema.Name == "" {
		errs = append(errs, &ValidationError{Message: "composite name is required"})
	}
	if len(schema.Attributes) == 0 {
		errs = append(errs, &ValidationError{Owner: schema.Name, Message: "composite must declare at least one attribute"})
	}
	errs = append(errs, validateAttributes(schema.Name, schema.Attributes)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateCollection validates one collection persister
func (v *SchemaValidator) ValidateCollection(schema *CollectionSchema) error {
	var errs ValidationErrors

	if schema.Role == "" || schema.Owner == "" {
		errs = append(errs, &ValidationError{Owner: schema.Role, Message: "collection role and owner are required"})
	}
	if !strings.HasPrefix(schema.Role, schema.Owner+".") {
		errs = append(errs, &ValidationError{
			Owner:   schema.Role,
			Message: fmt.Sprintf("role must be qualified by its owner %s", schema.Owner),
		})
	}
	if schema.Element.Kind != ElementBasic && schema.Element.Target == "" {
		errs = append(errs, &ValidationError{Owner: schema.Role, Message: "element target is required"})
	}
	if schema.Index != nil && schema.Index.Kind != ElementBasic && schema.Index.Target == "" {
		errs = append(errs, &ValidationError{Owner: schema.Role, Message: "index target is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateAttributes(owner string, attrs []*Attribute) ValidationErrors {
	var errs ValidationErrors
	seen := make(map[string]bool)

	for _, attr := range attrs {
		if attr.Name == "" {
			errs = append(errs, &ValidationError{Owner: owner, Message: "attribute name is required"})
			continue
		}
		if seen[attr.Name] {
			errs = append(errs, &ValidationError{Owner: owner, Attribute: attr.Name, Message: "duplicate attribute"})
		}
		seen[attr.Name] = true

		switch attr.Kind {
		case KindBasic:
			if attr.Target != "" {
				errs = append(errs, &ValidationError{Owner: owner, Attribute: attr.Name, Message: "basic attribute cannot have a target"})
			}
		case KindEmbedded, KindManyToOne, KindOneToOne, KindOneToMany, KindManyToMany:
			if attr.Target == "" {
				errs = append(errs, &ValidationError{
					Owner:     owner,
					Attribute: attr.Name,
					Message:   fmt.Sprintf("%s attribute requires a target", attr.Kind),
				})
			}
		case KindAny:
		default:
			errs = append(errs, &ValidationError{Owner: owner, Attribute: attr.Name, Message: "unknown attribute kind"})
		}
	}

	return errs
}

// ReferenceValidator checks references between registered descriptors
type ReferenceValidator struct {
	entities    map[string]*EntitySchema
	composites  map[string]*CompositeSchema
	collections map[string]*CollectionSchema
	profiles    map[string]*FetchProfile
	errors      ValidationErrors
}

// NewReferenceValidator creates a new reference validator
func NewReferenceValidator(
	entities map[string]*EntitySchema,
	composites map[string]*CompositeSchema,
	collections map[string]*CollectionSchema,
	profiles map[string]*FetchProfile,
) *ReferenceValidator {
	return &ReferenceValidator{
		entities:    entities,
		composites:  composites,
		collections: collections,
		profiles:    profiles,
	}
}

// Validate validates all cross references; errors are reported in a stable order
func (v *ReferenceValidator) Validate() error {
	v.errors = nil

	for _, name := range sortedKeys(v.entities) {
		e := v.entities[name]
		if e.Supertype != "" {
			if _, ok := v.entities[e.Supertype]; !ok {
				v.add(name, "", fmt.Sprintf("unknown supertype %s", e.Supertype))
			}
		}
		if e.Identifier != nil && e.Identifier.Attribute != nil {
			v.validateAttribute(name, e.Identifier.Attribute)
			v.validateIdentifierSingular(name, e.Identifier.Attribute, map[string]bool{})
		}
		for _, attr := range e.Attributes {
			v.validateAttribute(name, attr)
		}
	}
	for _, name := range sortedKeys(v.composites) {
		for _, attr := range v.composites[name].Attributes {
			v.validateAttribute(name, attr)
		}
	}
	for _, role := range sortedKeys(v.collections) {
		c := v.collections[role]
		if _, ok := v.entities[c.Owner]; !ok {
			v.add(role, "", fmt.Sprintf("unknown owner entity %s", c.Owner))
		}
		v.validateElement(role, "element", c.Element)
		if c.Index != nil {
			v.validateElement(role, "index", *c.Index)
		}
	}
	for _, name := range sortedKeys(v.profiles) {
		for _, key := range sortedKeys(v.profiles[name].Overrides) {
			entity, attribute, ok := strings.Cut(key, ".")
			if !ok || !v.entityHasAttribute(entity, attribute) {
				v.add("profile "+name, key, "override references an unknown attribute")
			}
		}
	}

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

func (v *ReferenceValidator) validateAttribute(owner string, attr *Attribute) {
	switch attr.Kind {
	case KindManyToOne, KindOneToOne:
		if _, ok := v.entities[attr.Target]; !ok {
			v.add(owner, attr.Name, fmt.Sprintf("unknown target entity %s", attr.Target))
		}
	case KindEmbedded:
		if _, ok := v.composites[attr.Target]; !ok {
			v.add(owner, attr.Name, fmt.Sprintf("unknown composite type %s", attr.Target))
		}
	case KindOneToMany, KindManyToMany:
		if _, ok := v.collections[attr.Target]; !ok {
			v.add(owner, attr.Name, fmt.Sprintf("unknown collection role %s", attr.Target))
		}
	case KindBasic, KindAny:
	}
}

// validateIdentifierSingular rejects collections anywhere inside an identifier
func (v *ReferenceValidator) validateIdentifierSingular(owner string, attr *Attribute, seen map[string]bool) {
	if attr.Kind.IsPlural() {
		v.errors = append(v.errors, &ValidationError{
			Owner:     owner,
			Attribute: attr.Name,
			Message:   "identifier contains a collection-valued attribute",
			Code:      cerrors.ErrCollectionInIdentifier,
		})
		return
	}
	if attr.Kind != KindEmbedded || seen[attr.Target] {
		return
	}
	seen[attr.Target] = true
	c, ok := v.composites[attr.Target]
	if !ok {
		return
	}
	for _, nested := range c.Attributes {
		v.validateIdentifierSingular(owner, nested, seen)
	}
}

func (v *ReferenceValidator) validateElement(role, what string, d ElementDescriptor) {
	switch d.Kind {
	case ElementEntity:
		if _, ok := v.entities[d.Target]; !ok {
			v.add(role, "", fmt.Sprintf("unknown %s entity %s", what, d.Target))
		}
	case ElementComposite:
		if _, ok := v.composites[d.Target]; !ok {
			v.add(role, "", fmt.Sprintf("unknown %s composite %s", what, d.Target))
		}
	}
}

func (v *ReferenceValidator) entityHasAttribute(entity, attribute string) bool {
	seen := make(map[string]bool)
	for name := entity; name != "" && !seen[name]; {
		seen[name] = true
		e, ok := v.entities[name]
		if !ok {
			return false
		}
		if _, ok := e.DeclaredAttribute(attribute); ok {
			return true
		}
		name = e.Supertype
	}
	return false
}

func (v *ReferenceValidator) add(owner, attribute, message string) {
	v.errors = append(v.errors, &ValidationError{Owner: owner, Attribute: attribute, Message: message})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
