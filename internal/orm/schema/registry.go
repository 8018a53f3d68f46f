package schema

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds every persister descriptor of one mapped domain model.
// It is populated once and then read concurrently by compilations.
type Registry struct {
	entities    map[string]*EntitySchema
	composites  map[string]*CompositeSchema
	collections map[string]*CollectionSchema
	profiles    map[string]*FetchProfile
	validator   *SchemaValidator
	mu          sync.RWMutex
}

// NewRegistry creates a new schema registry
func NewRegistry() *Registry {
	return &Registry{
		entities:    make(map[string]*EntitySchema),
		composites:  make(map[string]*CompositeSchema),
		collections: make(map[string]*CollectionSchema),
		profiles:    make(map[string]*FetchProfile),
		validator:   NewSchemaValidator(),
	}
}

// RegisterEntity registers an entity persister
func (r *Registry) RegisterEntity(schema *EntitySchema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entities[schema.Name]; exists {
		return fmt.Errorf("entity %s is already registered", schema.Name)
	}
	if err := r.validator.ValidateEntity(schema); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", schema.Name, err)
	}

	r.entities[schema.Name] = schema
	return nil
}

// RegisterComposite registers an embeddable composite type
func (r *Registry) RegisterComposite(schema *CompositeSchema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.composites[schema.Name]; exists {
		return fmt.Errorf("composite %s is already registered", schema.Name)
	}
	if err := r.validator.ValidateComposite(schema); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", schema.Name, err)
	}

	r.composites[schema.Name] = schema
	return nil
}

// RegisterCollection registers a collection persister
func (r *Registry) RegisterCollection(schema *CollectionSchema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.collections[schema.Role]; exists {
		return fmt.Errorf("collection %s is already registered", schema.Role)
	}
	if err := r.validator.ValidateCollection(schema); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", schema.Role, err)
	}

	r.collections[schema.Role] = schema
	return nil
}

// RegisterFetchProfile registers a named fetch profile
func (r *Registry) RegisterFetchProfile(profile *FetchProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.profiles[profile.Name]; exists {
		return fmt.Errorf("fetch profile %s is already registered", profile.Name)
	}
	r.profiles[profile.Name] = profile
	return nil
}

// Entity retrieves an entity persister by name
func (r *Registry) Entity(name string) (*EntitySchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schema, exists := r.entities[name]
	return schema, exists
}

// Composite retrieves a composite type by name
func (r *Registry) Composite(name string) (*CompositeSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schema, exists := r.composites[name]
	return schema, exists
}

// Collection retrieves a collection persister by role
func (r *Registry) Collection(role string) (*CollectionSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schema, exists := r.collections[role]
	return schema, exists
}

// FetchProfile retrieves a fetch profile by name
func (r *Registry) FetchProfile(name string) (*FetchProfile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, exists := r.profiles[name]
	return profile, exists
}

// EntityNames returns the sorted names of all registered entities
func (r *Registry) EntityNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entities))
	for name := range r.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CollectionRoles returns the sorted roles of all registered collections
func (r *Registry) CollectionRoles() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roles := make([]string, 0, len(r.collections))
	for role := range r.collections {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// FetchProfileNames returns the sorted names of all registered fetch profiles
func (r *Registry) FetchProfileNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Attribute finds a navigable attribute of a managed type. Entity lookups
// include the identifier and walk the supertype chain.
func (r *Registry) Attribute(mt ManagedType, name string) (*Attribute, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch mt.Kind {
	case ManagedComposite:
		c, ok := r.composites[mt.Name]
		if !ok {
			return nil, false
		}
		return c.DeclaredAttribute(name)
	default:
		seen := make(map[string]bool)
		for entityName := mt.Name; entityName != "" && !seen[entityName]; {
			seen[entityName] = true
			e, ok := r.entities[entityName]
			if !ok {
				return nil, false
			}
			if attr, ok := e.DeclaredAttribute(name); ok {
				return attr, true
			}
			entityName = e.Supertype
		}
		return nil, false
	}
}

// EntityIdentifier returns the identifier of an entity, inherited from the
// nearest supertype that declares one.
func (r *Registry) EntityIdentifier(name string) (*Identifier, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for entityName := name; entityName != "" && !seen[entityName]; {
		seen[entityName] = true
		e, ok := r.entities[entityName]
		if !ok {
			return nil, false
		}
		if e.Identifier != nil {
			return e.Identifier, true
		}
		entityName = e.Supertype
	}
	return nil, false
}

// EntityAttributes returns all attributes of an entity, supertype attributes
// first, excluding the identifier.
func (r *Registry) EntityAttributes(name string) []*Attribute {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var chain []*EntitySchema
	seen := make(map[string]bool)
	for entityName := name; entityName != "" && !seen[entityName]; {
		seen[entityName] = true
		e, ok := r.entities[entityName]
		if !ok {
			break
		}
		chain = append(chain, e)
		entityName = e.Supertype
	}

	var attrs []*Attribute
	for i := len(chain) - 1; i >= 0; i-- {
		attrs = append(attrs, chain[i].Attributes...)
	}
	return attrs
}

// IsSubtypeOf reports whether sub equals super or inherits from it
func (r *Registry) IsSubtypeOf(sub, super string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for entityName := sub; entityName != "" && !seen[entityName]; {
		if entityName == super {
			return true
		}
		seen[entityName] = true
		e, ok := r.entities[entityName]
		if !ok {
			return false
		}
		entityName = e.Supertype
	}
	return false
}

// ValidateAll performs cross-persister validation on the whole model
func (r *Registry) ValidateAll() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	graph := NewTypeGraph(r.entities, r.composites)
	if cycles := graph.DetectCycles(); len(cycles) > 0 {
		return fmt.Errorf("circular type references detected:\n%s", formatCycles(cycles))
	}

	refValidator := NewReferenceValidator(r.entities, r.composites, r.collections, r.profiles)
	if err := refValidator.Validate(); err != nil {
		return fmt.Errorf("reference validation failed: %w", err)
	}

	return nil
}

// RegistryStats summarizes the registered model
type RegistryStats struct {
	TotalEntities    int
	TotalComposites  int
	TotalCollections int
	TotalAttributes  int
	TotalProfiles    int
	Associations     int
}

// GetStats returns statistics about the registry
func (r *Registry) GetStats() *RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &RegistryStats{
		TotalEntities:    len(r.entities),
		TotalComposites:  len(r.composites),
		TotalCollections: len(r.collections),
		TotalProfiles:    len(r.profiles),
	}
	for _, e := range r.entities {
		stats.TotalAttributes += len(e.Attributes)
		for _, a := range e.Attributes {
			if a.Kind.IsAssociation() {
				stats.Associations++
			}
		}
	}
	for _, c := range r.composites {
		stats.TotalAttributes += len(c.Attributes)
	}
	return stats
}
