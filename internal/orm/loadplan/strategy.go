package loadplan

import (
	"sort"
	"strings"

	"github.com/conduit-lang/querymodel/internal/orm/schema"
)

// FetchProfile influences the fetch strategy of individual attributes for
// one compilation
type FetchProfile interface {
	Name() string
	Override(entity, attribute string) (schema.FetchStrategy, bool)
}

// NamedFetchProfile is a map-backed FetchProfile keyed by "Entity.attribute"
type NamedFetchProfile struct {
	name      string
	overrides map[string]schema.FetchStrategy
}

// NewNamedFetchProfile creates an empty profile
func NewNamedFetchProfile(name string) *NamedFetchProfile {
	return &NamedFetchProfile{name: name, overrides: make(map[string]schema.FetchStrategy)}
}

// ProfileFromSchema adapts a fetch profile declared in the model
func ProfileFromSchema(p *schema.FetchProfile) *NamedFetchProfile {
	profile := NewNamedFetchProfile(p.Name)
	for key, fs := range p.Overrides {
		profile.overrides[key] = fs
	}
	return profile
}

// Set overrides the strategy of entity.attribute and returns the profile
func (p *NamedFetchProfile) Set(entity, attribute string, fs schema.FetchStrategy) *NamedFetchProfile {
	p.overrides[entity+"."+attribute] = fs
	return p
}

// Name returns the profile name
func (p *NamedFetchProfile) Name() string {
	return p.name
}

// Override returns the strategy configured for entity.attribute
func (p *NamedFetchProfile) Override(entity, attribute string) (schema.FetchStrategy, bool) {
	fs, ok := p.overrides[entity+"."+attribute]
	return fs, ok
}

// Fingerprint identifies the profile by name and current overrides. Two
// profiles with the same fingerprint yield the same plans.
func (p *NamedFetchProfile) Fingerprint() string {
	keys := make([]string, 0, len(p.overrides))
	for key := range p.overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(p.name)
	for _, key := range keys {
		b.WriteString(";")
		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(p.overrides[key].String())
	}
	return b.String()
}

// CollectionFetchLimiter decides whether one more collection may be join
// fetched for the current root. Whatever a limiter answers, the builder
// never join fetches a second collection per root.
type CollectionFetchLimiter interface {
	AllowCollectionJoin(planned int, attr *schema.Attribute) bool
}

// SingleCollectionLimiter allows up to Limit collection join fetches per
// root. Limit 0 turns every collection join fetch into a select.
type SingleCollectionLimiter struct {
	Limit int
}

// AllowCollectionJoin implements CollectionFetchLimiter
func (l SingleCollectionLimiter) AllowCollectionJoin(planned int, _ *schema.Attribute) bool {
	return planned < l.Limit
}

// DowngradeReason records why a configured join fetch became a select
type DowngradeReason int

const (
	NotDowngraded DowngradeReason = iota
	DowngradeMaxDepth
	DowngradeCollectionLimit
	DowngradeCircular
	DowngradeNotJoinable
)

// String returns the string representation of the reason
func (r DowngradeReason) String() string {
	switch r {
	case NotDowngraded:
		return "none"
	case DowngradeMaxDepth:
		return "max_depth"
	case DowngradeCollectionLimit:
		return "collection_limit"
	case DowngradeCircular:
		return "circular"
	case DowngradeNotJoinable:
		return "not_joinable"
	default:
		return "unknown"
	}
}
