package schema

import (
	"fmt"
)

// FetchTiming decides when an association is fetched
type FetchTiming int

const (
	TimingImmediate FetchTiming = iota
	TimingDelayed
)

// String returns the string representation of the timing
func (t FetchTiming) String() string {
	switch t {
	case TimingImmediate:
		return "immediate"
	case TimingDelayed:
		return "delayed"
	default:
		return "unknown"
	}
}

// FetchStyle decides how an association is fetched
type FetchStyle int

const (
	StyleJoin FetchStyle = iota
	StyleSelect
	StyleSubselect
	StyleBatch
)

// String returns the string representation of the style
func (s FetchStyle) String() string {
	switch s {
	case StyleJoin:
		return "join"
	case StyleSelect:
		return "select"
	case StyleSubselect:
		return "subselect"
	case StyleBatch:
		return "batch"
	default:
		return "unknown"
	}
}

// FetchStrategy is the (timing, style) pair for one association
type FetchStrategy struct {
	Timing FetchTiming
	Style  FetchStyle
}

var (
	// ImmediateJoin fetches the association in the owner's statement
	ImmediateJoin = FetchStrategy{Timing: TimingImmediate, Style: StyleJoin}
	// ImmediateSelect fetches the association with a follow-up select
	ImmediateSelect = FetchStrategy{Timing: TimingImmediate, Style: StyleSelect}
	// DelayedSelect fetches the association on first access
	DelayedSelect = FetchStrategy{Timing: TimingDelayed, Style: StyleSelect}
)

// String returns "timing/style"
func (f FetchStrategy) String() string {
	return fmt.Sprintf("%s/%s", f.Timing, f.Style)
}

// IsImmediateJoin reports whether the strategy is (immediate, join)
func (f FetchStrategy) IsImmediateJoin() bool {
	return f == ImmediateJoin
}

// ParseFetchStrategy parses timing and style names; empty names are an error
func ParseFetchStrategy(timing, style string) (FetchStrategy, error) {
	var fs FetchStrategy
	switch timing {
	case "immediate":
		fs.Timing = TimingImmediate
	case "delayed":
		fs.Timing = TimingDelayed
	default:
		return fs, fmt.Errorf("unknown fetch timing: %q", timing)
	}
	switch style {
	case "join":
		fs.Style = StyleJoin
	case "select":
		fs.Style = StyleSelect
	case "subselect":
		fs.Style = StyleSubselect
	case "batch":
		fs.Style = StyleBatch
	default:
		return fs, fmt.Errorf("unknown fetch style: %q", style)
	}
	return fs, nil
}

// DefaultFetchStrategy returns the strategy used when a mapping declares none.
// Singular associations are eagerly joined, collections are loaded on access.
func DefaultFetchStrategy(kind AttributeKind) FetchStrategy {
	switch kind {
	case KindBasic, KindEmbedded, KindManyToOne, KindOneToOne:
		return ImmediateJoin
	case KindOneToMany, KindManyToMany:
		return DelayedSelect
	case KindAny:
		return ImmediateSelect
	default:
		panic(fmt.Sprintf("unhandled attribute kind %d", int(kind)))
	}
}

// FetchProfile is a named set of per-attribute fetch overrides, keyed by
// "Entity.attribute".
type FetchProfile struct {
	Name      string
	Overrides map[string]FetchStrategy
}

// NewFetchProfile creates an empty fetch profile
func NewFetchProfile(name string) *FetchProfile {
	return &FetchProfile{Name: name, Overrides: make(map[string]FetchStrategy)}
}

// Override sets the strategy for entity.attribute and returns the profile
func (p *FetchProfile) Override(entity, attribute string, fs FetchStrategy) *FetchProfile {
	p.Overrides[entity+"."+attribute] = fs
	return p
}
