package query

// ParameterRegistry receives the bind parameters found in a predicate tree
type ParameterRegistry interface {
	RegisterParameter(p *Parameter)
}

// ParameterCollector is a ParameterRegistry that keeps parameters in first
// registration order. A parameter registered twice is kept once.
type ParameterCollector struct {
	params []*Parameter
	seen   map[*Parameter]bool
}

// NewParameterCollector creates an empty collector
func NewParameterCollector() *ParameterCollector {
	return &ParameterCollector{seen: make(map[*Parameter]bool)}
}

// RegisterParameter records p unless it is already known
func (c *ParameterCollector) RegisterParameter(p *Parameter) {
	if p == nil || c.seen[p] {
		return
	}
	c.seen[p] = true
	c.params = append(c.params, p)
}

// Parameters returns the collected parameters in registration order
func (c *ParameterCollector) Parameters() []*Parameter {
	out := make([]*Parameter, len(c.params))
	copy(out, c.params)
	return out
}

// Named returns the first collected parameter with the given name
func (c *ParameterCollector) Named(name string) (*Parameter, bool) {
	for _, p := range c.params {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Len returns the number of collected parameters
func (c *ParameterCollector) Len() int {
	return len(c.params)
}

func registerExpression(expr Expression, registry ParameterRegistry) {
	switch e := expr.(type) {
	case *Parameter:
		registry.RegisterParameter(e)
	case Predicate:
		e.RegisterParameters(registry)
	}
}
