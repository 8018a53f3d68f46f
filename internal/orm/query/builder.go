package query

// PredicateBuilder provides a fluent API for building complex predicates.
// Connectives associate left to right: a.And(x).Or(y) means (a and x) or y.
// Inside AndGroup and OrGroup every predicate is combined with the group's
// connective.
type PredicateBuilder struct {
	root  *CompoundPredicate
	fixed bool
}

// NewPredicateBuilder creates a new predicate builder
func NewPredicateBuilder() *PredicateBuilder {
	return &PredicateBuilder{
		root: Conjunction(), // Default to AND
	}
}

// And adds an AND comparison of an attribute path against a value
func (pb *PredicateBuilder) And(path string, op ComparisonOperator, value interface{}) *PredicateBuilder {
	return pb.Where(Compare(Attr(path), op, value))
}

// Or adds an OR comparison of an attribute path against a value
func (pb *PredicateBuilder) Or(path string, op ComparisonOperator, value interface{}) *PredicateBuilder {
	return pb.OrWhere(Compare(Attr(path), op, value))
}

// Where adds an arbitrary predicate with AND
func (pb *PredicateBuilder) Where(p Predicate) *PredicateBuilder {
	pb.connect(OperatorAnd, p)
	return pb
}

// OrWhere adds an arbitrary predicate with OR
func (pb *PredicateBuilder) OrWhere(p Predicate) *PredicateBuilder {
	pb.connect(OperatorOr, p)
	return pb
}

// AndGroup adds an AND group, connected with AND
func (pb *PredicateBuilder) AndGroup(fn func(*PredicateBuilder)) *PredicateBuilder {
	return pb.Where(pb.group(OperatorAnd, fn))
}

// OrGroup adds an OR group, connected with AND
func (pb *PredicateBuilder) OrGroup(fn func(*PredicateBuilder)) *PredicateBuilder {
	return pb.Where(pb.group(OperatorOr, fn))
}

// Build returns the predicate built so far
func (pb *PredicateBuilder) Build() *CompoundPredicate {
	return pb.root
}

// Empty reports whether no predicate was added
func (pb *PredicateBuilder) Empty() bool {
	return pb.root.Len() == 0
}

func (pb *PredicateBuilder) group(op BooleanOperator, fn func(*PredicateBuilder)) Predicate {
	builder := &PredicateBuilder{root: &CompoundPredicate{operator: op}, fixed: true}
	fn(builder)
	if builder.root.Len() == 0 {
		return nil
	}
	return builder.root
}

func (pb *PredicateBuilder) connect(op BooleanOperator, p Predicate) {
	if p == nil {
		return
	}
	switch {
	case pb.fixed, pb.root.operator == op:
		pb.root.Add(p)
	case pb.root.Len() <= 1:
		pb.root.operator = op
		pb.root.Add(p)
	default:
		pb.root = NewCompoundPredicate(op, []Predicate{pb.root, p})
	}
}
