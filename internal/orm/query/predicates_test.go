package query

import (
	"testing"
)

var allComparisonOperators = []ComparisonOperator{
	OpEqual, OpNotEqual, OpLessThan, OpLessThanOrEqual, OpGreaterThan, OpGreaterThanOrEqual,
}

func TestComparisonOperator_String(t *testing.T) {
	tests := []struct {
		op       ComparisonOperator
		expected string
	}{
		{OpEqual, "="},
		{OpNotEqual, "<>"},
		{OpLessThan, "<"},
		{OpLessThanOrEqual, "<="},
		{OpGreaterThan, ">"},
		{OpGreaterThanOrEqual, ">="},
	}

	for _, tt := range tests {
		if got := tt.op.String(); got != tt.expected {
			t.Errorf("ComparisonOperator.String() = %s, want %s", got, tt.expected)
		}
	}
}

func TestComparisonOperator_Negated(t *testing.T) {
	pairs := map[ComparisonOperator]ComparisonOperator{
		OpEqual:           OpNotEqual,
		OpLessThan:        OpGreaterThanOrEqual,
		OpLessThanOrEqual: OpGreaterThan,
	}

	for op, want := range pairs {
		if got := op.Negated(); got != want {
			t.Errorf("%s.Negated() = %s, want %s", op, got, want)
		}
		if got := want.Negated(); got != op {
			t.Errorf("%s.Negated() = %s, want %s", want, got, op)
		}
	}

	for _, op := range allComparisonOperators {
		if got := op.Negated().Negated(); got != op {
			t.Errorf("double negation of %s = %s", op, got)
		}
		if op.Negated() == op {
			t.Errorf("%s negates to itself", op)
		}
	}
}

func TestComparisonOperator_NegatedUnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown operator")
		}
	}()
	ComparisonOperator(42).Negated()
}

func allPredicates() []Predicate {
	return []Predicate{
		Eq(Attr("p.title"), "x"),
		Between(Attr("p.views"), 1, 10),
		In(Attr("p.id"), 1, 2),
		Like(Attr("p.title"), "%go%"),
		IsNull(Attr("p.author")),
		Wrap(Attr("p.published")),
		IsTrue(Attr("p.published")),
		And(Eq(Attr("a"), 1), Eq(Attr("b"), 2)),
		Disjunction(),
	}
}

func TestNegateTogglesInPlace(t *testing.T) {
	for _, p := range allPredicates() {
		before := p.IsNegated()

		negated := p.Negate()
		if negated != p {
			t.Errorf("%T.Negate() returned a different node", p)
		}
		if p.IsNegated() == before {
			t.Errorf("%T.Negate() did not flip polarity", p)
		}

		p.Negate()
		if p.IsNegated() != before {
			t.Errorf("%T double negation did not restore polarity", p)
		}
	}
}

func TestNegateLeavesChildrenUntouched(t *testing.T) {
	child := Eq(Attr("a"), 1)
	compound := And(child, Eq(Attr("b"), 2))

	Not(compound)

	if !compound.IsNegated() {
		t.Error("compound should be negated")
	}
	if child.IsNegated() {
		t.Error("child should keep its polarity")
	}
	if compound.Len() != 2 {
		t.Errorf("expected 2 children, got %d", compound.Len())
	}
}

func TestIsNotNull(t *testing.T) {
	p := IsNotNull(Attr("p.author"))
	if !p.IsNegated() {
		t.Error("IsNotNull should produce a negated nullness predicate")
	}
}

func TestCompoundPredicate_ChildOrder(t *testing.T) {
	p1 := Eq(Attr("a"), 1)
	p2 := Eq(Attr("b"), 2)
	p3 := Eq(Attr("c"), 3)

	variadic := And(p1, p2, p3)
	list := NewCompoundPredicate(OperatorAnd, []Predicate{p1, p2, p3})
	accumulated := Conjunction().Add(p1).Add(p2).Add(p3)

	for name, c := range map[string]*CompoundPredicate{
		"varargs":     variadic,
		"list":        list,
		"accumulator": accumulated,
	} {
		t.Run(name, func(t *testing.T) {
			if c.Operator() != OperatorAnd {
				t.Errorf("expected AND, got %s", c.Operator())
			}
			children := c.Expressions()
			if len(children) != 3 {
				t.Fatalf("expected 3 children, got %d", len(children))
			}
			for i, want := range []Predicate{p1, p2, p3} {
				if children[i] != want {
					t.Errorf("child %d out of order", i)
				}
			}
		})
	}
}

func TestCompoundPredicate_ApplyExpressions(t *testing.T) {
	c := Or(Eq(Attr("a"), 1))
	replacement := Eq(Attr("z"), 9)

	c.ApplyExpressions(replacement, nil)

	children := c.Expressions()
	if len(children) != 1 || children[0] != replacement {
		t.Errorf("ApplyExpressions should replace the children, got %v", children)
	}

	children[0] = nil
	if c.Expressions()[0] != replacement {
		t.Error("Expressions should return a copy")
	}
}

func TestAccumulators(t *testing.T) {
	if c := Conjunction(); c.Operator() != OperatorAnd || c.Len() != 0 {
		t.Errorf("Conjunction() = %s with %d children", c.Operator(), c.Len())
	}
	if d := Disjunction(); d.Operator() != OperatorOr || d.Len() != 0 {
		t.Errorf("Disjunction() = %s with %d children", d.Operator(), d.Len())
	}
}

func TestInPredicate_Values(t *testing.T) {
	p := In(Attr("p.status"))
	if len(p.Values()) != 0 {
		t.Fatalf("expected empty value list, got %d", len(p.Values()))
	}

	sub := Param("status")
	p.Value("draft").Value(sub).Value(3)

	values := p.Values()
	if len(values) != 3 {
		t.Fatalf("expected 3 values, got %d", len(values))
	}
	if lit, ok := values[0].(*Literal); !ok || lit.Value != "draft" {
		t.Errorf("value 0 = %#v, want literal draft", values[0])
	}
	if values[1] != sub {
		t.Errorf("value 1 should be the parameter expression itself")
	}
	if lit, ok := values[2].(*Literal); !ok || lit.Value != 3 {
		t.Errorf("value 2 = %#v, want literal 3", values[2])
	}
}

func TestWalkAndAttributeRefs(t *testing.T) {
	p := And(
		Eq(Attr("p.author.name"), Param("name")),
		Or(IsNull(Attr("p.title")), Like(Attr("p.title"), "%x%").WithEscape(Attr("p.escape"))),
	)

	refs := AttributeRefs(p)
	want := []string{"p.author.name", "p.title", "p.title", "p.escape"}
	if len(refs) != len(want) {
		t.Fatalf("expected %d refs, got %d", len(want), len(refs))
	}
	for i, ref := range refs {
		if ref.Path != want[i] {
			t.Errorf("ref %d = %s, want %s", i, ref.Path, want[i])
		}
	}

	visited := 0
	Walk(p, func(e Expression) bool {
		visited++
		_, isCompound := e.(*CompoundPredicate)
		return !isCompound || e == Expression(p)
	})
	// root, the comparison with its two operands, and the nested or
	if visited != 5 {
		t.Errorf("expected 5 visited nodes, got %d", visited)
	}
}
