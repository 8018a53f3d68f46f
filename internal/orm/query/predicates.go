package query

// Predicate is a boolean node of the expression tree. Every predicate carries
// a negation flag; Negate flips it in place and returns the same node so
// calls can be chained.
type Predicate interface {
	Expression
	IsNegated() bool
	Negate() Predicate
	RegisterParameters(registry ParameterRegistry)
}

type negation struct {
	negated bool
}

// IsNegated reports whether the predicate is negated
func (n *negation) IsNegated() bool {
	return n.negated
}

func (n *negation) toggle() {
	n.negated = !n.negated
}

// Not negates p and returns it
func Not(p Predicate) Predicate {
	return p.Negate()
}

// ComparisonOperator is a binary comparison operator
type ComparisonOperator int

const (
	OpEqual ComparisonOperator = iota
	OpNotEqual
	OpLessThan
	OpLessThanOrEqual
	OpGreaterThan
	OpGreaterThanOrEqual
)

var comparisonSymbols = map[ComparisonOperator]string{
	OpEqual:              "=",
	OpNotEqual:           "<>",
	OpLessThan:           "<",
	OpLessThanOrEqual:    "<=",
	OpGreaterThan:        ">",
	OpGreaterThanOrEqual: ">=",
}

var comparisonNegations = map[ComparisonOperator]ComparisonOperator{
	OpEqual:              OpNotEqual,
	OpNotEqual:           OpEqual,
	OpLessThan:           OpGreaterThanOrEqual,
	OpGreaterThanOrEqual: OpLessThan,
	OpLessThanOrEqual:    OpGreaterThan,
	OpGreaterThan:        OpLessThanOrEqual,
}

// String returns the operator symbol
func (o ComparisonOperator) String() string {
	if s, ok := comparisonSymbols[o]; ok {
		return s
	}
	return "UNKNOWN"
}

// Negated returns the operator that matches exactly the rows o rejects
func (o ComparisonOperator) Negated() ComparisonOperator {
	n, ok := comparisonNegations[o]
	if !ok {
		panic("unknown comparison operator " + o.String())
	}
	return n
}

// ComparisonPredicate compares two expressions
type ComparisonPredicate struct {
	negation
	Left     Expression
	Operator ComparisonOperator
	Right    Expression
}

// Compare creates a comparison predicate. Non-expression operands are
// wrapped as literals.
func Compare(left interface{}, op ComparisonOperator, right interface{}) *ComparisonPredicate {
	return &ComparisonPredicate{Left: ValueOf(left), Operator: op, Right: ValueOf(right)}
}

// Eq creates an equality comparison
func Eq(left, right interface{}) *ComparisonPredicate {
	return Compare(left, OpEqual, right)
}

// Ne creates an inequality comparison
func Ne(left, right interface{}) *ComparisonPredicate {
	return Compare(left, OpNotEqual, right)
}

// Lt creates a less-than comparison
func Lt(left, right interface{}) *ComparisonPredicate {
	return Compare(left, OpLessThan, right)
}

// Le creates a less-than-or-equal comparison
func Le(left, right interface{}) *ComparisonPredicate {
	return Compare(left, OpLessThanOrEqual, right)
}

// Gt creates a greater-than comparison
func Gt(left, right interface{}) *ComparisonPredicate {
	return Compare(left, OpGreaterThan, right)
}

// Ge creates a greater-than-or-equal comparison
func Ge(left, right interface{}) *ComparisonPredicate {
	return Compare(left, OpGreaterThanOrEqual, right)
}

func (*ComparisonPredicate) expression() {}

// Negate toggles the negation flag
func (p *ComparisonPredicate) Negate() Predicate {
	p.toggle()
	return p
}

// RegisterParameters registers bind parameters of both operands
func (p *ComparisonPredicate) RegisterParameters(registry ParameterRegistry) {
	registerExpression(p.Left, registry)
	registerExpression(p.Right, registry)
}

// BetweenPredicate tests that an expression lies in an inclusive range
type BetweenPredicate struct {
	negation
	Expr  Expression
	Lower Expression
	Upper Expression
}

// Between creates a between predicate
func Between(expr, lower, upper interface{}) *BetweenPredicate {
	return &BetweenPredicate{Expr: ValueOf(expr), Lower: ValueOf(lower), Upper: ValueOf(upper)}
}

func (*BetweenPredicate) expression() {}

// Negate toggles the negation flag
func (p *BetweenPredicate) Negate() Predicate {
	p.toggle()
	return p
}

// RegisterParameters registers bind parameters of the operand and both bounds
func (p *BetweenPredicate) RegisterParameters(registry ParameterRegistry) {
	registerExpression(p.Expr, registry)
	registerExpression(p.Lower, registry)
	registerExpression(p.Upper, registry)
}

// InPredicate tests membership of an expression in a value list. The list
// may be empty and only grows.
type InPredicate struct {
	negation
	Expr   Expression
	values []Expression
}

// In creates an in predicate over the given values
func In(expr interface{}, values ...interface{}) *InPredicate {
	p := &InPredicate{Expr: ValueOf(expr)}
	for _, v := range values {
		p.Value(v)
	}
	return p
}

// Value appends a literal value or a sub-expression and returns the predicate
func (p *InPredicate) Value(v interface{}) *InPredicate {
	p.values = append(p.values, ValueOf(v))
	return p
}

// Values returns the value list in insertion order
func (p *InPredicate) Values() []Expression {
	out := make([]Expression, len(p.values))
	copy(out, p.values)
	return out
}

func (*InPredicate) expression() {}

// Negate toggles the negation flag
func (p *InPredicate) Negate() Predicate {
	p.toggle()
	return p
}

// RegisterParameters registers bind parameters of the operand and every value
func (p *InPredicate) RegisterParameters(registry ParameterRegistry) {
	registerExpression(p.Expr, registry)
	for _, v := range p.values {
		registerExpression(v, registry)
	}
}

// LikePredicate matches an expression against a pattern
type LikePredicate struct {
	negation
	Match   Expression
	Pattern Expression
	Escape  Expression
}

// Like creates a like predicate without an escape character
func Like(match, pattern interface{}) *LikePredicate {
	return &LikePredicate{Match: ValueOf(match), Pattern: ValueOf(pattern)}
}

// WithEscape sets the escape character expression and returns the predicate
func (p *LikePredicate) WithEscape(escape interface{}) *LikePredicate {
	p.Escape = ValueOf(escape)
	return p
}

func (*LikePredicate) expression() {}

// Negate toggles the negation flag
func (p *LikePredicate) Negate() Predicate {
	p.toggle()
	return p
}

// RegisterParameters registers bind parameters of the match, pattern and escape
func (p *LikePredicate) RegisterParameters(registry ParameterRegistry) {
	registerExpression(p.Match, registry)
	registerExpression(p.Pattern, registry)
	if p.Escape != nil {
		registerExpression(p.Escape, registry)
	}
}

// NullnessPredicate tests an expression for null. Negation tests for not null.
type NullnessPredicate struct {
	negation
	Expr Expression
}

// IsNull creates a null test
func IsNull(expr interface{}) *NullnessPredicate {
	return &NullnessPredicate{Expr: ValueOf(expr)}
}

// IsNotNull creates a negated null test
func IsNotNull(expr interface{}) *NullnessPredicate {
	p := IsNull(expr)
	p.toggle()
	return p
}

func (*NullnessPredicate) expression() {}

// Negate toggles the negation flag
func (p *NullnessPredicate) Negate() Predicate {
	p.toggle()
	return p
}

// RegisterParameters registers bind parameters of the operand
func (p *NullnessPredicate) RegisterParameters(registry ParameterRegistry) {
	registerExpression(p.Expr, registry)
}

// BooleanExpressionPredicate wraps a boolean-valued expression, such as a
// boolean attribute or parameter, as a predicate.
type BooleanExpressionPredicate struct {
	negation
	Expr Expression
}

// Wrap creates a boolean expression predicate
func Wrap(expr interface{}) *BooleanExpressionPredicate {
	return &BooleanExpressionPredicate{Expr: ValueOf(expr)}
}

func (*BooleanExpressionPredicate) expression() {}

// Negate toggles the negation flag
func (p *BooleanExpressionPredicate) Negate() Predicate {
	p.toggle()
	return p
}

// RegisterParameters registers the wrapped expression if it is a parameter
func (p *BooleanExpressionPredicate) RegisterParameters(registry ParameterRegistry) {
	registerExpression(p.Expr, registry)
}

// TruthValue is the value checked by a boolean assertion
type TruthValue int

const (
	TruthTrue TruthValue = iota
	TruthFalse
	TruthUnknown
)

// String returns the string representation of the truth value
func (v TruthValue) String() string {
	switch v {
	case TruthTrue:
		return "true"
	case TruthFalse:
		return "false"
	case TruthUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// BooleanAssertionPredicate checks an expression against TRUE, FALSE or UNKNOWN
type BooleanAssertionPredicate struct {
	negation
	Expr  Expression
	Value TruthValue
}

// IsTrue creates an "expr is true" assertion
func IsTrue(expr interface{}) *BooleanAssertionPredicate {
	return &BooleanAssertionPredicate{Expr: ValueOf(expr), Value: TruthTrue}
}

// IsFalse creates an "expr is false" assertion
func IsFalse(expr interface{}) *BooleanAssertionPredicate {
	return &BooleanAssertionPredicate{Expr: ValueOf(expr), Value: TruthFalse}
}

// IsUnknown creates an "expr is unknown" assertion
func IsUnknown(expr interface{}) *BooleanAssertionPredicate {
	return &BooleanAssertionPredicate{Expr: ValueOf(expr), Value: TruthUnknown}
}

func (*BooleanAssertionPredicate) expression() {}

// Negate toggles the negation flag
func (p *BooleanAssertionPredicate) Negate() Predicate {
	p.toggle()
	return p
}

// RegisterParameters registers bind parameters of the asserted expression
func (p *BooleanAssertionPredicate) RegisterParameters(registry ParameterRegistry) {
	registerExpression(p.Expr, registry)
}

// BooleanOperator combines the children of a compound predicate
type BooleanOperator int

const (
	OperatorAnd BooleanOperator = iota
	OperatorOr
)

// String returns the string representation of the operator
func (o BooleanOperator) String() string {
	switch o {
	case OperatorAnd:
		return "and"
	case OperatorOr:
		return "or"
	default:
		return "unknown"
	}
}

// CompoundPredicate combines an ordered list of predicates with AND or OR.
// An empty AND is a conjunction accumulator (always true), an empty OR a
// disjunction accumulator (always false).
type CompoundPredicate struct {
	negation
	operator    BooleanOperator
	expressions []Predicate
}

// NewCompoundPredicate creates a compound predicate over a list of predicates
func NewCompoundPredicate(op BooleanOperator, predicates []Predicate) *CompoundPredicate {
	p := &CompoundPredicate{operator: op}
	p.ApplyExpressions(predicates...)
	return p
}

// And creates an AND compound predicate
func And(predicates ...Predicate) *CompoundPredicate {
	return NewCompoundPredicate(OperatorAnd, predicates)
}

// Or creates an OR compound predicate
func Or(predicates ...Predicate) *CompoundPredicate {
	return NewCompoundPredicate(OperatorOr, predicates)
}

// Conjunction creates an empty AND accumulator
func Conjunction() *CompoundPredicate {
	return &CompoundPredicate{operator: OperatorAnd}
}

// Disjunction creates an empty OR accumulator
func Disjunction() *CompoundPredicate {
	return &CompoundPredicate{operator: OperatorOr}
}

// Operator returns AND or OR
func (p *CompoundPredicate) Operator() BooleanOperator {
	return p.operator
}

// Expressions returns the children in insertion order
func (p *CompoundPredicate) Expressions() []Predicate {
	out := make([]Predicate, len(p.expressions))
	copy(out, p.expressions)
	return out
}

// ApplyExpressions replaces the children wholesale
func (p *CompoundPredicate) ApplyExpressions(predicates ...Predicate) *CompoundPredicate {
	p.expressions = make([]Predicate, 0, len(predicates))
	for _, child := range predicates {
		if child != nil {
			p.expressions = append(p.expressions, child)
		}
	}
	return p
}

// Add appends a child and returns the compound predicate
func (p *CompoundPredicate) Add(child Predicate) *CompoundPredicate {
	if child != nil {
		p.expressions = append(p.expressions, child)
	}
	return p
}

// Len returns the number of children
func (p *CompoundPredicate) Len() int {
	return len(p.expressions)
}

func (*CompoundPredicate) expression() {}

// Negate toggles the negation flag; children are left untouched
func (p *CompoundPredicate) Negate() Predicate {
	p.toggle()
	return p
}

// RegisterParameters registers the parameters of every child in order
func (p *CompoundPredicate) RegisterParameters(registry ParameterRegistry) {
	for _, child := range p.expressions {
		child.RegisterParameters(registry)
	}
}
