// Package query provides the predicate and expression tree used to express
// query filters against the mapped domain model.
package query

import "fmt"

// Expression is a node of a query expression tree. The set of expression
// types is closed to this package.
type Expression interface {
	expression()
}

// Literal is a constant value embedded in the query
type Literal struct {
	Value interface{}
}

func (*Literal) expression() {}

// Lit wraps a value as a literal expression
func Lit(value interface{}) *Literal {
	return &Literal{Value: value}
}

// Parameter is a bind parameter. A parameter is either named or positional.
type Parameter struct {
	Name     string
	Position int
	Value    interface{}
}

func (*Parameter) expression() {}

// Param creates a named bind parameter
func Param(name string) *Parameter {
	return &Parameter{Name: name}
}

// PositionalParam creates a positional bind parameter
func PositionalParam(position int) *Parameter {
	return &Parameter{Position: position}
}

// Bind sets the parameter value and returns the parameter
func (p *Parameter) Bind(value interface{}) *Parameter {
	p.Value = value
	return p
}

// String returns ":name" for named parameters and "?n" for positional ones
func (p *Parameter) String() string {
	if p.Name != "" {
		return ":" + p.Name
	}
	return fmt.Sprintf("?%d", p.Position)
}

// AttributeRef references a dotted attribute path such as "p.author.name".
// The path is resolved against the from clause by the path resolver.
type AttributeRef struct {
	Path string
}

func (*AttributeRef) expression() {}

// Attr creates an attribute path reference
func Attr(path string) *AttributeRef {
	return &AttributeRef{Path: path}
}

// ValueOf returns v unchanged when it already is an expression and wraps it
// in a Literal otherwise.
func ValueOf(v interface{}) Expression {
	if expr, ok := v.(Expression); ok {
		return expr
	}
	return Lit(v)
}

// Walk visits expr and its children depth first. Returning false from fn
// skips the children of the visited node.
func Walk(expr Expression, fn func(Expression) bool) {
	if expr == nil || !fn(expr) {
		return
	}
	for _, child := range children(expr) {
		Walk(child, fn)
	}
}

// AttributeRefs collects every attribute path referenced by expr, in order
func AttributeRefs(expr Expression) []*AttributeRef {
	var refs []*AttributeRef
	Walk(expr, func(e Expression) bool {
		if ref, ok := e.(*AttributeRef); ok {
			refs = append(refs, ref)
		}
		return true
	})
	return refs
}

func children(expr Expression) []Expression {
	switch e := expr.(type) {
	case *ComparisonPredicate:
		return []Expression{e.Left, e.Right}
	case *BetweenPredicate:
		return []Expression{e.Expr, e.Lower, e.Upper}
	case *InPredicate:
		return append([]Expression{e.Expr}, e.values...)
	case *LikePredicate:
		if e.Escape != nil {
			return []Expression{e.Match, e.Pattern, e.Escape}
		}
		return []Expression{e.Match, e.Pattern}
	case *NullnessPredicate:
		return []Expression{e.Expr}
	case *BooleanExpressionPredicate:
		return []Expression{e.Expr}
	case *BooleanAssertionPredicate:
		return []Expression{e.Expr}
	case *CompoundPredicate:
		out := make([]Expression, len(e.expressions))
		for i, p := range e.expressions {
			out[i] = p
		}
		return out
	default:
		return nil
	}
}
