package query

import (
	"fmt"
	"strings"
)

// Format renders an expression as deterministic query text. Named parameters
// render as ":name", positional ones as "?". Negated comparisons use the
// negated operator; other negated predicates use their "not" form.
func Format(expr Expression) string {
	var b strings.Builder
	writeExpression(&b, expr)
	return b.String()
}

func writeExpression(b *strings.Builder, expr Expression) {
	switch e := expr.(type) {
	case nil:
		b.WriteString("null")
	case *Literal:
		writeLiteral(b, e.Value)
	case *Parameter:
		if e.Name != "" {
			b.WriteString(":" + e.Name)
		} else {
			b.WriteString("?")
		}
	case *AttributeRef:
		b.WriteString(e.Path)
	case *ComparisonPredicate:
		op := e.Operator
		if e.IsNegated() {
			op = op.Negated()
		}
		writeExpression(b, e.Left)
		fmt.Fprintf(b, " %s ", op)
		writeExpression(b, e.Right)
	case *BetweenPredicate:
		writeExpression(b, e.Expr)
		b.WriteString(notIf(e.IsNegated(), " between "))
		writeExpression(b, e.Lower)
		b.WriteString(" and ")
		writeExpression(b, e.Upper)
	case *InPredicate:
		writeExpression(b, e.Expr)
		b.WriteString(notIf(e.IsNegated(), " in "))
		b.WriteString("(")
		for i, v := range e.values {
			if i > 0 {
				b.WriteString(", ")
			}
			writeExpression(b, v)
		}
		b.WriteString(")")
	case *LikePredicate:
		writeExpression(b, e.Match)
		b.WriteString(notIf(e.IsNegated(), " like "))
		writeExpression(b, e.Pattern)
		if e.Escape != nil {
			b.WriteString(" escape ")
			writeExpression(b, e.Escape)
		}
	case *NullnessPredicate:
		writeExpression(b, e.Expr)
		if e.IsNegated() {
			b.WriteString(" is not null")
		} else {
			b.WriteString(" is null")
		}
	case *BooleanExpressionPredicate:
		if e.IsNegated() {
			b.WriteString("not ")
		}
		writeExpression(b, e.Expr)
	case *BooleanAssertionPredicate:
		writeExpression(b, e.Expr)
		if e.IsNegated() {
			b.WriteString(" is not ")
		} else {
			b.WriteString(" is ")
		}
		b.WriteString(e.Value.String())
	case *CompoundPredicate:
		writeCompound(b, e)
	default:
		fmt.Fprintf(b, "<%T>", expr)
	}
}

func writeCompound(b *strings.Builder, p *CompoundPredicate) {
	if p.IsNegated() {
		b.WriteString("not (")
		defer b.WriteString(")")
	}

	if len(p.expressions) == 0 {
		if p.operator == OperatorAnd {
			b.WriteString("1=1")
		} else {
			b.WriteString("0=1")
		}
		return
	}

	for i, child := range p.expressions {
		if i > 0 {
			fmt.Fprintf(b, " %s ", p.operator)
		}
		if nested, ok := child.(*CompoundPredicate); ok && !nested.IsNegated() && nested.Len() > 1 {
			b.WriteString("(")
			writeCompound(b, nested)
			b.WriteString(")")
			continue
		}
		writeExpression(b, child)
	}
}

func writeLiteral(b *strings.Builder, v interface{}) {
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
	case string:
		b.WriteString("'" + strings.ReplaceAll(val, "'", "''") + "'")
	case bool:
		if val {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	default:
		fmt.Fprintf(b, "%v", val)
	}
}

func notIf(negated bool, keyword string) string {
	if negated {
		return " not" + keyword
	}
	return keyword
}
