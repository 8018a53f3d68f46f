package errors

import (
	"fmt"
)

// Semantic error codes (QRY200-299)
const (
	// ErrPluralDereference indicates a plural attribute used as an intermediate path segment
	ErrPluralDereference ErrorCode = "QRY200"
	// ErrNotDereferenceable indicates a non-dereferenceable attribute used as an intermediate path segment
	ErrNotDereferenceable ErrorCode = "QRY201"
	// ErrOutOfScopeReference indicates an on-clause path rooted outside the join's from-clause
	ErrOutOfScopeReference ErrorCode = "QRY202"
	// ErrImplicitJoinInOnClause indicates an implicit join requested inside an on-clause
	ErrImplicitJoinInOnClause ErrorCode = "QRY203"
	// ErrInvalidTreat indicates a treat downcast applied to an unjoinable or unrelated target
	ErrInvalidTreat ErrorCode = "QRY204"
	// ErrTreatJoinTarget indicates a treated reference requested as a join target
	ErrTreatJoinTarget ErrorCode = "QRY205"
	// ErrUnresolvedPath indicates a path root that is neither an alias nor an exposed attribute
	ErrUnresolvedPath ErrorCode = "QRY206"
	// ErrDuplicateAlias indicates an identification variable declared twice
	ErrDuplicateAlias ErrorCode = "QRY207"
)

// NewPluralDereference creates a QRY200 error
func NewPluralDereference(loc Location, attribute string) *CompilerError {
	return newError(
		ErrPluralDereference,
		"plural_dereference",
		CategorySemantic,
		SeverityError,
		fmt.Sprintf("Cannot dereference plural attribute '%s'", attribute),
		loc,
	).WithSuggestion("Declare an explicit join for the collection and navigate from its alias").
		WithExamples(fmt.Sprintf("join x.%s e", attribute))
}

// NewNotDereferenceable creates a QRY201 error
func NewNotDereferenceable(loc Location, attribute, kind string) *CompilerError {
	return newError(
		ErrNotDereferenceable,
		"not_dereferenceable",
		CategorySemantic,
		SeverityError,
		fmt.Sprintf("Attribute '%s' cannot be dereferenced", attribute),
		loc,
	).WithExpected("embedded, many_to_one or one_to_one").
		WithActual(kind)
}

// NewOutOfScopeReference creates a QRY202 error
func NewOutOfScopeReference(loc Location, alias string) *CompilerError {
	return newError(
		ErrOutOfScopeReference,
		"out_of_scope_reference",
		CategorySemantic,
		SeverityError,
		fmt.Sprintf("On-clause references '%s' which is not part of the joined from-clause", alias),
		loc,
	).WithSuggestion("Only identification variables of the same from-clause may appear in an on-clause")
}

// NewImplicitJoinInOnClause creates a QRY203 error
func NewImplicitJoinInOnClause(loc Location, attribute string) *CompilerError {
	return newError(
		ErrImplicitJoinInOnClause,
		"implicit_join_in_on_clause",
		CategorySemantic,
		SeverityError,
		fmt.Sprintf("Implicit join of '%s' is not allowed inside an on-clause", attribute),
		loc,
	).WithSuggestion("Express the association as an explicit join before the on-clause")
}

// NewInvalidTreat creates a QRY204 error
func NewInvalidTreat(loc Location, target, subtype, reason string) *CompilerError {
	return newError(
		ErrInvalidTreat,
		"invalid_treat",
		CategorySemantic,
		SeverityError,
		fmt.Sprintf("Cannot treat '%s' as '%s': %s", target, subtype, reason),
		loc,
	)
}

// NewTreatJoinTarget creates a QRY205 error
func NewTreatJoinTarget(loc Location, alias string) *CompilerError {
	return newError(
		ErrTreatJoinTarget,
		"treat_join_target",
		CategorySemantic,
		SeverityError,
		fmt.Sprintf("Treated reference '%s' cannot be used as a join target", alias),
		loc,
	).WithSuggestion("Join the association first, then treat the join alias")
}

// NewUnresolvedPath creates a QRY206 error
func NewUnresolvedPath(loc Location, name string) *CompilerError {
	return newError(
		ErrUnresolvedPath,
		"unresolved_path",
		CategorySemantic,
		SeverityError,
		fmt.Sprintf("'%s' is neither an identification variable nor an attribute of any from-element", name),
		loc,
	)
}

// NewDuplicateAlias creates a QRY207 error
func NewDuplicateAlias(loc Location, alias string) *CompilerError {
	return newError(
		ErrDuplicateAlias,
		"duplicate_alias",
		CategorySemantic,
		SeverityError,
		fmt.Sprintf("Identification variable '%s' is already declared", alias),
		loc,
	)
}
