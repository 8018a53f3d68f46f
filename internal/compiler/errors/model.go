package errors

import (
	"fmt"
)

// Model-consistency error codes (MDL300-399)
const (
	// ErrDuplicateRootReturn indicates a second root return registered on one load plan
	ErrDuplicateRootReturn ErrorCode = "MDL300"
	// ErrCollectionInIdentifier indicates a collection-valued attribute reachable from an identifier
	ErrCollectionInIdentifier ErrorCode = "MDL301"
	// ErrUnresolvedNavigable indicates an attribute name unknown to its owner
	ErrUnresolvedNavigable ErrorCode = "MDL302"
	// ErrDuplicateQuerySpace indicates a query space uid registered twice
	ErrDuplicateQuerySpace ErrorCode = "MDL303"
	// ErrUnknownPersister indicates a reference to an unregistered entity, composite or collection
	ErrUnknownPersister ErrorCode = "MDL304"
	// ErrFromElementReassigned indicates a binding's exported from-element assigned twice
	ErrFromElementReassigned ErrorCode = "MDL305"
)

// NewDuplicateRootReturn creates a MDL300 error
func NewDuplicateRootReturn(existing, attempted string) *CompilerError {
	return newError(
		ErrDuplicateRootReturn,
		"duplicate_root_return",
		CategoryModel,
		SeverityError,
		fmt.Sprintf("Load plan already has root return '%s'; cannot add '%s'", existing, attempted),
		Location{Segment: -1},
	)
}

// NewCollectionInIdentifier creates a MDL301 error
func NewCollectionInIdentifier(entity, attribute string) *CompilerError {
	return newError(
		ErrCollectionInIdentifier,
		"collection_in_identifier",
		CategoryModel,
		SeverityError,
		fmt.Sprintf("Identifier of '%s' contains collection-valued attribute '%s'", entity, attribute),
		Whole(entity+"."+attribute),
	).WithSuggestion("Identifiers are singular; map the collection outside the identifier")
}

// NewUnresolvedNavigable creates a MDL302 error
func NewUnresolvedNavigable(loc Location, owner, name string) *CompilerError {
	return newError(
		ErrUnresolvedNavigable,
		"unresolved_navigable",
		CategoryModel,
		SeverityError,
		fmt.Sprintf("'%s' has no attribute named '%s'", owner, name),
		loc,
	)
}

// NewDuplicateQuerySpace creates a MDL303 error
func NewDuplicateQuerySpace(uid string) *CompilerError {
	return newError(
		ErrDuplicateQuerySpace,
		"duplicate_query_space",
		CategoryModel,
		SeverityError,
		fmt.Sprintf("Query space '%s' is already registered", uid),
		Location{Segment: -1},
	)
}

// NewUnknownPersister creates a MDL304 error
func NewUnknownPersister(kind, name string) *CompilerError {
	return newError(
		ErrUnknownPersister,
		"unknown_persister",
		CategoryModel,
		SeverityError,
		fmt.Sprintf("Unknown %s '%s'", kind, name),
		Location{Segment: -1},
	)
}

// NewFromElementReassigned creates a MDL305 error
func NewFromElementReassigned(path string) *CompilerError {
	return newError(
		ErrFromElementReassigned,
		"from_element_reassigned",
		CategoryModel,
		SeverityError,
		"Exported from-element is already assigned",
		Whole(path),
	)
}
