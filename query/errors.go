package query

import (
	"fmt"
	"strings"
)

// ErrorCode identifies a class of compilation failure. Codes are stable
// and may be matched by callers.
type ErrorCode string

const (
	NullQuery                        ErrorCode = "NullQuery"
	NoShortNamesSpecified            ErrorCode = "NoShortNamesSpecified"
	NoMatchingArchetypesForShortName ErrorCode = "NoMatchingArchetypesForShortName"
	NoArchetypeForID                 ErrorCode = "NoArchetypeForId"
	NoMatchingArchetypesForLongName  ErrorCode = "NoMatchingArchetypesForLongName"
	NoArchetypeRangeAssertion        ErrorCode = "NoArchetypeRangeAssertion"
	NoNodeDescWithName               ErrorCode = "NoNodeDescWithName"
	NoNodeDescriptorForName          ErrorCode = "NoNodeDescriptorForName"
	MustSpecifyNodeName              ErrorCode = "MustSpecifyNodeName"
	NodeDescriptorsDoNotMatch        ErrorCode = "NodeDescriptorsDoNotMatch"
	CannotQueryAcrossTypes           ErrorCode = "CannotQueryAcrossTypes"
	DuplicateAlias                   ErrorCode = "DuplicateAlias"
	CannotJoinDuplicateAlias         ErrorCode = "CannotJoinDuplicateAlias"
	InvalidQualifiedName             ErrorCode = "InvalidQualifiedName"
	ConstraintTypeNotSupported       ErrorCode = "ConstraintTypeNotSupported"
	OperatorNotSupported             ErrorCode = "OperatorNotSupported"
	UnsupportedPath                  ErrorCode = "UnsupportedPath"
	InvalidObjectReferenceConstraint ErrorCode = "InvalidObjectReferenceConstraint"
	CanOnlySortOnTopLevelNodes       ErrorCode = "CanOnlySortOnTopLevelNodes"
	InvalidLongName                  ErrorCode = "InvalidLongName"
	UnbalancedScope                  ErrorCode = "UnbalancedScope"
)

var errorMessages = map[ErrorCode]string{
	NullQuery:                        "query has no archetype constraint",
	NoShortNamesSpecified:            "no short names specified",
	NoMatchingArchetypesForShortName: "no archetypes match short names %v",
	NoArchetypeForID:                 "no archetype matches id %v",
	NoMatchingArchetypesForLongName:  "no archetypes match entity %q, concept %q",
	NoArchetypeRangeAssertion:        "node %q (%s) has no archetype range or filter",
	NoNodeDescWithName:               "archetype %s has no node %q",
	NoNodeDescriptorForName:          "no node descriptor for %q",
	MustSpecifyNodeName:              "a node name is required",
	NodeDescriptorsDoNotMatch:        "node %q has a different path or type across archetypes",
	CannotQueryAcrossTypes:           "cannot query across %s and %s",
	DuplicateAlias:                   "alias %q is already used by different archetypes",
	CannotJoinDuplicateAlias:         "cannot join %q: alias already in use",
	InvalidQualifiedName:             "invalid qualified name %q",
	ConstraintTypeNotSupported:       "constraint type %T not supported",
	OperatorNotSupported:             "operator %v not supported for %s",
	UnsupportedPath:                  "unsupported node path %q",
	InvalidObjectReferenceConstraint: "reference comparison on %q has neither a reference nor an archetype",
	CanOnlySortOnTopLevelNodes:       "node %q is not a top-level node",
	InvalidLongName:                  "long name requires an entity or concept name",
	UnbalancedScope:                  "scope closed out of order",
}

// Error is returned for every compilation failure. Args carry the
// offending names or values and are rendered into the message.
type Error struct {
	Code  ErrorCode
	Args  []any
	Cause error
}

func newError(code ErrorCode, args ...any) *Error {
	return &Error{Code: code, Args: args}
}

func wrapError(code ErrorCode, cause error, args ...any) *Error {
	return &Error{Code: code, Args: args, Cause: cause}
}

// Error returns the error message for Error.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("query: ")
	b.WriteString(string(e.Code))
	if format, ok := errorMessages[e.Code]; ok && len(e.Args) > 0 {
		b.WriteString(": ")
		fmt.Fprintf(&b, format, e.Args...)
	} else if ok && !strings.Contains(format, "%") {
		b.WriteString(": ")
		b.WriteString(format)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause of the Error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code. It lets the
// Err* sentinels match with errors.Is regardless of Args.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for use with errors.Is.
var (
	ErrNullQuery                        = &Error{Code: NullQuery}
	ErrNoShortNamesSpecified            = &Error{Code: NoShortNamesSpecified}
	ErrNoMatchingArchetypesForShortName = &Error{Code: NoMatchingArchetypesForShortName}
	ErrNoArchetypeForID                 = &Error{Code: NoArchetypeForID}
	ErrNoMatchingArchetypesForLongName  = &Error{Code: NoMatchingArchetypesForLongName}
	ErrNoArchetypeRangeAssertion        = &Error{Code: NoArchetypeRangeAssertion}
	ErrNoNodeDescWithName               = &Error{Code: NoNodeDescWithName}
	ErrNoNodeDescriptorForName          = &Error{Code: NoNodeDescriptorForName}
	ErrMustSpecifyNodeName              = &Error{Code: MustSpecifyNodeName}
	ErrNodeDescriptorsDoNotMatch        = &Error{Code: NodeDescriptorsDoNotMatch}
	ErrCannotQueryAcrossTypes           = &Error{Code: CannotQueryAcrossTypes}
	ErrDuplicateAlias                   = &Error{Code: DuplicateAlias}
	ErrCannotJoinDuplicateAlias         = &Error{Code: CannotJoinDuplicateAlias}
	ErrInvalidQualifiedName             = &Error{Code: InvalidQualifiedName}
	ErrConstraintTypeNotSupported       = &Error{Code: ConstraintTypeNotSupported}
	ErrOperatorNotSupported             = &Error{Code: OperatorNotSupported}
	ErrUnsupportedPath                  = &Error{Code: UnsupportedPath}
	ErrInvalidObjectReferenceConstraint = &Error{Code: InvalidObjectReferenceConstraint}
	ErrCanOnlySortOnTopLevelNodes       = &Error{Code: CanOnlySortOnTopLevelNodes}
	ErrInvalidLongName                  = &Error{Code: InvalidLongName}
	ErrUnbalancedScope                  = &Error{Code: UnbalancedScope}
)
