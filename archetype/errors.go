package archetype

import "fmt"

// DuplicateError is returned when an archetype or implementation type is
// registered twice with conflicting definitions.
type DuplicateError struct {
	Kind string // "archetype" or "type"
	Name string
}

// Error returns the error message for DuplicateError.
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("archetype: %s %q already registered", e.Kind, e.Name)
}

// NotFoundError is returned when a named archetype or implementation type
// is not known.
type NotFoundError struct {
	Kind string
	Name string
}

// Error returns the error message for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("archetype: %s %q not found", e.Kind, e.Name)
}

// CrossTypeError is returned by a TypeMapper when a set of archetypes is
// stored by implementation types that share no ancestor relationship.
type CrossTypeError struct {
	First  string
	Second string
}

// Error returns the error message for CrossTypeError.
func (e *CrossTypeError) Error() string {
	return fmt.Sprintf("archetype: cannot query across %s and %s", e.First, e.Second)
}
