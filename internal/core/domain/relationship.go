package domain

import "fmt"

// RelationKind is the closed set of relationship kinds.
type RelationKind string

// Relationship kinds.
const (
	RelationReferences RelationKind = "references"
	RelationDuplicates RelationKind = "duplicates"
	RelationSupersedes RelationKind = "supersedes"
)

// RelationKinds lists every valid kind.
var RelationKinds = []RelationKind{RelationReferences, RelationDuplicates, RelationSupersedes}

// Valid reports whether k is one of the known kinds.
func (k RelationKind) Valid() bool {
	for _, known := range RelationKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Relationship links two document keys.
// The pair (DocA, DocB) is its identity; both keys must exist.
type Relationship struct {
	DocA string
	DocB string
	Kind RelationKind
}

// Validate checks the relationship shape, not key existence.
func (r Relationship) Validate() error {
	if r.DocA == "" || r.DocB == "" {
		return fmt.Errorf("%w: relationship keys must not be empty", ErrInvalidInput)
	}
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: unknown relationship kind %q", ErrInvalidInput, r.Kind)
	}
	return nil
}
