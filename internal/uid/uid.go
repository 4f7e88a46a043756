// Package uid implements the unique identifier token used by variable
// expression nodes. Two identifiers are value-equal iff their
// underlying KSUID matches; the name is carried only for
// pretty-printing and is not part of equality.
package uid

import "github.com/segmentio/ksuid"

// ID is a name/value-equivalence token. It is immutable and safe to
// share and compare by value across goroutines.
type ID struct {
	name  string
	value ksuid.KSUID
}

// New mints a fresh, globally unique ID with the given display name.
func New(name string) ID {
	return ID{name: name, value: ksuid.New()}
}

// FromValue reconstructs an ID from a previously-minted KSUID, e.g. when
// a lifter needs to hand back the same variable identity it saw before
// (round-tripping via a serializer collaborator, out of core scope).
func FromValue(name string, value ksuid.KSUID) ID {
	return ID{name: name, value: value}
}

// Name returns the display name.
func (id ID) Name() string { return id.name }

// Value returns the backing KSUID, e.g. for hashing.
func (id ID) Value() ksuid.KSUID { return id.value }

// Equal implements value-equivalence: same KSUID, regardless of name.
func (id ID) Equal(other ID) bool { return id.value == other.value }

// IsZero reports whether this ID was never assigned (zero value).
func (id ID) IsZero() bool { return id.value.IsNil() }

// String renders the display name, falling back to the KSUID.
func (id ID) String() string {
	if id.name != "" {
		return id.name
	}
	return id.value.String()
}
