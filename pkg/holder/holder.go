package holder

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind identifies the type of billing holder a subscription belongs to.
type Kind string

const (
	KindIndividual   Kind = "individual"
	KindOrganization Kind = "organization"
	KindBusiness     Kind = "business"
)

// Valid reports whether the kind is one of the known holder types.
func (k Kind) Valid() bool {
	switch k {
	case KindIndividual, KindOrganization, KindBusiness:
		return true
	}
	return false
}

// Ref is a tagged reference to a billing holder. The holder row itself is
// owned by a collaborator system; billing code treats the ID as an opaque
// foreign key and never loads the row.
type Ref struct {
	Kind Kind
	ID   uuid.UUID
}

// NewRef builds a validated holder reference.
func NewRef(kind Kind, id uuid.UUID) (Ref, error) {
	r := Ref{Kind: kind, ID: id}
	if err := r.Validate(); err != nil {
		return Ref{}, err
	}
	return r, nil
}

// ParseRef parses the string form used in URLs and storage keys.
func ParseRef(kind, id string) (Ref, error) {
	k := Kind(kind)
	if !k.Valid() {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	return Ref{Kind: k, ID: parsed}, nil
}

// Validate checks that the reference is structurally sound.
func (r Ref) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, r.Kind)
	}
	if r.ID == uuid.Nil {
		return ErrInvalidID
	}
	return nil
}

// IsZero reports whether the reference is unset.
func (r Ref) IsZero() bool {
	return r.Kind == "" && r.ID == uuid.Nil
}

// String returns the canonical "kind:id" form used in cache keys and logs.
func (r Ref) String() string {
	return string(r.Kind) + ":" + r.ID.String()
}
