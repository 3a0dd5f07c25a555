package energy

import (
	"fmt"

	"github.com/san-kum/molpot/internal/forcefield"
)

// Domain errors for kernel evaluation.
var (
	// ErrInvalidAtomType indicates an atom type index outside the parameter table.
	ErrInvalidAtomType = forcefield.ErrInvalidAtomType

	// ErrInvalidSubatomMapping indicates a subatom id above the declared subatom count.
	ErrInvalidSubatomMapping = forcefield.ErrInvalidSubatomMapping

	// ErrInvalidPotential indicates a negative shell radius or malformed basis.
	ErrInvalidPotential = forcefield.ErrInvalidPotential
)

// AtomError wraps an error with the offending atom.
type AtomError struct {
	Group   string
	Index   int
	Type    int
	Wrapped error
}

func (e *AtomError) Error() string {
	return fmt.Sprintf("energy: group %s atom index %d (type %d): %v", e.Group, e.Index, e.Type, e.Wrapped)
}

func (e *AtomError) Unwrap() error {
	return e.Wrapped
}
