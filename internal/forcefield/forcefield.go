// Package forcefield holds per-type atom parameters and the tabulated
// pairwise potential used by the statistical kernel.
package forcefield

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAtomType indicates an atom type index outside [0, NumTypes).
	ErrInvalidAtomType = errors.New("forcefield: atom type not defined in parameter table")

	// ErrInvalidSubatomMapping indicates a subatom id at or above NumSubatoms.
	ErrInvalidSubatomMapping = errors.New("forcefield: subatom mapping above maximum subatom index")

	// ErrInvalidPotential indicates a malformed pairwise potential descriptor.
	ErrInvalidPotential = errors.New("forcefield: invalid pairwise potential")
)

// NoSubatom marks a type that the statistical potential ignores.
const NoSubatom = -1

type AtomType struct {
	Name   string  `yaml:"name"`
	Charge float64 `yaml:"charge"`
	Radius float64 `yaml:"radius"`
	SubID  int     `yaml:"subid"`
}

// PairPotential is the shell-gated basis expansion
//
//	E(a, b) = sum_ek Lambdas[ek] * Xs[ek*nsub+subA] * Xs[ek*nsub+subB]
//
// applied to pairs with R1^2 <= r^2 < R2^2.
type PairPotential struct {
	R1      float64
	R2      float64
	Lambdas []float64
	// Xs is row-major k x nsub.
	Xs []float64
}

func (p *PairPotential) K() int { return len(p.Lambdas) }

func (p *PairPotential) Coeff(ek, sub, nsub int) float64 {
	return p.Xs[ek*nsub+sub]
}

// CheckShell reports a negative shell radius.
func (p *PairPotential) CheckShell() error {
	if p.R1 < 0 || p.R2 < 0 {
		return fmt.Errorf("%w: at least one of the potential's bin limits is less than 0 (r1=%g, r2=%g)",
			ErrInvalidPotential, p.R1, p.R2)
	}
	return nil
}

func (p *PairPotential) Validate(nsub int) error {
	if err := p.CheckShell(); err != nil {
		return err
	}
	if p.R1 > p.R2 {
		return fmt.Errorf("%w: r1 %g greater than r2 %g", ErrInvalidPotential, p.R1, p.R2)
	}
	return p.CheckBasis(nsub)
}

// CheckBasis reports a coefficient table that is not k x nsub.
func (p *PairPotential) CheckBasis(nsub int) error {
	if nsub < 0 || len(p.Xs) != p.K()*nsub {
		return fmt.Errorf("%w: %d coefficients, want k*nsub = %d*%d",
			ErrInvalidPotential, len(p.Xs), p.K(), nsub)
	}
	return nil
}

type Table struct {
	Types       []AtomType
	NumSubatoms int
	Potential   PairPotential
}

func (t *Table) NumTypes() int { return len(t.Types) }

func (t *Table) ValidType(i int) bool {
	return i >= 0 && i < len(t.Types)
}

func (t *Table) Type(i int) (AtomType, error) {
	if !t.ValidType(i) {
		return AtomType{}, fmt.Errorf("%w: type %d, table has %d", ErrInvalidAtomType, i, len(t.Types))
	}
	return t.Types[i], nil
}

// Subatom resolves the subatom id of type i. skip is true for types that
// the statistical potential ignores.
func (t *Table) Subatom(i int) (sub int, skip bool, err error) {
	at, err := t.Type(i)
	if err != nil {
		return 0, false, err
	}
	if at.SubID < 0 {
		return 0, true, nil
	}
	if at.SubID > t.NumSubatoms-1 {
		return 0, false, fmt.Errorf("%w: subatom mapping %d of atom type %d, nsubatoms %d",
			ErrInvalidSubatomMapping, at.SubID, i, t.NumSubatoms)
	}
	return at.SubID, false, nil
}

// Validate checks the whole table up front. The kernels repeat the checks
// they need per call, so Validate is optional.
func (t *Table) Validate() error {
	if t.NumSubatoms < 0 {
		return fmt.Errorf("%w: negative subatom count %d", ErrInvalidPotential, t.NumSubatoms)
	}
	for i := range t.Types {
		if _, _, err := t.Subatom(i); err != nil {
			return err
		}
	}
	return t.Potential.Validate(t.NumSubatoms)
}
