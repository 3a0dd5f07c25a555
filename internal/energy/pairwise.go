package energy

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/molpot/internal/atom"
	"github.com/san-kum/molpot/internal/forcefield"
)

// PairwisePotential sums the statistical potential over all pairs whose
// squared distance lies in [r1^2, r2^2). With onlySA set, atoms without
// the SA flag are skipped on both sides. Types with a negative subatom id
// contribute nothing.
func PairwisePotential(a, b *atom.Group, ff *forcefield.Table, onlySA bool) (float64, error) {
	pot := &ff.Potential
	if err := pot.CheckShell(); err != nil {
		return 0, err
	}
	if err := pot.CheckBasis(ff.NumSubatoms); err != nil {
		return 0, err
	}

	r1sq := pot.R1 * pot.R1
	r2sq := pot.R2 * pot.R2
	nsub := ff.NumSubatoms
	k := pot.K()

	E := 0.0

	for i := range a.Atoms {
		ai := &a.Atoms[i]
		if onlySA && !ai.SA {
			continue
		}

		subA, skip, err := ff.Subatom(ai.Type)
		if err != nil {
			return 0, &AtomError{Group: "A", Index: i, Type: ai.Type, Wrapped: err}
		}
		if skip {
			continue
		}

		for j := range b.Atoms {
			bj := &b.Atoms[j]
			if onlySA && !bj.SA {
				continue
			}

			subB, skip, err := ff.Subatom(bj.Type)
			if err != nil {
				return 0, &AtomError{Group: "B", Index: j, Type: bj.Type, Wrapped: err}
			}
			if skip {
				continue
			}

			rsq := r3.Norm2(r3.Sub(ai.Pos, bj.Pos))
			if rsq >= r1sq && rsq < r2sq {
				for ek := 0; ek < k; ek++ {
					E += pot.Lambdas[ek] * pot.Coeff(ek, subA, nsub) * pot.Coeff(ek, subB, nsub)
				}
			}
		}
	}

	return E, nil
}
