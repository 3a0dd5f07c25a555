package energy

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/molpot/internal/atom"
	"github.com/san-kum/molpot/internal/forcefield"
)

const (
	// CoulombMinR is the clamp radius below which pairs are evaluated at CoulombMinR.
	CoulombMinR = 2.0
	// CoulombMaxR is the cutoff radius; pairs beyond it contribute nothing.
	CoulombMaxR = 20.0

	minRSq = CoulombMinR * CoulombMinR
	maxRSq = CoulombMaxR * CoulombMaxR
)

// screened is q1*q2*(1/rsq - (1/maxrsq)*(2 - rsq/maxrsq)). Value and slope
// in rsq both vanish at the cutoff.
func screened(qq, rsq float64) float64 {
	return qq * ((1 / rsq) - ((1 / maxRSq) * (2 - (rsq / maxRSq))))
}

// CoulombicElec is the screened Coulomb energy between a and b. No unit
// conversion is applied to the table charges.
func CoulombicElec(a, b *atom.Group, ff *forcefield.Table) (float64, error) {
	E := 0.0

	for i := range a.Atoms {
		ai := &a.Atoms[i]
		ta, err := ff.Type(ai.Type)
		if err != nil {
			return 0, &AtomError{Group: "A", Index: i, Type: ai.Type, Wrapped: err}
		}
		q1 := ta.Charge

		for j := range b.Atoms {
			bj := &b.Atoms[j]
			tb, err := ff.Type(bj.Type)
			if err != nil {
				return 0, &AtomError{Group: "B", Index: j, Type: bj.Type, Wrapped: err}
			}

			rsq := r3.Norm2(r3.Sub(ai.Pos, bj.Pos))
			if rsq > maxRSq {
				continue
			}
			if rsq < minRSq {
				rsq = minRSq
			}
			E += screened(q1*tb.Charge, rsq)
		}
	}

	return E, nil
}

// CoulombicElecGrad returns the same energy as CoulombicElec and adds the
// forces (-dE/dx) on a and b into ga and gb. The buffers are not zeroed.
// a and b may be the same group with ga and gb the same buffer. On error
// the buffers hold partial sums.
func CoulombicElecGrad(a, b *atom.Group, ff *forcefield.Table, ga, gb atom.Gradient) (float64, error) {
	E := 0.0

	for i := range a.Atoms {
		ai := &a.Atoms[i]
		ta, err := ff.Type(ai.Type)
		if err != nil {
			return 0, &AtomError{Group: "A", Index: i, Type: ai.Type, Wrapped: err}
		}
		q1 := ta.Charge

		for j := range b.Atoms {
			bj := &b.Atoms[j]
			tb, err := ff.Type(bj.Type)
			if err != nil {
				return 0, &AtomError{Group: "B", Index: j, Type: bj.Type, Wrapped: err}
			}

			d := r3.Sub(ai.Pos, bj.Pos)
			rsq := r3.Norm2(d)
			if rsq > maxRSq {
				continue
			}
			qq := q1 * tb.Charge
			if rsq < minRSq {
				// flat inside the clamp
				E += screened(qq, minRSq)
				continue
			}
			E += screened(qq, rsq)

			// dE/drsq, times drsq/dxa = 2d
			dEds := qq * ((1 / maxRSq / maxRSq) - (1 / (rsq * rsq)))
			f := r3.Scale(-2*dEds, d)
			ga.Add(i, f)
			gb.Add(j, r3.Scale(-1, f))
		}
	}

	return E, nil
}
