package energy

import (
	"github.com/san-kum/molpot/internal/atom"
	"github.com/san-kum/molpot/internal/forcefield"
)

// System is the evaluation context handed to energy callbacks: a parameter
// table and an optional fixed partner group. A nil Partner means the group
// interacts with itself.
type System struct {
	Table   *forcefield.Table
	Partner *atom.Group
	OnlySA  bool
}

func (s *System) partner(g *atom.Group) *atom.Group {
	if s.Partner == nil {
		return g
	}
	return s.Partner
}

// CoulombEnergyGrad evaluates the screened Coulomb energy of g and writes the
// forces on g into grad. grad is zeroed first. Forces on a fixed partner are
// discarded.
func (s *System) CoulombEnergyGrad(g *atom.Group, grad atom.Gradient) (float64, error) {
	grad.Zero()
	if s.Partner == nil {
		return CoulombicElecGrad(g, g, s.Table, grad, grad)
	}
	scratch := atom.NewGradient(s.Partner.Len())
	return CoulombicElecGrad(g, s.Partner, s.Table, grad, scratch)
}

// Breakdown is one evaluation of every kernel.
type Breakdown struct {
	Statistical float64
	Coulomb     float64
	Diagnostics Diagnostics
}

// Total excludes the diagnostic tally, which is not an energy.
func (b Breakdown) Total() float64 {
	return b.Statistical + b.Coulomb
}

func (s *System) Evaluate(g *atom.Group) (Breakdown, error) {
	p := s.partner(g)

	stat, err := PairwisePotential(g, p, s.Table, s.OnlySA)
	if err != nil {
		return Breakdown{}, err
	}
	elec, err := CoulombicElec(g, p, s.Table)
	if err != nil {
		return Breakdown{}, err
	}
	diag, err := Tally(g, p, s.Table)
	if err != nil {
		return Breakdown{}, err
	}

	return Breakdown{Statistical: stat, Coulomb: elec, Diagnostics: diag}, nil
}
