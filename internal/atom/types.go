package atom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

type Atom struct {
	Name string
	// Type indexes the parameter table used by the energy kernels.
	Type int
	Pos  r3.Vec
	// SA marks solvent/surface accessible atoms.
	SA bool

	// Force-field fields filled from a topology file.
	FType     int
	FTypeName string
	Charge    float64
	Radius    float64
	Radius03  float64
	Eps       float64
	Eps03     float64
	AceVolume float64

	// Indices into the owning group's bonded tables.
	Bonds     []int
	Angles    []int
	Torsions  []int
	Impropers []int
}

type Bond struct {
	A0, A1 int
	L0     float64
	K      float64
}

type Angle struct {
	A0, A1, A2 int
	Th0        float64
	K          float64
}

type Torsion struct {
	A0, A1, A2, A3 int
	N              int
	D              float64
	K              float64
}

type Improper struct {
	A0, A1, A2, A3 int
	Psi0           float64
	K              float64
}

type Group struct {
	Atoms     []Atom
	Bonds     []Bond
	Angles    []Angle
	Torsions  []Torsion
	Impropers []Improper
}

func NewGroup(atoms ...Atom) *Group {
	g := &Group{Atoms: make([]Atom, len(atoms))}
	copy(g.Atoms, atoms)
	return g
}

func (g *Group) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Atoms)
}

// Clone returns a deep copy; coordinate changes on the copy never reach g.
func (g *Group) Clone() *Group {
	c := &Group{
		Atoms:     make([]Atom, len(g.Atoms)),
		Bonds:     append([]Bond(nil), g.Bonds...),
		Angles:    append([]Angle(nil), g.Angles...),
		Torsions:  append([]Torsion(nil), g.Torsions...),
		Impropers: append([]Improper(nil), g.Impropers...),
	}
	for i, a := range g.Atoms {
		a.Bonds = append([]int(nil), a.Bonds...)
		a.Angles = append([]int(nil), a.Angles...)
		a.Torsions = append([]int(nil), a.Torsions...)
		a.Impropers = append([]int(nil), a.Impropers...)
		c.Atoms[i] = a
	}
	return c
}

func (g *Group) Translate(d r3.Vec) {
	for i := range g.Atoms {
		g.Atoms[i].Pos = r3.Add(g.Atoms[i].Pos, d)
	}
}

// Centroid is the unweighted mean position. An empty group returns the origin.
func (g *Group) Centroid() r3.Vec {
	var c r3.Vec
	if g.Len() == 0 {
		return c
	}
	for _, a := range g.Atoms {
		c = r3.Add(c, a.Pos)
	}
	return r3.Scale(1/float64(len(g.Atoms)), c)
}

// Coords flattens positions as x0 y0 z0 x1 y1 z1 ...
func (g *Group) Coords() []float64 {
	out := make([]float64, 0, 3*len(g.Atoms))
	for _, a := range g.Atoms {
		out = append(out, a.Pos.X, a.Pos.Y, a.Pos.Z)
	}
	return out
}

func (g *Group) SetCoords(x []float64) error {
	if len(x) != 3*len(g.Atoms) {
		return fmt.Errorf("atom: %d coordinates for %d atoms", len(x), len(g.Atoms))
	}
	for i := range g.Atoms {
		g.Atoms[i].Pos = r3.Vec{X: x[3*i], Y: x[3*i+1], Z: x[3*i+2]}
	}
	return nil
}

func (g *Group) IsValid() bool {
	for _, a := range g.Atoms {
		for _, v := range [3]float64{a.Pos.X, a.Pos.Y, a.Pos.Z} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// Coord returns component axis (0=X, 1=Y, 2=Z) of atom i.
func (g *Group) Coord(i, axis int) float64 {
	p := g.Atoms[i].Pos
	switch axis {
	case 0:
		return p.X
	case 1:
		return p.Y
	default:
		return p.Z
	}
}

func (g *Group) SetCoord(i, axis int, v float64) {
	p := &g.Atoms[i].Pos
	switch axis {
	case 0:
		p.X = v
	case 1:
		p.Y = v
	default:
		p.Z = v
	}
}

// Gradient holds one vector per atom. Kernels store forces in it, that is
// the negative of dE/dx.
type Gradient []r3.Vec

func NewGradient(n int) Gradient {
	return make(Gradient, n)
}

func (g Gradient) Zero() {
	for i := range g {
		g[i] = r3.Vec{}
	}
}

func (g Gradient) Add(i int, v r3.Vec) {
	g[i] = r3.Add(g[i], v)
}

func (g Gradient) Clone() Gradient {
	c := make(Gradient, len(g))
	copy(c, g)
	return c
}
