// Package topology loads per-atom force-field parameters and bonded
// records from a JSON description into an existing atom group.
package topology

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/san-kum/molpot/internal/atom"
)

var (
	ErrAtomCount = errors.New("topology: atom count does not match group")
	ErrAtomIndex = errors.New("topology: atom index out of range")
	ErrMissing   = errors.New("topology: missing field")
	ErrPositive  = errors.New("topology: well depth must not be positive")
)

type atomRecord struct {
	AceVolume  *float64 `json:"ace_volume"`
	FTypeIndex *int     `json:"ftype_index"`
	FTypeName  *string  `json:"ftype_name"`
	Eps        *float64 `json:"eps"`
	Eps03      *float64 `json:"eps03"`
	Radius     *float64 `json:"radius"`
	Radius03   *float64 `json:"radius03"`
	Charge     *float64 `json:"charge"`
	Name       *string  `json:"name"`
}

type bondRecord struct {
	Atom1          int      `json:"atom1"`
	Atom2          int      `json:"atom2"`
	Length         *float64 `json:"length"`
	SpringConstant *float64 `json:"spring_constant"`
}

type angleRecord struct {
	Atom1          int      `json:"atom1"`
	Atom2          int      `json:"atom2"`
	Atom3          int      `json:"atom3"`
	Theta          *float64 `json:"theta"`
	SpringConstant *float64 `json:"spring_constant"`
}

type torsionRecord struct {
	Atom1          int      `json:"atom1"`
	Atom2          int      `json:"atom2"`
	Atom3          int      `json:"atom3"`
	Atom4          int      `json:"atom4"`
	Minima         *int     `json:"minima"`
	DeltaConstant  *float64 `json:"delta_constant"`
	SpringConstant *float64 `json:"spring_constant"`
}

type improperRecord struct {
	Atom1          int      `json:"atom1"`
	Atom2          int      `json:"atom2"`
	Atom3          int      `json:"atom3"`
	Atom4          int      `json:"atom4"`
	Phi            *float64 `json:"phi"`
	SpringConstant *float64 `json:"spring_constant"`
}

type document struct {
	Atoms     []atomRecord     `json:"atoms"`
	Bonds     []bondRecord     `json:"bonds"`
	Angles    []angleRecord    `json:"angles"`
	Torsions  []torsionRecord  `json:"torsions"`
	Impropers []improperRecord `json:"impropers"`
}

// Summary describes what a load put into the group.
type Summary struct {
	Atoms     int
	Bonds     int
	Angles    int
	Torsions  int
	Impropers int
	// NumFTypes is the largest force-field type index seen.
	NumFTypes int
}

func ReadFile(path string, g *atom.Group) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, err
	}
	defer f.Close()

	s, err := Read(f, g)
	if err != nil {
		return Summary{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Read decodes a topology document into g. Atom indices in bonded records
// are 1-based. Well depths are stored as sqrt(-eps). The group is only
// modified when the whole document is valid.
func Read(r io.Reader, g *atom.Group) (Summary, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Summary{}, fmt.Errorf("topology: decode: %w", err)
	}
	if doc.Atoms == nil {
		return Summary{}, fmt.Errorf("%w: atoms", ErrMissing)
	}
	if len(doc.Atoms) != g.Len() {
		return Summary{}, fmt.Errorf("%w: %d in file vs %d in group", ErrAtomCount, len(doc.Atoms), g.Len())
	}

	atoms := make([]atom.Atom, len(g.Atoms))
	copy(atoms, g.Atoms)

	var s Summary
	for i, rec := range doc.Atoms {
		if err := rec.check(); err != nil {
			return Summary{}, fmt.Errorf("atom %d: %w", i, err)
		}
		a := &atoms[i]
		a.AceVolume = *rec.AceVolume
		a.FType = *rec.FTypeIndex
		a.FTypeName = *rec.FTypeName
		a.Eps = math.Sqrt(-*rec.Eps)
		a.Eps03 = math.Sqrt(-*rec.Eps03)
		a.Radius = *rec.Radius
		a.Radius03 = *rec.Radius03
		a.Charge = *rec.Charge
		a.Name = *rec.Name
		a.Bonds, a.Angles, a.Torsions, a.Impropers = nil, nil, nil, nil
		s.NumFTypes = max(s.NumFTypes, a.FType)
	}

	n := len(atoms)
	idx := func(kind string, rec, one int) (int, error) {
		i := one - 1
		if i < 0 || i >= n {
			return 0, fmt.Errorf("%w: %s %d references atom %d of %d", ErrAtomIndex, kind, rec, one, n)
		}
		return i, nil
	}
	resolve := func(kind string, rec int, ones ...int) ([]int, error) {
		out := make([]int, len(ones))
		for k, one := range ones {
			i, err := idx(kind, rec, one)
			if err != nil {
				return nil, err
			}
			out[k] = i
		}
		return out, nil
	}

	bonds := make([]atom.Bond, 0, len(doc.Bonds))
	for b, rec := range doc.Bonds {
		if rec.Length == nil || rec.SpringConstant == nil {
			return Summary{}, fmt.Errorf("%w: bond %d length/spring_constant", ErrMissing, b)
		}
		ix, err := resolve("bond", b, rec.Atom1, rec.Atom2)
		if err != nil {
			return Summary{}, err
		}
		for _, i := range ix {
			atoms[i].Bonds = append(atoms[i].Bonds, b)
		}
		bonds = append(bonds, atom.Bond{A0: ix[0], A1: ix[1], L0: *rec.Length, K: *rec.SpringConstant})
	}

	angles := make([]atom.Angle, 0, len(doc.Angles))
	for a, rec := range doc.Angles {
		if rec.Theta == nil || rec.SpringConstant == nil {
			return Summary{}, fmt.Errorf("%w: angle %d theta/spring_constant", ErrMissing, a)
		}
		ix, err := resolve("angle", a, rec.Atom1, rec.Atom2, rec.Atom3)
		if err != nil {
			return Summary{}, err
		}
		for _, i := range ix {
			atoms[i].Angles = append(atoms[i].Angles, a)
		}
		angles = append(angles, atom.Angle{A0: ix[0], A1: ix[1], A2: ix[2], Th0: *rec.Theta, K: *rec.SpringConstant})
	}

	torsions := make([]atom.Torsion, 0, len(doc.Torsions))
	for t, rec := range doc.Torsions {
		if rec.Minima == nil || rec.DeltaConstant == nil || rec.SpringConstant == nil {
			return Summary{}, fmt.Errorf("%w: torsion %d minima/delta_constant/spring_constant", ErrMissing, t)
		}
		ix, err := resolve("torsion", t, rec.Atom1, rec.Atom2, rec.Atom3, rec.Atom4)
		if err != nil {
			return Summary{}, err
		}
		for _, i := range ix {
			atoms[i].Torsions = append(atoms[i].Torsions, t)
		}
		torsions = append(torsions, atom.Torsion{
			A0: ix[0], A1: ix[1], A2: ix[2], A3: ix[3],
			N: *rec.Minima, D: *rec.DeltaConstant, K: *rec.SpringConstant,
		})
	}

	impropers := make([]atom.Improper, 0, len(doc.Impropers))
	for p, rec := range doc.Impropers {
		if rec.Phi == nil || rec.SpringConstant == nil {
			return Summary{}, fmt.Errorf("%w: improper %d phi/spring_constant", ErrMissing, p)
		}
		ix, err := resolve("improper", p, rec.Atom1, rec.Atom2, rec.Atom3, rec.Atom4)
		if err != nil {
			return Summary{}, err
		}
		for _, i := range ix {
			atoms[i].Impropers = append(atoms[i].Impropers, p)
		}
		impropers = append(impropers, atom.Improper{
			A0: ix[0], A1: ix[1], A2: ix[2], A3: ix[3],
			Psi0: *rec.Phi, K: *rec.SpringConstant,
		})
	}

	g.Atoms = atoms
	g.Bonds, g.Angles, g.Torsions, g.Impropers = bonds, angles, torsions, impropers

	s.Atoms = n
	s.Bonds, s.Angles = len(bonds), len(angles)
	s.Torsions, s.Impropers = len(torsions), len(impropers)
	return s, nil
}

func (r *atomRecord) check() error {
	switch {
	case r.AceVolume == nil:
		return fmt.Errorf("%w: ace_volume", ErrMissing)
	case r.FTypeIndex == nil:
		return fmt.Errorf("%w: ftype_index", ErrMissing)
	case r.FTypeName == nil:
		return fmt.Errorf("%w: ftype_name", ErrMissing)
	case r.Eps == nil:
		return fmt.Errorf("%w: eps", ErrMissing)
	case r.Eps03 == nil:
		return fmt.Errorf("%w: eps03", ErrMissing)
	case r.Radius == nil:
		return fmt.Errorf("%w: radius", ErrMissing)
	case r.Radius03 == nil:
		return fmt.Errorf("%w: radius03", ErrMissing)
	case r.Charge == nil:
		return fmt.Errorf("%w: charge", ErrMissing)
	case r.Name == nil:
		return fmt.Errorf("%w: name", ErrMissing)
	case *r.Eps > 0:
		return fmt.Errorf("%w: eps %g", ErrPositive, *r.Eps)
	case *r.Eps03 > 0:
		return fmt.Errorf("%w: eps03 %g", ErrPositive, *r.Eps03)
	}
	return nil
}
