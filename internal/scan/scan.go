// Package scan evaluates an energy function while one group is moved
// along an axis relative to another.
package scan

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/molpot/internal/atom"
)

var ErrInvalidRange = errors.New("scan: invalid range")

type Axis int

const (
	X Axis = iota
	Y
	Z
)

func (a Axis) String() string {
	switch a {
	case X:
		return "x"
	case Y:
		return "y"
	case Z:
		return "z"
	}
	return fmt.Sprintf("axis(%d)", int(a))
}

// ParseAxis accepts x, y or z.
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "x", "X":
		return X, nil
	case "y", "Y":
		return Y, nil
	case "z", "Z":
		return Z, nil
	}
	return 0, fmt.Errorf("scan: unknown axis %q", s)
}

func (a Axis) unit() r3.Vec {
	switch a {
	case Y:
		return r3.Vec{Y: 1}
	case Z:
		return r3.Vec{Z: 1}
	}
	return r3.Vec{X: 1}
}

type Options struct {
	Axis Axis
	From float64
	To   float64
	Step float64
}

// Points lists the sampled separations, From and To inclusive.
func (o Options) Points() ([]float64, error) {
	if o.Axis < X || o.Axis > Z {
		return nil, fmt.Errorf("%w: axis %d", ErrInvalidRange, o.Axis)
	}
	if !(o.Step > 0) || math.IsInf(o.Step, 0) {
		return nil, fmt.Errorf("%w: step %g", ErrInvalidRange, o.Step)
	}
	if math.IsNaN(o.From) || math.IsNaN(o.To) || o.To < o.From {
		return nil, fmt.Errorf("%w: [%g, %g]", ErrInvalidRange, o.From, o.To)
	}
	n := int(math.Floor((o.To-o.From)/o.Step+1e-9)) + 1
	if n == 1 {
		return []float64{o.From}, nil
	}
	return floats.Span(make([]float64, n), o.From, o.From+float64(n-1)*o.Step), nil
}

// EnergyFunc evaluates the interaction of a with b.
type EnergyFunc func(a, b *atom.Group) (float64, error)

type Series struct {
	Axis      Axis
	Distances []float64
	Energies  []float64
}

func (s *Series) Len() int {
	return len(s.Distances)
}

// Min returns the separation with the lowest energy.
func (s *Series) Min() (distance, energy float64) {
	if s.Len() == 0 {
		return math.NaN(), math.NaN()
	}
	i := floats.MinIdx(s.Energies)
	return s.Distances[i], s.Energies[i]
}

func (s *Series) Max() (distance, energy float64) {
	if s.Len() == 0 {
		return math.NaN(), math.NaN()
	}
	i := floats.MaxIdx(s.Energies)
	return s.Distances[i], s.Energies[i]
}

// Place returns a copy of b whose centroid sits at distance d from the
// centroid of a along axis.
func Place(a, b *atom.Group, axis Axis, d float64) *atom.Group {
	target := r3.Add(a.Centroid(), r3.Scale(d, axis.unit()))
	moved := b.Clone()
	moved.Translate(r3.Sub(target, b.Centroid()))
	return moved
}

// Distance samples fn over the separations in opts. a and b are not modified.
func Distance(ctx context.Context, a, b *atom.Group, opts Options, fn EnergyFunc) (*Series, error) {
	ds, err := opts.Points()
	if err != nil {
		return nil, err
	}

	s := &Series{Axis: opts.Axis, Distances: ds, Energies: make([]float64, len(ds))}
	for i, d := range ds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e, err := fn(a, Place(a, b, opts.Axis, d))
		if err != nil {
			return nil, fmt.Errorf("scan: distance %g: %w", d, err)
		}
		s.Energies[i] = e
	}
	return s, nil
}
