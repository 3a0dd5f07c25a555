// Package validate cross-checks analytical gradients against forward
// finite differences.
//
// The validator perturbs one coordinate at a time by +step, re-evaluates the
// energy callback, and restores the exact original value before touching the
// next axis. It reports; it never asserts. Use [Report.Check] or
// [Report.MaxDifference] to decide pass or fail.
package validate

import (
	"errors"
	"fmt"
	"io"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/molpot/internal/atom"
	"github.com/san-kum/molpot/internal/logging"
)

var (
	// ErrInvalidStep indicates a step that is zero, negative, NaN or infinite.
	ErrInvalidStep = errors.New("validate: step must be positive and finite")

	// ErrMismatch is returned by Report.Check when a difference exceeds the tolerance.
	ErrMismatch = errors.New("validate: analytical and numerical gradients differ")
)

// Func evaluates the energy of g and writes the analytical gradient into
// grad using the force convention (grad = -dE/dx). ctx is the caller's own
// state, passed through untouched.
type Func[C any] func(ctx C, g *atom.Group, grad atom.Gradient) (float64, error)

type Options struct {
	// Workers > 1 splits atoms across goroutines. Each worker perturbs its
	// own clone of the group, so fn must be safe for concurrent calls on
	// distinct groups.
	Workers int
	Logger  *zap.Logger
}

type Row struct {
	Index      int
	Analytical r3.Vec
	Numerical  r3.Vec
	// Difference is Analytical + Numerical: analytical gradients are stored
	// as forces, so a correct gradient gives a difference near zero.
	Difference r3.Vec
}

type Report struct {
	Step   float64
	Energy float64
	Rows   []Row
}

// Gradients runs the validator sequentially on g.
func Gradients[C any](g *atom.Group, ctx C, fn Func[C], step float64) (*Report, error) {
	return GradientsWith(g, ctx, fn, step, Options{})
}

func GradientsWith[C any](g *atom.Group, ctx C, fn Func[C], step float64, opts Options) (*Report, error) {
	if !(step > 0) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidStep, step)
	}
	log := logging.OrNop(opts.Logger)

	n := g.Len()
	grad := atom.NewGradient(n)

	base, err := fn(ctx, g, grad)
	if err != nil {
		return nil, fmt.Errorf("validate: baseline evaluation: %w", err)
	}
	log.Debug("baseline energy", zap.Float64("energy", base), zap.Int("atoms", n))

	numerical := make([]r3.Vec, n)
	if opts.Workers <= 1 || n < 2 {
		err = perturbRange(g, ctx, fn, step, base, grad, numerical, 0, n)
	} else {
		err = parallelFor(n, opts.Workers, func(start, end int) error {
			local := g.Clone()
			return perturbRange(local, ctx, fn, step, base, atom.NewGradient(n), numerical, start, end)
		})
	}
	if err != nil {
		return nil, err
	}

	// The last perturbed call left stale analytical values in grad.
	energy, err := fn(ctx, g, grad)
	if err != nil {
		return nil, fmt.Errorf("validate: final evaluation: %w", err)
	}

	r := &Report{Step: step, Energy: energy, Rows: make([]Row, n)}
	for i := 0; i < n; i++ {
		r.Rows[i] = Row{
			Index:      i,
			Analytical: grad[i],
			Numerical:  numerical[i],
			Difference: r3.Add(grad[i], numerical[i]),
		}
	}

	log.Info("gradient validation finished",
		zap.Int("atoms", n),
		zap.Float64("step", step),
		zap.Float64("max_difference", r.MaxDifference()),
		zap.Int("workers", max(opts.Workers, 1)),
	)
	return r, nil
}

// perturbRange fills numerical[start:end] with forward differences on g.
// Every coordinate is restored to its saved value, error or not, before the
// next axis is perturbed.
func perturbRange[C any](g *atom.Group, ctx C, fn Func[C], step, base float64, scratch atom.Gradient, numerical []r3.Vec, start, end int) error {
	for i := start; i < end; i++ {
		var d [3]float64
		for axis := 0; axis < 3; axis++ {
			saved := g.Coord(i, axis)
			g.SetCoord(i, axis, saved+step)
			e, err := fn(ctx, g, scratch)
			g.SetCoord(i, axis, saved)
			if err != nil {
				return fmt.Errorf("validate: atom %d axis %c: %w", i, "XYZ"[axis], err)
			}
			d[axis] = (e - base) / step
		}
		numerical[i] = r3.Vec{X: d[0], Y: d[1], Z: d[2]}
	}
	return nil
}

func maxAbs(v r3.Vec) float64 {
	return math.Max(math.Abs(v.X), math.Max(math.Abs(v.Y), math.Abs(v.Z)))
}

// MaxDifference is the largest absolute difference component over all atoms.
func (r *Report) MaxDifference() float64 {
	m := 0.0
	for _, row := range r.Rows {
		if d := maxAbs(row.Difference); d > m || math.IsNaN(d) {
			m = d
		}
	}
	return m
}

// Check returns ErrMismatch for the first atom whose difference exceeds tol.
func (r *Report) Check(tol float64) error {
	for _, row := range r.Rows {
		if d := maxAbs(row.Difference); !(d <= tol) {
			return fmt.Errorf("%w: atom %d difference %g above tolerance %g", ErrMismatch, row.Index, d, tol)
		}
	}
	return nil
}

// WriteTo prints three lines per atom: analytical, numerical and difference.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, row := range r.Rows {
		a, nm, d := row.Analytical, row.Numerical, row.Difference
		n, err := fmt.Fprintf(w,
			"Analytical gradient %d: %.12f %.12f %.12f\n"+
				"Numerical  gradient %d: %.12f %.12f %.12f\n"+
				"Difference in gradient %d: %.12g %.12g %.12g\n",
			row.Index, a.X, a.Y, a.Z,
			row.Index, nm.X, nm.Y, nm.Z,
			row.Index, d.X, d.Y, d.Z,
		)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
