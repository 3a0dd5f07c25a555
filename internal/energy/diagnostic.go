package energy

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/molpot/internal/atom"
	"github.com/san-kum/molpot/internal/forcefield"
)

// DiagnosticOuterR gates the steric attraction count.
const DiagnosticOuterR = 6.5

// Diagnostics holds the three accumulators of the diagnostic kernel.
type Diagnostics struct {
	// StericRepulsion counts pairs closer than A's radius.
	StericRepulsion float64
	// StericAttraction is minus the count of remaining pairs inside DiagnosticOuterR.
	StericAttraction float64
	// Electrostatic is the raw sum of q1*q2/rsq over every pair, without
	// cutoff or clamp. Coincident atoms make it infinite.
	Electrostatic float64
}

// Tally runs the diagnostic double loop. Only A's radius gates the steric
// counts; B's radius is not read.
func Tally(a, b *atom.Group, ff *forcefield.Table) (Diagnostics, error) {
	var d Diagnostics
	r2sq := DiagnosticOuterR * DiagnosticOuterR

	for i := range a.Atoms {
		ai := &a.Atoms[i]
		ta, err := ff.Type(ai.Type)
		if err != nil {
			return Diagnostics{}, &AtomError{Group: "A", Index: i, Type: ai.Type, Wrapped: err}
		}
		r1sq := ta.Radius * ta.Radius
		q1 := ta.Charge

		for j := range b.Atoms {
			bj := &b.Atoms[j]
			tb, err := ff.Type(bj.Type)
			if err != nil {
				return Diagnostics{}, &AtomError{Group: "B", Index: j, Type: bj.Type, Wrapped: err}
			}

			rsq := r3.Norm2(r3.Sub(ai.Pos, bj.Pos))
			if rsq < r1sq {
				d.StericRepulsion += 1.0
			} else if rsq < r2sq {
				d.StericAttraction -= 1.0
			}
			d.Electrostatic += (q1 * tb.Charge) / rsq
		}
	}

	return d, nil
}

// WriteTo prints the accumulators one per line.
func (d Diagnostics) WriteTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w, "vrE: %.3f\nvaE: %.3f\neE: %.3f\n",
		d.StericRepulsion, d.StericAttraction, d.Electrostatic)
	return int64(n), err
}

// Diagnostic tallies a against b, writes the accumulators to w and returns
// 0. It is a measurement tool: the returned energy is always 0 and must not
// be summed into a real energy.
func Diagnostic(a, b *atom.Group, ff *forcefield.Table, w io.Writer) (float64, error) {
	d, err := Tally(a, b, ff)
	if err != nil {
		return 0, err
	}
	if _, err := d.WriteTo(w); err != nil {
		return 0, err
	}
	return 0, nil
}
