package validate

import (
	"bytes"
	"errors"
	"math"
	"strings"

	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/molpot/internal/atom"
	"github.com/san-kum/molpot/internal/energy"
	"github.com/san-kum/molpot/internal/forcefield"
)

// well is a set of independent harmonic springs, one per atom.
type well struct {
	k       float64
	centers []r3.Vec
	flip    bool
	fail    int

	ref      []float64
	calls    int
	maxMoved int
}

func harmonic(w *well, g *atom.Group, grad atom.Gradient) (float64, error) {
	w.calls++
	if w.fail > 0 && w.calls == w.fail {
		return 0, errors.New("boom")
	}
	if w.ref != nil {
		moved := 0
		for i, x := range g.Coords() {
			if x != w.ref[i] {
				moved++
			}
		}
		w.maxMoved = max(w.maxMoved, moved)
	}

	E := 0.0
	for i, a := range g.Atoms {
		d := r3.Sub(a.Pos, w.centers[i])
		E += 0.5 * w.k * r3.Norm2(d)
		f := r3.Scale(-w.k, d)
		if w.flip {
			f = r3.Scale(-1, f)
		}
		grad[i] = f
	}
	return E, nil
}

// stateless variant for concurrent workers
func spring(k float64, g *atom.Group, grad atom.Gradient) (float64, error) {
	E := 0.0
	for i, a := range g.Atoms {
		E += 0.5 * k * r3.Norm2(a.Pos)
		grad[i] = r3.Scale(-k, a.Pos)
	}
	return E, nil
}

func threeAtoms() *atom.Group {
	return atom.NewGroup(
		atom.Atom{Pos: r3.Vec{X: 1, Y: 2, Z: 3}},
		atom.Atom{Pos: r3.Vec{X: -0.5, Y: 0.25, Z: 4}},
		atom.Atom{Pos: r3.Vec{X: 7, Y: -3, Z: 0.1}},
	)
}

func newWell(g *atom.Group) *well {
	return &well{
		k:       2.5,
		centers: []r3.Vec{{}, {X: 1}, {Y: -1, Z: 2}},
		ref:     g.Coords(),
	}
}

var _ = ginkgo.Describe("Gradients", func() {
	var g *atom.Group

	ginkgo.BeforeEach(func() {
		g = threeAtoms()
	})

	ginkgo.It("evaluates once for the baseline, three times per atom, and once more at the end", func() {
		w := newWell(g)
		_, err := Gradients(g, w, harmonic, 1e-4)
		Expect(err).NotTo(HaveOccurred())
		Expect(w.calls).To(Equal(1 + 3*g.Len() + 1))
	})

	ginkgo.It("never perturbs two coordinates at once", func() {
		w := newWell(g)
		_, err := Gradients(g, w, harmonic, 1e-3)
		Expect(err).NotTo(HaveOccurred())
		Expect(w.maxMoved).To(Equal(1))
	})

	ginkgo.It("restores every coordinate exactly", func() {
		before := g.Coords()
		_, err := Gradients(g, newWell(g), harmonic, 0.1)
		Expect(err).NotTo(HaveOccurred())
		Expect(g.Coords()).To(Equal(before))
	})

	ginkgo.It("reports the analytical gradient of the unperturbed geometry", func() {
		w := newWell(g)
		r, err := Gradients(g, w, harmonic, 1e-2)
		Expect(err).NotTo(HaveOccurred())

		for i, row := range r.Rows {
			want := r3.Scale(-w.k, r3.Sub(g.Atoms[i].Pos, w.centers[i]))
			Expect(row.Analytical).To(Equal(want))
			Expect(row.Difference).To(Equal(r3.Add(row.Analytical, row.Numerical)))
		}
	})

	ginkgo.It("shows an O(step) difference for a correct gradient", func() {
		w := newWell(g)
		r, err := Gradients(g, w, harmonic, 1e-3)
		Expect(err).NotTo(HaveOccurred())

		// forward difference on k/2 x^2 overshoots by k*step/2
		Expect(r.MaxDifference()).To(BeNumerically("~", w.k*1e-3/2, 1e-8))
		Expect(r.Check(1e-2)).To(Succeed())
	})

	ginkgo.It("converges as the step shrinks", func() {
		var diffs []float64
		for _, step := range []float64{1e-1, 1e-2, 1e-3, 1e-4} {
			r, err := Gradients(threeAtoms(), newWell(g), harmonic, step)
			Expect(err).NotTo(HaveOccurred())
			diffs = append(diffs, r.MaxDifference())
		}
		for i := 1; i < len(diffs); i++ {
			Expect(diffs[i]).To(BeNumerically("<", diffs[i-1]/5))
		}
	})

	ginkgo.It("flags a gradient with the wrong sign", func() {
		w := newWell(g)
		w.flip = true
		r, err := Gradients(g, w, harmonic, 1e-4)
		Expect(err).NotTo(HaveOccurred())

		err = r.Check(1e-2)
		Expect(err).To(MatchError(ErrMismatch))
		Expect(r.MaxDifference()).To(BeNumerically(">", 1))
	})

	ginkgo.It("rejects bad steps", func() {
		for _, step := range []float64{0, -1e-3, math.NaN(), math.Inf(1)} {
			_, err := Gradients(g, newWell(g), harmonic, step)
			Expect(errors.Is(err, ErrInvalidStep)).To(BeTrue(), "step %v", step)
		}
	})

	ginkgo.It("propagates callback errors and still restores the coordinate", func() {
		before := g.Coords()
		w := newWell(g)
		w.fail = 5

		_, err := Gradients(g, w, harmonic, 0.5)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("atom 1 axis X"))
		Expect(g.Coords()).To(Equal(before))
	})

	ginkgo.It("handles an empty group", func() {
		r, err := Gradients(atom.NewGroup(), newWell(g), harmonic, 1e-3)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Rows).To(BeEmpty())
		Expect(r.MaxDifference()).To(BeZero())
	})
})

var _ = ginkgo.Describe("GradientsWith workers", func() {
	ginkgo.It("matches the sequential result exactly", func() {
		g := atom.NewGroup()
		for i := 0; i < 17; i++ {
			x := float64(i)
			g.Atoms = append(g.Atoms, atom.Atom{Pos: r3.Vec{X: x, Y: -x / 2, Z: x * x / 10}})
		}
		before := g.Coords()

		seq, err := Gradients(g, 3.0, spring, 1e-4)
		Expect(err).NotTo(HaveOccurred())
		par, err := GradientsWith(g, 3.0, spring, 1e-4, Options{Workers: 4})
		Expect(err).NotTo(HaveOccurred())

		Expect(par.Rows).To(Equal(seq.Rows))
		Expect(g.Coords()).To(Equal(before))
	})
})

var _ = ginkgo.Describe("validating the screened Coulomb gradient", func() {
	ginkgo.It("agrees with finite differences", func() {
		ff := &forcefield.Table{
			Types: []forcefield.AtomType{
				{Name: "N", Charge: -0.6, SubID: forcefield.NoSubatom},
				{Name: "P", Charge: 0.8, SubID: forcefield.NoSubatom},
			},
		}
		g := atom.NewGroup(
			atom.Atom{Type: 0, Pos: r3.Vec{}},
			atom.Atom{Type: 1, Pos: r3.Vec{X: 3.1, Y: 0.4}},
			atom.Atom{Type: 0, Pos: r3.Vec{X: 1.2, Y: 4.4, Z: -1}},
			atom.Atom{Type: 1, Pos: r3.Vec{X: -2.5, Y: 2, Z: 2}},
		)
		sys := &energy.System{Table: ff}

		r, err := GradientsWith[*energy.System](g, sys, (*energy.System).CoulombEnergyGrad, 1e-6, Options{Workers: 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Check(1e-4)).To(Succeed())

		want, err := energy.CoulombicElec(g, g, ff)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Energy).To(BeNumerically("~", want, 1e-12))
	})
})

var _ = ginkgo.Describe("Report", func() {
	ginkgo.It("prints the three-line format per atom", func() {
		r := &Report{Rows: []Row{{
			Index:      0,
			Analytical: r3.Vec{X: -1, Y: 0.5, Z: 0},
			Numerical:  r3.Vec{X: 1, Y: -0.5, Z: 0.25},
			Difference: r3.Vec{X: 0, Y: 0, Z: 0.25},
		}}}

		var buf bytes.Buffer
		n, err := r.WriteTo(&buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeEquivalentTo(buf.Len()))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		Expect(lines).To(Equal([]string{
			"Analytical gradient 0: -1.000000000000 0.500000000000 0.000000000000",
			"Numerical  gradient 0: 1.000000000000 -0.500000000000 0.250000000000",
			"Difference in gradient 0: 0 0 0.25",
		}))
	})

	ginkgo.It("treats NaN differences as failures", func() {
		r := &Report{Rows: []Row{{Difference: r3.Vec{X: math.NaN()}}}}
		Expect(r.Check(1)).To(MatchError(ErrMismatch))
	})
})

var _ = ginkgo.Describe("parallelFor", func() {
	ginkgo.It("covers every index once", func() {
		seen := make([]int, 10)
		err := parallelFor(10, 3, func(s, e int) error {
			for i := s; i < e; i++ {
				seen[i]++
			}
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
		for _, c := range seen {
			Expect(c).To(Equal(1))
		}
	})

	ginkgo.It("returns a worker error", func() {
		sentinel := errors.New("x")
		err := parallelFor(8, 4, func(s, e int) error {
			if s == 4 {
				return sentinel
			}
			return nil
		})
		Expect(err).To(MatchError(sentinel))
	})
})
