package energy

import (
	"io"
	"math/rand"
	"testing"

	"github.com/san-kum/molpot/internal/atom"
)

func benchGroups() (*atom.Group, *atom.Group) {
	rng := rand.New(rand.NewSource(1))
	return randomGroup(rng, 300, 4), randomGroup(rng, 300, 4)
}

func BenchmarkPairwisePotential(b *testing.B) {
	ff := mixedTable()
	ga, gb := benchGroups()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = PairwisePotential(ga, gb, ff, false)
	}
}

func BenchmarkCoulombicElec(b *testing.B) {
	ff := mixedTable()
	ga, gb := benchGroups()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = CoulombicElec(ga, gb, ff)
	}
}

func BenchmarkCoulombicElecGrad(b *testing.B) {
	ff := mixedTable()
	ga, gb := benchGroups()
	fa := atom.NewGradient(ga.Len())
	fb := atom.NewGradient(gb.Len())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		fa.Zero()
		fb.Zero()
		_, _ = CoulombicElecGrad(ga, gb, ff, fa, fb)
	}
}

func BenchmarkDiagnostic(b *testing.B) {
	ff := mixedTable()
	ga, gb := benchGroups()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Diagnostic(ga, gb, ff, io.Discard)
	}
}
