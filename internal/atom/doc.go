// Package atom provides the atom group container evaluated by the energy kernels.
//
// The package defines the in-memory topology consumed by the kernels:
//
//   - [Atom]: position, kernel type index, surface-accessible flag
//   - [Group]: ordered atoms plus bonded records
//   - [Gradient]: caller-owned per-atom gradient buffer
//
// # Example
//
//	g := atom.NewGroup(
//	    atom.Atom{Type: 0, Pos: r3.Vec{}},
//	    atom.Atom{Type: 0, Pos: r3.Vec{X: 5}},
//	)
//	grad := atom.NewGradient(g.Len())
//
// # Thread Safety
//
// Groups are NOT thread-safe. Kernels only read them; code that perturbs
// coordinates from several goroutines must work on [Group.Clone] copies.
package atom
