// Package energy implements the brute-force pairwise energy kernels.
//
// Every kernel loops over all pairs (a, b) with a taken from the first
// group and b from the second. Self pairs and i/j duplicates are not
// skipped: passing the same group twice counts every pair in both orders,
// and deduplication is the caller's job.
//
//   - [PairwisePotential]: shell-gated statistical potential
//   - [CoulombicElec]: screened Coulomb with a 2.0 clamp and 20.0 cutoff
//   - [Diagnostic]: steric/electrostatic tally for force-field tuning
//
// Kernels never return a partial energy: on error the energy is 0 and the
// error wraps one of [ErrInvalidAtomType], [ErrInvalidSubatomMapping] or
// [ErrInvalidPotential].
package energy
