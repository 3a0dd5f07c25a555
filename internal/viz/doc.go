// Package viz renders molpot results in the terminal.
//
// Static renderers format a gradient validation report and an energy
// breakdown with lipgloss. [Probe] is a Bubble Tea model that moves group B
// along an axis and shows every kernel live.
//
// # Key Bindings
//
//	Left/H  - Move B closer
//	Right/L - Move B away
//	+/-     - Double or halve the step
//	X/Y/Z   - Change axis
//	T       - Cycle color themes
//	Q       - Quit
package viz
