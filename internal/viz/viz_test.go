package viz

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/molpot/internal/atom"
	"github.com/san-kum/molpot/internal/energy"
	"github.com/san-kum/molpot/internal/forcefield"
	"github.com/san-kum/molpot/internal/scan"
	"github.com/san-kum/molpot/internal/validate"
)

func pairSystem() (energy.System, *atom.Group, *atom.Group) {
	ff := &forcefield.Table{
		Types:       []forcefield.AtomType{{Name: "X", Charge: 1, Radius: 3, SubID: 0}},
		NumSubatoms: 1,
		Potential: forcefield.PairPotential{
			R1: 4, R2: 6, Lambdas: []float64{2}, Xs: []float64{3},
		},
	}
	a := atom.NewGroup(atom.Atom{Type: 0})
	b := atom.NewGroup(atom.Atom{Type: 0, Pos: r3.Vec{X: 100}})
	return energy.System{Table: ff}, a, b
}

func key(s string) tea.KeyMsg {
	switch s {
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, p Probe, keys ...string) Probe {
	t.Helper()
	for _, k := range keys {
		m, _ := p.Update(key(k))
		var ok bool
		p, ok = m.(Probe)
		require.True(t, ok)
	}
	return p
}

func TestNewProbe(t *testing.T) {
	sys, a, b := pairSystem()
	p, err := NewProbe(sys, a, b, scan.X, 5, 0.5)
	require.NoError(t, err)

	assert.NoError(t, p.Err())
	assert.Equal(t, 18.0, p.Breakdown().Statistical)
	assert.Nil(t, sys.Partner, "caller's system must not be modified")
	assert.Equal(t, 100.0, b.Atoms[0].Pos.X)

	_, err = NewProbe(sys, a, nil, scan.X, 5, 0.5)
	assert.True(t, errors.Is(err, ErrNoPartner))
}

func TestProbeMoves(t *testing.T) {
	sys, a, b := pairSystem()
	p, err := NewProbe(sys, a, b, scan.X, 5, 0.5)
	require.NoError(t, err)

	// 5 -> 6 leaves the shell [4, 6)
	p = press(t, p, "right", "l")
	assert.Equal(t, 6.0, p.Distance())
	assert.Zero(t, p.Breakdown().Statistical)

	p = press(t, p, "left", "h", "h")
	assert.Equal(t, 4.5, p.Distance())
	assert.Equal(t, 18.0, p.Breakdown().Statistical)
	assert.Len(t, p.history, 6)
}

func TestProbeStepAndAxis(t *testing.T) {
	sys, a, b := pairSystem()
	p, err := NewProbe(sys, a, b, scan.X, 5, 0.5)
	require.NoError(t, err)

	p = press(t, p, "+", "+", "-")
	assert.Equal(t, 1.0, p.Step())

	p = press(t, p, "z")
	assert.Equal(t, scan.Z, p.Axis())
	assert.Len(t, p.history, 1)

	// unknown keys do nothing
	p = press(t, p, "?")
	assert.Equal(t, 5.0, p.Distance())
}

func TestProbeQuit(t *testing.T) {
	sys, a, b := pairSystem()
	p, err := NewProbe(sys, a, b, scan.X, 5, 0.5)
	require.NoError(t, err)

	_, cmd := p.Update(key("q"))
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestProbeView(t *testing.T) {
	sys, a, b := pairSystem()
	p, err := NewProbe(sys, a, b, scan.Y, 5, 0.5)
	require.NoError(t, err)
	p = press(t, p, "l", "l", "t")

	v := p.View()
	assert.Contains(t, v, "PAIR PROBE")
	assert.Contains(t, v, "axis y")
	assert.Contains(t, v, "statistical")
	assert.Contains(t, v, "total")
}

func TestProbeShowsErrors(t *testing.T) {
	sys, a, _ := pairSystem()
	bad := atom.NewGroup(atom.Atom{Type: 7})

	p, err := NewProbe(sys, a, bad, scan.X, 5, 0.5)
	require.NoError(t, err)
	assert.ErrorIs(t, p.Err(), energy.ErrInvalidAtomType)
	assert.Contains(t, p.View(), "error")
}

func TestRenderReport(t *testing.T) {
	r := &validate.Report{
		Step: 1e-6,
		Rows: []validate.Row{
			{Index: 0, Difference: r3.Vec{X: 1e-7}},
			{Index: 1, Difference: r3.Vec{Z: -0.5}},
		},
	}

	out := RenderReport(r, 1e-4, ThemeMinimal)
	assert.Contains(t, out, "atom 0")
	assert.Contains(t, out, "atom 1")
	assert.Contains(t, out, "FAIL")

	r.Rows = r.Rows[:1]
	assert.Contains(t, RenderReport(r, 1e-4, ThemeMinimal), "PASS")
}

func TestRenderBreakdown(t *testing.T) {
	b := energy.Breakdown{Statistical: 18, Coulomb: 0.5}
	out := RenderBreakdown("pair", b, ThemeOcean)
	assert.Contains(t, out, "PAIR")
	assert.Contains(t, out, "18.500000")
	assert.Contains(t, out, "vrE")
}

func TestSparklineChart(t *testing.T) {
	assert.Equal(t, strings.Repeat("─", 5), SparklineChart(nil, 5, ThemeCyberpunk))

	out := SparklineChart([]float64{0, 1, 2, 3}, 4, ThemeCyberpunk)
	assert.Contains(t, out, "▁")
	assert.Contains(t, out, "█")
}

func TestThemes(t *testing.T) {
	assert.Equal(t, "ocean", GetTheme("ocean").Name)
	assert.Equal(t, "cyberpunk", GetTheme("nope").Name)
	assert.Len(t, ThemeNames(), len(Themes))
}
