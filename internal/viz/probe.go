package viz

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/molpot/internal/atom"
	"github.com/san-kum/molpot/internal/energy"
	"github.com/san-kum/molpot/internal/scan"
)

var ErrNoPartner = errors.New("viz: probe needs a partner group")

const historyLen = 120

// Probe places group B at a separation from A and re-evaluates every kernel
// whenever the separation or axis changes.
type Probe struct {
	sys  energy.System
	a, b *atom.Group

	axis     scan.Axis
	distance float64
	step     float64

	last    energy.Breakdown
	err     error
	history []float64

	theme int
	width int
}

// NewProbe starts at distance along axis. sys.Partner is replaced by the
// moved copy of b on every evaluation.
func NewProbe(sys energy.System, a, b *atom.Group, axis scan.Axis, distance, step float64) (Probe, error) {
	if b == nil {
		return Probe{}, ErrNoPartner
	}
	if !(step > 0) {
		step = 0.25
	}
	p := Probe{sys: sys, a: a, b: b, axis: axis, distance: distance, step: step, width: 80}
	p.evaluate()
	return p, nil
}

func (p *Probe) evaluate() {
	s := p.sys
	s.Partner = scan.Place(p.a, p.b, p.axis, p.distance)
	p.last, p.err = s.Evaluate(p.a)
	if p.err != nil {
		return
	}
	p.history = append(p.history, p.last.Total())
	if len(p.history) > historyLen {
		p.history = p.history[len(p.history)-historyLen:]
	}
}

func (p Probe) Distance() float64 { return p.distance }
func (p Probe) Axis() scan.Axis { return p.axis }
func (p Probe) Step() float64 { return p.step }
func (p Probe) Breakdown() energy.Breakdown { return p.last }
func (p Probe) Err() error { return p.err }

func (p Probe) Init() tea.Cmd { return nil }

func (p Probe) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return p, tea.Quit
		case "left", "h":
			p.distance -= p.step
		case "right", "l":
			p.distance += p.step
		case "+", "=":
			p.step *= 2
			return p, nil
		case "-", "_":
			p.step /= 2
			return p, nil
		case "x", "y", "z":
			p.axis, _ = scan.ParseAxis(msg.String())
			p.history = nil
		case "t":
			p.theme = (p.theme + 1) % len(Themes)
			return p, nil
		default:
			return p, nil
		}
		p.evaluate()
	case tea.WindowSizeMsg:
		p.width = msg.Width
	}
	return p, nil
}

func (p Probe) View() string {
	t := Themes[p.theme]
	st := t.styles()

	var s strings.Builder
	s.WriteString(st.title.Render("PAIR PROBE") + "  " +
		st.muted.Render(fmt.Sprintf("axis %s  distance %.3f  step %g", p.axis, p.distance, p.step)) + "\n\n")

	if p.err != nil {
		s.WriteString(st.fail.Render("error") + " " + p.err.Error() + "\n")
	} else {
		s.WriteString(RenderBreakdown("energies", p.last, t) + "\n")
	}

	if len(p.history) > 1 {
		w := min(max(p.width-20, 20), 60)
		chart := asciigraph.Plot(p.history, asciigraph.Height(6), asciigraph.Width(w), asciigraph.Caption("total"))
		s.WriteString("\n" + chart + "\n")
		s.WriteString(SparklineChart(p.history, w, t) + "\n")
	}

	s.WriteString("\n" + Separator(40, t) + "\n")
	s.WriteString(st.muted.Render("←/→ move  +/- step  x/y/z axis  t theme  q quit"))
	return s.String()
}
