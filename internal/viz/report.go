package viz

import (
	"fmt"
	"strings"

	"github.com/san-kum/molpot/internal/energy"
	"github.com/san-kum/molpot/internal/validate"
)

// RenderReport summarizes a validation report: one line per atom with its
// largest difference component, then a PASS or FAIL verdict against tol.
func RenderReport(r *validate.Report, tol float64, t Theme) string {
	st := t.styles()

	var s strings.Builder
	s.WriteString(st.title.Render("GRADIENT CHECK") + "\n")
	s.WriteString(st.muted.Render(fmt.Sprintf("step %g  tolerance %g  energy %.6f", r.Step, tol, r.Energy)) + "\n\n")

	for _, row := range r.Rows {
		d := max(abs(row.Difference.X), abs(row.Difference.Y), abs(row.Difference.Z))
		mark := st.pass.Render("ok")
		if !(d <= tol) {
			mark = st.fail.Render("!!")
		}
		s.WriteString(fmt.Sprintf("%s %s %s\n",
			st.label.Render(fmt.Sprintf("atom %d", row.Index)),
			st.value.Render(fmt.Sprintf("%.3e", d)),
			mark))
	}

	s.WriteString("\n")
	if err := r.Check(tol); err != nil {
		s.WriteString(st.fail.Render("FAIL") + " " + st.muted.Render(err.Error()))
	} else {
		s.WriteString(st.pass.Render("PASS") + " " + st.muted.Render(fmt.Sprintf("max difference %.3e", r.MaxDifference())))
	}
	return st.panel.Render(s.String())
}

// RenderBreakdown shows the kernel energies and the diagnostic tally.
func RenderBreakdown(title string, b energy.Breakdown, t Theme) string {
	st := t.styles()
	line := func(label string, v float64) string {
		return st.label.Render(label) + st.value.Render(fmt.Sprintf("%.6f", v)) + "\n"
	}

	var s strings.Builder
	s.WriteString(st.title.Render(strings.ToUpper(title)) + "\n\n")
	s.WriteString(line("statistical", b.Statistical))
	s.WriteString(line("coulomb", b.Coulomb))
	s.WriteString(line("total", b.Total()))
	s.WriteString("\n" + st.muted.Render("diagnostics") + "\n")
	s.WriteString(line("vrE", b.Diagnostics.StericRepulsion))
	s.WriteString(line("vaE", b.Diagnostics.StericAttraction))
	s.WriteString(strings.TrimSuffix(line("eE", b.Diagnostics.Electrostatic), "\n"))
	return st.panel.Render(s.String())
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
