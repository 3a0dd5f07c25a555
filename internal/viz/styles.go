package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// SparklineChart renders a mini sparkline from values, sampled to width.
func SparklineChart(values []float64, width int, t Theme) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	high := lipgloss.NewStyle().Foreground(t.Success)
	mid := lipgloss.NewStyle().Foreground(t.Warning)
	low := lipgloss.NewStyle().Foreground(t.Error)

	var result strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := int(norm * float64(len(chars)-1))
		idx = min(max(idx, 0), len(chars)-1)

		c := string(chars[idx])
		switch {
		case norm > 0.7:
			result.WriteString(high.Render(c))
		case norm > 0.3:
			result.WriteString(mid.Render(c))
		default:
			result.WriteString(low.Render(c))
		}
	}
	return result.String()
}

// Separator is a muted rule of the given width.
func Separator(width int, t Theme) string {
	if width < 7 {
		return strings.Repeat("─", max(width, 0))
	}
	mid := width / 2
	left := strings.Repeat("─", mid-3)
	right := strings.Repeat("─", width-mid-3)
	return lipgloss.NewStyle().Foreground(t.Muted).Render(left + " ◆ " + right)
}
