package compare

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	upStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	downStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	flatStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0"))
	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(lipgloss.Color("#4A4A4A"))
)

const width = 80

// Render writes the comparison report to w.
func Render(w io.Writer, s Summary) error {
	var b strings.Builder

	rule := strings.Repeat("=", width)
	b.WriteString("\n" + mutedStyle.Render(rule) + "\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, titleStyle.Render("FOCUSON SESSION COMPARISON")) + "\n")
	b.WriteString(mutedStyle.Render(rule) + "\n")

	for i, r := range s.Sessions {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render(fmt.Sprintf("📊 SESSION %d - %s:", i+1, r.Start().Format("2006-01-02 15:04"))) + "\n")
		fmt.Fprintf(&b, "   • Duration: %.1f minutes\n", r.Duration/60)
		fmt.Fprintf(&b, "   • Focus Score: %.1f/100\n", r.AvgFocusScore)
		fmt.Fprintf(&b, "   • Productivity: %.1f%%\n", r.ProductivityPercentage)
		fmt.Fprintf(&b, "   • Total Blinks: %d\n", r.BlinkCount)
		fmt.Fprintf(&b, "   • Distractions: %d\n", r.DistractionCount)
	}

	b.WriteString("\n" + sectionStyle.Render(headerStyle.Render("📈 IMPROVEMENT ANALYSIS:")) + "\n")
	fmt.Fprintf(&b, "   • Focus Score Change: %s points\n", delta(s.FocusChange, "%+.1f"))
	fmt.Fprintf(&b, "   • Productivity Change: %s%%\n", delta(s.ProductivityChange, "%+.1f"))
	switch s.Trend {
	case Improved:
		b.WriteString("   • " + upStyle.Render("🎉 Focus has improved over time!") + "\n")
	case Declined:
		b.WriteString("   • " + downStyle.Render("📉 Focus has declined - consider reviewing your routine") + "\n")
	default:
		b.WriteString("   • " + flatStyle.Render("➡️  Focus has remained stable") + "\n")
	}

	b.WriteString("\n" + mutedStyle.Render(rule) + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func delta(v float64, format string) string {
	text := fmt.Sprintf(format, v)
	switch {
	case v > 0:
		return upStyle.Render(text)
	case v < 0:
		return downStyle.Render(text)
	default:
		return flatStyle.Render(text)
	}
}
