package session

import (
	"fmt"
	"strings"
)

// FocusBand names the average focus score: excellent, good or needs improvement.
func FocusBand(avg float64) string {
	switch {
	case avg >= 80:
		return "excellent"
	case avg >= 60:
		return "good"
	default:
		return "needs improvement"
	}
}

// ProductivityBand names the productivity percentage: high, moderate or low.
func ProductivityBand(pct float64) string {
	switch {
	case pct >= 80:
		return "high"
	case pct >= 60:
		return "moderate"
	default:
		return "low"
	}
}

const rule = "══════════════════════════════════════════════════════════════════════════════"

// Report renders the human-readable session report.
func Report(r Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n╔%s╗\n", rule)
	fmt.Fprintf(&b, "║%s║\n", center("FOCUSON SESSION REPORT", 78))
	fmt.Fprintf(&b, "╚%s╝\n\n", rule)

	b.WriteString("📊 SESSION SUMMARY:\n")
	fmt.Fprintf(&b, "   • Started: %s\n", r.Start().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "   • Duration: %.1f minutes\n", r.Duration/60)
	fmt.Fprintf(&b, "   • Total Blinks: %d\n", r.BlinkCount)
	fmt.Fprintf(&b, "   • Focus Score: %.1f/100\n", r.AvgFocusScore)
	fmt.Fprintf(&b, "   • Productivity: %.1f%%\n", r.ProductivityPercentage)
	fmt.Fprintf(&b, "   • Distractions: %d\n", r.DistractionCount)

	b.WriteString("\n🎯 PERFORMANCE:\n")
	switch FocusBand(r.AvgFocusScore) {
	case "excellent":
		b.WriteString("   • 🎉 Excellent focus maintained!\n")
	case "good":
		b.WriteString("   • 👍 Good focus with room for improvement\n")
	default:
		b.WriteString("   • 📉 Focus needs improvement\n")
	}
	switch ProductivityBand(r.ProductivityPercentage) {
	case "high":
		b.WriteString("   • 🎯 High productivity achieved\n")
	case "moderate":
		b.WriteString("   • 📊 Moderate productivity\n")
	default:
		b.WriteString("   • ⚠️  Low productivity - consider environment changes\n")
	}

	fmt.Fprintf(&b, "\n╔%s╗\n", rule)
	fmt.Fprintf(&b, "║%s║\n", center("END OF REPORT", 78))
	fmt.Fprintf(&b, "╚%s╝\n", rule)

	return b.String()
}

func center(s string, width int) string {
	pad := width - len(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}
