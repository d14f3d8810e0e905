package classifier

import (
	"strings"
	"time"

	"github.com/teslashibe/focuson/pkg/focus"
)

// Negated forms must be matched before the bare PRODUCTIVE they contain.
var nonProductiveMarkers = []string{
	"NON-PRODUCTIVE", "NON_PRODUCTIVE", "NON PRODUCTIVE", "NONPRODUCTIVE",
	"NOT PRODUCTIVE", "NOT-PRODUCTIVE", "NOT_PRODUCTIVE", "UNPRODUCTIVE",
}

// ParseVerdict maps a model reply to a verdict. Matching is case-insensitive
// and checked in order: non-productive, error, unknown, productive. Anything
// else is UNKNOWN.
func ParseVerdict(text string, at time.Time) focus.Verdict {
	text = strings.TrimSpace(text)
	upper := strings.ToUpper(text)
	v := focus.Verdict{Message: text, Raw: text, At: at}

	switch {
	case containsAny(upper, nonProductiveMarkers):
		v.Label = focus.LabelNonProductive
	case strings.Contains(upper, "ERROR"):
		v.Label = focus.LabelError
	case strings.Contains(upper, "UNKNOWN"):
		v.Label = focus.LabelUnknown
	case strings.Contains(upper, "PRODUCTIVE"):
		v.Label = focus.LabelProductive
	default:
		v.Label = focus.LabelUnknown
	}
	return v
}

// ErrorVerdict wraps a failure as an ERROR verdict.
func ErrorVerdict(err error, at time.Time) focus.Verdict {
	return focus.Verdict{Label: focus.LabelError, Message: err.Error(), At: at}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
