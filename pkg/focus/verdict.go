package focus

import "time"

// Label is the classifier's categorical judgment of the screen content.
type Label int

const (
	// LabelNone means no classification has completed yet.
	LabelNone Label = iota
	LabelProductive
	LabelNonProductive
	LabelUnknown
	LabelError
)

// String returns the wire name of the label.
func (l Label) String() string {
	switch l {
	case LabelProductive:
		return "PRODUCTIVE"
	case LabelNonProductive:
		return "NON_PRODUCTIVE"
	case LabelUnknown:
		return "UNKNOWN"
	case LabelError:
		return "ERROR"
	default:
		return "NONE"
	}
}

// MarshalText encodes the label by name.
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Verdict is one completed classification.
type Verdict struct {
	Label Label `json:"label"`

	// Message is the failure reason for LabelError and the classifier's
	// explanation otherwise.
	Message string `json:"message,omitempty"`

	// Raw is the unparsed classifier reply.
	Raw string `json:"raw,omitempty"`

	// At is when the classification completed.
	At time.Time `json:"at"`
}

// IsNonProductive reports whether the verdict drives the productivity penalty.
// ERROR and UNKNOWN are neutral.
func (v Verdict) IsNonProductive() bool {
	return v.Label == LabelNonProductive
}

// IsProductive reports whether the verdict counts as productive time.
func (v Verdict) IsProductive() bool {
	return v.Label == LabelProductive
}

// NoticeText returns the user-facing message for the verdict.
func (v Verdict) NoticeText() string {
	switch v.Label {
	case LabelNonProductive:
		return "Non-productive activity detected: " + v.Message
	case LabelError:
		return "Analysis error: " + v.Message
	case LabelUnknown:
		return "Unable to determine productivity level"
	case LabelProductive:
		return "Productive activity confirmed"
	default:
		return ""
	}
}
