package focus

import "time"

// NoticeKind identifies a user-facing message slot.
type NoticeKind int

const (
	NoticeBlink NoticeKind = iota
	NoticeGaze
	NoticeProductivity
	noticeKinds
)

// String returns the slot name.
func (k NoticeKind) String() string {
	switch k {
	case NoticeBlink:
		return "blink"
	case NoticeGaze:
		return "gaze"
	case NoticeProductivity:
		return "productivity"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k NoticeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Notice is a message shown until its expiry.
type Notice struct {
	Kind  NoticeKind `json:"kind"`
	Text  string     `json:"text"`
	Until time.Time  `json:"until"`
}

// NoticeBoard holds one notice per kind. Expiry only hides a notice;
// it never affects scoring.
type NoticeBoard struct {
	lifetimes [noticeKinds]time.Duration
	notices   [noticeKinds]Notice
}

// NewNoticeBoard creates a board with the lifetimes from cfg.
func NewNoticeBoard(cfg Config) *NoticeBoard {
	b := &NoticeBoard{}
	b.lifetimes[NoticeBlink] = cfg.BlinkNoticeLifetime
	b.lifetimes[NoticeGaze] = cfg.GazeNoticeLifetime
	b.lifetimes[NoticeProductivity] = cfg.VerdictNoticeLifetime
	return b
}

// Set shows text in the kind's slot from now for the kind's lifetime.
func (b *NoticeBoard) Set(kind NoticeKind, text string, now time.Time) {
	if text == "" {
		return
	}
	b.notices[kind] = Notice{Kind: kind, Text: text, Until: now.Add(b.lifetimes[kind])}
}

// Active returns the notices still visible at now.
func (b *NoticeBoard) Active(now time.Time) []Notice {
	var out []Notice
	for _, n := range b.notices {
		if n.Text != "" && !now.After(n.Until) {
			out = append(out, n)
		}
	}
	return out
}
