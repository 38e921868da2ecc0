package arc

import (
	"strings"

	"github.com/pkg/errors"
)

// Mode selects how polygon edges are encoded as instructions.
type Mode string

const (
	// ModeVertical places both edge endpoints on the XY plane at time_s.
	ModeVertical Mode = "vertical"
	// ModeTimeline keeps x spatial and maps the normalized y onto the time
	// interval, pinning y to the origin row.
	ModeTimeline Mode = "timeline"
)

// ErrUnsupportedMode is returned for mode names that are not recognized.
var ErrUnsupportedMode = errors.New("unsupported mode")

// ParseMode converts a mode name to a Mode, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeVertical, ModeTimeline:
		return m, nil
	default:
		return "", errors.Wrapf(ErrUnsupportedMode, "%q", s)
	}
}

func (m Mode) String() string {
	return string(m)
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeVertical || m == ModeTimeline
}
