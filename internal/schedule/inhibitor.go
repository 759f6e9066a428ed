package schedule

import "strings"

// Inhibitor is one named condition that suppresses automatic updates while
// active. Each external signal source owns exactly one bit and must only
// toggle that bit.
type Inhibitor uint8

const (
	// DisabledByUser mirrors the "automatic updates enabled" setting.
	DisabledByUser Inhibitor = 1 << iota
	// MainWindowActive suppresses updates while the application window is
	// in front of the user.
	MainWindowActive
	// LowPower suppresses updates on battery saver.
	LowPower
	// NoNetwork suppresses updates without connectivity.
	NoNetwork
	// SessionLocked suppresses updates while the session is locked.
	SessionLocked
)

func (i Inhibitor) String() string {
	switch i {
	case DisabledByUser:
		return "disabled-by-user"
	case MainWindowActive:
		return "main-window-active"
	case LowPower:
		return "low-power"
	case NoNetwork:
		return "no-network"
	case SessionLocked:
		return "session-locked"
	default:
		return "unknown"
	}
}

// InhibitorSet is a bitmask of active inhibitors. Set and clear are plain
// bitwise operations: setting an already-set bit twice and clearing it once
// leaves it cleared.
type InhibitorSet uint8

func (s InhibitorSet) With(i Inhibitor) InhibitorSet    { return s | InhibitorSet(i) }
func (s InhibitorSet) Without(i Inhibitor) InhibitorSet { return s &^ InhibitorSet(i) }
func (s InhibitorSet) Has(i Inhibitor) bool             { return s&InhibitorSet(i) != 0 }
func (s InhibitorSet) Empty() bool                      { return s == 0 }

func (s InhibitorSet) String() string {
	if s.Empty() {
		return "none"
	}
	var names []string
	for _, i := range []Inhibitor{DisabledByUser, MainWindowActive, LowPower, NoNetwork, SessionLocked} {
		if s.Has(i) {
			names = append(names, i.String())
		}
	}
	return strings.Join(names, ",")
}
