package common

import (
	"fmt"
	"strings"
)

// Mode is the operating mode a graph operation runs in. It is passed
// explicitly into every mutating call.
type Mode int

const (
	// ModeConversational only answers questions. Every mutation is rejected.
	ModeConversational Mode = iota + 1
	// ModeActionable mutates the graph and regenerates contact summaries.
	ModeActionable
	// ModeManualEditSync mutates the graph after a human edited a summary.
	// Summaries are never regenerated so the edit survives.
	ModeManualEditSync
)

var modeNames = map[Mode]string{
	ModeConversational: "conversational",
	ModeActionable:     "actionable",
	ModeManualEditSync: "manual_edit_sync",
}

var modeAliases = map[string]Mode{
	"conversational":         ModeConversational,
	"actionable":             ModeActionable,
	"manual_edit_sync":       ModeManualEditSync,
	"manual-edit-sync":       ModeManualEditSync,
	"contact_details_update": ModeManualEditSync,
}

// ParseMode accepts the canonical names and the legacy upper-case names
// ("CONVERSATIONAL", "ACTIONABLE", "CONTACT_DETAILS_UPDATE").
func ParseMode(s string) (Mode, error) {
	m, ok := modeAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, Validation("mode", fmt.Sprintf("unknown mode %q", s))
	}
	return m, nil
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Valid reports whether m is one of the declared modes.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// CanMutate reports whether graph mutations are allowed in this mode.
func (m Mode) CanMutate() bool {
	return m == ModeActionable || m == ModeManualEditSync
}

// RegeneratesSummary reports whether mutations in this mode refresh the
// contact summary.
func (m Mode) RegeneratesSummary() bool {
	return m == ModeActionable
}

// SkipSummary combines the mode with an explicit per call suppression flag.
func (m Mode) SkipSummary(skip bool) bool {
	return skip || !m.RegeneratesSummary()
}

// CheckMutable returns a read-only error for modes that cannot mutate.
func (m Mode) CheckMutable(op string) error {
	if !m.Valid() {
		return Validation(op, "mode is required")
	}
	if !m.CanMutate() {
		return ReadOnly(op, m)
	}
	return nil
}

func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid mode %d", int(m))
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
