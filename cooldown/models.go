// Package cooldown converts stored claim timestamps plus resolved cooldown
// durations into remaining-time views, and clears stored cooldowns.
//
// A window has two states: Ready (never claimed, or expired) and Active
// (remaining > 0). The transition to Active happens outside this package
// when a claim writes the timestamp; the transition back to Ready is a
// pure function of time, or an explicit clear.
package cooldown

import (
	"fmt"
	"strings"
	"time"
)

// Type names one cooldown-gated reward.
type Type string

const (
	Daily  Type = "daily"
	Work   Type = "work"
	Weekly Type = "weekly"
)

// Types returns the reward types in declaration order.
func Types() []Type { return []Type{Daily, Work, Weekly} }

// Valid reports whether t is a known reward type.
func Valid(t Type) bool {
	switch t {
	case Daily, Work, Weekly:
		return true
	default:
		return false
	}
}

// Durations holds the three cooldown durations resolved from guild
// settings. A Tracker captures them once at construction; later settings
// changes require a fresh Tracker to become visible.
type Durations struct {
	Daily  time.Duration
	Work   time.Duration
	Weekly time.Duration
}

// For returns the duration for the given reward type.
func (d Durations) For(t Type) time.Duration {
	switch t {
	case Daily:
		return d.Daily
	case Work:
		return d.Work
	case Weekly:
		return d.Weekly
	default:
		return 0
	}
}

// Breakdown is a remaining duration decomposed field by field. Each field
// is computed by integer division and modulo on total milliseconds; days
// absorb everything above hours and are not normalized further. Negative
// input (an already expired window) is decomposed with the same
// arithmetic, so fields come out negative rather than clamped to zero —
// callers decide readiness with Ready on the View, not by inspecting the
// decomposition.
type Breakdown struct {
	Days         int64 `json:"days"`
	Hours        int64 `json:"hours"`
	Minutes      int64 `json:"minutes"`
	Seconds      int64 `json:"seconds"`
	Milliseconds int64 `json:"milliseconds"`
}

// Decompose splits a duration into a Breakdown.
func Decompose(d time.Duration) Breakdown {
	ms := d.Milliseconds()
	return Breakdown{
		Days:         ms / (24 * 60 * 60 * 1000),
		Hours:        ms % (24 * 60 * 60 * 1000) / (60 * 60 * 1000),
		Minutes:      ms % (60 * 60 * 1000) / (60 * 1000),
		Seconds:      ms % (60 * 1000) / 1000,
		Milliseconds: ms % 1000,
	}
}

// String renders the fields from the first non-zero unit down to
// seconds, e.g. "1d 0h 20m 5s". A zero breakdown renders as "0s".
func (b Breakdown) String() string {
	parts := make([]string, 0, 5)
	if b.Days != 0 {
		parts = append(parts, fmt.Sprintf("%dd", b.Days))
	}
	if b.Hours != 0 || len(parts) > 0 {
		parts = append(parts, fmt.Sprintf("%dh", b.Hours))
	}
	if b.Minutes != 0 || len(parts) > 0 {
		parts = append(parts, fmt.Sprintf("%dm", b.Minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", b.Seconds))
	return strings.Join(parts, " ")
}

// View is one reward type's cooldown state at a point in time.
type View struct {
	Type      Type          `json:"type"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
	Remaining time.Duration `json:"remaining"`
	Breakdown Breakdown     `json:"breakdown"`
}

// Ready reports whether the reward is claimable. The boundary is
// inclusive: remaining of exactly zero is ready.
func (v *View) Ready() bool {
	return v.Remaining <= 0
}

// String renders a human-readable remaining time, or "ready".
func (v *View) String() string {
	if v.Ready() {
		return "ready"
	}
	return v.Breakdown.String()
}

// NewView derives a View from a claim timestamp, a duration, and the
// current time: remaining = duration - (now - startedAt).
func NewView(t Type, startedAt time.Time, duration time.Duration, now time.Time) *View {
	remaining := duration - now.Sub(startedAt)
	return &View{
		Type:      t,
		StartedAt: startedAt,
		Duration:  duration,
		Remaining: remaining,
		Breakdown: Decompose(remaining),
	}
}
