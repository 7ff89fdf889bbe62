package gaea

import "strings"

// RegisterOption selects how readiness events are delivered for a
// registration: the trigger mode, level (the default) or edge, plus an
// orthogonal oneshot flag.
//
// Level-triggered registrations fire on every poll while the readiness
// condition holds, e.g. while unread data remains in a socket buffer.
// Edge-triggered registrations only fire when the condition transitions
// from not ready to ready, so the corresponding operation must be repeated
// until it would block before another event can be expected.
//
// Oneshot registrations are disarmed by the kernel after delivering a
// single event and produce no further events until explicitly rearmed with
// Reregister; they are never rearmed automatically.
type RegisterOption uint8

const (
	// Level-triggered delivery, the default.
	Level RegisterOption = 0
	// Edge-triggered delivery.
	Edge RegisterOption = 1 << 0
	// Oneshot disarms the registration after one event. It can be
	// combined with Level or Edge.
	Oneshot RegisterOption = 1 << 1
)

// IsEdge returns true if the option selects edge-triggered delivery.
func (o RegisterOption) IsEdge() bool { return o&Edge != 0 }

// IsOneshot returns true if the option includes the oneshot flag.
func (o RegisterOption) IsOneshot() bool { return o&Oneshot != 0 }

func (o RegisterOption) String() string {
	var parts []string
	if o.IsEdge() {
		parts = append(parts, "EDGE")
	} else {
		parts = append(parts, "LEVEL")
	}
	if o.IsOneshot() {
		parts = append(parts, "ONESHOT")
	}
	return strings.Join(parts, "|")
}
