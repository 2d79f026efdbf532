// Package routine implements the agent's cyclic daily schedule: sleep,
// morning, commute, work, commute, home.
//
// A routine state is a Kind tag plus a timing payload. Transition legality is
// a table ([LegalPredecessors]) rather than behavior spread over types, and
// moving to the next state is the pure function [Transition].
package routine

import (
	"fmt"
	"slices"
)

// Kind tags a routine state.
type Kind uint8

const (
	Sleep Kind = iota
	Morning
	Commute
	Work
	Home
)

// Kinds lists every routine state.
var Kinds = []Kind{Sleep, Morning, Commute, Work, Home}

// Entry is the only state that may start without a predecessor.
const Entry = Sleep

var kindNames = [...]string{
	Sleep:   "sleep",
	Morning: "morning",
	Commute: "commute",
	Work:    "work",
	Home:    "home",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps a state name back to its Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown routine state %q", name)
}

// legalPredecessors is the state graph: which states may immediately precede
// each state.
var legalPredecessors = map[Kind][]Kind{
	Sleep:   {Home},
	Morning: {Sleep},
	Commute: {Morning, Work},
	Work:    {Commute},
	Home:    {Commute},
}

// LegalPredecessors returns the states allowed to immediately precede k.
func LegalPredecessors(k Kind) []Kind {
	return slices.Clone(legalPredecessors[k])
}

// CanFollow reports whether k may be entered from prev.
func CanFollow(k, prev Kind) bool {
	return slices.Contains(legalPredecessors[k], prev)
}

// IllegalTransitionError reports an edge missing from the state graph: either
// a state entered from a predecessor it does not accept, or a state whose
// successor cannot be determined.
type IllegalTransitionError struct {
	From    Kind
	To      Kind
	HasFrom bool
	NoNext  bool // successor of From could not be determined
	Before  Kind // what preceded From, when NoNext
}

func (e *IllegalTransitionError) Error() string {
	switch {
	case e.NoNext:
		return fmt.Sprintf("illegal transition: cannot determine state after %s preceded by %s", e.From, e.Before)
	case !e.HasFrom:
		return fmt.Sprintf("illegal transition: %s cannot start without a predecessor", e.To)
	}
	return fmt.Sprintf("illegal transition: %s cannot follow %s (allowed: %v)", e.To, e.From, legalPredecessors[e.To])
}
