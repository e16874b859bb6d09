// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"fmt"

	"github.com/ik5/audpool/transition"
)

// Request asks for a resource, or a group when IsGroup is set, to be played
// with the given edits.
type Request struct {
	Key     string
	IsGroup bool
	Modules []Module

	// Transition, when set, fades the new sequence in over its duration.
	Transition *transition.Spec
}

func (r Request) String() string {
	kind := "resource"
	if r.IsGroup {
		kind = "group"
	}
	return fmt.Sprintf("%s %q (%d modules)", kind, r.Key, len(r.Modules))
}

// State is a sequence's position in its lifecycle.
type State int

const (
	Idle State = iota
	Playing
	Paused
	Completed
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Completed:
		return "completed"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Finished reports whether s is terminal.
func (s State) Finished() bool {
	return s == Completed || s == Stopped
}

// Event names a sequence lifecycle step reported to an Observer.
type Event int

const (
	EventStarted Event = iota
	EventLooped
	EventCompleted
	EventStopped
	EventFailed
)

func (e Event) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventLooped:
		return "looped"
	case EventCompleted:
		return "completed"
	case EventStopped:
		return "stopped"
	case EventFailed:
		return "failed"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Observer receives lifecycle events. It may be called with sequence locks
// held and must not call back into the sequence.
type Observer interface {
	ObservePlayback(ev Event, key string)
}
