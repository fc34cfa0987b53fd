package pipeline

import "fmt"

// State is where one inbound file is in a run.
type State int

const (
	Discovered State = iota
	Fingerprinted
	Duplicate // terminal
	New
	Extracted
	Filtered
	OutputWritten
	Archived // terminal
	Errored  // terminal
)

var stateNames = [...]string{
	Discovered:    "DISCOVERED",
	Fingerprinted: "FINGERPRINTED",
	Duplicate:     "DUPLICATE",
	New:           "NEW",
	Extracted:     "EXTRACTED",
	Filtered:      "FILTERED",
	OutputWritten: "OUTPUT_WRITTEN",
	Archived:      "ARCHIVED",
	Errored:       "ERRORED",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	switch s {
	case Duplicate, Archived, Errored:
		return true
	}
	return false
}

// next lists the forward step(s) from each non-terminal state. Errored is
// reachable from every non-terminal state and is not listed.
var next = map[State][]State{
	Discovered:    {Fingerprinted},
	Fingerprinted: {Duplicate, New},
	New:           {Extracted},
	Extracted:     {Filtered},
	Filtered:      {OutputWritten},
	OutputWritten: {Archived},
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == Errored {
		return true
	}
	for _, s := range next[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition validates from -> to.
func Transition(from, to State) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("disallowed transition: %s -> %s", from, to)
	}
	return nil
}

// Status is the audit outcome of a file.
type Status string

const (
	StatusProcessed Status = "PROCESSED"
	StatusSkipped   Status = "SKIPPED_DUPLICATE"
	StatusError     Status = "ERROR"
)

// StatusOf maps a terminal state onto its audit status. Non-terminal
// states have none.
func StatusOf(s State) Status {
	switch s {
	case Archived:
		return StatusProcessed
	case Duplicate:
		return StatusSkipped
	case Errored:
		return StatusError
	}
	return ""
}
