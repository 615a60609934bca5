package service

import "fmt"

// State is the lifecycle phase of a watch instance.
type State int32

const (
	// StateStarting covers the initial full generation and registration.
	StateStarting State = iota
	// StateWatching means the instance is idle, waiting for input changes.
	StateWatching
	// StateRegenerating means a pipeline re-run is in progress.
	StateRegenerating
	// StateStopping means a stop was requested and cleanup is running.
	StateStopping
	// StateStopped is terminal.
	StateStopped
)

// String returns the lowercase phase name.
func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateWatching:
		return "watching"
	case StateRegenerating:
		return "regenerating"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}
