package docex

import "fmt"

// State is a step of one file's pipeline.
type State int

const (
	StateUnvalidated State = iota
	StateValidated
	StateLoaded
	StateExtracting
	StateDone
	StateFailed
)

var stateNames = [...]string{"unvalidated", "validated", "loaded", "extracting", "done", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// FileError is a fatal failure for one file. State is the step the file
// had reached when it failed.
type FileError struct {
	Path  string
	State State
	Err   error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.State, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }
