package executil

import (
	"context"
	"sync"
)

// RecordedCommand is one call seen by a RecordingExecutor.
type RecordedCommand struct {
	Cmd  string
	Args []string
}

// RecordingExecutor is a test Executor that remembers every call instead of
// running it. Outputs and Errors are keyed by command name.
type RecordingExecutor struct {
	mu       sync.Mutex
	Commands []RecordedCommand
	Outputs  map[string][]byte
	Errors   map[string]error
}

var _ Executor = (*RecordingExecutor)(nil)

func (e *RecordingExecutor) Run(_ context.Context, cmd string, args ...string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.Commands = append(e.Commands, RecordedCommand{Cmd: cmd, Args: append([]string(nil), args...)})
	return e.Outputs[cmd], e.Errors[cmd]
}

// Last returns the most recent call, or false when nothing ran.
func (e *RecordingExecutor) Last() (RecordedCommand, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.Commands) == 0 {
		return RecordedCommand{}, false
	}
	return e.Commands[len(e.Commands)-1], true
}
