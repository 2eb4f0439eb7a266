package orchestrator

import "fmt"

// Lifecycle phases a worker can fail in.
const (
	PhaseInitialize = "initialize"
	PhaseStart      = "start"
	PhaseShutdown   = "shutdown"
	PhaseDeliver    = "deliver"
)

// WorkerError is a fault raised by one worker.
type WorkerError struct {
	Agent string
	Phase string
	Err   error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Phase, e.Agent, e.Err)
}

func (e *WorkerError) Unwrap() error {
	return e.Err
}

// call runs fn and turns a panic into an error.
func call(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
