package guard

import "fmt"

// PanicError wraps a value recovered from guarded work so a misbehaving stage
// degrades like any other failure instead of crashing the run.
type PanicError struct {
	Value any
}

func (panicError *PanicError) Error() string {
	return fmt.Sprintf("guard: work panicked: %v", panicError.Value)
}
