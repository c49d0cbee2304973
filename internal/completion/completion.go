package completion

import (
	"context"
	"errors"
	"fmt"
)

// ErrCompletion matches every *CompletionError through errors.Is
var ErrCompletion = errors.New("completion failed")

// Request holds a single prompt and its generation parameters
type Request struct {
	Prompt      string
	Temperature float64
	Dataset     string // Dataset scope on the remote service ("all" searches every dataset)
	Model       string
}

// Backend sends one request to a text-generation service with no retrying
type Backend interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Result is the text generated for a request and the attempts it took
type Result struct {
	Text     string
	Attempts int
}

// CompletionError reports that a prompt could not be completed within the
// retry limit. It always halts the run
type CompletionError struct {
	Attempts int
	Err      error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrCompletion) match any CompletionError
func (e *CompletionError) Is(target error) bool {
	return target == ErrCompletion
}
