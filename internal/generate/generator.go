package generate

import "context"

// Generator produces document prose from the collected selections.
// Implementations may fail; callers treat any error as terminal for the
// current turn.
type Generator interface {
	Generate(ctx context.Context, degree, task, topic string) (string, error)
}
