package telemetry

import "context"

type runIDKey struct{}

// WithRunID returns a child context carrying the id of the run being executed.
// A nil ctx is treated as context.Background().
func WithRunID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFromContext returns the run id in ctx. Missing or empty ids report false.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	s, ok := ctx.Value(runIDKey{}).(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
