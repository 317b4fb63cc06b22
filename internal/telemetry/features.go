package telemetry

import (
	"context"

	"github.com/petasbytes/go-assistant/internal/metrics"
)

// EmitMessageFeatures records size features of a message without its text.
func EmitMessageFeatures(ctx context.Context, threadID, role, text string) {
	if !(ObserveEnabled() && FeaturesEnabled()) {
		return
	}
	runID, _ := RunIDFromContext(ctx)
	f := metrics.CountFeatures(text)
	Emit(EventMessageFeatures, map[string]any{
		"thread_id":        threadID,
		"run_id":           runID,
		"role":             role,
		"features_version": "1",
		"features": map[string]any{
			"bytes": f.Bytes,
			"runes": f.Runes,
			"words": f.Words,
			"lines": f.Lines,
		},
	})
}
