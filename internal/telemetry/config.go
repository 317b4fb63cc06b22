package telemetry

import (
	"os"
	"sync/atomic"
)

var (
	observeEnabled  atomic.Bool
	featuresEnabled bool
)

func init() {
	// Read once at process start; SetObserve may turn emission on later.
	observeEnabled.Store(os.Getenv("ASST_OBSERVE_JSON") == "1")

	// Message features default to the observe setting unless set explicitly.
	if v, ok := os.LookupEnv("ASST_MESSAGE_FEATURES"); ok {
		featuresEnabled = v == "1"
	} else {
		featuresEnabled = observeEnabled.Load()
	}
}

// SetObserve turns JSONL emission on or off for the rest of the process.
func SetObserve(on bool) { observeEnabled.Store(on) }

// ObserveEnabled reports whether events are written.
func ObserveEnabled() bool {
	// Tests enable emission mid-run through the environment.
	if os.Getenv("ASST_OBSERVE_JSON") == "1" {
		return true
	}
	return observeEnabled.Load()
}

// FeaturesEnabled reports whether message feature events were enabled at startup.
func FeaturesEnabled() bool {
	if os.Getenv("ASST_MESSAGE_FEATURES") == "1" {
		return true
	}
	return featuresEnabled
}
