package telemetry_test

import (
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"
	"testing"

	"github.com/petasbytes/go-assistant/internal/telemetry"
)

// runWithEnv runs TestProbe in a clean environment so startup-only config
// is deterministic. Only PATH is inherited.
func runWithEnv(t *testing.T, env map[string]string) (string, error) {
	t.Helper()
	cmd := exec.Command(os.Args[0], "-test.run=TestProbe")
	base := []string{"GO_WANT_HELPER_PROCESS=1"}
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "PATH=") {
			base = append(base, kv)
			break
		}
	}
	for k, v := range env {
		base = append(base, k+"="+v)
	}
	cmd.Env = base
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func TestStartupConfig_Matrix(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"baseline_off", map[string]string{}, "observe=false features=false"},
		{"observe_defaults_features", map[string]string{"ASST_OBSERVE_JSON": "1"}, "observe=true features=true"},
		{"observe_features_off", map[string]string{"ASST_OBSERVE_JSON": "1", "ASST_MESSAGE_FEATURES": "0"}, "observe=true features=false"},
		{"features_only", map[string]string{"ASST_MESSAGE_FEATURES": "1"}, "observe=false features=true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := runWithEnv(t, tt.env)
			if err != nil {
				t.Fatalf("subprocess error: %v\n%s", err, got)
			}
			if !slices.Contains(strings.Split(got, "\n"), tt.want) {
				t.Fatalf("want line:\n%s\ngot output:\n%s", tt.want, got)
			}
		})
	}
}

func TestProbe(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	fmt.Printf("observe=%v features=%v\n", telemetry.ObserveEnabled(), telemetry.FeaturesEnabled())
}
