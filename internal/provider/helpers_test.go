package provider_test

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/petasbytes/go-assistant/processor"
	"github.com/petasbytes/go-assistant/tools"
)

const equation = "Solve the equation: 3x + 7 = 22. Show all solution steps."

type solveInput struct {
	A int `json:"a"`
	B int `json:"b"`
	C int `json:"c"`
}

// solveLinear solves a*x + b = c.
var solveLinear = tools.ToolDefinition{
	Name:        "solve_linear",
	Description: "Solve a*x + b = c for x.",
	InputSchema: tools.GenerateSchema[solveInput](),
	Function: func(input json.RawMessage) (string, error) {
		var in solveInput
		if err := json.Unmarshal(input, &in); err != nil {
			return "", err
		}
		if in.A == 0 {
			return "", errors.New("a must be non-zero")
		}
		b, _ := json.Marshal(map[string]int{"x": (in.C - in.B) / in.A})
		return string(b), nil
	},
}

// fastConfig keeps polling and retries short enough for tests.
func fastConfig(provider string) processor.Config {
	return processor.Config{
		Provider:        provider,
		APIKey:          "test-key",
		Functions:       []tools.ToolDefinition{solveLinear},
		PollInterval:    5 * time.Millisecond,
		RunTimeout:      2 * time.Second,
		ResponseRetries: 2,
		RetryDelay:      5 * time.Millisecond,
	}
}
