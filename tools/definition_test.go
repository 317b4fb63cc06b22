package tools_test

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/petasbytes/go-assistant/tools"
)

type sampleInput struct {
	Query string `json:"query" jsonschema_description:"What to look for."`
	Limit int    `json:"limit,omitempty"`
}

func TestGenerateSchema_PropertiesAndRequired(t *testing.T) {
	s := tools.GenerateSchema[sampleInput]()
	b, err := json.Marshal(s.Object())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	doc := gjson.ParseBytes(b)

	if got := doc.Get("type").String(); got != "object" {
		t.Fatalf("type: got %q", got)
	}
	if got := doc.Get("properties.query.type").String(); got != "string" {
		t.Fatalf("query type: got %q; schema=%s", got, b)
	}
	if got := doc.Get("properties.query.description").String(); got != "What to look for." {
		t.Fatalf("query description: got %q", got)
	}
	if got := doc.Get("properties.limit.type").String(); got != "integer" {
		t.Fatalf("limit type: got %q", got)
	}
	if !slices.Equal(s.Required, []string{"query"}) {
		t.Fatalf("required: got %v", s.Required)
	}
}

func TestGenerateSchema_ReadFileRequiresPath(t *testing.T) {
	if !slices.Contains(tools.ReadFileDefinition.InputSchema.Required, "path") {
		t.Fatalf("read_file must require path: %v", tools.ReadFileDefinition.InputSchema.Required)
	}
	if len(tools.ListFilesDefinition.InputSchema.Required) != 0 {
		t.Fatalf("list_files has no required args: %v", tools.ListFilesDefinition.InputSchema.Required)
	}
}
