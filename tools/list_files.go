package tools

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/petasbytes/go-assistant/internal/fsops"
)

type ListFilesInput struct {
	Path     string `json:"path,omitempty" jsonschema_description:"Directory relative to the sandbox root (defaults to the root)."`
	Page     int    `json:"page,omitempty" jsonschema_description:"1-based page number (default 1)."`
	PageSize int    `json:"page_size,omitempty" jsonschema_description:"Entries per page (default 200)."`
	Suffix   string `json:"suffix,omitempty" jsonschema_description:"Only return entries ending with this suffix, e.g. .go or /."`
}

const defaultListFilesPageSize = 200

var ListFilesDefinition = ToolDefinition{
	Name:        "list_files",
	Description: "List the entries of a sandbox directory (non-recursive). Directories end with '/'. Output is a sorted JSON array of names.",
	InputSchema: GenerateSchema[ListFilesInput](),
	Function:    ListFiles,
}

// ListFiles returns one sorted page of directory entries as a JSON array.
// A page past the end yields "[]".
func ListFiles(input json.RawMessage) (string, error) {
	var in ListFilesInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("list_files: invalid arguments: %w", err)
	}

	names, err := fsops.ListDir(in.Path)
	if err != nil {
		return "", err
	}
	if in.Suffix != "" {
		kept := names[:0]
		for _, n := range names {
			if strings.HasSuffix(n, in.Suffix) {
				kept = append(kept, n)
			}
		}
		names = kept
	}
	sort.Strings(names)

	pageSize := in.PageSize
	if pageSize <= 0 {
		pageSize = defaultListFilesPageSize
	}
	page := max(in.Page, 1)
	start, end := window(len(names), (page-1)*pageSize, pageSize, pageSize)

	b, err := json.Marshal(append([]string{}, names[start:end]...))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
