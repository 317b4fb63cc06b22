package tools

// Registry returns the functions exposed to assistants by default.
func Registry() []ToolDefinition {
	return []ToolDefinition{ReadFileDefinition, ListFilesDefinition}
}

// Lookup returns the definition named name from defs.
func Lookup(defs []ToolDefinition, name string) (ToolDefinition, bool) {
	for _, d := range defs {
		if d.Name == name {
			return d, true
		}
	}
	return ToolDefinition{}, false
}
