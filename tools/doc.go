// Package tools defines the functions assistants can call during a run.
//
// Includes:
//   - ToolDefinition: name, description, JSON input schema, handler.
//   - GenerateSchema[T](): derive the input schema from a Go struct.
//   - Sandboxed file functions: read_file and list_files (non-recursive).
//
// Handlers take the raw JSON arguments of a call and return the text output
// handed back to the run.
package tools
