// Package runner executes one model step of a locally emulated run against
// the Anthropic Messages API.
//
// Invariant:
//   - tool_use and the corresponding tool_result stay adjacent within a run;
//     only text replies are written back to the thread.
//
// Flow:
//
//	thread turns -> window -> assistant(tool_use) -> user(tool_result) -> assistant(text)
package runner
