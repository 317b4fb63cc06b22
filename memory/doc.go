// Package memory persists the chat session between CLI invocations.
//
// Persistence model:
//   - The session records which provider, assistant and thread were in use.
//   - Only text messages are stored (role + text). Tool exchanges stay inside runs.
//   - When the recorded thread is gone, the transcript is replayed into a new one.
package memory
