package windowing

import (
	"fmt"
	"os"

	"github.com/petasbytes/go-assistant/processor"
)

// GroupKind denotes the atomic unit type when preparing a send window.
type GroupKind int

const (
	// GroupSingleton is an assistant message with no preceding user message.
	GroupSingleton GroupKind = iota
	// GroupTurn is a user message plus the assistant replies that follow it.
	GroupTurn
)

// Group describes a contiguous span of messages [Start, End).
type Group struct {
	Kind  GroupKind
	Start int // inclusive
	End   int // exclusive
}

// GroupTurns splits a thread (oldest first) into turns so a reply is never
// separated from the user message it answers.
func GroupTurns(msgs []processor.Message) []Group {
	groups := make([]Group, 0, len(msgs))
	for i := 0; i < len(msgs); {
		if msgs[i].Role != processor.RoleUser {
			vlogf("singleton: reason=no_preceding_user idx=%d role=%s", i, msgs[i].Role)
			groups = append(groups, Group{Kind: GroupSingleton, Start: i, End: i + 1})
			i++
			continue
		}
		end := i + 1
		for end < len(msgs) && msgs[end].Role != processor.RoleUser {
			end++
		}
		groups = append(groups, Group{Kind: GroupTurn, Start: i, End: end})
		i = end
	}
	return groups
}

// verbose logging when ASST_VERBOSE_WINDOW_LOGS=1
var verbose = os.Getenv("ASST_VERBOSE_WINDOW_LOGS") == "1"

func vlogf(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[windowing] "+format+"\n", args...)
	}
}
