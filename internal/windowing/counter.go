package windowing

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/petasbytes/go-assistant/processor"
)

// TokenCounter estimates the input-token cost of a message.
type TokenCounter interface {
	CountMessage(m processor.Message) int
}

// CountGroup sums the cost of the messages in g.
func CountGroup(c TokenCounter, g Group, all []processor.Message) int {
	total := 0
	for i := g.Start; i < g.End && i < len(all); i++ {
		total += c.CountMessage(all[i])
	}
	return total
}

// blockOverhead is the fixed per-block cost; tests pin its value.
const blockOverhead = 4

// HeuristicCounter charges the rune count of each text block plus a fixed
// overhead per block. Non-text blocks cost the overhead only.
type HeuristicCounter struct{}

func (HeuristicCounter) CountMessage(m processor.Message) int {
	total := 0
	for _, c := range m.Content {
		if c.Type == "text" {
			total += utf8.RuneCountInString(c.Text)
		}
		total += blockOverhead
	}
	return total
}

// tokensPerMessage approximates the role and framing tokens of one message.
const tokensPerMessage = 4

// TiktokenCounter counts BPE tokens of the message text.
type TiktokenCounter struct {
	mu  sync.Mutex
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the named encoding, e.g. "cl100k_base".
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("tiktoken encoding %q: %w", encoding, err)
	}
	return &TiktokenCounter{enc: enc}, nil
}

func (t *TiktokenCounter) CountMessage(m processor.Message) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.enc.Encode(m.Text(), nil, nil)) + tokensPerMessage
}

// NewCounter returns the counter named name: "heuristic" or "tiktoken".
func NewCounter(name string) (TokenCounter, error) {
	switch name {
	case "", "heuristic":
		return HeuristicCounter{}, nil
	case "tiktoken":
		c, err := NewTiktokenCounter("cl100k_base")
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("windowing: unknown counter %q", name)
	}
}
