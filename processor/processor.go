// Package processor hides which hosted service executes an assistant
// conversation behind one Provider interface.
//
// A Processor is built from a provider name and a model:
//
//	p, err := processor.New(processor.Config{Provider: "openai", Model: "gpt-3.5-turbo"})
//	msg, err := p.CreateMessage(ctx, threadID, assistantID, "hello")
//	reply, err := p.GetAssistantResponse(ctx, threadID, 0)
//
// Providers register themselves with Register from an init function, so
// callers import them for side effects.
package processor

import "context"

// Processor delegates every operation to the configured provider.
type Processor struct {
	Provider
	cfg Config
}

// New looks up cfg.Provider in the registry and constructs it.
func New(cfg Config) (*Processor, error) {
	f, err := lookup(cfg.Provider)
	if err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()
	p, err := f(cfg)
	if err != nil {
		return nil, err
	}
	return &Processor{Provider: p, cfg: cfg}, nil
}

// Name returns the provider name the processor was built with.
func (p *Processor) Name() string { return p.cfg.Provider }

// Model returns the configured model identifier.
func (p *Processor) Model() string { return p.cfg.Model }

// CreateAssistant fills in the configured model when params leaves it empty.
func (p *Processor) CreateAssistant(ctx context.Context, params AssistantParams) (*Assistant, error) {
	if params.Model == "" {
		params.Model = p.cfg.Model
	}
	return p.Provider.CreateAssistant(ctx, params)
}

// CreateMessage submits content to the thread, addressed to assistantID or
// to the configured assistant when assistantID is empty.
func (p *Processor) CreateMessage(ctx context.Context, threadID, assistantID, content string) (*Message, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	if assistantID == "" {
		assistantID = p.cfg.AssistantID
	}
	if assistantID == "" {
		return nil, ErrNoAssistant
	}
	return p.Provider.CreateMessage(ctx, threadID, assistantID, content)
}

// GetAssistantResponse uses the configured retry count when maxRetries <= 0.
func (p *Processor) GetAssistantResponse(ctx context.Context, threadID string, maxRetries int) (*Message, error) {
	if maxRetries <= 0 {
		maxRetries = p.cfg.ResponseRetries
	}
	return p.Provider.GetAssistantResponse(ctx, threadID, maxRetries)
}
