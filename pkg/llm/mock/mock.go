// Package mock provides a scripted llm.Provider for tests and offline examples.
//
// Responses are chosen by substring rules over the prompt, so one provider can
// answer importance ratings, reflection topics and insights in the same run.
package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/oceanbase/agentmem-go/pkg/llm"
)

// Call records one request seen by the provider.
type Call struct {
	Prompt  string
	Options llm.GenerateOptions
}

type rule struct {
	contains  string
	responses []string
	next      int
	fn        func(prompt string) (string, error)
}

// Provider is a deterministic llm.Provider. It is safe for concurrent use.
type Provider struct {
	mu       sync.Mutex
	rules    []*rule
	fallback string
	err      error
	calls    []Call
}

// New creates an empty Provider. Unmatched prompts get an empty string.
func New() *Provider {
	return &Provider{}
}

// On answers prompts containing substr. Responses are served in order and the
// last one repeats once the list is exhausted. Rules match in registration order.
func (p *Provider) On(substr string, responses ...string) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rules = append(p.rules, &rule{contains: substr, responses: responses})
	return p
}

// OnFunc answers prompts containing substr with fn.
func (p *Provider) OnFunc(substr string, fn func(prompt string) (string, error)) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rules = append(p.rules, &rule{contains: substr, fn: fn})
	return p
}

// Default sets the response for prompts no rule matches.
func (p *Provider) Default(response string) *Provider {
	p.mu.Lock()
	p.fallback = response
	p.mu.Unlock()
	return p
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (p *Provider) FailWith(err error) *Provider {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
	return p
}

// Generate implements llm.Provider.
func (p *Provider) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) (string, error) {
	return p.GenerateWithMessages(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

// GenerateWithMessages implements llm.Provider. Message contents are joined
// with newlines before rule matching.
func (p *Provider) GenerateWithMessages(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	parts := make([]string, len(messages))
	for i, m := range messages {
		parts[i] = m.Content
	}
	prompt := strings.Join(parts, "\n")

	p.mu.Lock()
	p.calls = append(p.calls, Call{Prompt: prompt, Options: *llm.ApplyGenerateOptions(opts)})
	if p.err != nil {
		err := p.err
		p.mu.Unlock()
		return "", err
	}

	for _, r := range p.rules {
		if !strings.Contains(prompt, r.contains) {
			continue
		}
		if r.fn != nil {
			fn := r.fn
			p.mu.Unlock()
			return fn(prompt)
		}
		if len(r.responses) == 0 {
			break
		}
		resp := r.responses[r.next]
		if r.next < len(r.responses)-1 {
			r.next++
		}
		p.mu.Unlock()
		return resp, nil
	}
	fallback := p.fallback
	p.mu.Unlock()
	return fallback, nil
}

// Calls returns a copy of every request received so far.
func (p *Provider) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Call, len(p.calls))
	copy(out, p.calls)
	return out
}

// CallCount counts requests whose prompt contains substr.
func (p *Provider) CallCount(substr string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		if strings.Contains(c.Prompt, substr) {
			n++
		}
	}
	return n
}

// Close implements llm.Provider.
func (p *Provider) Close() error {
	return nil
}
