package policy

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Modes recognised by Check.
const (
	ModeAsk  = "ask"
	ModeAuto = "auto"
	ModeDeny = "deny"
)

// ErrDenied is returned for actions the policy does not allow.
var ErrDenied = errors.New("action denied by policy")

// AskFunc decides whether action may run with the decoded input.
type AskFunc func(ctx context.Context, action string, input interface{}) (bool, error)

// Policy gates action execution. A nil *Policy allows everything.
type Policy struct {
	Mode  string
	Allow []string
	Block []string
	// Ask is consulted in ModeAsk; without it every action is denied
	Ask AskFunc
}

// Config is the serialisable part of a Policy.
type Config struct {
	Mode  string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	Allow []string `json:"allow,omitempty" yaml:"allow,omitempty"`
	Block []string `json:"block,omitempty" yaml:"block,omitempty"`
}

// Validate checks the mode.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Mode) {
	case "", ModeAsk, ModeAuto, ModeDeny:
		return nil
	}
	return fmt.Errorf("policy.mode: unsupported %q", c.Mode)
}

// IsEmpty returns true when the config does not restrict anything.
func (c *Config) IsEmpty() bool {
	return (c.Mode == "" || strings.EqualFold(c.Mode, ModeAuto)) && len(c.Allow) == 0 && len(c.Block) == 0
}

// New creates a policy from config.
func New(c *Config, ask AskFunc) *Policy {
	return &Policy{
		Mode:  strings.ToLower(c.Mode),
		Allow: append([]string(nil), c.Allow...),
		Block: append([]string(nil), c.Block...),
		Ask:   ask,
	}
}

// IsAllowed evaluates the block and allow lists; names are "service:method"
// and a bare service name matches all its methods.
func (p *Policy) IsAllowed(action string) bool {
	if p == nil {
		return true
	}
	if matchesAny(action, p.Block) {
		return false
	}
	return len(p.Allow) == 0 || matchesAny(action, p.Allow)
}

// Check returns ErrDenied unless action may run.
func (p *Policy) Check(ctx context.Context, action string, input interface{}) error {
	if p == nil {
		return nil
	}
	if !p.IsAllowed(action) {
		return fmt.Errorf("%w: %v", ErrDenied, action)
	}
	switch p.Mode {
	case ModeDeny:
		return fmt.Errorf("%w: %v", ErrDenied, action)
	case ModeAsk:
		if p.Ask == nil {
			return fmt.Errorf("%w: %v", ErrDenied, action)
		}
		approved, err := p.Ask(ctx, action, input)
		if err != nil {
			return fmt.Errorf("failed to ask about %v: %w", action, err)
		}
		if !approved {
			return fmt.Errorf("%w: %v", ErrDenied, action)
		}
	}
	return nil
}

func matchesAny(action string, patterns []string) bool {
	service, _, _ := strings.Cut(action, ":")
	for _, pattern := range patterns {
		if strings.EqualFold(pattern, action) || strings.EqualFold(pattern, service) {
			return true
		}
	}
	return false
}

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds p in ctx.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext returns the embedded policy or nil.
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	ret, _ := ctx.Value(ctxKey).(*Policy)
	return ret
}
