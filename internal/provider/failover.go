package provider

import (
	"context"
	"fmt"
	"log/slog"

	"gatewarden/internal/domain"
)

// Failover wraps an ordered chain of generators and tries each in turn
// until one succeeds. The chain order comes from configuration.
type Failover struct {
	chain  []domain.Generator
	logger *slog.Logger
}

func NewFailover(chain []domain.Generator, logger *slog.Logger) *Failover {
	return &Failover{chain: chain, logger: logger}
}

func (f *Failover) Name() string { return "failover" }

// Healthy reports success if at least one generator in the chain is healthy.
func (f *Failover) Healthy(ctx context.Context) error {
	var lastErr error
	for _, gen := range f.chain {
		if err := gen.Healthy(ctx); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		return fmt.Errorf("failover chain is empty")
	}
	return fmt.Errorf("no healthy generator in chain: %w", lastErr)
}

func (f *Failover) GenerateReply(ctx context.Context, userText, authorName string) (string, error) {
	return f.generate(ctx, func(gen domain.Generator) (string, error) {
		return gen.GenerateReply(ctx, userText, authorName)
	})
}

func (f *Failover) GenerateDigest(ctx context.Context) (string, error) {
	return f.generate(ctx, func(gen domain.Generator) (string, error) {
		return gen.GenerateDigest(ctx)
	})
}

func (f *Failover) generate(ctx context.Context, call func(domain.Generator) (string, error)) (string, error) {
	if len(f.chain) == 0 {
		return "", fmt.Errorf("failover chain is empty")
	}

	var lastErr error
	for i, gen := range f.chain {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		text, err := call(gen)
		if err != nil {
			lastErr = err
			f.logger.Warn("generator failed, trying next in chain",
				"generator", gen.Name(), "position", i, "error", err)
			continue
		}
		if i > 0 {
			f.logger.Info("failover succeeded", "generator", gen.Name(), "position", i)
		}
		return text, nil
	}

	return "", fmt.Errorf("all %d generators failed: %w", len(f.chain), lastErr)
}
