package provider

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gatewarden/internal/config"
	"gatewarden/internal/domain"
)

// Constructor creates a generator from a config entry.
type Constructor func(pc config.ProviderConfig, logger *slog.Logger) domain.Generator

// Factory creates and caches generators from config.
type Factory struct {
	cfg          *config.Config
	logger       *slog.Logger
	constructors map[string]Constructor
	cache        map[string]domain.Generator
	mu           sync.RWMutex
}

// NewFactory creates a generator factory with the built-in constructors registered.
func NewFactory(cfg *config.Config, logger *slog.Logger) *Factory {
	f := &Factory{
		cfg:          cfg,
		logger:       logger,
		constructors: make(map[string]Constructor),
		cache:        make(map[string]domain.Generator),
	}
	f.registerDefaults()
	return f
}

// RegisterConstructor adds (or replaces) a generator constructor by name.
func (f *Factory) RegisterConstructor(name string, ctor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[name] = ctor
}

func (f *Factory) registerDefaults() {
	f.constructors["ollama"] = func(pc config.ProviderConfig, logger *slog.Logger) domain.Generator {
		return NewOllama(OllamaConfig{APIBase: pc.APIBase, Model: pc.DefaultModel, Logger: logger})
	}

	f.constructors["openai"] = func(pc config.ProviderConfig, logger *slog.Logger) domain.Generator {
		return NewOpenAI(OpenAIConfig{APIKey: pc.APIKey, APIBase: pc.APIBase, Model: pc.DefaultModel, Logger: logger})
	}
}

// Get returns the generator with the given name, or the default if name is empty.
// Created generators are cached so the same instance is reused across calls.
// Uses double-check locking to avoid TOCTOU races.
func (f *Factory) Get(name string) (domain.Generator, error) {
	if name == "" {
		name = f.cfg.General.DefaultProvider
	}

	// Fast path: read lock.
	f.mu.RLock()
	if cached, ok := f.cache[name]; ok {
		f.mu.RUnlock()
		return cached, nil
	}
	f.mu.RUnlock()

	// Slow path: write lock with double-check.
	f.mu.Lock()
	defer f.mu.Unlock()

	if cached, ok := f.cache[name]; ok {
		return cached, nil
	}

	pc, ok := f.cfg.Providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
	if !pc.Enabled {
		return nil, fmt.Errorf("provider %s is disabled", name)
	}

	ctor, found := f.constructors[name]

	var g domain.Generator
	if found {
		g = ctor(pc, f.logger)
	} else if pc.APIBase != "" && pc.APIKey != "" {
		// Fallback: treat unknown providers as OpenAI-compatible.
		g = NewOpenAI(OpenAIConfig{APIKey: pc.APIKey, APIBase: pc.APIBase, Model: pc.DefaultModel, Logger: f.logger})
	} else {
		return nil, fmt.Errorf("provider %s: no constructor registered and no API base/key configured", name)
	}

	f.cache[name] = g
	return g, nil
}

// Default returns the configured default generator, wrapped in a failover
// chain when general.failoverChain names more than one provider.
func (f *Factory) Default() (domain.Generator, error) {
	chain := f.cfg.General.FailoverChain
	if len(chain) == 0 {
		return f.Get("")
	}

	gens := make([]domain.Generator, 0, len(chain))
	for _, name := range chain {
		g, err := f.Get(name)
		if err != nil {
			f.logger.Warn("skipping provider in failover chain", "provider", name, "error", err)
			continue
		}
		gens = append(gens, g)
	}
	if len(gens) == 0 {
		return nil, fmt.Errorf("no usable provider in failover chain")
	}
	if len(gens) == 1 {
		return gens[0], nil
	}
	return NewFailover(gens, f.logger), nil
}

// HealthyGenerator returns the first generator that passes a health check, or nil.
func (f *Factory) HealthyGenerator(ctx context.Context) domain.Generator {
	for name := range f.cfg.Providers {
		g, err := f.Get(name)
		if err != nil || g == nil {
			continue
		}
		if g.Healthy(ctx) == nil {
			return g
		}
	}
	return nil
}
