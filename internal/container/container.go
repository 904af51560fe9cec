// Package container wires the pipeline's shared collaborators as lazy
// singletons. HTTP handlers and the graph pull dependencies from here; tests
// swap the LLM through OverrideLLM.
package container

import (
	"sync"

	"tendercortex.app/cortex/common/llm"
	"tendercortex.app/cortex/core/config"
	"tendercortex.app/cortex/internal/agents"
	"tendercortex.app/cortex/internal/quant"
	"tendercortex.app/cortex/internal/risk"
)

// Container holds one slot per shared collaborator. Each slot initializes on
// first use under the mutex and is reused afterwards.
type Container struct {
	cfg config.Config

	mu       sync.Mutex
	pool     llm.ClientPool
	factory  *agents.Factory
	analyzer *quant.Analyzer
	sentinel *risk.Sentinel
}

func New(cfg config.Config) *Container {
	return &Container{cfg: cfg}
}

// Pool returns the shared temperature-keyed LLM pool.
func (c *Container) Pool() llm.ClientPool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.poolLocked()
}

func (c *Container) poolLocked() llm.ClientPool {
	if c.pool == nil {
		c.pool = llm.NewPool(llm.Config{
			Provider:   c.cfg.LLM.Provider,
			APIKey:     c.cfg.LLM.APIKey,
			BaseURL:    c.cfg.LLM.BaseURL,
			Model:      c.cfg.LLM.Model,
			MaxTokens:  c.cfg.LLM.MaxTokens,
			Timeout:    c.cfg.LLM.Timeout(),
			MaxRetries: c.cfg.LLM.MaxRetries,
		})
	}
	return c.pool
}

// Factory returns the shared specialist factory.
func (c *Container) Factory() *agents.Factory {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.factory == nil {
		c.factory = agents.NewFactory(c.poolLocked(), c.cfg.Pipeline)
	}
	return c.factory
}

// Analyzer returns the shared quantitative analyzer.
func (c *Container) Analyzer() *quant.Analyzer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.analyzer == nil {
		c.analyzer = quant.NewAnalyzer(c.poolLocked(), c.cfg.Pipeline)
	}
	return c.analyzer
}

// Sentinel returns the shared risk sentinel.
func (c *Container) Sentinel() *risk.Sentinel {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sentinel == nil {
		c.sentinel = risk.NewSentinel(c.poolLocked(), c.cfg.Pipeline)
	}
	return c.sentinel
}

// OverrideLLM replaces the pool and invalidates every slot built on top of
// it. Test-only hook.
func (c *Container) OverrideLLM(pool llm.ClientPool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pool = pool
	c.factory = nil
	c.analyzer = nil
	c.sentinel = nil
}

// Reset clears every slot so the next access rebuilds from config.
func (c *Container) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pool = nil
	c.factory = nil
	c.analyzer = nil
	c.sentinel = nil
}
