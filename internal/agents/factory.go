package agents

import (
	"tendercortex.app/cortex/common/llm"
	"tendercortex.app/cortex/core/config"
	"tendercortex.app/cortex/internal/prompts"
	"tendercortex.app/cortex/internal/skills"
)

// Factory builds the specialist for a routed domain. Specialists share the
// pool's temperature-keyed LLM clients, so construction is cheap and the
// factory can be called per request.
type Factory struct {
	pool   llm.ClientPool
	cfg    config.PipelineConfig
	mapper *skills.TechStackMapper
	parser *skills.TableParser
}

func NewFactory(pool llm.ClientPool, cfg config.PipelineConfig) *Factory {
	return &Factory{
		pool:   pool,
		cfg:    cfg,
		mapper: skills.NewTechStackMapper(),
		parser: skills.NewTableParser(),
	}
}

// ForDomain returns the specialist for domain. Unknown domains, including a
// stray "quantitative" that reached the specialist node, resolve to the
// general specialist.
func (f *Factory) ForDomain(domain string) (Specialist, error) {
	if !prompts.IsValid(domain) || domain == prompts.DomainQuantitative {
		domain = prompts.DomainGeneral
	}

	client, err := f.pool.Client(f.cfg.SpecialistTemperature)
	if err != nil {
		return nil, err
	}

	s := &specialist{
		domain:   domain,
		client:   client,
		maxChars: f.cfg.ContextMaxChars,
	}
	switch domain {
	case prompts.DomainTechnical:
		s.enrich = techStackSection(f.mapper)
	case prompts.DomainFinancial:
		s.enrich = financialTablesSection(f.parser)
	}
	return s, nil
}
