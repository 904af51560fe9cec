package quant_test

import (
	"context"
	"fmt"

	"tendercortex.app/cortex/common/llm"
)

// scriptedClient replays canned completions in order. A nil entry in errs
// means success for that call.
type scriptedClient struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (s *scriptedClient) Chat(ctx context.Context, messages []llm.Message) (*llm.Completion, error) {
	idx := s.calls
	s.calls++
	s.prompts = append(s.prompts, messages[len(messages)-1].Content)
	if idx >= len(s.responses) {
		return nil, fmt.Errorf("unexpected LLM call %d", idx)
	}
	if idx < len(s.errs) && s.errs[idx] != nil {
		return nil, s.errs[idx]
	}
	return &llm.Completion{Content: s.responses[idx]}, nil
}

func (s *scriptedClient) Model() string { return "scripted" }

type scriptedPool struct {
	client *scriptedClient
}

func (p *scriptedPool) Client(temperature float64) (llm.Client, error) {
	return p.client, nil
}
