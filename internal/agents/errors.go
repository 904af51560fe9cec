package agents

import "fmt"

// ProcessingError wraps an LLM failure with the pipeline node it happened in.
// Node boundaries catch it and degrade to a fallback answer instead of
// failing the whole request.
type ProcessingError struct {
	Node string
	Err  error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("agent %s: %v", e.Node, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// NewProcessingError wraps err for the given node.
func NewProcessingError(node string, err error) *ProcessingError {
	return &ProcessingError{Node: node, Err: err}
}
