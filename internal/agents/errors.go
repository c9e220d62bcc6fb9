package agents

import "fmt"

// AgentError wraps a vendor-side failure of one of the AI agents. The
// pipeline uses the Agent tag to decide whether the failure is fatal.
type AgentError struct {
	Agent string
	Err   error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("%s agent: %v", e.Agent, e.Err)
}

func (e *AgentError) Unwrap() error {
	return e.Err
}

// NewAgentError tags err with the originating agent name
func NewAgentError(agent string, err error) *AgentError {
	return &AgentError{Agent: agent, Err: err}
}
