package model

import (
	"fmt"

	"github.com/cloudwego/eino/schema"
)

// DefaultMaxToolCalls applies when the configured limit is not positive.
const DefaultMaxToolCalls = 5

// RunState is the graph-local state of one agent run. Eino only hands it to
// state handlers and serialises those calls, so it carries no lock.
type RunState struct {
	ConversationID string
	Persona        string
	// Transcript is what the response model sees on its next call.
	Transcript []*schema.Message
	Tools      ToolBudget
	CostUSD    float64
}

// NewRunState starts a run for the given conversation and persona.
func NewRunState(conversationID, persona string, maxToolCalls int) RunState {
	return RunState{
		ConversationID: conversationID,
		Persona:        persona,
		Tools:          ToolBudget{Max: maxToolCalls},
	}
}

// ToolBudget counts tool rounds within a run. Once exhausted the model gets
// one last turn to answer without tools.
type ToolBudget struct {
	Max       int
	Used      int
	Exhausted bool
	lastID    int
}

// Limit is the effective number of tool rounds allowed.
func (b *ToolBudget) Limit() int {
	if b.Max <= 0 {
		return DefaultMaxToolCalls
	}
	return b.Max
}

// Spend records one tool round. It reports true when the round goes over the
// limit, which also exhausts the budget.
func (b *ToolBudget) Spend() bool {
	b.Used++
	if b.Used > b.Limit() {
		b.Exhausted = true
		return true
	}
	return false
}

// ExhaustIfSpent marks the budget exhausted when no round is left. It reports
// true only on the transition.
func (b *ToolBudget) ExhaustIfSpent() bool {
	if b.Exhausted || b.Used < b.Limit() {
		return false
	}
	b.Exhausted = true
	return true
}

// NextCallID returns a run-unique id for a tool call the provider left unnamed.
func (b *ToolBudget) NextCallID() string {
	b.lastID++
	return fmt.Sprintf("call_%d", b.lastID)
}

// QueryInput represents the input for processing user queries.
type QueryInput struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id,omitempty"`
	Query          string `json:"query"`
	// Persona selects the handler; empty lets the intent router choose.
	Persona string `json:"persona,omitempty"`
}

// QueryOutput is the result of one agent run.
type QueryOutput struct {
	RunID          string  `json:"run_id"`
	ConversationID string  `json:"session_id"`
	Persona        string  `json:"persona"`
	Intent         string  `json:"intent,omitempty"`
	Content        string  `json:"content"`
	ToolCalls      int     `json:"tool_calls"`
	CostUSD        float64 `json:"cost_usd"`
}
