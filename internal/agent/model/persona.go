package model

// Persona is one sales specialist the agent can speak as.
type Persona struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Intent      string `json:"intent"`
	Description string `json:"description"`
}
