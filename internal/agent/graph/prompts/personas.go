package prompts

import (
	"github.com/synapse-ia/salesagent/internal/agent/model"
)

// Persona IDs.
const (
	LeadQualifier        = "lead-qualifier"
	InformationCollector = "information-collector"
	ObjectionHandler     = "objection-handler"
	CommunicationManager = "communication-manager"
	Closer               = "closer"
)

var personas = []model.Persona{
	{
		ID:          LeadQualifier,
		Name:        "Lead Qualifier",
		Intent:      "qualification",
		Description: "Qualifies inbound lawyers and notifies the team about qualified leads.",
	},
	{
		ID:          InformationCollector,
		Name:        "Information Collector",
		Intent:      "collection",
		Description: "Gathers context about the law firm ahead of a sales meeting.",
	},
	{
		ID:          ObjectionHandler,
		Name:        "Objection Handler",
		Intent:      "objection",
		Description: "Addresses price, complexity and data-privacy concerns.",
	},
	{
		ID:          CommunicationManager,
		Name:        "Communication Manager",
		Intent:      "communication",
		Description: "Schedules consultations and arranges e-mail follow-ups.",
	},
	{
		ID:          Closer,
		Name:        "Closer",
		Intent:      "closing",
		Description: "Drives qualified leads to a signed proposal.",
	},
}

// Personas returns the persona catalogue in a stable order.
func Personas() []model.Persona {
	out := make([]model.Persona, len(personas))
	copy(out, personas)
	return out
}

// LookupPersona finds a persona by ID.
func LookupPersona(id string) (model.Persona, bool) {
	for _, p := range personas {
		if p.ID == id {
			return p, true
		}
	}
	return model.Persona{}, false
}
