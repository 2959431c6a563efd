package prompts

import (
	"context"
	"embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/synapse-ia/salesagent/internal/agent/graph/tools"
	"github.com/synapse-ia/salesagent/internal/agent/model"
)

//go:embed template/*.txt
var templates embed.FS

// PromptConfig groups what persona prompts are rendered from.
type PromptConfig struct {
	Business      model.ResponsePromptConfig
	Communication model.CommunicationConfig
}

func loadTemplate(personaID string) (string, error) {
	base, err := templates.ReadFile("template/base.txt")
	if err != nil {
		return "", fmt.Errorf("read base prompt: %w", err)
	}
	role, err := templates.ReadFile("template/" + personaID + ".txt")
	if err != nil {
		return "", fmt.Errorf("read %s prompt: %w", personaID, err)
	}
	return string(base) + string(role), nil
}

// RenderPersonaSystem renders the system prompt for personaID and triggers prompt callbacks.
func RenderPersonaSystem(ctx context.Context, personaID string, config PromptConfig, customer string) (string, error) {
	if _, ok := LookupPersona(personaID); !ok {
		return "", fmt.Errorf("unknown persona %q", personaID)
	}
	content, err := loadTemplate(personaID)
	if err != nil {
		return "", err
	}

	// Render via Eino prompt component (Go template) to both format and emit callbacks
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(content),
	)
	vars := map[string]any{
		"BusinessName":       config.Business.BusinessName,
		"BusinessType":       config.Business.BusinessType,
		"Website":            config.Business.Website,
		"Customer":           customer,
		"NotifyTool":         tools.ToolNotifyLead,
		"EmailConfigured":    config.Communication.EmailConfigured(),
		"EmailSender":        config.Communication.EmailSender,
		"EmailSenderName":    config.Communication.EmailSenderName,
		"CalendarConfigured": config.Communication.CalendarConfigured(),
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("persona prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("persona prompt render: empty result")
	}
	return msgs[0].Content, nil
}
