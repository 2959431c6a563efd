package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	logx "github.com/synapse-ia/salesagent/pkg/logger"
)

// ===================================
// Notify Lead Tool
// ===================================

const leadMessageFormat = "🎯 *NOVO LEAD QUALIFICADO - SYNAPSE IA*\n\n%s\n\n✅ Lead qualificado e pronto para follow-up!"

// TextSender delivers a WhatsApp text message.
type TextSender interface {
	SendText(ctx context.Context, number, text string) error
}

type NotifyLeadInput struct {
	LeadInfo string `json:"lead_info"`
	Message  string `json:"message,omitempty"`
}

type NotifyLeadOutput struct {
	Sent   bool   `json:"sent"`
	Detail string `json:"detail"`
}

// LeadMessage builds the notification text for a qualified lead.
func LeadMessage(leadInfo string) string {
	return fmt.Sprintf(leadMessageFormat, strings.TrimSpace(leadInfo))
}

// createNotifyLeadTool sends qualified-lead summaries to the sales team's
// WhatsApp number. Delivery problems are reported back to the model as output,
// not as tool errors, so the conversation can continue.
func createNotifyLeadTool(sender TextSender, destination string) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolNotifyLead,
			Desc: "Envia ao time de vendas, pelo WhatsApp, a notificação de um lead qualificado. Use sempre depois de qualificar um lead.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"lead_info": {
					Type:     "string",
					Desc:     "Resumo do lead: nome, escritório, dores identificadas, produtos recomendados, avaliação interna e próximo passo.",
					Required: true,
				},
				"message": {
					Type: "string",
					Desc: "Mensagem completa opcional. Quando ausente, uma notificação padrão é montada a partir de lead_info.",
				},
			}),
		},
		func(ctx context.Context, in *NotifyLeadInput) (*NotifyLeadOutput, error) {
			if strings.TrimSpace(in.LeadInfo) == "" && strings.TrimSpace(in.Message) == "" {
				return nil, fmt.Errorf("lead_info is required")
			}
			if sender == nil || destination == "" {
				return &NotifyLeadOutput{Detail: "lead notifications are not configured"}, nil
			}

			text := in.Message
			if strings.TrimSpace(text) == "" {
				text = LeadMessage(in.LeadInfo)
			}

			if err := sender.SendText(ctx, destination, text); err != nil {
				logx.Warn().Err(err).Str("destination", destination).Msg("Failed to deliver lead notification")
				return &NotifyLeadOutput{Detail: "failed to deliver notification"}, nil
			}

			logx.Info().Str("destination", destination).Msg("Lead notification sent")
			return &NotifyLeadOutput{Sent: true, Detail: "notification sent to " + destination}, nil
		},
	)
}
