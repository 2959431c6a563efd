package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

const (
	ToolNotifyLead = "notify_lead"
)

// Dependencies are the collaborators business tools need.
type Dependencies struct {
	Sender TextSender
	// LeadDestination is the WhatsApp number that receives lead notifications.
	LeadDestination string
}

// GetQueryTools returns the tools the response model may call.
func GetQueryTools(deps Dependencies) []tool.BaseTool {
	return []tool.BaseTool{
		createNotifyLeadTool(deps.Sender, deps.LeadDestination),
	}
}

// GetToolInfos collects the schema of every tool for model binding.
func GetToolInfos(ctx context.Context, tools []tool.BaseTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}
