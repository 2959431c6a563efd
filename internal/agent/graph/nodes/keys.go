package nodes

// Graph node keys.
const (
	NodeInputConverter    = "InputConverter"
	NodeResponseChatModel = "ResponseChatModel"
	NodeToolExecutor      = "ToolExecutor"
)

// Keys set on the final message Extra.
const (
	ExtraUsageCost = "usage_cost"
	ExtraTotalCost = "usage_cost_total_usd"
	ExtraToolCalls = "tool_calls"
	ExtraPersona   = "persona"
)
