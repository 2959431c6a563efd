package model

import "time"

// ================ Config ================
type ConversationConfig struct {
	TTL      time.Duration `envconfig:"CONVERSATION_TTL" default:"24h"`
	MaxTurns int           `envconfig:"CONVERSATION_MAX_TURNS" default:"20"`
	Tools    struct {
		MaxCalls int `envconfig:"CONVERSATION_TOOL_MAX_CALLS" default:"5"`
	}
}

type ResponseModelConfig struct {
	Model          string  `envconfig:"RESPONSE_MODEL" default:"gemini-2.5-flash"`
	MaxTokens      int     `envconfig:"RESPONSE_MAX_TOKENS" default:"2000"`
	Temperature    float32 `envconfig:"RESPONSE_TEMPERATURE" default:"0.4"`
	ThinkingBudget int32   `envconfig:"RESPONSE_THINKING_BUDGET" default:"1024"`
}

type ResponsePromptConfig struct {
	BusinessName string `envconfig:"PROMPT_BUSINESS_NAME" default:"Synapse IA"`
	BusinessType string `envconfig:"PROMPT_BUSINESS_TYPE" default:"automações e IA para advogados"`
	Website      string `envconfig:"PROMPT_BUSINESS_WEBSITE" default:"https://iasynapse.com.br/"`
}

// CommunicationConfig describes the e-mail and calendar accounts the
// communication persona may offer. The service itself never sends e-mail.
type CommunicationConfig struct {
	EmailSender             string `envconfig:"EMAIL_SENDER"`
	EmailSenderName         string `envconfig:"EMAIL_SENDER_NAME" default:"Synapse IA"`
	EmailPasskey            string `envconfig:"EMAIL_PASSKEY"`
	CalendarCredentialsPath string `envconfig:"GOOGLE_CALENDAR_CREDENTIALS_PATH"`
}

func (c CommunicationConfig) EmailConfigured() bool {
	return c.EmailSender != "" && c.EmailPasskey != ""
}

func (c CommunicationConfig) CalendarConfigured() bool {
	return c.CalendarCredentialsPath != ""
}
