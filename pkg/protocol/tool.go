package protocol

// ParamType is the declared type of a tool input parameter, shared by the
// settings editor and the tweak parameter editor so both use one parser.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamNumber  ParamType = "number"
	ParamInteger ParamType = "integer"
	ParamBoolean ParamType = "boolean"
)

// ParamSpec describes one input parameter of a tool.
type ParamSpec struct {
	Type        ParamType `json:"type"`
	Default     any       `json:"default,omitempty"`
	Description string    `json:"description,omitempty"`
}

// ToolMetadata carries deployment-routing hints that survive tool-id
// migrations (§9 open question: deploymentId vs workflowId fallback).
type ToolMetadata struct {
	DeploymentID         string `json:"deploymentId,omitempty"`
	WorkflowID           string `json:"workflowId,omitempty"`
	TelegramPromptInputKey string `json:"telegramPromptInputKey,omitempty"`
}

// DeliveryMode controls how a tool's result reaches the user.
type DeliveryMode string

const (
	DeliveryImmediate DeliveryMode = "immediate"
	DeliveryAsync     DeliveryMode = "async"
	DeliveryWebhook   DeliveryMode = "webhook"
)

// ToolDefinition is a tool as read from the tool registry collaborator.
// Display name is the stable handle across tool-id migrations (§3): code
// that needs to resolve "the tool behind this generation" should look up
// by ToolDefinition.DisplayName, not ToolID.
type ToolDefinition struct {
	ToolID       string               `json:"toolId"`
	DisplayName  string               `json:"displayName"`
	Description  string               `json:"description,omitempty"`
	InputSchema  map[string]ParamSpec `json:"inputSchema"`
	Metadata     ToolMetadata         `json:"metadata,omitempty"`
	DeliveryMode DeliveryMode         `json:"deliveryMode,omitempty"`
}

// FilterKnownInputs returns the subset of payload whose keys are declared
// in the tool's input schema, dropping anything else — including any
// bookkeeping key prefixed "__" that a tweak session may carry.
// This is the single choke point that guarantees invariant #2 of the
// testable properties: tweak_apply never forwards an undeclared or
// dunder-prefixed key.
func (t *ToolDefinition) FilterKnownInputs(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		if len(k) >= 2 && k[:2] == "__" {
			continue
		}
		if _, declared := t.InputSchema[k]; declared {
			out[k] = v
		}
	}
	return out
}
