// Package protocol holds the shared data-model and callback-grammar types
// exchanged between the dispatch core and the internal data API / chat
// transports. Modeling these as structured types (rather than free-form
// maps) is what keeps the tweak and rerun paths from drifting apart on
// metadata keys.
package protocol

import "time"

// GenerationStatus is the lifecycle state of a generation job.
type GenerationStatus string

const (
	StatusPending    GenerationStatus = "pending"
	StatusProcessing GenerationStatus = "processing"
	StatusCompleted  GenerationStatus = "completed"
	StatusFailed     GenerationStatus = "failed"
)

// DeliveryStatus tracks whether the delivery card has been sent.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryDelivered DeliveryStatus = "delivered"
)

// RatingKind enumerates the rating buttons on a delivery card.
type RatingKind string

const (
	RatingBeautiful RatingKind = "beautiful"
	RatingFunny     RatingKind = "funny"
	RatingSad       RatingKind = "sad"
	RatingNegative  RatingKind = "negative"
)

// PlatformContext is the redundant copy of chat/user identity carried on
// every generation for quick rendering without a fresh identity lookup.
type PlatformContext struct {
	ChatID    string `json:"chatId"`
	MessageID int    `json:"messageId"`
	UserID    string `json:"userId"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"firstName,omitempty"`
}

// NotificationContext records where the delivery card should land:
// either the original command message or, for a derived generation, the
// tweak menu / ancestor coordinates it was spawned from.
type NotificationContext struct {
	ChatID           string `json:"chatId"`
	MessageID        int    `json:"messageId,omitempty"`
	ReplyToMessageID int    `json:"replyToMessageId,omitempty"`
}

// GenerationMetadata is the structured form of GenerationRecord.metadata.
// Using a struct instead of map[string]any prevents the tweak and rerun
// paths from silently inventing divergent key names for the same concept.
type GenerationMetadata struct {
	TelegramMessageID int    `json:"telegramMessageId,omitempty"`
	TelegramChatID    string `json:"telegramChatId,omitempty"`

	PlatformContext     *PlatformContext     `json:"platformContext,omitempty"`
	NotificationContext *NotificationContext `json:"notificationContext,omitempty"`

	UserInputPrompt string `json:"userInputPrompt,omitempty"`

	ParentGenerationID string `json:"parentGenerationId,omitempty"`
	IsRerun            bool   `json:"isRerun,omitempty"`
	IsTweaked          bool   `json:"isTweaked,omitempty"`
	RerunCount         int    `json:"rerunCount,omitempty"`
	TweakCount         int    `json:"tweakCount,omitempty"`
	InitiatingEventID  string `json:"initiatingEventId,omitempty"`

	IsSpell         bool     `json:"isSpell,omitempty"`
	SpellName       string   `json:"spellName,omitempty"`
	StepGenerationIDs []string `json:"stepGenerationIds,omitempty"`

	DeploymentID string `json:"deploymentId,omitempty"`
	WorkflowID   string `json:"workflowId,omitempty"`
	RunID        string `json:"run_id,omitempty"`

	StatusReason string `json:"statusReason,omitempty"`
}

// ResponseMedia is the first element's `data` payload, normalized to the
// one variant that is actually populated.
type ResponseMedia struct {
	Text       string       `json:"text,omitempty"`
	Images     []MediaAsset `json:"images,omitempty"`
	Animations []MediaAsset `json:"animations,omitempty"`
	Videos     []MediaAsset `json:"videos,omitempty"`
}

// MediaAsset is a single URL-addressed output asset.
type MediaAsset struct {
	URL string `json:"url"`
}

// ResponseEntry wraps one element of responsePayload.
type ResponseEntry struct {
	Data ResponseMedia `json:"data"`
}

// GenerationRecord mirrors the data API's generation document. This core
// never writes generation records directly — it only reads them and
// submits new ones via Execute (§6 POST /execute creates the record).
type GenerationRecord struct {
	ID              string           `json:"_id"`
	ToolID          string           `json:"toolId"`
	ToolDisplayName string           `json:"toolDisplayName"`
	ServiceName     string           `json:"serviceName,omitempty"`
	RequestPayload  map[string]any   `json:"requestPayload"`
	ResponsePayload []ResponseEntry  `json:"responsePayload,omitempty"`
	Status          GenerationStatus `json:"status"`
	DeliveryStatus  DeliveryStatus   `json:"deliveryStatus,omitempty"`
	SourcePlatform  string           `json:"sourcePlatform,omitempty"`
	Ratings         map[string][]string `json:"ratings,omitempty"` // kind -> masterAccountIds

	Metadata GenerationMetadata `json:"metadata"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FirstResponse returns the first response entry's media payload, or the
// zero value if the generation has no response yet.
func (g *GenerationRecord) FirstResponse() ResponseMedia {
	if len(g.ResponsePayload) == 0 {
		return ResponseMedia{}
	}
	return g.ResponsePayload[0].Data
}

// InputPrompt returns the effective prompt for display/tweak-seeding:
// the raw human prompt if recorded, else the tool's prompt input.
func (g *GenerationRecord) InputPrompt(promptInputKey string) string {
	if g.Metadata.UserInputPrompt != "" {
		return g.Metadata.UserInputPrompt
	}
	if promptInputKey == "" {
		promptInputKey = "input_prompt"
	}
	if v, ok := g.RequestPayload[promptInputKey].(string); ok {
		return v
	}
	return ""
}
