// Package generation is the derived-generation dispatcher (C7): it
// constructs a new execution request from an ancestor generation's
// payload for the tweak-apply and rerun paths, links parent/child via
// GenerationMetadata, and carries the original chat context forward so
// the eventual delivery lands in the right place.
package generation

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/forgebot/internal/dataapi"
	"github.com/nextlevelbuilder/forgebot/pkg/protocol"
)

// migrationComfyPrefix is the legacy workflow-id prefix stripped by
// ResolveDeploymentID (§9 open question: preserved behind a migration
// flag rather than assumed complete).
const migrationComfyPrefix = "comfy-"

// MigrationFlags gates §9 open-question behavior that should be turned
// off once all generation records are confirmed migrated.
type MigrationFlags struct {
	// StripWorkflowComfyPrefix keeps the original "strip comfy- from
	// workflowId when deploymentId is absent" fallback alive. Left on by
	// default; flip to false once no generation record needs it.
	StripWorkflowComfyPrefix bool
}

// DefaultMigrationFlags preserves the source behavior.
func DefaultMigrationFlags() MigrationFlags {
	return MigrationFlags{StripWorkflowComfyPrefix: true}
}

// ResolveDeploymentID returns the deployment id to route a rerun/tweak
// submission to: the record's own deploymentId if set, else the tool's
// workflowId with a "comfy-" prefix stripped (§9).
func ResolveDeploymentID(rec *protocol.GenerationRecord, tool *protocol.ToolDefinition, flags MigrationFlags) string {
	if rec.Metadata.DeploymentID != "" {
		return rec.Metadata.DeploymentID
	}
	wf := tool.Metadata.WorkflowID
	if flags.StripWorkflowComfyPrefix {
		wf = strings.TrimPrefix(wf, migrationComfyPrefix)
	}
	return wf
}

// notificationContextFor picks the best available delivery coordinates:
// the ancestor's own notification context if present, else the given
// fallback (tweak menu coordinates or the ancestor's originating
// message).
func notificationContextFor(rec *protocol.GenerationRecord, fallbackChatID string, fallbackMessageID int) protocol.NotificationContext {
	if rec.Metadata.NotificationContext != nil && rec.Metadata.NotificationContext.ChatID != "" {
		return *rec.Metadata.NotificationContext
	}
	return protocol.NotificationContext{ChatID: fallbackChatID, MessageID: fallbackMessageID}
}

// TweakApplyInput carries everything BuildTweakApplyRequest needs beyond
// the ancestor record and tool definition.
type TweakApplyInput struct {
	Ancestor        *protocol.GenerationRecord
	Tool            *protocol.ToolDefinition
	Payload         map[string]any // tweak session's overlay payload, including bookkeeping keys
	MasterAccountID string
	MenuChatID      string
	MenuMsgID       int
}

// BuildTweakApplyRequest constructs the execution request for
// tweak_apply (§4.4 step 4). Only keys declared in the tool's input
// schema are forwarded (invariant #2); dunder-prefixed bookkeeping keys
// never reach the payload.
func BuildTweakApplyRequest(in TweakApplyInput) dataapi.ExecuteRequest {
	inputs := in.Tool.FilterKnownInputs(in.Payload)

	eventID := in.Ancestor.Metadata.InitiatingEventID
	if eventID == "" {
		eventID = uuid.NewString()
	}

	prompt, _ := inputs["input_prompt"].(string)

	meta := protocol.GenerationMetadata{
		TelegramMessageID:   in.Ancestor.Metadata.TelegramMessageID,
		TelegramChatID:      in.Ancestor.Metadata.TelegramChatID,
		PlatformContext:     in.Ancestor.Metadata.PlatformContext,
		UserInputPrompt:     prompt,
		ParentGenerationID:  in.Ancestor.ID,
		IsTweaked:           true,
		TweakCount:          in.Ancestor.Metadata.TweakCount + 1,
		InitiatingEventID:   eventID,
		DeploymentID:        in.Ancestor.Metadata.DeploymentID,
		WorkflowID:          in.Ancestor.Metadata.WorkflowID,
	}
	nc := notificationContextFor(in.Ancestor, in.MenuChatID, in.MenuMsgID)
	meta.NotificationContext = &nc

	return dataapi.ExecuteRequest{
		ToolID:   in.Tool.ToolID,
		Inputs:   inputs,
		User:     in.MasterAccountID,
		EventID:  eventID,
		Metadata: meta,
	}
}

// RerunInput carries what BuildRerunRequest needs beyond the ancestor
// and tool definition.
type RerunInput struct {
	Ancestor        *protocol.GenerationRecord
	Tool            *protocol.ToolDefinition
	Preferences     map[string]any // user-preference overlay, merged under the explicit payload (explicit wins)
	MasterAccountID string
}

// MutateSeed implements invariant #3: a numeric ancestor seed is
// incremented by one; otherwise (absent or non-numeric) a fresh random
// 32-bit integer is produced.
func MutateSeed(ancestor map[string]any) any {
	v, ok := ancestor["input_seed"]
	if !ok {
		return rand.Int31()
	}
	switch n := v.(type) {
	case int:
		return n + 1
	case int64:
		return n + 1
	case float64:
		return int64(n) + 1
	default:
		return rand.Int31()
	}
}

// BuildRerunRequest constructs the execution request for rerun_gen
// (§4.5). Preferences are merged under the mutated payload so explicit
// payload values always win.
func BuildRerunRequest(in RerunInput) dataapi.ExecuteRequest {
	payload := make(map[string]any, len(in.Preferences)+len(in.Ancestor.RequestPayload))
	for k, v := range in.Preferences {
		payload[k] = v
	}
	for k, v := range in.Ancestor.RequestPayload {
		payload[k] = v
	}
	payload["input_seed"] = MutateSeed(in.Ancestor.RequestPayload)

	inputs := in.Tool.FilterKnownInputs(payload)

	nc := notificationContextFor(in.Ancestor, in.Ancestor.Metadata.TelegramChatID, in.Ancestor.Metadata.TelegramMessageID)

	meta := protocol.GenerationMetadata{
		TelegramMessageID:  in.Ancestor.Metadata.TelegramMessageID,
		TelegramChatID:     in.Ancestor.Metadata.TelegramChatID,
		PlatformContext:    in.Ancestor.Metadata.PlatformContext,
		UserInputPrompt:    in.Ancestor.Metadata.UserInputPrompt,
		ParentGenerationID: in.Ancestor.ID,
		IsRerun:            true,
		RerunCount:         in.Ancestor.Metadata.RerunCount + 1,
		TweakCount:         in.Ancestor.Metadata.TweakCount,
		InitiatingEventID:  uuid.NewString(),
		DeploymentID:       in.Ancestor.Metadata.DeploymentID,
		WorkflowID:         in.Ancestor.Metadata.WorkflowID,
	}
	meta.NotificationContext = &nc

	return dataapi.ExecuteRequest{
		ToolID:   in.Tool.ToolID,
		Inputs:   inputs,
		User:     in.MasterAccountID,
		EventID:  meta.InitiatingEventID,
		Metadata: meta,
	}
}

// Submit submits req via client.Execute, marking the nascent generation
// failed on submission error (§7: "mark the nascent generation record
// failed with statusReason; user-visible error; session preserved").
// Because the record is created server-side by Execute itself, a
// submission failure here means no record was ever created, so there is
// nothing to patch — the caller surfaces the error and leaves its own
// state (tweak session, rerun button) untouched.
func Submit(ctx context.Context, client *dataapi.Client, req dataapi.ExecuteRequest) (*dataapi.ExecuteResponse, error) {
	resp, err := client.Execute(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generation: submit %s: %w", req.ToolID, err)
	}
	return resp, nil
}
