package protocol

import (
	"fmt"
	"strings"
)

// CallbackDataMaxBytes is the chat platform's inline-button payload limit.
// Every callback-data string this core generates must verify under this
// bound at registration/build time (§9 design note).
const CallbackDataMaxBytes = 64

// Callback-data namespace prefixes (§6 grammar). Colon-separated except
// the tweak family, which uses underscore-separated tokens to keep
// payloads inside CallbackDataMaxBytes once a generation ID is embedded.
const (
	PrefixSettings          = "set_"
	PrefixTweakGen           = "tweak_gen:"
	PrefixTweakParamEdit     = "tpe_"
	PrefixTweakApply         = "tweak_apply:"
	PrefixTweakCancel        = "tweak_cancel:"
	PrefixTweakMenuRender    = "tweak_gen_menu_render:"
	PrefixRerunGen           = "rerun_gen:"
	PrefixRateGen            = "rate_gen:"
	PrefixViewGenInfo        = "view_gen_info:"
	PrefixViewSpellStep      = "view_spell_step:"
	PrefixRestoreDelivery    = "restore_delivery:"
	PrefixHideMenu           = "hide_menu"
	PrefixLora               = "lora:"
	PrefixWallet             = "wallet:"
	PrefixLink               = "link:"
)

// TweakGenCallback builds the "open tweak menu" callback payload.
func TweakGenCallback(generationID string) string {
	return PrefixTweakGen + generationID
}

// TweakMenuRenderCallback builds the "refresh tweak menu" callback
// payload offered once a tweak session's token has expired: unlike
// TweakGenCallback it carries no per-session token, just the generation
// id, so pressing it starts a fresh session the same way opening the
// menu from the delivery card does.
func TweakMenuRenderCallback(generationID string) string {
	return PrefixTweakMenuRender + generationID
}

// TweakParamEditCallback builds a "tpe_<token>_<paramName>" payload.
// Tokens are fixed at 8 chars (internal/interaction token bimap) so the
// only unbounded part is paramName; callers must keep parameter names
// short enough that the whole string stays under CallbackDataMaxBytes.
func TweakParamEditCallback(token, paramName string) string {
	return fmt.Sprintf("tpe_%s_%s", token, paramName)
}

// ParseTweakParamEdit splits a "tpe_<token>_<paramName>" payload back out.
// Token width is fixed, so the split point is unambiguous even if
// paramName itself contains underscores.
func ParseTweakParamEdit(data string) (token, paramName string, ok bool) {
	const tokenLen = 8
	rest := strings.TrimPrefix(data, PrefixTweakParamEdit)
	if rest == data || len(rest) < tokenLen+1 || rest[tokenLen] != '_' {
		return "", "", false
	}
	return rest[:tokenLen], rest[tokenLen+1:], true
}

// TweakApplyCallback builds the "submit tweak" payload.
func TweakApplyCallback(token string) string { return PrefixTweakApply + token }

// TweakCancelCallback builds the "abort tweak" payload.
func TweakCancelCallback(token string) string { return PrefixTweakCancel + token }

// RerunGenCallback builds "rerun_gen:<genId>[:<count>]".
func RerunGenCallback(generationID string, pressCount int) string {
	if pressCount <= 0 {
		return PrefixRerunGen + generationID
	}
	return fmt.Sprintf("%s%s:%d", PrefixRerunGen, generationID, pressCount)
}

// ParseRerunGen splits "rerun_gen:<genId>[:<count>]".
func ParseRerunGen(data string) (generationID string, pressCount int, ok bool) {
	rest := strings.TrimPrefix(data, PrefixRerunGen)
	if rest == data {
		return "", 0, false
	}
	parts := strings.SplitN(rest, ":", 2)
	generationID = parts[0]
	if len(parts) == 2 {
		fmt.Sscanf(parts[1], "%d", &pressCount)
	}
	return generationID, pressCount, true
}

// RateGenCallback builds "rate_gen:<genId>:<kind>".
func RateGenCallback(generationID string, kind RatingKind) string {
	return fmt.Sprintf("%s%s:%s", PrefixRateGen, generationID, kind)
}

// ParseRateGen splits "rate_gen:<genId>:<kind>".
func ParseRateGen(data string) (generationID string, kind RatingKind, ok bool) {
	rest := strings.TrimPrefix(data, PrefixRateGen)
	if rest == data {
		return "", "", false
	}
	idx := strings.LastIndex(rest, ":")
	if idx < 0 {
		return "", "", false
	}
	return rest[:idx], RatingKind(rest[idx+1:]), true
}

// ViewGenInfoCallback builds "view_gen_info:<genId>".
func ViewGenInfoCallback(generationID string) string { return PrefixViewGenInfo + generationID }

// ViewSpellStepCallback builds "view_spell_step:<genId>:<idx>".
func ViewSpellStepCallback(generationID string, idx int) string {
	return fmt.Sprintf("%s%s:%d", PrefixViewSpellStep, generationID, idx)
}

// RestoreDeliveryCallback builds "restore_delivery:<genId>".
func RestoreDeliveryCallback(generationID string) string {
	return PrefixRestoreDelivery + generationID
}

// ValidateCallbackData verifies data stays within the platform's
// inline-button payload limit.
func ValidateCallbackData(data string) error {
	if n := len(data); n > CallbackDataMaxBytes {
		return fmt.Errorf("callback data %q is %d bytes, exceeds %d-byte limit", data, n, CallbackDataMaxBytes)
	}
	return nil
}
