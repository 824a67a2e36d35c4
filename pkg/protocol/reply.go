package protocol

// ReplyContextType tags which handler a stored ReplyContext belongs to
// (§9 design note: model as a tagged variant, dispatcher selects by tag).
type ReplyContextType string

const (
	ReplyTypeSettingsParamEdit ReplyContextType = "settings_param_edit"
	ReplyTypeTweakParamEdit    ReplyContextType = "tweak_param_edit"
	ReplyTypeLoraImportURL     ReplyContextType = "lora_import_url"
	ReplyTypePlatformLinkWallet ReplyContextType = "platform_link_wallet"
)

// SettingsParamEditPayload is attached to the prompt message sent by the
// settings editor (§4.3).
type SettingsParamEditPayload struct {
	ToolID    string
	ParamName string
	MenuChatID int64
	MenuMsgID  int
}

// TweakParamEditPayload is attached to the prompt message sent when a
// tweak parameter edit is opened (§4.4 step 2).
type TweakParamEditPayload struct {
	Token          string
	ParamName      string
	SessionKey     string
	GenerationID   string
	MasterAccountID string
	MenuChatID     int64
	MenuMsgID      int
}

// LoraImportURLPayload is attached when the LoRA browser asks the user to
// paste a model URL to import.
type LoraImportURLPayload struct {
	Category string
}

// PlatformLinkWalletPayload is attached when /link is awaiting the wallet
// address as a free-text reply instead of a command argument.
type PlatformLinkWalletPayload struct {
	RequestedChainID int64
}

// ReplyContext is the tagged variant stored under (chatID, messageID) of a
// bot-sent prompt message. Exactly one of the typed payload fields is
// populated, matching Type.
type ReplyContext struct {
	Type ReplyContextType

	SettingsParamEdit  *SettingsParamEditPayload
	TweakParamEdit     *TweakParamEditPayload
	LoraImportURL      *LoraImportURLPayload
	PlatformLinkWallet *PlatformLinkWalletPayload
}
