package handlers

import (
	"github.com/nextlevelbuilder/forgebot/internal/dispatch"
	"github.com/nextlevelbuilder/forgebot/pkg/protocol"
)

// RegisterAll wires every C5 feature-handler family into the three C4
// dispatchers. Call once per process after Deps and the dispatchers are
// constructed, before either transport starts polling.
func RegisterAll(deps *Deps, commands *dispatch.CommandDispatcher, callbacks *dispatch.CallbackQueryDispatcher, replies *dispatch.MessageReplyDispatcher) {
	RegisterSettings(deps, commands, callbacks)
	RegisterTweak(deps, callbacks)
	RegisterRerun(deps, callbacks)
	RegisterInfo(deps, callbacks)
	RegisterRate(deps, callbacks)
	RegisterMenu(deps, callbacks)
	RegisterWallet(deps, commands, callbacks)
	RegisterLink(deps, commands, callbacks)
	RegisterLora(deps, commands, callbacks)

	replies.Register(protocol.ReplyTypeSettingsParamEdit, SettingsParamEditReplyHandler(deps))
	replies.Register(protocol.ReplyTypeTweakParamEdit, TweakParamEditReplyHandler(deps))
	replies.Register(protocol.ReplyTypePlatformLinkWallet, PlatformLinkWalletReplyHandler(deps))
}
