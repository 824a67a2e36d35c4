package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/nextlevelbuilder/forgebot/internal/transport"
)

// discordRowLimit is the maximum number of buttons Discord allows per
// action row.
const discordRowLimit = 5

func buildComponents(kb transport.InlineKeyboard) []discordgo.MessageComponent {
	if len(kb) == 0 {
		return nil
	}
	rows := make([]discordgo.MessageComponent, 0, len(kb))
	for _, row := range kb {
		buttons := make([]discordgo.MessageComponent, 0, len(row))
		for _, b := range row {
			if len(buttons) >= discordRowLimit {
				break
			}
			buttons = append(buttons, discordgo.Button{
				Label:    b.Text,
				Style:    discordgo.SecondaryButton,
				CustomID: b.CallbackData,
			})
		}
		rows = append(rows, discordgo.ActionsRow{Components: buttons})
	}
	return rows
}
