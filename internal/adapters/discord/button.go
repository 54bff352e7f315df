package discord

import "github.com/bwmarrin/discordgo"

// HandleDraw draws one replacement from the waiting list of the panel's
// event.
func (h *Handler) HandleDraw(s *discordgo.Session, i *discordgo.InteractionCreate, p *panel) {
	if !acknowledge(s, i.Interaction) {
		return
	}
	p.vm.RequestPromotion()
}
