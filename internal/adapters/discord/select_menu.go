package discord

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

// HandleComponent routes panel components by the kind encoded in their
// custom ID.
func (h *Handler) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	kind, panelID, _, ok := parseCustomID(i.MessageComponentData().CustomID)
	if !ok {
		return
	}
	p, ok := h.panelFor(s, i.Interaction, panelID)
	if !ok {
		return
	}
	switch kind {
	case idFilter:
		h.HandleFilterSelect(s, i, p)
	case idCancel:
		h.HandleCancelSelect(s, i, p)
	case idDraw:
		h.HandleDraw(s, i, p)
	}
}

// panelFor looks up a live panel owned by the invoking user and answers the
// interaction itself when there is none.
func (h *Handler) panelFor(s *discordgo.Session, i *discordgo.Interaction, panelID string) (*panel, bool) {
	p, ok := h.panels.get(panelID)
	if !ok {
		h.respondKey(s, i, "error.session_expired")
		return nil, false
	}
	if user := interactionUser(i); user == nil || user.ID != p.ownerID {
		h.respondKey(s, i, "error.not_organizer")
		return nil, false
	}
	return p, true
}

func (h *Handler) HandleFilterSelect(s *discordgo.Session, i *discordgo.InteractionCreate, p *panel) {
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		return
	}
	if !acknowledge(s, i.Interaction) {
		return
	}
	p.vm.SelectFilter(values[0])
	slog.Debug("discord: panel filter changed", "panel", p.id, "filter", values[0])
}

// HandleCancelSelect asks for a reason before cancelling the chosen entrant.
func (h *Handler) HandleCancelSelect(s *discordgo.Session, i *discordgo.InteractionCreate, p *panel) {
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		return
	}
	entrantID := values[0]
	locale := p.locale

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: customID(idCancelModal, p.id, entrantID),
			Title:    h.t(locale, "modal.cancel.title", nil),
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    "reason",
						Label:       h.t(locale, "modal.cancel.reason", nil),
						Style:       discordgo.TextInputParagraph,
						Required:    false,
						MaxLength:   200,
						Placeholder: h.t(locale, "panel.organizer_reason", nil),
					},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:  "promote",
						Label:     h.t(locale, "modal.cancel.promote", nil),
						Style:     discordgo.TextInputShort,
						Required:  false,
						MaxLength: 5,
						Value:     "yes",
					},
				}},
			},
		},
	}); err != nil {
		slog.Warn("discord: can't open cancel modal", "panel", p.id, "error", err)
	}
}
