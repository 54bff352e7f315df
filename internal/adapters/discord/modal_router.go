package discord

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	pkgdiscord "luckyspot/pkg/discord"
)

// HandleModalSubmit routes modals by the kind encoded in their custom ID.
func (h *Handler) HandleModalSubmit(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	kind, panelID, arg, ok := parseCustomID(data.CustomID)
	if !ok {
		return
	}
	switch kind {
	case idCancelModal:
		p, ok := h.panelFor(s, i.Interaction, panelID)
		if !ok {
			return
		}
		h.handleCancelModalSubmit(s, i, p, arg, pkgdiscord.ModalValues(data))
	default:
		// Unknown modal: ignore.
	}
}

// handleCancelModalSubmit runs the cancellation. Its outcome reaches the
// organizer as a toast.
func (h *Handler) handleCancelModalSubmit(s *discordgo.Session, i *discordgo.InteractionCreate, p *panel, entrantID string, values map[string]string) {
	if entrantID == "" || !acknowledge(s, i.Interaction) {
		return
	}
	reason := strings.TrimSpace(values["reason"])
	if reason == "" {
		reason = h.t(p.locale, "panel.organizer_reason", nil)
	}
	p.vm.Cancel(entrantID, reason, wantsReplacement(values["promote"]))
}

// wantsReplacement reads the modal's yes/no answer; anything but an explicit
// no draws a replacement.
func wantsReplacement(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "no", "n", "non", "false", "0":
		return false
	}
	return true
}
