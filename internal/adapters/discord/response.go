package discord

import (
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	pkgdiscord "luckyspot/pkg/discord"
)

// Nick > GlobalName > Username
func resolveDisplayName(member *discordgo.Member) string {
	if member == nil || member.User == nil {
		return ""
	}
	if member.Nick != "" {
		return member.Nick
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName
	}
	return member.User.Username
}

// interactionUser returns the invoking user in guilds and DMs alike.
func interactionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func (h *Handler) locale(i *discordgo.Interaction) string {
	if i.Locale != "" {
		return string(i.Locale)
	}
	return h.deps.DefaultLocale
}

func respondEphemeral(s *discordgo.Session, i *discordgo.Interaction, content string) {
	if err := s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}); err != nil {
		slog.Warn("discord: ephemeral response failed", "error", err)
	}
}

func (h *Handler) respondError(s *discordgo.Session, i *discordgo.Interaction, err error) {
	respondEphemeral(s, i, "❌ "+h.t(h.locale(i), pkgdiscord.ErrorKey(err), nil))
}

func (h *Handler) respondKey(s *discordgo.Session, i *discordgo.Interaction, key string) {
	respondEphemeral(s, i, "❌ "+h.t(h.locale(i), key, nil))
}

// acknowledge defers a component update; the panel refreshes itself.
func acknowledge(s *discordgo.Session, i *discordgo.Interaction) bool {
	if err := s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		slog.Warn("discord: deferred update failed", "error", err)
		return false
	}
	return true
}

func commandOptions(i *discordgo.Interaction) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	for _, opt := range i.ApplicationCommandData().Options {
		options[opt.Name] = opt
	}
	return options
}

func stringOption(options map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := options[name]; ok {
		return strings.TrimSpace(opt.StringValue())
	}
	return ""
}

func intOption(options map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) (int, bool) {
	if opt, ok := options[name]; ok {
		return int(opt.IntValue()), true
	}
	return 0, false
}
