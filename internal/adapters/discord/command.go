package discord

import (
	"context"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"luckyspot/internal/domain"
	"luckyspot/internal/viewmodel"
)

const (
	cmdEntrants   = "entrants"
	cmdLottery    = "lottery"
	cmdCapacity   = "capacity"
	cmdJoin       = "join"
	cmdInvitation = "invitation"
)

var organizerPermissions int64 = discordgo.PermissionManageEvents

// Commands returns the slash commands the bot registers.
func Commands() []*discordgo.ApplicationCommand {
	eventOption := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "event",
		Description: "Event identifier",
		Required:    true,
	}

	filterChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(domain.Filters))
	for _, f := range domain.Filters {
		filterChoices = append(filterChoices, &discordgo.ApplicationCommandOptionChoice{Name: f.String(), Value: f.String()})
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:                     cmdEntrants,
			Description:              "Open the live entrant list of an event",
			DefaultMemberPermissions: &organizerPermissions,
			Options: []*discordgo.ApplicationCommandOption{
				eventOption,
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "filter",
					Description: "Initial filter (selected by default)",
					Choices:     filterChoices,
				},
			},
		},
		{
			Name:                     cmdLottery,
			Description:              "Draw several entrants from the waiting list at once",
			DefaultMemberPermissions: &organizerPermissions,
			Options: []*discordgo.ApplicationCommandOption{
				eventOption,
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "winners",
					Description: "Number of entrants to draw",
					Required:    true,
				},
			},
		},
		{
			Name:                     cmdCapacity,
			Description:              "Set the number of seats of an event (0 = unlimited)",
			DefaultMemberPermissions: &organizerPermissions,
			Options: []*discordgo.ApplicationCommandOption{
				eventOption,
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "seats",
					Description: "Number of seats",
					Required:    true,
				},
			},
		},
		{
			Name:        cmdJoin,
			Description: "Join the waiting list of an event",
			Options:     []*discordgo.ApplicationCommandOption{eventOption},
		},
		{
			Name:        cmdInvitation,
			Description: "Answer your invitation to an event",
			Options: []*discordgo.ApplicationCommandOption{
				eventOption,
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "response",
					Description: "Accept or decline",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "accept", Value: "accept"},
						{Name: "decline", Value: "decline"},
					},
				},
			},
		},
	}
}

// isOrganizer reports whether the invoking member may manage events.
func isOrganizer(i *discordgo.Interaction) bool {
	if i.Member == nil {
		return false
	}
	perms := i.Member.Permissions
	return perms&discordgo.PermissionAdministrator != 0 || perms&discordgo.PermissionManageEvents != 0
}

func (h *Handler) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case cmdEntrants:
		h.HandleEntrants(s, i)
	case cmdLottery:
		h.HandleLottery(s, i)
	case cmdCapacity:
		h.HandleCapacity(s, i)
	case cmdJoin:
		h.HandleJoin(s, i)
	case cmdInvitation:
		h.HandleInvitation(s, i)
	}
}

// HandleEntrants opens a live panel in an ephemeral reply.
func (h *Handler) HandleEntrants(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !isOrganizer(i.Interaction) {
		h.respondKey(s, i.Interaction, "error.not_organizer")
		return
	}
	options := commandOptions(i.Interaction)
	eventID := stringOption(options, "event")
	f, _ := domain.ParseFilter(stringOption(options, "filter"))
	locale := h.locale(i.Interaction)

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}); err != nil {
		slog.Warn("discord: can't defer entrants panel", "event_id", eventID, "error", err)
		return
	}

	vm := viewmodel.New(context.Background(), h.viewModelDeps(locale), eventID, f)
	p := newPanel(vm, h.deps.T, s, i.Interaction, interactionUser(i.Interaction).ID, locale, time.Now())
	h.panels.add(p)
	go p.run()
	slog.Info("discord: entrants panel opened", "event_id", eventID, "panel", p.id, "filter", f.String())
}

func (h *Handler) HandleLottery(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !isOrganizer(i.Interaction) {
		h.respondKey(s, i.Interaction, "error.not_organizer")
		return
	}
	options := commandOptions(i.Interaction)
	eventID := stringOption(options, "event")
	winners, _ := intOption(options, "winners")

	res, err := h.deps.Promotions.RunLottery(context.Background(), eventID, winners)
	if err != nil {
		h.respondError(s, i.Interaction, err)
		return
	}
	respondEphemeral(s, i.Interaction, "✅ "+h.t(h.locale(i.Interaction), "lottery.done", map[string]any{
		"Winners":   len(res.Winners),
		"Remaining": res.RemainingPool,
	}))
}

func (h *Handler) HandleCapacity(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !isOrganizer(i.Interaction) {
		h.respondKey(s, i.Interaction, "error.not_organizer")
		return
	}
	options := commandOptions(i.Interaction)
	eventID := stringOption(options, "event")
	seats, _ := intOption(options, "seats")

	if err := h.deps.Promotions.SetCapacity(context.Background(), eventID, seats); err != nil {
		h.respondError(s, i.Interaction, err)
		return
	}
	key := "capacity.done"
	if seats == 0 {
		key = "capacity.unlimited"
	}
	respondEphemeral(s, i.Interaction, "✅ "+h.t(h.locale(i.Interaction), key, map[string]any{"Capacity": seats}))
}

func (h *Handler) HandleJoin(s *discordgo.Session, i *discordgo.InteractionCreate) {
	user := interactionUser(i.Interaction)
	eventID := stringOption(commandOptions(i.Interaction), "event")
	name := resolveDisplayName(i.Member)
	if name == "" && user != nil {
		name = user.Username
	}

	if _, err := h.deps.Entrants.Join(context.Background(), eventID, user.ID, name, user.Email); err != nil {
		h.respondError(s, i.Interaction, err)
		return
	}
	respondEphemeral(s, i.Interaction, "✅ "+h.t(h.locale(i.Interaction), "join.done", map[string]any{"EventID": eventID}))
}

func (h *Handler) HandleInvitation(s *discordgo.Session, i *discordgo.InteractionCreate) {
	user := interactionUser(i.Interaction)
	options := commandOptions(i.Interaction)
	eventID := stringOption(options, "event")
	accept := stringOption(options, "response") == "accept"

	if _, err := h.deps.Entrants.Respond(context.Background(), eventID, user.ID, accept); err != nil {
		h.respondError(s, i.Interaction, err)
		return
	}
	key := "invitation.declined"
	if accept {
		key = "invitation.accepted"
	}
	respondEphemeral(s, i.Interaction, "✅ "+h.t(h.locale(i.Interaction), key, nil))
}
