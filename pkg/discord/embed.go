package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"luckyspot/internal/domain"
	"luckyspot/internal/domain/entities"
	"luckyspot/internal/ports/output"
)

const (
	embedColor = 0x5865F2
	// Embed descriptions cap at 4096 characters; 20 lines stays well under.
	maxPanelLines = 20
)

// PanelView is everything the organizer panel shows.
type PanelView struct {
	EventID    string
	Filter     domain.Filter
	Entrants   []entities.Entrant
	CountLabel string
	Loading    bool
}

// BuildPanelEmbed renders the entrant list of v. The count badge goes to the
// footer and is omitted for filters without one.
func BuildPanelEmbed(t output.T, locale string, v PanelView) *discordgo.MessageEmbed {
	var b strings.Builder
	switch {
	case v.Loading:
		b.WriteString(t.T(locale, "panel.loading", nil))
	case len(v.Entrants) == 0:
		b.WriteString(t.T(locale, "panel.empty", nil))
	default:
		for i, e := range v.Entrants {
			if i == maxPanelLines {
				b.WriteString(t.T(locale, "panel.more", map[string]any{"Count": len(v.Entrants) - maxPanelLines}))
				break
			}
			b.WriteString(FormatEntrantLine(t, locale, e, v.Filter))
			b.WriteString("\n")
		}
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s · %s", t.T(locale, "panel.title", map[string]any{"EventID": v.EventID}), t.T(locale, FilterKey(v.Filter), nil)),
		Description: strings.TrimRight(b.String(), "\n"),
		Color:       embedColor,
	}
	if v.CountLabel != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: v.CountLabel}
	}
	return embed
}

// FormatEntrantLine renders one entrant with the timestamp the filter sorts
// by.
func FormatEntrantLine(t output.T, locale string, e entities.Entrant, f domain.Filter) string {
	line := fmt.Sprintf("- **%s** · %s", e.DisplayName(), t.T(locale, StatusKey(e.Status), nil))
	field := entities.FieldSelection
	switch f {
	case domain.FilterConfirmed:
		field = entities.FieldConfirmation
	case domain.FilterCancelled:
		field = entities.FieldCancellation
	}
	if ts := e.Timestamp(field); ts != nil {
		line += " · " + FormatTimestamp(*ts, TimestampRelative)
	}
	if f == domain.FilterCancelled && e.CancellationReason != "" {
		line += fmt.Sprintf(" · _%s_", e.CancellationReason)
	}
	return line
}

func FilterKey(f domain.Filter) string { return "filter." + f.String() }

func StatusKey(s domain.Status) string { return "status." + s.String() }
