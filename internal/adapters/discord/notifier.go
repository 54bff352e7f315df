package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"luckyspot/internal/domain/entities"
	"luckyspot/internal/ports/output"
	pkgdiscord "luckyspot/pkg/discord"
)

var _ output.Notifier = (*DMNotifier)(nil)

// DMNotifier tells drawn entrants by direct message. Entrants whose uid is
// not a Discord user id are skipped.
type DMNotifier struct {
	session *discordgo.Session
	t       output.T
	locale  string
}

func NewDMNotifier(session *discordgo.Session, t output.T, locale string) *DMNotifier {
	return &DMNotifier{session: session, t: t, locale: locale}
}

func (n *DMNotifier) NotifySelected(ctx context.Context, e entities.Entrant) error {
	if !isSnowflake(e.UID) {
		slog.DebugContext(ctx, "discord: no DM for non-Discord entrant", "uid", e.UID)
		return nil
	}
	ch, err := n.session.UserChannelCreate(e.UID, discordgo.WithContext(ctx))
	if err != nil || ch == nil {
		return fmt.Errorf("create DM channel: %w", err)
	}
	if _, err := n.session.ChannelMessageSend(ch.ID, SelectionMessage(n.t, n.locale, e), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send selection DM: %w", err)
	}
	return nil
}

// SelectionMessage renders the DM sent to a drawn entrant.
func SelectionMessage(t output.T, locale string, e entities.Entrant) string {
	if e.InvitationExpiry == nil {
		return "🎉 " + t.T(locale, "dm.selected_no_expiry", map[string]any{"EventID": e.EventID})
	}
	return "🎉 " + t.T(locale, "dm.selected", map[string]any{
		"EventID": e.EventID,
		"Expiry":  pkgdiscord.FormatTimestamp(*e.InvitationExpiry, pkgdiscord.TimestampShortFull),
	})
}

func isSnowflake(id string) bool {
	if len(id) < 15 || len(id) > 20 {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
