// Package discord is the Discord adapter: slash commands, the organizer's
// live entrant panel and selection DMs.
package discord

import (
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"luckyspot/internal/config"
)

// NewSession creates an unopened Discord session.
func NewSession(cfg config.DiscordConfig) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds
	return s, nil
}

// Bot is the Discord adapter.
type Bot struct {
	session *discordgo.Session
	config  config.DiscordConfig
	handler *Handler
}

func NewBot(session *discordgo.Session, cfg config.DiscordConfig, handler *Handler) *Bot {
	bot := &Bot{
		session: session,
		config:  cfg,
		handler: handler,
	}
	bot.setupHandlers()
	return bot
}

func (b *Bot) setupHandlers() {
	b.session.AddHandler(b.handleInteraction)
}

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handler.HandleCommand(s, i)
	case discordgo.InteractionModalSubmit:
		b.handler.HandleModalSubmit(s, i)
	case discordgo.InteractionMessageComponent:
		b.handler.HandleComponent(s, i)
	}
}

// Open connects to the gateway and registers the slash commands, guild-scoped
// when a guild is configured.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("erreur lors de l'ouverture de la session: %w", err)
	}
	if _, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.config.GuildID, Commands()); err != nil {
		return fmt.Errorf("enregistrement des commandes: %w", err)
	}
	slog.Info("discord: bot online", "user", b.session.State.User.Username, "guild_id", b.config.GuildID)
	return nil
}

// Close shuts every open panel, then the gateway connection.
func (b *Bot) Close() error {
	b.handler.Close()
	return b.session.Close()
}
