package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"truthordare/internal/config"
	"truthordare/internal/game"
	"truthordare/internal/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type Bot struct {
	cfg      config.Config
	logger   *zap.Logger
	game     *game.Service
	session  *discordgo.Session
	cooldown *utils.Cooldown
	now      func() time.Time
}

func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsDirectMessages
	return session, nil
}

func New(cfg config.Config, logger *zap.Logger, session *discordgo.Session, svc *game.Service) *Bot {
	return &Bot{
		cfg:      cfg,
		logger:   logger,
		game:     svc,
		session:  session,
		cooldown: utils.NewCooldown(cfg.Cooldown.Every, cfg.Cooldown.Burst),
		now:      time.Now,
	}
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	if err := b.registerCommands(); err != nil {
		_ = b.session.Close()
		return fmt.Errorf("register commands: %w", err)
	}
	return nil
}

func (b *Bot) Close() {
	if b.session != nil {
		_ = b.session.Close()
	}
}

func (b *Bot) Run(ctx context.Context) error {
	if err := b.Start(); err != nil {
		return err
	}
	b.logger.Info("bot started")
	defer b.Close()

	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("bot stopping")
			return nil
		case <-ticker.C:
			if n := b.cooldown.Prune(b.now()); n > 0 {
				b.logger.Debug("cooldowns pruned", zap.Int("count", n))
			}
		}
	}
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("discord ready", zap.String("user", event.User.Username), zap.Int("guilds", len(event.Guilds)))
}

func (b *Bot) respond(interaction *discordgo.InteractionCreate, content string, ephemeral bool) {
	b.respondWith(interaction, &discordgo.InteractionResponseData{Content: content}, ephemeral)
}

func (b *Bot) respondWith(interaction *discordgo.InteractionCreate, data *discordgo.InteractionResponseData, ephemeral bool) {
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	if data.AllowedMentions == nil {
		data.AllowedMentions = noMentions()
	}
	err := b.session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		b.logger.Warn("interaction response failed", zap.String("interaction_id", interaction.ID), zap.Error(err))
	}
}

func (b *Bot) respondError(interaction *discordgo.InteractionCreate, action string, err error) {
	if !isExpected(err) {
		b.logger.Error(action+" failed",
			zap.String("guild_id", interaction.GuildID),
			zap.String("user_id", userID(interaction)),
			zap.Error(err))
	}
	b.respond(interaction, userMessage(err), true)
}

func userID(interaction *discordgo.InteractionCreate) string {
	if interaction.Member != nil && interaction.Member.User != nil {
		return interaction.Member.User.ID
	}
	if interaction.User != nil {
		return interaction.User.ID
	}
	return ""
}

func canManageGuild(interaction *discordgo.InteractionCreate) bool {
	if interaction.Member == nil {
		return false
	}
	perms := interaction.Member.Permissions
	return perms&discordgo.PermissionAdministrator != 0 || perms&discordgo.PermissionManageServer != 0
}

var errManageGuild = errors.New("bot: manage guild permission required")
