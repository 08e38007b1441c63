package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"truthordare/internal/game"
	"truthordare/internal/paranoia"
	"truthordare/internal/question"
	"truthordare/internal/settings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type options map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) options {
	out := make(options, len(opts))
	for _, opt := range opts {
		out[opt.Name] = opt
	}
	return out
}

func (o options) str(name string) (string, bool) {
	opt, ok := o[name]
	if !ok {
		return "", false
	}
	return strings.TrimSpace(opt.StringValue()), true
}

func (o options) rating(name string) (question.Rating, error) {
	value, ok := o.str(name)
	if !ok || value == "" {
		return "", nil
	}
	return question.ParseRating(value)
}

func (o options) questionType(name string) (question.Type, error) {
	value, ok := o.str(name)
	if !ok || value == "" {
		return "", nil
	}
	return question.ParseType(value)
}

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	ctx := context.Background()
	switch interaction.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(ctx, interaction)
	case discordgo.InteractionMessageComponent:
		b.handleButton(ctx, interaction)
	}
}

func (b *Bot) handleCommand(ctx context.Context, interaction *discordgo.InteractionCreate) {
	data := interaction.ApplicationCommandData()
	opts := optionMap(data.Options)

	if typ, ok := questionCommands[data.Name]; ok {
		if data.Name == "paranoia" {
			if target, ok := opts["target"]; ok && interaction.GuildID != "" {
				b.handleParanoiaSubmit(ctx, interaction, target.UserValue(nil).ID, opts)
				return
			}
		}
		rating, err := opts.rating("rating")
		if err != nil {
			b.respondError(interaction, "parse rating", err)
			return
		}
		b.sendQuestion(ctx, interaction, typ, rating)
		return
	}

	switch data.Name {
	case "answer":
		text, _ := opts.str("text")
		result, err := b.game.AnswerParanoia(ctx, userID(interaction), text)
		if err != nil {
			b.closeFailed(ctx, interaction, "answer paranoia", err)
			return
		}
		b.respond(interaction, closedContent("Your answer was posted.", result), true)
	case "skip":
		result, err := b.game.SkipParanoia(ctx, userID(interaction))
		if err != nil {
			b.closeFailed(ctx, interaction, "skip paranoia", err)
			return
		}
		b.respond(interaction, closedContent("Question skipped.", result), true)
	case "settings":
		b.handleSettings(ctx, interaction, data.Options)
	case "questions":
		b.handleQuestions(ctx, interaction, data.Options)
	}
}

// closeFailed handles a failed answer or skip. With nothing live, a question
// left queued by an earlier failed DM is sent now.
func (b *Bot) closeFailed(ctx context.Context, interaction *discordgo.InteractionCreate, action string, err error) {
	if !errors.Is(err, paranoia.ErrNoLiveQuestion) {
		b.respondError(interaction, action, err)
		return
	}
	_, sent, nextErr := b.game.NextQueuedParanoia(ctx, userID(interaction))
	switch {
	case nextErr != nil:
		b.respondError(interaction, "deliver queued paranoia", nextErr)
	case sent:
		b.respond(interaction, "You had a paranoia question waiting. It is now in your DMs.", true)
	default:
		b.respondError(interaction, action, err)
	}
}

func closedContent(lead string, result paranoia.CloseResult) string {
	switch {
	case result.Next != nil:
		return lead + " Your next paranoia question is in your DMs."
	case result.NextErr != nil:
		return lead + " Another question is waiting but could not be sent to your DMs."
	default:
		return lead
	}
}

func (b *Bot) handleButton(ctx context.Context, interaction *discordgo.InteractionCreate) {
	typ, rating, ok := parseNextButtonID(interaction.MessageComponentData().CustomID)
	if !ok {
		return
	}
	b.sendQuestion(ctx, interaction, typ, rating)
}

func (b *Bot) sendQuestion(ctx context.Context, interaction *discordgo.InteractionCreate, typ question.Type, rating question.Rating) {
	requester := userID(interaction)
	if !b.cooldown.Allow(requester, b.now()) {
		b.respond(interaction, "Slow down a little and try again in a few seconds.", true)
		return
	}

	q, err := b.game.SelectQuestion(ctx, game.Request{
		GuildID:   interaction.GuildID,
		ChannelID: interaction.ChannelID,
		Type:      typ,
		Rating:    rating,
	})
	if err != nil {
		b.respondError(interaction, "select question", err)
		return
	}

	data := &discordgo.InteractionResponseData{Content: questionContent(q, requester)}
	if b.buttonsEnabled(ctx, interaction.GuildID) {
		data.Components = nextButtons(typ, rating)
	}
	b.respondWith(interaction, data, false)
}

func (b *Bot) buttonsEnabled(ctx context.Context, guildID string) bool {
	if guildID == "" {
		return true
	}
	guild, err := b.game.GuildSettings(ctx, guildID)
	if err != nil {
		b.logger.Warn("guild settings lookup failed", zap.String("guild_id", guildID), zap.Error(err))
		return true
	}
	return !guild.DisableButtons
}

func (b *Bot) handleParanoiaSubmit(ctx context.Context, interaction *discordgo.InteractionCreate, targetID string, opts options) {
	if !b.cooldown.Allow(userID(interaction), b.now()) {
		b.respond(interaction, "Slow down a little and try again in a few seconds.", true)
		return
	}
	rating, err := opts.rating("rating")
	if err != nil {
		b.respondError(interaction, "parse rating", err)
		return
	}

	_, result, err := b.game.SubmitParanoia(ctx, game.ParanoiaRequest{
		GuildID:   interaction.GuildID,
		ChannelID: interaction.ChannelID,
		TargetID:  targetID,
		Rating:    rating,
	})
	switch {
	case paranoia.IsDeliveryError(err):
		b.respond(interaction, fmt.Sprintf("Could not DM <@%s>. The question is queued and will be sent once they accept DMs.", targetID), true)
	case err != nil:
		b.respondError(interaction, "submit paranoia", err)
	case result.Delivered:
		b.respond(interaction, fmt.Sprintf("Paranoia question sent to <@%s>.", targetID), false)
	default:
		b.respond(interaction, fmt.Sprintf("<@%s> is answering another question; yours is queued.", targetID), false)
	}
}

func (b *Bot) handleSettings(ctx context.Context, interaction *discordgo.InteractionCreate, raw []*discordgo.ApplicationCommandInteractionDataOption) {
	if interaction.GuildID == "" || !canManageGuild(interaction) {
		b.respondError(interaction, "settings", errManageGuild)
		return
	}
	if len(raw) == 0 {
		return
	}
	sub := raw[0]
	opts := optionMap(sub.Options)
	guildID, channelID := interaction.GuildID, interaction.ChannelID

	var err error
	switch sub.Name {
	case "view":
		err = b.showSettings(ctx, interaction)
		if err == nil {
			return
		}
	case "disable-rating", "enable-rating":
		var rating question.Rating
		if rating, err = opts.rating("rating"); err == nil {
			if sub.Name == "disable-rating" {
				_, err = b.game.DisableRating(ctx, channelID, rating)
			} else {
				_, err = b.game.EnableRating(ctx, channelID, rating)
			}
		}
	case "disable-globals":
		value := opts["value"].BoolValue()
		_, err = b.game.UpdateGuildSettings(ctx, guildID, settings.GuildPatch{DisableGlobals: &value})
	case "toggle-buttons":
		var current settings.GuildSettings
		if current, err = b.game.GuildSettings(ctx, guildID); err == nil {
			next := !current.DisableButtons
			_, err = b.game.UpdateGuildSettings(ctx, guildID, settings.GuildPatch{DisableButtons: &next})
		}
	case "language":
		code, _ := opts.str("code")
		_, err = b.game.UpdateGuildSettings(ctx, guildID, settings.GuildPatch{Language: &code})
	case "paranoia-frequency":
		percent := int(opts["percent"].IntValue())
		_, err = b.game.UpdateGuildSettings(ctx, guildID, settings.GuildPatch{ShowParanoiaFrequency: &percent})
	case "disable-question":
		id, _ := opts.str("id")
		_, err = b.game.DisableQuestion(ctx, guildID, id)
	case "enable-question":
		id, _ := opts.str("id")
		_, err = b.game.EnableQuestion(ctx, guildID, id)
	default:
		return
	}
	if err != nil {
		b.respondError(interaction, "settings "+sub.Name, err)
		return
	}
	b.respond(interaction, "Settings updated.", true)
}

func (b *Bot) showSettings(ctx context.Context, interaction *discordgo.InteractionCreate) error {
	channel, err := b.game.ChannelSettings(ctx, interaction.ChannelID)
	if err != nil {
		return err
	}
	guild, err := b.game.GuildSettings(ctx, interaction.GuildID)
	if err != nil {
		return err
	}
	b.respond(interaction, settingsContent(channel, guild, b.game.IsPremium(interaction.GuildID)), true)
	return nil
}

func (b *Bot) handleQuestions(ctx context.Context, interaction *discordgo.InteractionCreate, raw []*discordgo.ApplicationCommandInteractionDataOption) {
	if interaction.GuildID == "" || !canManageGuild(interaction) {
		b.respondError(interaction, "questions", errManageGuild)
		return
	}
	if len(raw) == 0 {
		return
	}
	sub := raw[0]
	opts := optionMap(sub.Options)
	guildID := interaction.GuildID

	typ, err := opts.questionType("type")
	if err != nil {
		b.respondError(interaction, "parse type", err)
		return
	}
	rating, err := opts.rating("rating")
	if err != nil {
		b.respondError(interaction, "parse rating", err)
		return
	}
	id, _ := opts.str("id")

	switch sub.Name {
	case "add":
		text, _ := opts.str("text")
		created, err := b.game.AddCustomQuestion(ctx, guildID, question.Draft{Type: typ, Rating: rating, Text: text})
		if err != nil {
			b.respondError(interaction, "add question", err)
			return
		}
		b.respond(interaction, fmt.Sprintf("Added question `%s`.", created.ID), true)
	case "edit":
		var patch question.Patch
		if typ != "" {
			patch.Type = &typ
		}
		if rating != "" {
			patch.Rating = &rating
		}
		if text, ok := opts.str("text"); ok {
			patch.Text = &text
		}
		if _, err := b.game.EditCustomQuestion(ctx, guildID, id, patch); err != nil {
			b.respondError(interaction, "edit question", err)
			return
		}
		b.respond(interaction, fmt.Sprintf("Updated question `%s`.", id), true)
	case "delete":
		if _, err := b.game.DeleteCustomQuestion(ctx, guildID, id); err != nil {
			b.respondError(interaction, "delete question", err)
			return
		}
		b.respond(interaction, fmt.Sprintf("Deleted question `%s`.", id), true)
	case "list":
		list := b.game.ListCustomQuestions(guildID, question.Filter{Type: typ, Rating: rating})
		b.respond(interaction, customListContent(list), true)
	}
}
