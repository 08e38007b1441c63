package bot

import (
	"truthordare/internal/question"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
)

var manageGuild int64 = discordgo.PermissionManageServer

func ratingOption(required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "rating",
		Description: "PG, PG13 or R",
		Required:    required,
		Choices: lo.Map(question.Ratings, func(r question.Rating, _ int) *discordgo.ApplicationCommandOptionChoice {
			return &discordgo.ApplicationCommandOptionChoice{Name: string(r), Value: string(r)}
		}),
	}
}

func typeOption(required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "type",
		Description: "Question type",
		Required:    required,
		Choices: lo.Map(question.Types, func(t question.Type, _ int) *discordgo.ApplicationCommandOptionChoice {
			return &discordgo.ApplicationCommandOptionChoice{Name: typeLabels[t], Value: string(t)}
		}),
	}
}

func stringOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

func subcommand(name, description string, options ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        name,
		Description: description,
		Options:     options,
	}
}

var questionCommands = map[string]question.Type{
	"truth":    question.TypeTruth,
	"dare":     question.TypeDare,
	"wyr":      question.TypeWYR,
	"nhie":     question.TypeNHIE,
	"paranoia": question.TypeParanoia,
	"random":   "",
}

func commandDefinitions() []*discordgo.ApplicationCommand {
	guildOnly := false
	return []*discordgo.ApplicationCommand{
		{Name: "truth", Description: "Get a truth question", Options: []*discordgo.ApplicationCommandOption{ratingOption(false)}},
		{Name: "dare", Description: "Get a dare", Options: []*discordgo.ApplicationCommandOption{ratingOption(false)}},
		{Name: "wyr", Description: "Get a would you rather question", Options: []*discordgo.ApplicationCommandOption{ratingOption(false)}},
		{Name: "nhie", Description: "Get a never have I ever question", Options: []*discordgo.ApplicationCommandOption{ratingOption(false)}},
		{Name: "random", Description: "Get a question of any type", Options: []*discordgo.ApplicationCommandOption{ratingOption(false)}},
		{
			Name:        "paranoia",
			Description: "Send someone a paranoia question by DM, or get one here",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "target", Description: "Who receives the question"},
				ratingOption(false),
			},
		},
		{
			Name:        "answer",
			Description: "Answer your current paranoia question",
			Options:     []*discordgo.ApplicationCommandOption{stringOption("text", "Your answer", true)},
		},
		{Name: "skip", Description: "Skip your current paranoia question"},
		{
			Name:                     "settings",
			Description:              "View or change the game settings",
			DefaultMemberPermissions: &manageGuild,
			DMPermission:             &guildOnly,
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("view", "Show the settings for this channel and server"),
				subcommand("disable-rating", "Stop a rating in this channel", ratingOption(true)),
				subcommand("enable-rating", "Allow a rating in this channel", ratingOption(true)),
				subcommand("disable-globals", "Use only this server's custom questions", &discordgo.ApplicationCommandOption{
					Type: discordgo.ApplicationCommandOptionBoolean, Name: "value", Description: "true to disable global questions", Required: true,
				}),
				subcommand("toggle-buttons", "Show or hide the buttons under questions"),
				subcommand("language", "Set the server language", stringOption("code", "Language tag such as en or pt-BR, empty to reset", false)),
				subcommand("paranoia-frequency", "How often a paranoia answer shows its question", &discordgo.ApplicationCommandOption{
					Type: discordgo.ApplicationCommandOptionInteger, Name: "percent", Description: "0 to 100", Required: true,
					MinValue: lo.ToPtr(0.0), MaxValue: 100,
				}),
				subcommand("disable-question", "Never show a question on this server", stringOption("id", "Question id", true)),
				subcommand("enable-question", "Show a disabled question again", stringOption("id", "Question id", true)),
			},
		},
		{
			Name:                     "questions",
			Description:              "Manage this server's custom questions",
			DefaultMemberPermissions: &manageGuild,
			DMPermission:             &guildOnly,
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("add", "Add a custom question", typeOption(true), ratingOption(true), stringOption("text", "Question text", true)),
				subcommand("edit", "Edit a custom question", stringOption("id", "Question id", true), typeOption(false), ratingOption(false), stringOption("text", "New text", false)),
				subcommand("delete", "Delete a custom question", stringOption("id", "Question id", true)),
				subcommand("list", "List custom questions", typeOption(false), ratingOption(false)),
			},
		},
	}
}

func (b *Bot) registerCommands() error {
	appID := b.session.State.User.ID
	_, err := b.session.ApplicationCommandBulkOverwrite(appID, b.cfg.DevGuildID, commandDefinitions())
	return err
}
