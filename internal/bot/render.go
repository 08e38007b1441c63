package bot

import (
	"errors"
	"fmt"
	"strings"

	"truthordare/internal/game"
	"truthordare/internal/paranoia"
	"truthordare/internal/question"
	"truthordare/internal/settings"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
)

const nextPrefix = "next"

var typeLabels = map[question.Type]string{
	question.TypeTruth:    "Truth",
	question.TypeDare:     "Dare",
	question.TypeWYR:      "Would You Rather",
	question.TypeNHIE:     "Never Have I Ever",
	question.TypeParanoia: "Paranoia",
}

func noMentions() *discordgo.MessageAllowedMentions {
	return &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{}}
}

func questionContent(q question.Question, requesterID string) string {
	var b strings.Builder
	if requesterID != "" {
		fmt.Fprintf(&b, "<@%s> asked for a %s\n", requesterID, strings.ToLower(typeLabels[q.Type]))
	}
	fmt.Fprintf(&b, "**%s**\n", q.Text)
	fmt.Fprintf(&b, "%s · %s · `%s`", typeLabels[q.Type], q.Rating, q.ID)
	return b.String()
}

func nextButtonID(typ question.Type, rating question.Rating) string {
	return nextPrefix + ":" + string(typ) + ":" + string(rating)
}

func parseNextButtonID(id string) (question.Type, question.Rating, bool) {
	parts := strings.Split(id, ":")
	if len(parts) != 3 || parts[0] != nextPrefix {
		return "", "", false
	}
	typ, rating := question.Type(parts[1]), question.Rating(parts[2])
	if typ != "" && !typ.Valid() {
		return "", "", false
	}
	if rating != "" && !rating.Valid() {
		return "", "", false
	}
	return typ, rating, true
}

func nextButtons(typ question.Type, rating question.Rating) []discordgo.MessageComponent {
	var buttons []discordgo.MessageComponent
	switch typ {
	case question.TypeTruth, question.TypeDare:
		buttons = []discordgo.MessageComponent{
			discordgo.Button{Label: "Truth", Style: discordgo.SuccessButton, CustomID: nextButtonID(question.TypeTruth, rating)},
			discordgo.Button{Label: "Dare", Style: discordgo.DangerButton, CustomID: nextButtonID(question.TypeDare, rating)},
			discordgo.Button{Label: "Random", Style: discordgo.PrimaryButton, CustomID: nextButtonID("", rating)},
		}
	case "":
		buttons = []discordgo.MessageComponent{
			discordgo.Button{Label: "Random", Style: discordgo.PrimaryButton, CustomID: nextButtonID("", rating)},
		}
	default:
		buttons = []discordgo.MessageComponent{
			discordgo.Button{Label: "Next", Style: discordgo.PrimaryButton, CustomID: nextButtonID(typ, rating)},
		}
	}
	return []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}}
}

func settingsContent(channel settings.ChannelSettings, guild settings.GuildSettings, premium bool) string {
	disabled := "none"
	if channel.DisabledRatings.Len() > 0 {
		disabled = strings.Join(channel.DisabledRatings.Strings(), ", ")
	}
	language := guild.Language
	if language == "" {
		language = "server default"
	}
	lines := []string{
		"**Channel**",
		"Disabled ratings: " + disabled,
		"**Server**",
		fmt.Sprintf("Buttons: %s", onOff(!guild.DisableButtons)),
		"Language: " + language,
		fmt.Sprintf("Global questions: %s", onOff(!guild.DisableGlobals)),
		fmt.Sprintf("Disabled questions: %d", guild.DisabledQuestions.Len()),
		fmt.Sprintf("Paranoia reveal frequency: %d%%", guild.ShowParanoiaFrequency),
	}
	if !premium {
		lines = append(lines, "_Premium settings show their defaults on this server._")
	}
	return strings.Join(lines, "\n")
}

func customListContent(questions []question.Question) string {
	if len(questions) == 0 {
		return "This server has no custom questions."
	}
	const limit = 25
	lines := lo.Map(lo.Slice(questions, 0, limit), func(q question.Question, _ int) string {
		return fmt.Sprintf("`%s` %s/%s %s", q.ID, q.Type, q.Rating, q.Text)
	})
	if len(questions) > limit {
		lines = append(lines, fmt.Sprintf("…and %d more", len(questions)-limit))
	}
	return strings.Join(lines, "\n")
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func isExpected(err error) bool {
	var verr *question.ValidationError
	return errors.Is(err, question.ErrNotReady) ||
		errors.Is(err, question.ErrNoneEligible) ||
		errors.Is(err, question.ErrNotFound) ||
		errors.Is(err, game.ErrPremiumRequired) ||
		errors.Is(err, paranoia.ErrGuildPending) ||
		errors.Is(err, paranoia.ErrNoLiveQuestion) ||
		errors.Is(err, errManageGuild) ||
		errors.As(err, &verr) ||
		paranoia.IsDeliveryError(err)
}

// userMessage maps an error to the fixed text shown to users. Storage and
// transport errors never reach the user verbatim.
func userMessage(err error) string {
	var verr *question.ValidationError
	switch {
	case errors.Is(err, question.ErrNotReady):
		return "Questions are still loading, try again in a moment."
	case errors.Is(err, question.ErrNoneEligible):
		return "No question available with the current settings."
	case errors.Is(err, question.ErrNotFound):
		return "Question not found."
	case errors.Is(err, game.ErrPremiumRequired):
		return "This needs premium on this server."
	case errors.Is(err, paranoia.ErrGuildPending):
		return "That user still has an unanswered paranoia question from this server."
	case errors.Is(err, paranoia.ErrNoLiveQuestion):
		return "You have no paranoia question waiting for an answer."
	case errors.Is(err, errManageGuild):
		return "You need the Manage Server permission for this."
	case errors.As(err, &verr):
		return fmt.Sprintf("Invalid %s: %s.", verr.Field, verr.Reason)
	case paranoia.IsDeliveryError(err):
		return "Could not deliver the message. Nothing was lost; it will be sent once delivery works again."
	default:
		return "Something went wrong, try again later."
	}
}
