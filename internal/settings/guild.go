package settings

import (
	"fmt"

	"truthordare/internal/question"

	"golang.org/x/text/language"
)

const DefaultParanoiaFrequency = 100

type GuildSettings struct {
	ID                    string
	DisabledQuestions     question.IDSet
	DisableGlobals        bool
	DisableButtons        bool
	Language              string
	ShowParanoiaFrequency int
}

func DefaultGuild(id string) GuildSettings {
	return GuildSettings{
		ID:                    id,
		DisabledQuestions:     question.NewIDSet(),
		ShowParanoiaFrequency: DefaultParanoiaFrequency,
	}
}

func (g GuildSettings) Clone() GuildSettings {
	g.DisabledQuestions = g.DisabledQuestions.Clone()
	return g
}

// Effective is the view selection should use. Guilds without premium get the
// defaults with only the button and language choices carried over.
func (g GuildSettings) Effective(premium bool) GuildSettings {
	if premium {
		return g.Clone()
	}
	out := DefaultGuild(g.ID)
	out.DisableButtons = g.DisableButtons
	out.Language = g.Language
	return out
}

type GuildPatch struct {
	DisabledQuestions     *question.IDSet
	DisableGlobals        *bool
	DisableButtons        *bool
	Language              *string
	ShowParanoiaFrequency *int
}

func (p GuildPatch) Empty() bool {
	return p.DisabledQuestions == nil && p.DisableGlobals == nil && p.DisableButtons == nil &&
		p.Language == nil && p.ShowParanoiaFrequency == nil
}

func (p GuildPatch) PremiumOnly() bool {
	return p.DisabledQuestions != nil || p.DisableGlobals != nil || p.ShowParanoiaFrequency != nil
}

func (p GuildPatch) apply(current GuildSettings) (GuildSettings, error) {
	next := current.Clone()
	if p.DisabledQuestions != nil {
		next.DisabledQuestions = p.DisabledQuestions.Clone()
	}
	if p.DisableGlobals != nil {
		next.DisableGlobals = *p.DisableGlobals
	}
	if p.DisableButtons != nil {
		next.DisableButtons = *p.DisableButtons
	}
	if p.Language != nil {
		tag, err := NormalizeLanguage(*p.Language)
		if err != nil {
			return GuildSettings{}, err
		}
		next.Language = tag
	}
	if p.ShowParanoiaFrequency != nil {
		freq := *p.ShowParanoiaFrequency
		if freq < 0 || freq > 100 {
			return GuildSettings{}, &question.ValidationError{Field: "paranoia_frequency", Reason: "must be between 0 and 100"}
		}
		next.ShowParanoiaFrequency = freq
	}
	return next, nil
}

func NormalizeLanguage(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	tag, err := language.Parse(value)
	if err != nil {
		return "", &question.ValidationError{Field: "language", Reason: fmt.Sprintf("unknown language %q", value)}
	}
	return tag.String(), nil
}
