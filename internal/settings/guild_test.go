package settings

import (
	"testing"

	"truthordare/internal/question"
)

func TestEffectiveForNonPremium(t *testing.T) {
	stored := GuildSettings{
		ID:                    "g1",
		DisabledQuestions:     question.NewIDSet("q1"),
		DisableGlobals:        true,
		DisableButtons:        true,
		Language:              "de",
		ShowParanoiaFrequency: 10,
	}

	got := stored.Effective(false)
	if got.DisableGlobals || got.DisabledQuestions.Len() != 0 || got.ShowParanoiaFrequency != DefaultParanoiaFrequency {
		t.Fatalf("expected premium fields reset to defaults, got %+v", got)
	}
	if !got.DisableButtons || got.Language != "de" {
		t.Fatalf("expected buttons and language carried over, got %+v", got)
	}

	full := stored.Effective(true)
	if !full.DisableGlobals || !full.DisabledQuestions.Has("q1") {
		t.Fatalf("expected premium guild to see stored settings, got %+v", full)
	}
	if stored.DisabledQuestions.Len() != 1 {
		t.Fatalf("effective view must not alter stored value")
	}
}

func TestNormalizeLanguage(t *testing.T) {
	cases := map[string]string{"": "", "en": "en", "pt-br": "pt-BR", "es-419": "es-419"}
	for in, want := range cases {
		got, err := NormalizeLanguage(in)
		if err != nil {
			t.Fatalf("normalize %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("normalize %q: expected %q, got %q", in, want, got)
		}
	}
	if _, err := NormalizeLanguage("??"); err == nil {
		t.Fatalf("expected error for malformed tag")
	}
}

func TestGuildPatchPremiumOnly(t *testing.T) {
	buttons := true
	if (GuildPatch{DisableButtons: &buttons}).PremiumOnly() {
		t.Fatalf("buttons are available to every guild")
	}
	freq := 50
	if !(GuildPatch{ShowParanoiaFrequency: &freq}).PremiumOnly() {
		t.Fatalf("paranoia frequency is premium only")
	}
	if !(GuildPatch{}).Empty() {
		t.Fatalf("zero patch should be empty")
	}
}
