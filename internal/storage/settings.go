package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"truthordare/internal/question"
	"truthordare/internal/settings"

	"github.com/lib/pq"
	"github.com/samber/lo"
)

var _ settings.Repository = (*Store)(nil)

func (s *Store) FindChannelSettings(ctx context.Context, id string) (settings.ChannelSettings, bool, error) {
	var ratings []string
	err := s.db.QueryRowContext(ctx, `
SELECT disabled_ratings FROM channel_settings WHERE channel_id = $1
`, id).Scan(pq.Array(&ratings))
	if errors.Is(err, sql.ErrNoRows) {
		return settings.ChannelSettings{}, false, nil
	}
	if err != nil {
		return settings.ChannelSettings{}, false, fmt.Errorf("find channel settings: %w", err)
	}

	disabled := question.NewRatingSet()
	for _, value := range ratings {
		// Unknown values from older rows are dropped.
		if r, err := question.ParseRating(value); err == nil {
			disabled = disabled.Union(question.NewRatingSet(r))
		}
	}
	return settings.ChannelSettings{ID: id, DisabledRatings: disabled}, true, nil
}

func (s *Store) UpsertChannelSettings(ctx context.Context, c settings.ChannelSettings) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO channel_settings (channel_id, disabled_ratings)
VALUES ($1,$2)
ON CONFLICT (channel_id) DO UPDATE SET
  disabled_ratings = EXCLUDED.disabled_ratings,
  updated_at       = now()
`, c.ID, pq.Array(c.DisabledRatings.Strings()))
	if err != nil {
		return fmt.Errorf("upsert channel settings %s: %w", c.ID, err)
	}
	return nil
}

func (s *Store) DeleteChannelSettings(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM channel_settings WHERE channel_id = $1`, id); err != nil {
		return fmt.Errorf("delete channel settings %s: %w", id, err)
	}
	return nil
}

func (s *Store) FindGuildSettings(ctx context.Context, id string) (settings.GuildSettings, bool, error) {
	var (
		g        = settings.GuildSettings{ID: id}
		disabled []string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT disabled_questions, disable_globals, disable_buttons, language, show_paranoia_frequency
  FROM guild_settings
 WHERE guild_id = $1
`, id).Scan(pq.Array(&disabled), &g.DisableGlobals, &g.DisableButtons, &g.Language, &g.ShowParanoiaFrequency)
	if errors.Is(err, sql.ErrNoRows) {
		return settings.GuildSettings{}, false, nil
	}
	if err != nil {
		return settings.GuildSettings{}, false, fmt.Errorf("find guild settings: %w", err)
	}
	g.DisabledQuestions = question.NewIDSet(lo.Compact(disabled)...)
	return g, true, nil
}

func (s *Store) UpsertGuildSettings(ctx context.Context, g settings.GuildSettings) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO guild_settings (guild_id, disabled_questions, disable_globals, disable_buttons, language, show_paranoia_frequency)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (guild_id) DO UPDATE SET
  disabled_questions      = EXCLUDED.disabled_questions,
  disable_globals         = EXCLUDED.disable_globals,
  disable_buttons         = EXCLUDED.disable_buttons,
  language                = EXCLUDED.language,
  show_paranoia_frequency = EXCLUDED.show_paranoia_frequency,
  updated_at              = now()
`, g.ID, pq.Array(g.DisabledQuestions.Slice()), g.DisableGlobals, g.DisableButtons, g.Language, g.ShowParanoiaFrequency)
	if err != nil {
		return fmt.Errorf("upsert guild settings %s: %w", g.ID, err)
	}
	return nil
}
