package storage

import (
	"context"
	"database/sql"
	"fmt"

	"truthordare/internal/paranoia"
)

var _ paranoia.Repository = (*Store)(nil)

func (s *Store) CreateParanoiaEntry(ctx context.Context, e paranoia.Entry) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO paranoia_entries (id, user_id, guild_id, channel_id, question_id, question_text, question_rating, dm_message_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, e.ID, e.UserID, e.GuildID, e.ChannelID, e.QuestionID, e.QuestionText, string(e.QuestionRating),
		sql.NullString{String: e.DMMessageID, Valid: e.DMMessageID != ""}, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("create paranoia entry: %w", err)
	}
	return nil
}

func (s *Store) DeleteParanoiaEntry(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM paranoia_entries WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete paranoia entry %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *Store) FindParanoiaEntriesByUser(ctx context.Context, userID string) ([]paranoia.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, guild_id, channel_id, question_id, question_text, question_rating, dm_message_id, created_at
  FROM paranoia_entries
 WHERE user_id = $1
 ORDER BY created_at, id
`, userID)
	if err != nil {
		return nil, fmt.Errorf("query paranoia entries: %w", err)
	}
	defer rows.Close()

	var out []paranoia.Entry
	for rows.Next() {
		var (
			e  paranoia.Entry
			dm sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.GuildID, &e.ChannelID, &e.QuestionID, &e.QuestionText, &e.QuestionRating, &dm, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan paranoia entry: %w", err)
		}
		e.DMMessageID = dm.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) SetParanoiaMessageID(ctx context.Context, id, messageID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE paranoia_entries SET dm_message_id = $2 WHERE id = $1`, id, messageID)
	if err != nil {
		return fmt.Errorf("set paranoia message id %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("paranoia entry %s: %w", id, ErrNotFound)
	}
	return nil
}
