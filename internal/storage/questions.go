package storage

import (
	"context"
	"fmt"

	"truthordare/internal/question"
)

var _ question.Repository = (*Store)(nil)

func (s *Store) FindQuestionsPage(ctx context.Context, offset, limit int) ([]question.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, type, rating, text, guild_id, created_at
  FROM questions
 ORDER BY id
OFFSET $1 LIMIT $2
`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []question.Question
	for rows.Next() {
		var q question.Question
		if err := rows.Scan(&q.ID, &q.Type, &q.Rating, &q.Text, &q.GuildID, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) CountQuestions(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM questions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}

func (s *Store) UpsertQuestion(ctx context.Context, q question.Question) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO questions (id, type, rating, text, guild_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
  type   = EXCLUDED.type,
  rating = EXCLUDED.rating,
  text   = EXCLUDED.text
`, q.ID, string(q.Type), string(q.Rating), q.Text, q.GuildID, q.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert question %s: %w", q.ID, err)
	}
	return nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete question %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
