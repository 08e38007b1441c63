package game

import (
	"context"

	"truthordare/internal/question"
)

func (s *Service) AddCustomQuestion(ctx context.Context, guildID string, draft question.Draft) (question.Question, error) {
	if !s.IsPremium(guildID) {
		return question.Question{}, ErrPremiumRequired
	}
	draft.GuildID = guildID
	return s.questions.Create(ctx, draft)
}

func (s *Service) EditCustomQuestion(ctx context.Context, guildID, id string, patch question.Patch) (question.Question, error) {
	if !s.IsPremium(guildID) {
		return question.Question{}, ErrPremiumRequired
	}
	if !s.ownsQuestion(guildID, id) {
		return question.Question{}, question.ErrNotFound
	}
	return s.questions.Update(ctx, id, patch)
}

func (s *Service) DeleteCustomQuestion(ctx context.Context, guildID, id string) (question.Question, error) {
	if !s.ownsQuestion(guildID, id) {
		return question.Question{}, question.ErrNotFound
	}
	deleted, ok, err := s.questions.Delete(ctx, id)
	if err != nil {
		return question.Question{}, err
	}
	if !ok {
		return question.Question{}, question.ErrNotFound
	}
	return deleted, nil
}

func (s *Service) ListCustomQuestions(guildID string, filter question.Filter) []question.Question {
	return s.questions.ListCustom(guildID, filter)
}

func (s *Service) ownsQuestion(guildID, id string) bool {
	q, ok := s.questions.GetByID(id)
	return ok && guildID != "" && q.GuildID == guildID
}

func (s *Service) visibleQuestion(guildID, id string) (question.Question, bool) {
	q, ok := s.questions.GetByID(id)
	if !ok || (q.IsCustom() && q.GuildID != guildID) {
		return question.Question{}, false
	}
	return q, true
}
