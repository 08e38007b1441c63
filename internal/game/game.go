package game

import (
	"context"
	"errors"

	"truthordare/internal/paranoia"
	"truthordare/internal/question"
	"truthordare/internal/settings"

	"go.uber.org/zap"
)

var ErrPremiumRequired = errors.New("game: premium required")

type Request struct {
	GuildID   string
	ChannelID string
	// Type is empty for a random type.
	Type question.Type
	// Rating narrows the channel's allowed ratings to one when set.
	Rating question.Rating
}

type ParanoiaRequest struct {
	GuildID   string
	ChannelID string
	TargetID  string
	Rating    question.Rating
}

type Service struct {
	questions    *question.Store
	selector     *question.Selector
	settings     *settings.Store
	paranoia     *paranoia.Service
	entitlements Entitlements
	logger       *zap.Logger
}

func NewService(
	questions *question.Store,
	selector *question.Selector,
	settingsStore *settings.Store,
	paranoiaService *paranoia.Service,
	entitlements Entitlements,
	logger *zap.Logger,
) *Service {
	s := &Service{
		questions:    questions,
		selector:     selector,
		settings:     settingsStore,
		paranoia:     paranoiaService,
		entitlements: entitlements,
		logger:       logger,
	}
	paranoiaService.WithRevealPolicy(s)
	return s
}

func (s *Service) IsPremium(guildID string) bool {
	return guildID != "" && s.entitlements.IsPremium(guildID)
}

func (s *Service) SelectQuestion(ctx context.Context, req Request) (question.Question, error) {
	allowed := question.AllRatings()
	if req.ChannelID != "" {
		channel, err := s.settings.FetchChannel(ctx, req.ChannelID)
		if err != nil {
			return question.Question{}, err
		}
		allowed = channel.AllowedRatings()
	}
	if req.Rating != "" {
		allowed = allowed.Intersect(question.NewRatingSet(req.Rating))
	}

	pick := question.Request{Type: req.Type, Ratings: allowed}
	if req.GuildID != "" {
		guild, err := s.GuildSettings(ctx, req.GuildID)
		if err != nil {
			return question.Question{}, err
		}
		pick.GuildID = req.GuildID
		pick.Excluded = guild.DisabledQuestions
		pick.DisableGlobals = guild.DisableGlobals
	}
	return s.selector.Pick(pick)
}

func (s *Service) ChannelSettings(ctx context.Context, channelID string) (settings.ChannelSettings, error) {
	return s.settings.FetchChannel(ctx, channelID)
}

func (s *Service) UpdateChannelSettings(ctx context.Context, channel settings.ChannelSettings) (settings.ChannelSettings, error) {
	return s.settings.UpdateChannel(ctx, channel)
}

func (s *Service) DisableRating(ctx context.Context, channelID string, rating question.Rating) (settings.ChannelSettings, error) {
	return s.settings.DisableRating(ctx, channelID, rating)
}

func (s *Service) EnableRating(ctx context.Context, channelID string, rating question.Rating) (settings.ChannelSettings, error) {
	return s.settings.EnableRating(ctx, channelID, rating)
}

func (s *Service) GuildSettings(ctx context.Context, guildID string) (settings.GuildSettings, error) {
	stored, err := s.settings.FetchGuild(ctx, guildID)
	if err != nil {
		return settings.GuildSettings{}, err
	}
	return stored.Effective(s.IsPremium(guildID)), nil
}

func (s *Service) UpdateGuildSettings(ctx context.Context, guildID string, patch settings.GuildPatch) (settings.GuildSettings, error) {
	premium := s.IsPremium(guildID)
	if patch.PremiumOnly() && !premium {
		return settings.GuildSettings{}, ErrPremiumRequired
	}
	updated, err := s.settings.UpdateGuild(ctx, guildID, patch)
	if err != nil {
		return settings.GuildSettings{}, err
	}
	return updated.Effective(premium), nil
}

func (s *Service) DisableQuestion(ctx context.Context, guildID, questionID string) (settings.GuildSettings, error) {
	if !s.IsPremium(guildID) {
		return settings.GuildSettings{}, ErrPremiumRequired
	}
	if _, ok := s.visibleQuestion(guildID, questionID); !ok {
		return settings.GuildSettings{}, question.ErrNotFound
	}
	return s.settings.DisableQuestions(ctx, guildID, questionID)
}

func (s *Service) EnableQuestion(ctx context.Context, guildID, questionID string) (settings.GuildSettings, error) {
	if !s.IsPremium(guildID) {
		return settings.GuildSettings{}, ErrPremiumRequired
	}
	return s.settings.EnableQuestions(ctx, guildID, questionID)
}

func (s *Service) RevealFrequency(ctx context.Context, guildID string) (int, error) {
	guild, err := s.GuildSettings(ctx, guildID)
	if err != nil {
		return 0, err
	}
	return guild.ShowParanoiaFrequency, nil
}

func (s *Service) SubmitParanoia(ctx context.Context, req ParanoiaRequest) (question.Question, paranoia.SubmitResult, error) {
	q, err := s.SelectQuestion(ctx, Request{
		GuildID:   req.GuildID,
		ChannelID: req.ChannelID,
		Type:      question.TypeParanoia,
		Rating:    req.Rating,
	})
	if err != nil {
		return question.Question{}, paranoia.SubmitResult{}, err
	}
	result, err := s.paranoia.Submit(ctx, paranoia.SubmitRequest{
		TargetID:  req.TargetID,
		GuildID:   req.GuildID,
		ChannelID: req.ChannelID,
		Question:  q,
	})
	if err != nil && !paranoia.IsDeliveryError(err) {
		return q, paranoia.SubmitResult{}, err
	}
	if err != nil {
		s.logger.Info("paranoia question queued after failed dm",
			zap.String("guild_id", req.GuildID), zap.String("target_id", req.TargetID), zap.Error(err))
	}
	return q, result, err
}

func (s *Service) AnswerParanoia(ctx context.Context, userID, answer string) (paranoia.CloseResult, error) {
	return s.paranoia.Answer(ctx, userID, answer)
}

func (s *Service) SkipParanoia(ctx context.Context, userID string) (paranoia.CloseResult, error) {
	return s.paranoia.Skip(ctx, userID)
}

func (s *Service) NextQueuedParanoia(ctx context.Context, userID string) (paranoia.Entry, bool, error) {
	return s.paranoia.DeliverNext(ctx, userID)
}
