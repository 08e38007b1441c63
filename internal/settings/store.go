package settings

import (
	"context"
	"fmt"
	"time"

	"truthordare/internal/question"
	"truthordare/internal/utils"

	"go.uber.org/zap"
)

const DefaultSweepInterval = 6 * time.Hour

type Repository interface {
	FindChannelSettings(ctx context.Context, id string) (ChannelSettings, bool, error)
	UpsertChannelSettings(ctx context.Context, settings ChannelSettings) error
	DeleteChannelSettings(ctx context.Context, id string) error
	FindGuildSettings(ctx context.Context, id string) (GuildSettings, bool, error)
	UpsertGuildSettings(ctx context.Context, settings GuildSettings) error
}

type Store struct {
	repo     Repository
	logger   *zap.Logger
	channels *Cache[ChannelSettings]
	guilds   *Cache[GuildSettings]
	locks    *utils.KeyedMutex
	interval time.Duration
}

func NewStore(repo Repository, logger *zap.Logger) *Store {
	return &Store{
		repo:     repo,
		logger:   logger,
		channels: NewCache[ChannelSettings](),
		guilds:   NewCache[GuildSettings](),
		locks:    utils.NewKeyedMutex(),
		interval: DefaultSweepInterval,
	}
}

func (s *Store) WithSweepInterval(d time.Duration) {
	if d > 0 {
		s.interval = d
	}
}

func (s *Store) FetchChannel(ctx context.Context, id string) (ChannelSettings, error) {
	settings, err := s.channels.Load(id, func() (ChannelSettings, error) {
		found, ok, err := s.repo.FindChannelSettings(ctx, id)
		if err != nil {
			return ChannelSettings{}, fmt.Errorf("find channel settings %s: %w", id, err)
		}
		if !ok {
			return DefaultChannel(id), nil
		}
		found.ID = id
		if found.DisabledRatings == nil {
			found.DisabledRatings = question.NewRatingSet()
		}
		return found, nil
	})
	if err != nil {
		return ChannelSettings{}, err
	}
	return settings.Clone(), nil
}

func (s *Store) UpdateChannel(ctx context.Context, settings ChannelSettings) (ChannelSettings, error) {
	unlock := s.locks.Lock("channel:" + settings.ID)
	defer unlock()
	return s.saveChannel(ctx, settings)
}

func (s *Store) saveChannel(ctx context.Context, settings ChannelSettings) (ChannelSettings, error) {
	settings = settings.Clone()
	if settings.DisabledRatings == nil {
		settings.DisabledRatings = question.NewRatingSet()
	}
	if err := s.repo.UpsertChannelSettings(ctx, settings); err != nil {
		return ChannelSettings{}, fmt.Errorf("save channel settings %s: %w", settings.ID, err)
	}
	s.channels.Set(settings.ID, settings)
	return settings.Clone(), nil
}

func (s *Store) DisableRating(ctx context.Context, channelID string, rating question.Rating) (ChannelSettings, error) {
	return s.editRatings(ctx, channelID, func(set question.RatingSet) question.RatingSet {
		return set.Union(question.NewRatingSet(rating))
	})
}

func (s *Store) EnableRating(ctx context.Context, channelID string, rating question.Rating) (ChannelSettings, error) {
	return s.editRatings(ctx, channelID, func(set question.RatingSet) question.RatingSet {
		return set.Difference(question.NewRatingSet(rating))
	})
}

func (s *Store) editRatings(ctx context.Context, channelID string, edit func(question.RatingSet) question.RatingSet) (ChannelSettings, error) {
	unlock := s.locks.Lock("channel:" + channelID)
	defer unlock()

	current, err := s.FetchChannel(ctx, channelID)
	if err != nil {
		return ChannelSettings{}, err
	}
	current.DisabledRatings = edit(current.DisabledRatings)
	return s.saveChannel(ctx, current)
}

func (s *Store) DeleteChannel(ctx context.Context, id string) error {
	unlock := s.locks.Lock("channel:" + id)
	defer unlock()

	if err := s.repo.DeleteChannelSettings(ctx, id); err != nil {
		return fmt.Errorf("delete channel settings %s: %w", id, err)
	}
	s.channels.Delete(id)
	return nil
}

func (s *Store) FetchGuild(ctx context.Context, id string) (GuildSettings, error) {
	settings, err := s.guilds.Load(id, func() (GuildSettings, error) {
		found, ok, err := s.repo.FindGuildSettings(ctx, id)
		if err != nil {
			return GuildSettings{}, fmt.Errorf("find guild settings %s: %w", id, err)
		}
		if !ok {
			return DefaultGuild(id), nil
		}
		found.ID = id
		if found.DisabledQuestions == nil {
			found.DisabledQuestions = question.NewIDSet()
		}
		return found, nil
	})
	if err != nil {
		return GuildSettings{}, err
	}
	return settings.Clone(), nil
}

func (s *Store) UpdateGuild(ctx context.Context, id string, patch GuildPatch) (GuildSettings, error) {
	unlock := s.locks.Lock("guild:" + id)
	defer unlock()
	return s.patchGuild(ctx, id, func(GuildSettings) GuildPatch { return patch })
}

func (s *Store) DisableQuestions(ctx context.Context, guildID string, ids ...string) (GuildSettings, error) {
	unlock := s.locks.Lock("guild:" + guildID)
	defer unlock()
	return s.patchGuild(ctx, guildID, func(current GuildSettings) GuildPatch {
		next := current.DisabledQuestions.Union(question.NewIDSet(ids...))
		return GuildPatch{DisabledQuestions: &next}
	})
}

func (s *Store) EnableQuestions(ctx context.Context, guildID string, ids ...string) (GuildSettings, error) {
	unlock := s.locks.Lock("guild:" + guildID)
	defer unlock()
	return s.patchGuild(ctx, guildID, func(current GuildSettings) GuildPatch {
		next := current.DisabledQuestions.Difference(question.NewIDSet(ids...))
		return GuildPatch{DisabledQuestions: &next}
	})
}

// patchGuild must be called with the guild lock held.
func (s *Store) patchGuild(ctx context.Context, id string, build func(GuildSettings) GuildPatch) (GuildSettings, error) {
	current, err := s.FetchGuild(ctx, id)
	if err != nil {
		return GuildSettings{}, err
	}
	next, err := build(current).apply(current)
	if err != nil {
		return GuildSettings{}, err
	}
	if err := s.repo.UpsertGuildSettings(ctx, next); err != nil {
		return GuildSettings{}, fmt.Errorf("save guild settings %s: %w", id, err)
	}
	s.guilds.Set(id, next)
	return next.Clone(), nil
}

func (s *Store) Sweep() {
	channels := s.channels.Clear()
	guilds := s.guilds.Clear()
	s.logger.Debug("settings cache swept", zap.Int("channels", channels), zap.Int("guilds", guilds))
}

func (s *Store) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep()
		}
	}
}
