package paranoia

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"truthordare/internal/question"

	"go.uber.org/zap"
)

const MaxAnswerLength = 1000

type SubmitRequest struct {
	TargetID  string
	GuildID   string
	ChannelID string
	Question  question.Question
}

type SubmitResult struct {
	Entry     Entry
	Delivered bool
}

type CloseResult struct {
	Closed   Entry
	Revealed bool
	Next     *Entry
	NextErr  error
}

type RevealPolicy interface {
	RevealFrequency(ctx context.Context, guildID string) (int, error)
}

type Service struct {
	queue     *Queue
	messenger Messenger
	logger    *zap.Logger
	rng       question.Rand
	policy    RevealPolicy
}

func NewService(queue *Queue, messenger Messenger, logger *zap.Logger) *Service {
	return &Service{queue: queue, messenger: messenger, logger: logger, rng: question.DefaultRand()}
}

func (s *Service) WithRand(rng question.Rand) {
	s.rng = rng
}

func (s *Service) WithRevealPolicy(policy RevealPolicy) {
	s.policy = policy
}

func (s *Service) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	var result SubmitResult
	err := s.queue.WithUser(ctx, req.TargetID, func(ctx context.Context) error {
		status, err := s.queue.CheckStatus(ctx, req.TargetID, req.GuildID)
		if err != nil {
			return err
		}
		if !status.GuildOpen {
			return ErrGuildPending
		}

		entry, err := s.queue.Enqueue(ctx, Entry{
			UserID:         req.TargetID,
			GuildID:        req.GuildID,
			ChannelID:      req.ChannelID,
			QuestionID:     req.Question.ID,
			QuestionText:   req.Question.Text,
			QuestionRating: req.Question.Rating,
		})
		if err != nil {
			return err
		}
		result.Entry = entry
		if !status.QueueEmpty {
			return nil
		}

		live, err := s.deliver(ctx, entry)
		if err != nil {
			return err
		}
		result.Entry = live
		result.Delivered = true
		return nil
	})
	return result, err
}

func (s *Service) Answer(ctx context.Context, userID, answer string) (CloseResult, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return CloseResult{}, &question.ValidationError{Field: "answer", Reason: "is required"}
	}
	if utf8.RuneCountInString(answer) > MaxAnswerLength {
		return CloseResult{}, &question.ValidationError{Field: "answer", Reason: "is too long"}
	}

	var result CloseResult
	err := s.queue.WithUser(ctx, userID, func(ctx context.Context) error {
		live, ok, err := s.queue.Live(ctx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNoLiveQuestion
		}

		// Removed before posting so a retry never posts the answer twice.
		if _, err := s.queue.Remove(ctx, live.ID); err != nil {
			return err
		}
		reveal := s.shouldRevealFor(ctx, live)
		if _, err := s.messenger.SendChannelMessage(ctx, live.ChannelID, answerMessage(live, answer, reveal)); err != nil {
			if rerr := s.queue.Restore(ctx, live); rerr != nil {
				s.logger.Error("paranoia entry lost after failed answer post",
					zap.String("entry_id", live.ID), zap.Error(rerr))
			}
			return &DeliveryError{UserID: userID, GuildID: live.GuildID, Err: err}
		}
		result.Revealed = reveal
		return s.close(ctx, live, "Answered", &result)
	})
	return result, err
}

func (s *Service) Skip(ctx context.Context, userID string) (CloseResult, error) {
	var result CloseResult
	err := s.queue.WithUser(ctx, userID, func(ctx context.Context) error {
		live, ok, err := s.queue.Live(ctx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNoLiveQuestion
		}
		if _, err := s.queue.Remove(ctx, live.ID); err != nil {
			return err
		}
		return s.close(ctx, live, "Skipped", &result)
	})
	return result, err
}

// DeliverNext sends the oldest queued entry if nothing is live. It reports
// false when there was nothing to send.
func (s *Service) DeliverNext(ctx context.Context, userID string) (Entry, bool, error) {
	var (
		delivered Entry
		sent      bool
	)
	err := s.queue.WithUser(ctx, userID, func(ctx context.Context) error {
		var err error
		delivered, sent, err = s.deliverNextLocked(ctx, userID)
		return err
	})
	return delivered, sent, err
}

func ShouldReveal(frequency int, rng question.Rand) bool {
	switch {
	case frequency >= 100:
		return true
	case frequency <= 0:
		return false
	default:
		return rng.IntN(100) < frequency
	}
}

func (s *Service) shouldRevealFor(ctx context.Context, e Entry) bool {
	if s.policy == nil {
		return ShouldReveal(100, s.rng)
	}
	frequency, err := s.policy.RevealFrequency(ctx, e.GuildID)
	if err != nil {
		s.logger.Warn("reveal frequency lookup failed", zap.String("guild_id", e.GuildID), zap.Error(err))
		frequency = 100
	}
	return ShouldReveal(frequency, s.rng)
}

func (s *Service) close(ctx context.Context, live Entry, outcome string, result *CloseResult) error {
	result.Closed = live
	s.editPrompt(ctx, live, outcome)

	next, sent, err := s.deliverNextLocked(ctx, live.UserID)
	if err != nil {
		// The close itself succeeded; the follow-up stays queued.
		result.NextErr = err
		s.logger.Warn("deliver next paranoia question", zap.String("user_id", live.UserID), zap.Error(err))
		return nil
	}
	if sent {
		result.Next = &next
	}
	return nil
}

func (s *Service) deliverNextLocked(ctx context.Context, userID string) (Entry, bool, error) {
	if _, live, err := s.queue.Live(ctx, userID); err != nil || live {
		return Entry{}, false, err
	}
	next, ok, err := s.queue.NextQueued(ctx, userID)
	if err != nil || !ok {
		return Entry{}, false, err
	}
	delivered, err := s.deliver(ctx, next)
	if err != nil {
		return Entry{}, false, err
	}
	return delivered, true, nil
}

func (s *Service) deliver(ctx context.Context, e Entry) (Entry, error) {
	messageID, err := s.messenger.SendDirectMessage(ctx, e.UserID, promptMessage(e))
	if err != nil {
		return e, &DeliveryError{UserID: e.UserID, GuildID: e.GuildID, Err: err}
	}
	if err := s.queue.MarkLive(ctx, e.ID, messageID); err != nil {
		s.logger.Error("paranoia dm sent but not recorded",
			zap.String("entry_id", e.ID), zap.String("message_id", messageID), zap.Error(err))
		// The entry stays queued and will be sent again.
		e.DMMessageID = messageID
		s.editPrompt(ctx, e, "This question will be sent again shortly.")
		return Entry{}, err
	}
	e.DMMessageID = messageID
	return e, nil
}

func (s *Service) editPrompt(ctx context.Context, e Entry, outcome string) {
	channelID, err := s.messenger.DirectChannel(ctx, e.UserID)
	if err == nil {
		err = s.messenger.EditMessage(ctx, channelID, e.DMMessageID, closedMessage(e, outcome))
	}
	if err != nil {
		s.logger.Debug("edit paranoia prompt", zap.String("entry_id", e.ID), zap.Error(err))
	}
}

func IsDeliveryError(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de)
}
