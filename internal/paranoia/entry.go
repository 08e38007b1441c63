package paranoia

import (
	"errors"
	"fmt"
	"time"

	"truthordare/internal/question"
)

var (
	// ErrGuildPending means the target already has a live question from this guild.
	ErrGuildPending   = errors.New("paranoia: question from this guild already pending")
	ErrNoLiveQuestion = errors.New("paranoia: no live question")
)

// Entry is QUEUED until its DM is sent and LIVE afterwards.
type Entry struct {
	ID             string
	UserID         string
	GuildID        string
	ChannelID      string
	QuestionID     string
	QuestionText   string
	QuestionRating question.Rating
	DMMessageID    string
	CreatedAt      time.Time
}

func (e Entry) Live() bool {
	return e.DMMessageID != ""
}

type Status struct {
	GuildOpen  bool
	QueueEmpty bool
}

type DeliveryError struct {
	UserID  string
	GuildID string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver paranoia question to user %s (guild %s): %v", e.UserID, e.GuildID, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
