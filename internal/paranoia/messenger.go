package paranoia

import (
	"context"
	"fmt"
	"strings"
)

type Message struct {
	Content string
}

type Messenger interface {
	SendDirectMessage(ctx context.Context, userID string, msg Message) (string, error)
	SendChannelMessage(ctx context.Context, channelID string, msg Message) (string, error)
	EditMessage(ctx context.Context, channelID, messageID string, msg Message) error
	DirectChannel(ctx context.Context, userID string) (string, error)
}

func promptMessage(e Entry) Message {
	return Message{Content: fmt.Sprintf(
		"**Paranoia question** (%s)\n%s\n\nReply with `/answer` or pass with `/skip`.",
		e.QuestionRating, e.QuestionText,
	)}
}

func closedMessage(e Entry, outcome string) Message {
	return Message{Content: fmt.Sprintf("**Paranoia question** (%s)\n%s\n\n_%s_", e.QuestionRating, e.QuestionText, outcome)}
}

func answerMessage(e Entry, answer string, reveal bool) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "<@%s> answered a paranoia question: **%s**", e.UserID, answer)
	if reveal {
		fmt.Fprintf(&b, "\nQuestion: %s", e.QuestionText)
	}
	return Message{Content: b.String()}
}
