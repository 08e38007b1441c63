package bot

import (
	"context"

	"truthordare/internal/paranoia"

	"github.com/bwmarrin/discordgo"
)

type Messenger struct {
	session *discordgo.Session
}

var _ paranoia.Messenger = (*Messenger)(nil)

func NewMessenger(session *discordgo.Session) *Messenger {
	return &Messenger{session: session}
}

func (m *Messenger) DirectChannel(ctx context.Context, userID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	channel, err := m.session.UserChannelCreate(userID)
	if err != nil {
		return "", err
	}
	return channel.ID, nil
}

func (m *Messenger) SendDirectMessage(ctx context.Context, userID string, msg paranoia.Message) (string, error) {
	channelID, err := m.DirectChannel(ctx, userID)
	if err != nil {
		return "", err
	}
	return m.SendChannelMessage(ctx, channelID, msg)
}

func (m *Messenger) SendChannelMessage(ctx context.Context, channelID string, msg paranoia.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	sent, err := m.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:         msg.Content,
		AllowedMentions: noMentions(),
	})
	if err != nil {
		return "", err
	}
	return sent.ID, nil
}

func (m *Messenger) EditMessage(ctx context.Context, channelID, messageID string, msg paranoia.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := m.session.ChannelMessageEditComplex(discordgo.NewMessageEdit(channelID, messageID).SetContent(msg.Content))
	return err
}
