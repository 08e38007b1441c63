package game

import (
	"context"
	"sort"
	"sync"
	"testing"

	"truthordare/internal/paranoia"
	"truthordare/internal/question"
	"truthordare/internal/settings"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryBackend implements every repository port in memory.
type memoryBackend struct {
	mu        sync.Mutex
	questions map[string]question.Question
	channels  map[string]settings.ChannelSettings
	guilds    map[string]settings.GuildSettings
	entries   map[string]paranoia.Entry
}

func newMemoryBackend(questions ...question.Question) *memoryBackend {
	b := &memoryBackend{
		questions: make(map[string]question.Question),
		channels:  make(map[string]settings.ChannelSettings),
		guilds:    make(map[string]settings.GuildSettings),
		entries:   make(map[string]paranoia.Entry),
	}
	for _, q := range questions {
		b.questions[q.ID] = q
	}
	return b
}

func (b *memoryBackend) FindQuestionsPage(_ context.Context, offset, limit int) ([]question.Question, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]string, 0, len(b.questions))
	for id := range b.questions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var out []question.Question
	for i := offset; i < len(ids) && i < offset+limit; i++ {
		out = append(out, b.questions[ids[i]])
	}
	return out, nil
}

func (b *memoryBackend) CountQuestions(context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.questions), nil
}

func (b *memoryBackend) UpsertQuestion(_ context.Context, q question.Question) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.questions[q.ID] = q
	return nil
}

func (b *memoryBackend) DeleteQuestion(_ context.Context, id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.questions[id]
	delete(b.questions, id)
	return ok, nil
}

func (b *memoryBackend) FindChannelSettings(_ context.Context, id string) (settings.ChannelSettings, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.channels[id]
	return s, ok, nil
}

func (b *memoryBackend) UpsertChannelSettings(_ context.Context, s settings.ChannelSettings) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.channels[s.ID] = s.Clone()
	return nil
}

func (b *memoryBackend) DeleteChannelSettings(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.channels, id)
	return nil
}

func (b *memoryBackend) FindGuildSettings(_ context.Context, id string) (settings.GuildSettings, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.guilds[id]
	return s, ok, nil
}

func (b *memoryBackend) UpsertGuildSettings(_ context.Context, s settings.GuildSettings) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.guilds[s.ID] = s.Clone()
	return nil
}

func (b *memoryBackend) CreateParanoiaEntry(_ context.Context, e paranoia.Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[e.ID] = e
	return nil
}

func (b *memoryBackend) DeleteParanoiaEntry(_ context.Context, id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.entries[id]
	delete(b.entries, id)
	return ok, nil
}

func (b *memoryBackend) FindParanoiaEntriesByUser(_ context.Context, userID string) ([]paranoia.Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []paranoia.Entry
	for _, e := range b.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (b *memoryBackend) SetParanoiaMessageID(_ context.Context, id, messageID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	e := b.entries[id]
	e.DMMessageID = messageID
	b.entries[id] = e
	return nil
}

type nullMessenger struct {
	mu    sync.Mutex
	posts []string
	dms   int
	dmErr error
}

func (m *nullMessenger) failDMs(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dmErr = err
}

func (m *nullMessenger) sentDMs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dms
}

func (m *nullMessenger) SendDirectMessage(context.Context, string, paranoia.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dmErr != nil {
		return "", m.dmErr
	}
	m.dms++
	return "dm", nil
}

func (m *nullMessenger) SendChannelMessage(_ context.Context, _ string, msg paranoia.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts = append(m.posts, msg.Content)
	return "post", nil
}

func (m *nullMessenger) EditMessage(context.Context, string, string, paranoia.Message) error {
	return nil
}

func (m *nullMessenger) DirectChannel(_ context.Context, userID string) (string, error) {
	return "dm-" + userID, nil
}

type fixture struct {
	svc       *Service
	backend   *memoryBackend
	messenger *nullMessenger
}

func newFixture(t *testing.T, premium []string, questions ...question.Question) fixture {
	t.Helper()
	logger := zap.NewNop()
	backend := newMemoryBackend(questions...)

	store := question.NewStore(backend, question.NewIndex(), logger)
	require.NoError(t, store.LoadAll(context.Background()))
	selector := question.NewSelector(store.Index(), firstRand{})

	messenger := &nullMessenger{}
	relay := paranoia.NewService(paranoia.NewQueue(backend), messenger, logger)

	svc := NewService(store, selector, settings.NewStore(backend, logger), relay, NewPremiumList(premium...), logger)
	return fixture{svc: svc, backend: backend, messenger: messenger}
}

type firstRand struct{}

func (firstRand) IntN(int) int { return 0 }

func gq(id string, typ question.Type, rating question.Rating, guildID string) question.Question {
	return question.Question{ID: id, Type: typ, Rating: rating, Text: "text " + id, GuildID: guildID}
}
