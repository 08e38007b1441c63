package settings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"truthordare/internal/question"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryRepo struct {
	mu           sync.Mutex
	channels     map[string]ChannelSettings
	guilds       map[string]GuildSettings
	channelReads int
	guildReads   int
	failReads    error
	slowRead     chan struct{}
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{channels: make(map[string]ChannelSettings), guilds: make(map[string]GuildSettings)}
}

func (r *memoryRepo) FindChannelSettings(_ context.Context, id string) (ChannelSettings, bool, error) {
	if r.slowRead != nil {
		<-r.slowRead
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channelReads++
	if r.failReads != nil {
		return ChannelSettings{}, false, r.failReads
	}
	s, ok := r.channels[id]
	return s.Clone(), ok, nil
}

func (r *memoryRepo) UpsertChannelSettings(_ context.Context, s ChannelSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[s.ID] = s.Clone()
	return nil
}

func (r *memoryRepo) DeleteChannelSettings(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.channels, id)
	return nil
}

func (r *memoryRepo) FindGuildSettings(_ context.Context, id string) (GuildSettings, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guildReads++
	if r.failReads != nil {
		return GuildSettings{}, false, r.failReads
	}
	s, ok := r.guilds[id]
	return s.Clone(), ok, nil
}

func (r *memoryRepo) UpsertGuildSettings(_ context.Context, s GuildSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guilds[s.ID] = s.Clone()
	return nil
}

func (r *memoryRepo) reads() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channelReads, r.guildReads
}

func TestFetchChannelCachesDefault(t *testing.T) {
	repo := newMemoryRepo()
	store := NewStore(repo, zap.NewNop())
	ctx := context.Background()

	first, err := store.FetchChannel(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, question.NewRatingSet(question.RatingR), first.DisabledRatings)
	assert.Equal(t, question.NewRatingSet(question.RatingPG, question.RatingPG13), first.AllowedRatings())

	_, err = store.FetchChannel(ctx, "c1")
	require.NoError(t, err)
	channelReads, _ := repo.reads()
	assert.Equal(t, 1, channelReads)
}

func TestUpdateThenFetchSkipsStorage(t *testing.T) {
	repo := newMemoryRepo()
	store := NewStore(repo, zap.NewNop())
	ctx := context.Background()

	_, err := store.FetchChannel(ctx, "c1")
	require.NoError(t, err)

	want := ChannelSettings{ID: "c1", DisabledRatings: question.NewRatingSet(question.RatingPG13, question.RatingR)}
	_, err = store.UpdateChannel(ctx, want)
	require.NoError(t, err)

	got, err := store.FetchChannel(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	channelReads, _ := repo.reads()
	assert.Equal(t, 1, channelReads)
}

func TestFetchChannelReturnsCopies(t *testing.T) {
	store := NewStore(newMemoryRepo(), zap.NewNop())
	ctx := context.Background()

	got, err := store.FetchChannel(ctx, "c1")
	require.NoError(t, err)
	delete(got.DisabledRatings, question.RatingR)

	again, err := store.FetchChannel(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, again.DisabledRatings.Has(question.RatingR))
}

func TestConcurrentMissesShareOneRead(t *testing.T) {
	repo := newMemoryRepo()
	repo.slowRead = make(chan struct{})
	store := NewStore(repo, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.FetchChannel(context.Background(), "c1")
			assert.NoError(t, err)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(repo.slowRead)
	wg.Wait()

	channelReads, _ := repo.reads()
	assert.Equal(t, 1, channelReads)
}

func TestDisableAndEnableRating(t *testing.T) {
	repo := newMemoryRepo()
	store := NewStore(repo, zap.NewNop())
	ctx := context.Background()

	got, err := store.DisableRating(ctx, "c1", question.RatingPG13)
	require.NoError(t, err)
	assert.Equal(t, question.NewRatingSet(question.RatingPG13, question.RatingR), got.DisabledRatings)

	got, err = store.EnableRating(ctx, "c1", question.RatingR)
	require.NoError(t, err)
	assert.Equal(t, question.NewRatingSet(question.RatingPG13), got.DisabledRatings)
	assert.Equal(t, got.DisabledRatings, repo.channels["c1"].DisabledRatings)
}

func TestDeleteChannelEvicts(t *testing.T) {
	repo := newMemoryRepo()
	store := NewStore(repo, zap.NewNop())
	ctx := context.Background()

	_, err := store.UpdateChannel(ctx, ChannelSettings{ID: "c1", DisabledRatings: question.NewRatingSet()})
	require.NoError(t, err)
	require.NoError(t, store.DeleteChannel(ctx, "c1"))

	got, err := store.FetchChannel(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, DefaultChannel("c1"), got)
	channelReads, _ := repo.reads()
	assert.Equal(t, 1, channelReads)
}

func TestFetchPropagatesStorageError(t *testing.T) {
	repo := newMemoryRepo()
	repo.failReads = errors.New("down")
	store := NewStore(repo, zap.NewNop())

	_, err := store.FetchChannel(context.Background(), "c1")
	assert.ErrorIs(t, err, repo.failReads)
	_, err = store.FetchGuild(context.Background(), "g1")
	assert.ErrorIs(t, err, repo.failReads)
	assert.Zero(t, store.channels.Len())
}

func TestUpdateGuildMergesOnlyProvidedFields(t *testing.T) {
	repo := newMemoryRepo()
	store := NewStore(repo, zap.NewNop())
	ctx := context.Background()

	globals := true
	freq := 40
	_, err := store.UpdateGuild(ctx, "g1", GuildPatch{DisableGlobals: &globals, ShowParanoiaFrequency: &freq})
	require.NoError(t, err)

	lang := "pt-br"
	got, err := store.UpdateGuild(ctx, "g1", GuildPatch{Language: &lang})
	require.NoError(t, err)
	assert.True(t, got.DisableGlobals)
	assert.Equal(t, 40, got.ShowParanoiaFrequency)
	assert.Equal(t, "pt-BR", got.Language)
	assert.Equal(t, got, repo.guilds["g1"])
}

func TestUpdateGuildRejectsInvalidValues(t *testing.T) {
	store := NewStore(newMemoryRepo(), zap.NewNop())
	ctx := context.Background()

	lang := "not a language!"
	_, err := store.UpdateGuild(ctx, "g1", GuildPatch{Language: &lang})
	var verr *question.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "language", verr.Field)

	freq := 101
	_, err = store.UpdateGuild(ctx, "g1", GuildPatch{ShowParanoiaFrequency: &freq})
	require.ErrorAs(t, err, &verr)

	got, err := store.FetchGuild(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, DefaultGuild("g1"), got)
}

func TestDisableAndEnableQuestions(t *testing.T) {
	store := NewStore(newMemoryRepo(), zap.NewNop())
	ctx := context.Background()

	got, err := store.DisableQuestions(ctx, "g1", "q1", "q2")
	require.NoError(t, err)
	assert.Equal(t, []string{"q1", "q2"}, got.DisabledQuestions.Slice())

	got, err = store.EnableQuestions(ctx, "g1", "q1", "missing")
	require.NoError(t, err)
	assert.Equal(t, []string{"q2"}, got.DisabledQuestions.Slice())
}

func TestConcurrentDisableQuestionsKeepsAll(t *testing.T) {
	store := NewStore(newMemoryRepo(), zap.NewNop())
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := store.DisableQuestions(ctx, "g1", id)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	got, err := store.FetchGuild(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 5, got.DisabledQuestions.Len())
}

func TestSweepForcesReload(t *testing.T) {
	repo := newMemoryRepo()
	store := NewStore(repo, zap.NewNop())
	ctx := context.Background()

	_, err := store.FetchGuild(ctx, "g1")
	require.NoError(t, err)
	// A write made behind the store's back shows up after a sweep.
	repo.guilds["g1"] = GuildSettings{ID: "g1", DisableButtons: true, DisabledQuestions: question.NewIDSet()}

	got, err := store.FetchGuild(ctx, "g1")
	require.NoError(t, err)
	assert.False(t, got.DisableButtons)

	store.Sweep()
	got, err = store.FetchGuild(ctx, "g1")
	require.NoError(t, err)
	assert.True(t, got.DisableButtons)
	_, guildReads := repo.reads()
	assert.Equal(t, 2, guildReads)
}

func TestRunSweepsUntilCancelled(t *testing.T) {
	store := NewStore(newMemoryRepo(), zap.NewNop())
	store.WithSweepInterval(5 * time.Millisecond)
	_, err := store.FetchChannel(context.Background(), "c1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- store.Run(ctx) }()

	assert.Eventually(t, func() bool { return store.channels.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}
