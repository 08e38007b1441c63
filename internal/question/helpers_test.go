package question

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

type memoryRepo struct {
	mu        sync.Mutex
	rows      map[string]Question
	pageCalls int
	failWrite error
}

func newMemoryRepo(questions ...Question) *memoryRepo {
	repo := &memoryRepo{rows: make(map[string]Question)}
	for _, q := range questions {
		repo.rows[q.ID] = q
	}
	return repo
}

func (r *memoryRepo) FindQuestionsPage(_ context.Context, offset, limit int) ([]Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pageCalls++

	ids := make([]string, 0, len(r.rows))
	for id := range r.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if offset >= len(ids) {
		return nil, nil
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}
	out := make([]Question, 0, end-offset)
	for _, id := range ids[offset:end] {
		out = append(out, r.rows[id])
	}
	return out, nil
}

func (r *memoryRepo) CountQuestions(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows), nil
}

func (r *memoryRepo) UpsertQuestion(_ context.Context, q Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite != nil {
		return r.failWrite
	}
	r.rows[q.ID] = q
	return nil
}

func (r *memoryRepo) DeleteQuestion(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite != nil {
		return false, r.failWrite
	}
	_, ok := r.rows[id]
	delete(r.rows, id)
	return ok, nil
}

// sequenceRand replays fixed draws, wrapping around when exhausted.
type sequenceRand struct {
	mu     sync.Mutex
	values []int
	pos    int
}

func (r *sequenceRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.values) == 0 {
		return 0
	}
	v := r.values[r.pos%len(r.values)]
	r.pos++
	return v % n
}

func sequentialIDs(prefix string) func() (string, error) {
	var mu sync.Mutex
	n := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s%03d", prefix, n), nil
	}
}

var errStorage = errors.New("storage unavailable")

func q(id string, typ Type, rating Rating, guildID string) Question {
	return Question{ID: id, Type: typ, Rating: rating, Text: "text " + id, GuildID: guildID}
}
