package paranoia

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

type memoryRepo struct {
	mu         sync.Mutex
	entries    map[string]Entry
	failAll    error
	failDelete error
	failMark   error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{entries: make(map[string]Entry)}
}

func (r *memoryRepo) CreateParanoiaEntry(_ context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return r.failAll
	}
	r.entries[e.ID] = e
	return nil
}

func (r *memoryRepo) DeleteParanoiaEntry(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return false, r.failAll
	}
	if r.failDelete != nil {
		return false, r.failDelete
	}
	_, ok := r.entries[id]
	delete(r.entries, id)
	return ok, nil
}

func (r *memoryRepo) FindParanoiaEntriesByUser(_ context.Context, userID string) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	var out []Entry
	for _, e := range r.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryRepo) SetParanoiaMessageID(_ context.Context, id, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return r.failAll
	}
	if r.failMark != nil {
		return r.failMark
	}
	e, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("entry %s not found", id)
	}
	e.DMMessageID = messageID
	r.entries[id] = e
	return nil
}

func (r *memoryRepo) get(id string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	return e, ok
}

func (r *memoryRepo) liveCount(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.UserID == userID && e.Live() {
			n++
		}
	}
	return n
}

type sentMessage struct {
	Target  string
	Content string
}

type fakeMessenger struct {
	mu       sync.Mutex
	dms      []sentMessage
	posts    []sentMessage
	edits    []sentMessage
	dmErr    error
	postErr  error
	sendWait time.Duration
	seq      int
}

func (m *fakeMessenger) SendDirectMessage(_ context.Context, userID string, msg Message) (string, error) {
	if m.sendWait > 0 {
		time.Sleep(m.sendWait)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dmErr != nil {
		return "", m.dmErr
	}
	m.seq++
	m.dms = append(m.dms, sentMessage{Target: userID, Content: msg.Content})
	return fmt.Sprintf("dm-%d", m.seq), nil
}

func (m *fakeMessenger) SendChannelMessage(_ context.Context, channelID string, msg Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.postErr != nil {
		return "", m.postErr
	}
	m.seq++
	m.posts = append(m.posts, sentMessage{Target: channelID, Content: msg.Content})
	return fmt.Sprintf("msg-%d", m.seq), nil
}

func (m *fakeMessenger) EditMessage(_ context.Context, channelID, messageID string, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits = append(m.edits, sentMessage{Target: channelID + "/" + messageID, Content: msg.Content})
	return nil
}

func (m *fakeMessenger) DirectChannel(_ context.Context, userID string) (string, error) {
	return "dmchan-" + userID, nil
}

func (m *fakeMessenger) dmCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.dms)
}

type fixedRand int

func (r fixedRand) IntN(n int) int { return int(r) % n }

type staticPolicy map[string]int

func (p staticPolicy) RevealFrequency(_ context.Context, guildID string) (int, error) {
	freq, ok := p[guildID]
	if !ok {
		return 0, errors.New("unknown guild")
	}
	return freq, nil
}

// tickingClock advances one second per call so creation order is strict.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func sequentialIDs() func() (string, error) {
	var mu sync.Mutex
	n := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("e%03d", n), nil
	}
}
