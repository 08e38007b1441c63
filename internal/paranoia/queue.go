package paranoia

import (
	"context"
	"fmt"
	"sort"
	"time"

	"truthordare/internal/utils"

	"github.com/google/uuid"
)

type Repository interface {
	CreateParanoiaEntry(ctx context.Context, entry Entry) error
	DeleteParanoiaEntry(ctx context.Context, id string) (bool, error)
	FindParanoiaEntriesByUser(ctx context.Context, userID string) ([]Entry, error)
	SetParanoiaMessageID(ctx context.Context, id, messageID string) error
}

// Queue is the storage-backed state of every user's paranoia entries.
// Callers combine its reads and writes inside WithUser.
type Queue struct {
	repo  Repository
	locks *utils.KeyedMutex
	newID func() (string, error)
	now   func() time.Time
}

func NewQueue(repo Repository) *Queue {
	return &Queue{
		repo:  repo,
		locks: utils.NewKeyedMutex(),
		newID: func() (string, error) {
			id, err := uuid.NewV7()
			if err != nil {
				return "", err
			}
			return id.String(), nil
		},
		now: time.Now,
	}
}

func (q *Queue) WithClock(now func() time.Time) {
	q.now = now
}

func (q *Queue) WithIDGenerator(fn func() (string, error)) {
	q.newID = fn
}

func (q *Queue) WithUser(ctx context.Context, userID string, fn func(ctx context.Context) error) error {
	unlock := q.locks.Lock(userID)
	defer unlock()
	return fn(ctx)
}

func (q *Queue) Entries(ctx context.Context, userID string) ([]Entry, error) {
	entries, err := q.repo.FindParanoiaEntriesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find paranoia entries for %s: %w", userID, err)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		return entries[i].ID < entries[j].ID
	})
	return entries, nil
}

func (q *Queue) CheckStatus(ctx context.Context, userID, guildID string) (Status, error) {
	entries, err := q.Entries(ctx, userID)
	if err != nil {
		return Status{}, err
	}
	status := Status{GuildOpen: true, QueueEmpty: true}
	for _, e := range entries {
		if !e.Live() {
			continue
		}
		status.QueueEmpty = false
		if e.GuildID == guildID {
			status.GuildOpen = false
		}
	}
	return status, nil
}

func (q *Queue) Enqueue(ctx context.Context, entry Entry) (Entry, error) {
	id, err := q.newID()
	if err != nil {
		return Entry{}, fmt.Errorf("generate paranoia entry id: %w", err)
	}
	entry.ID = id
	entry.DMMessageID = ""
	entry.CreatedAt = q.now()
	if err := q.repo.CreateParanoiaEntry(ctx, entry); err != nil {
		return Entry{}, fmt.Errorf("create paranoia entry: %w", err)
	}
	return entry, nil
}

func (q *Queue) MarkLive(ctx context.Context, entryID, dmMessageID string) error {
	if err := q.repo.SetParanoiaMessageID(ctx, entryID, dmMessageID); err != nil {
		return fmt.Errorf("mark paranoia entry %s live: %w", entryID, err)
	}
	return nil
}

func (q *Queue) NextQueued(ctx context.Context, userID string) (Entry, bool, error) {
	entries, err := q.Entries(ctx, userID)
	if err != nil {
		return Entry{}, false, err
	}
	for _, e := range entries {
		if !e.Live() {
			return e, true, nil
		}
	}
	return Entry{}, false, nil
}

func (q *Queue) Live(ctx context.Context, userID string) (Entry, bool, error) {
	entries, err := q.Entries(ctx, userID)
	if err != nil {
		return Entry{}, false, err
	}
	for _, e := range entries {
		if e.Live() {
			return e, true, nil
		}
	}
	return Entry{}, false, nil
}

func (q *Queue) Remove(ctx context.Context, entryID string) (bool, error) {
	removed, err := q.repo.DeleteParanoiaEntry(ctx, entryID)
	if err != nil {
		return false, fmt.Errorf("delete paranoia entry %s: %w", entryID, err)
	}
	return removed, nil
}

func (q *Queue) Restore(ctx context.Context, e Entry) error {
	if err := q.repo.CreateParanoiaEntry(ctx, e); err != nil {
		return fmt.Errorf("restore paranoia entry %s: %w", e.ID, err)
	}
	return nil
}
