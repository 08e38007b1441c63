package question

import "sync"

type buckets map[Type]map[Rating][]Question

type location struct {
	guildID string
	typ     Type
	rating  Rating
}

// Index is the in-memory catalog used by selection. Global questions and
// each guild's custom questions live in separate bucket trees so a guild's
// questions can never leak into another guild's pool.
type Index struct {
	mu     sync.RWMutex
	ready  bool
	global buckets
	custom map[string]buckets
	byID   map[string]location
}

func NewIndex() *Index {
	return &Index{
		global: make(buckets),
		custom: make(map[string]buckets),
		byID:   make(map[string]location),
	}
}

func (ix *Index) Reset(questions []Question) {
	global := make(buckets)
	custom := make(map[string]buckets)
	byID := make(map[string]location, len(questions))
	for _, q := range questions {
		if loc, ok := byID[q.ID]; ok {
			removeFrom(global, custom, loc, q.ID)
		}
		insertInto(global, custom, q)
		byID[q.ID] = locationOf(q)
	}

	ix.mu.Lock()
	ix.global = global
	ix.custom = custom
	ix.byID = byID
	ix.ready = true
	ix.mu.Unlock()
}

func (ix *Index) Ready() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.ready
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.byID)
}

// Put inserts q, replacing any entry with the same id. A change of type,
// rating or guild moves the entry between buckets under a single lock.
func (ix *Index) Put(q Question) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	next := locationOf(q)
	if prev, ok := ix.byID[q.ID]; ok {
		if prev == next {
			list := bucketOf(ix.global, ix.custom, prev)
			for i := range list {
				if list[i].ID == q.ID {
					list[i] = q
					return
				}
			}
		}
		removeFrom(ix.global, ix.custom, prev, q.ID)
	}
	insertInto(ix.global, ix.custom, q)
	ix.byID[q.ID] = next
}

func (ix *Index) Remove(id string) (Question, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	loc, ok := ix.byID[id]
	if !ok {
		return Question{}, false
	}
	removed, _ := removeFrom(ix.global, ix.custom, loc, id)
	delete(ix.byID, id)
	return removed, true
}

func (ix *Index) Get(id string) (Question, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	loc, ok := ix.byID[id]
	if !ok {
		return Question{}, false
	}
	for _, q := range bucketOf(ix.global, ix.custom, loc) {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

func (ix *Index) Bucket(typ Type, rating Rating, guildID string) []Question {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	list := bucketOf(ix.global, ix.custom, location{guildID: guildID, typ: typ, rating: rating})
	return append([]Question(nil), list...)
}

func (ix *Index) Custom(guildID string) []Question {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var out []Question
	tree := ix.custom[guildID]
	for _, typ := range Types {
		for _, rating := range Ratings {
			out = append(out, tree[typ][rating]...)
		}
	}
	return out
}

func (ix *Index) candidates(typ Type, ratings RatingSet, excluded IDSet, guildID string, includeGlobals bool) ([]Question, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if !ix.ready {
		return nil, ErrNotReady
	}

	var pool []Question
	collect := func(tree buckets) {
		for _, rating := range ratings.Slice() {
			for _, q := range tree[typ][rating] {
				if excluded.Has(q.ID) {
					continue
				}
				pool = append(pool, q)
			}
		}
	}
	if includeGlobals {
		collect(ix.global)
	}
	if guildID != "" {
		if tree, ok := ix.custom[guildID]; ok {
			collect(tree)
		}
	}
	return pool, nil
}

func locationOf(q Question) location {
	return location{guildID: q.GuildID, typ: q.Type, rating: q.Rating}
}

func treeFor(global buckets, custom map[string]buckets, guildID string, create bool) buckets {
	if guildID == "" {
		return global
	}
	tree := custom[guildID]
	if tree == nil && create {
		tree = make(buckets)
		custom[guildID] = tree
	}
	return tree
}

func bucketOf(global buckets, custom map[string]buckets, loc location) []Question {
	tree := treeFor(global, custom, loc.guildID, false)
	if tree == nil {
		return nil
	}
	return tree[loc.typ][loc.rating]
}

func insertInto(global buckets, custom map[string]buckets, q Question) {
	tree := treeFor(global, custom, q.GuildID, true)
	byRating := tree[q.Type]
	if byRating == nil {
		byRating = make(map[Rating][]Question)
		tree[q.Type] = byRating
	}
	byRating[q.Rating] = append(byRating[q.Rating], q)
}

func removeFrom(global buckets, custom map[string]buckets, loc location, id string) (Question, bool) {
	tree := treeFor(global, custom, loc.guildID, false)
	if tree == nil {
		return Question{}, false
	}
	list := tree[loc.typ][loc.rating]
	for i, q := range list {
		if q.ID != id {
			continue
		}
		next := make([]Question, 0, len(list)-1)
		next = append(next, list[:i]...)
		next = append(next, list[i+1:]...)
		tree[loc.typ][loc.rating] = next
		if loc.guildID != "" && len(next) == 0 {
			pruneGuild(custom, loc.guildID)
		}
		return q, true
	}
	return Question{}, false
}

func pruneGuild(custom map[string]buckets, guildID string) {
	for _, byRating := range custom[guildID] {
		for _, list := range byRating {
			if len(list) > 0 {
				return
			}
		}
	}
	delete(custom, guildID)
}
