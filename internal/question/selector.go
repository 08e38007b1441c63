package question

import "math/rand/v2"

type Rand interface {
	IntN(n int) int
}

type defaultRand struct{}

func (defaultRand) IntN(n int) int { return rand.IntN(n) }

func DefaultRand() Rand { return defaultRand{} }

type Request struct {
	// Type is empty in random mode.
	Type           Type
	Ratings        RatingSet
	Excluded       IDSet
	GuildID        string
	DisableGlobals bool
}

type Selector struct {
	index *Index
	rng   Rand
}

func NewSelector(index *Index, rng Rand) *Selector {
	if rng == nil {
		rng = DefaultRand()
	}
	return &Selector{index: index, rng: rng}
}

// Pick draws one question uniformly from the merged eligible pool. In random
// mode the type is drawn first, uniformly over Types, regardless of how many
// questions each type holds. ErrNoneEligible is an outcome, not a failure.
func (s *Selector) Pick(req Request) (Question, error) {
	typ := req.Type
	if typ == "" {
		if !s.index.Ready() {
			return Question{}, ErrNotReady
		}
		typ = Types[s.rng.IntN(len(Types))]
	}

	pool, err := s.index.candidates(typ, req.Ratings, req.Excluded, req.GuildID, !req.DisableGlobals)
	if err != nil {
		return Question{}, err
	}
	if len(pool) == 0 {
		return Question{}, ErrNoneEligible
	}
	return pool[s.rng.IntN(len(pool))], nil
}
