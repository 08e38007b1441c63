package question

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

type Type string

const (
	TypeTruth    Type = "TRUTH"
	TypeDare     Type = "DARE"
	TypeWYR      Type = "WYR"
	TypeNHIE     Type = "NHIE"
	TypeParanoia Type = "PARANOIA"
)

var Types = []Type{TypeTruth, TypeDare, TypeWYR, TypeNHIE, TypeParanoia}

type Rating string

const (
	RatingPG   Rating = "PG"
	RatingPG13 Rating = "PG13"
	RatingR    Rating = "R"
)

var Ratings = []Rating{RatingPG, RatingPG13, RatingR}

const MaxTextLength = 256

var (
	ErrNotReady     = errors.New("question index not loaded")
	ErrNoneEligible = errors.New("no eligible question")
	ErrNotFound     = errors.New("question not found")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type Question struct {
	ID        string
	Type      Type
	Rating    Rating
	Text      string
	GuildID   string
	CreatedAt time.Time
}

func (q Question) IsCustom() bool {
	return q.GuildID != ""
}

func ParseType(value string) (Type, error) {
	normalized := Type(strings.ToUpper(strings.TrimSpace(value)))
	for _, t := range Types {
		if t == normalized {
			return t, nil
		}
	}
	return "", &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown type %q", value)}
}

func (t Type) Valid() bool {
	_, err := ParseType(string(t))
	return err == nil
}

func ParseRating(value string) (Rating, error) {
	normalized := Rating(strings.ToUpper(strings.TrimSpace(value)))
	for _, r := range Ratings {
		if r == normalized {
			return r, nil
		}
	}
	return "", &ValidationError{Field: "rating", Reason: fmt.Sprintf("unknown rating %q", value)}
}

func (r Rating) Valid() bool {
	_, err := ParseRating(string(r))
	return err == nil
}

type RatingSet map[Rating]struct{}

func NewRatingSet(ratings ...Rating) RatingSet {
	set := make(RatingSet, len(ratings))
	for _, r := range ratings {
		set[r] = struct{}{}
	}
	return set
}

func AllRatings() RatingSet {
	return NewRatingSet(Ratings...)
}

func (s RatingSet) Has(r Rating) bool {
	_, ok := s[r]
	return ok
}

func (s RatingSet) Len() int {
	return len(s)
}

func (s RatingSet) Clone() RatingSet {
	out := make(RatingSet, len(s))
	for r := range s {
		out[r] = struct{}{}
	}
	return out
}

func (s RatingSet) Union(other RatingSet) RatingSet {
	out := s.Clone()
	for r := range other {
		out[r] = struct{}{}
	}
	return out
}

func (s RatingSet) Difference(other RatingSet) RatingSet {
	out := make(RatingSet, len(s))
	for r := range s {
		if !other.Has(r) {
			out[r] = struct{}{}
		}
	}
	return out
}

func (s RatingSet) Intersect(other RatingSet) RatingSet {
	out := make(RatingSet)
	for r := range s {
		if other.Has(r) {
			out[r] = struct{}{}
		}
	}
	return out
}

func (s RatingSet) Slice() []Rating {
	out := make([]Rating, 0, len(s))
	for _, r := range Ratings {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s RatingSet) Strings() []string {
	ratings := s.Slice()
	out := make([]string, len(ratings))
	for i, r := range ratings {
		out[i] = string(r)
	}
	return out
}

type IDSet map[string]struct{}

func NewIDSet(ids ...string) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Len() int {
	return len(s)
}

func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

func (s IDSet) Union(other IDSet) IDSet {
	out := s.Clone()
	for id := range other {
		out[id] = struct{}{}
	}
	return out
}

func (s IDSet) Difference(other IDSet) IDSet {
	out := make(IDSet, len(s))
	for id := range s {
		if !other.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

func (s IDSet) Slice() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
