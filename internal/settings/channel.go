package settings

import "truthordare/internal/question"

type ChannelSettings struct {
	ID              string
	DisabledRatings question.RatingSet
}

func DefaultChannel(id string) ChannelSettings {
	return ChannelSettings{ID: id, DisabledRatings: question.NewRatingSet(question.RatingR)}
}

func (c ChannelSettings) AllowedRatings() question.RatingSet {
	return question.AllRatings().Difference(c.DisabledRatings)
}

func (c ChannelSettings) Clone() ChannelSettings {
	c.DisabledRatings = c.DisabledRatings.Clone()
	return c
}
