package services

import "time"

// Clock is injected so the giveaway sweep and quest reset can be
// driven through simulated time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

func NewClock() Clock {
	return realClock{}
}
