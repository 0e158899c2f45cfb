package pkg

import (
	"math/rand"
	"time"
)

// RandIntInRange returns a random int in [min, max].
func RandIntInRange(rng *rand.Rand, min, max int) int {
	if max <= min {
		return min
	}
	return rng.Intn(max-min+1) + min
}

// UTCDate formats t as a UTC calendar day, the key quest sets roll over on.
func UTCDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func GetFirstTimeOfCurrentWeek(now time.Time) time.Time {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	return today.Truncate(time.Hour * 168)
}
