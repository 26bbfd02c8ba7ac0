package dataset

import (
	"math"
	"math/rand"
)

// SplitOptions control the train/test split. The seed is explicit so a
// split is reproducible; TrainRatio defaults to 0.8.
type SplitOptions struct {
	Seed       int64
	TrainRatio float64
}

// Split shuffles the records with a seeded source and cuts them into
// disjoint train/test partitions: the first floor(ratio*n) shuffled
// records train, the remainder test. Small inputs (n < 5 at the default
// ratio) can legitimately produce an empty test partition.
func Split(records []Conversation, opts SplitOptions) (train, test []Conversation) {
	ratio := opts.TrainRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 0.8
	}

	shuffled := make([]Conversation, len(records))
	copy(shuffled, records)

	rng := rand.New(rand.NewSource(opts.Seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	cut := int(math.Floor(ratio * float64(len(shuffled))))
	return shuffled[:cut], shuffled[cut:]
}
