package dataset

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func corpus(n int) []Conversation {
	records := make([]Conversation, n)
	for i := range records {
		records[i] = Conversation{Messages: []Message{
			{Role: "system", Content: "sys"},
			{Role: "user", Content: fmt.Sprintf("prompt %d", i)},
			{Role: "assistant", Content: fmt.Sprintf(`{"n":%d}`, i)},
		}}
	}
	return records
}

func userContents(records []Conversation) map[string]bool {
	set := make(map[string]bool, len(records))
	for _, rec := range records {
		set[rec.Messages[1].Content] = true
	}
	return set
}

func TestSplitSizes(t *testing.T) {
	records := corpus(10)

	train, test := Split(records, SplitOptions{Seed: 42, TrainRatio: 0.8})
	assert.Len(t, train, 8)
	assert.Len(t, test, 2)
}

func TestSplitDisjointUnion(t *testing.T) {
	records := corpus(25)

	train, test := Split(records, SplitOptions{Seed: 7, TrainRatio: 0.8})
	require.Equal(t, 25, len(train)+len(test))

	trainSet := userContents(train)
	for _, rec := range test {
		assert.False(t, trainSet[rec.Messages[1].Content], "record in both partitions")
	}

	all := userContents(append(append([]Conversation{}, train...), test...))
	assert.Len(t, all, 25, "every record lands in exactly one partition")
}

func TestSplitDeterministic(t *testing.T) {
	records := corpus(50)

	train1, test1 := Split(records, SplitOptions{Seed: 99, TrainRatio: 0.8})
	train2, test2 := Split(records, SplitOptions{Seed: 99, TrainRatio: 0.8})
	assert.Equal(t, train1, train2)
	assert.Equal(t, test1, test2)

	train3, _ := Split(records, SplitOptions{Seed: 100, TrainRatio: 0.8})
	assert.NotEqual(t, train1, train3, "different seeds shuffle differently")
}

func TestSplitDoesNotMutateInput(t *testing.T) {
	records := corpus(20)
	original := corpus(20)

	Split(records, SplitOptions{Seed: 1, TrainRatio: 0.8})
	assert.Equal(t, original, records)
}

func TestSplitSmallCorpus(t *testing.T) {
	train, test := Split(corpus(1), SplitOptions{Seed: 0, TrainRatio: 0.8})
	assert.Empty(t, train)
	assert.Len(t, test, 1)

	train, test = Split(corpus(4), SplitOptions{Seed: 0, TrainRatio: 0.8})
	assert.Len(t, train, 3)
	assert.Len(t, test, 1)
}

func TestSplitDefaultRatio(t *testing.T) {
	train, test := Split(corpus(10), SplitOptions{Seed: 5})
	assert.Len(t, train, 8)
	assert.Len(t, test, 2)
}
