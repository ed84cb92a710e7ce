package game

import "math/rand/v2"

var DefaultWords = []string{
	"cat", "dog", "house", "tree", "car", "sun", "moon", "star", "flower", "bird",
	"fish", "book", "chair", "table", "phone", "computer", "pizza", "cake", "apple", "banana",
	"guitar", "piano", "camera", "bicycle", "airplane", "boat", "train", "mountain", "beach", "rainbow",
	"cloud", "lightning", "snowman", "umbrella", "glasses", "hat", "shoe", "clock", "key", "door",
	"window", "bridge", "castle", "rocket", "robot", "dragon", "unicorn", "butterfly", "elephant", "giraffe",
	"penguin",
}

const wordOptionsCount = 3

type RandomWordsGenerator interface {
	// Generate returns up to count distinct words drawn from pool.
	Generate(pool []string, count int) []string
}

type randomWords struct{}

func NewRandomWords() RandomWordsGenerator {
	return randomWords{}
}

func (randomWords) Generate(pool []string, count int) []string {
	if len(pool) == 0 {
		pool = DefaultWords
	}
	picked := make([]string, 0, count)
	for _, i := range rand.Perm(len(pool)) {
		if len(picked) == count {
			break
		}
		picked = append(picked, pool[i])
	}
	return picked
}

// wordPool is the custom word list when the room has one, the built-in list
// otherwise.
func wordPool(custom []string) []string {
	if len(custom) > 0 {
		return custom
	}
	return DefaultWords
}
