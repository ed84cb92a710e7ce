package game

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomWords(t *testing.T) {
	gen := NewRandomWords()

	testCases := []struct {
		desc  string
		pool  []string
		count int
		want  int
	}{
		{desc: "default list", pool: DefaultWords, count: 3, want: 3},
		{desc: "short custom list", pool: []string{"pizza", "taco"}, count: 3, want: 2},
		{desc: "empty pool falls back", pool: nil, count: 3, want: 3},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			words := gen.Generate(tc.pool, tc.count)
			assert.Len(t, words, tc.want)
			seen := map[string]bool{}
			for _, w := range words {
				assert.False(t, seen[w], "duplicate %q", w)
				seen[w] = true
			}
		})
	}
}

func TestWordPool(t *testing.T) {
	assert.Equal(t, DefaultWords, wordPool(nil))
	assert.Equal(t, []string{"pizza"}, wordPool([]string{"pizza"}))
}

func TestIdGen(t *testing.T) {
	ids := NewIdGen()
	roomID := regexp.MustCompile(`^[ABCDEFGHJKLMNPQRSTUVWXYZ23456789]{6}$`)

	seen := map[string]bool{}
	for range 50 {
		id := ids.RoomID()
		assert.Regexp(t, roomID, id)
		seen[id] = true
	}
	assert.Greater(t, len(seen), 1)

	assert.True(t, strings.HasPrefix(ids.PlayerID(), "player_"))
	assert.NotEqual(t, ids.MessageID(), ids.MessageID())
}
