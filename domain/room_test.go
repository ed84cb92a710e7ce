package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoom() *Room {
	r := NewRoom("ABC123", RoomSettings{Name: "room"}, &Player{ID: "p1", Name: "alice"}, 1000)
	r.Players = append(r.Players,
		&Player{ID: "p2", Name: "bob", ClientID: "c2"},
		&Player{ID: "p3", Name: "carol"},
	)
	return r
}

func TestNewRoom(t *testing.T) {
	r := testRoom()
	assert.Equal(t, StateLobby, r.GameState)
	assert.Equal(t, DefaultTotalRounds, r.TotalRounds)
	assert.Equal(t, DefaultRoundDuration, r.RoundDuration)
	assert.Equal(t, "p1", r.HostID)
	assert.True(t, r.Players[0].IsAdmin)
	assert.True(t, r.IsPublic)
}

func TestNormalizeAdmin(t *testing.T) {
	testCases := []struct {
		desc     string
		admins   []int
		expected string
	}{
		{desc: "no admin promotes first", admins: nil, expected: "p1"},
		{desc: "single admin kept", admins: []int{2}, expected: "p3"},
		{desc: "several admins keep the first", admins: []int{1, 2}, expected: "p2"},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			r := testRoom()
			for _, p := range r.Players {
				p.IsAdmin = false
			}
			for _, i := range tc.admins {
				r.Players[i].IsAdmin = true
			}

			r.NormalizeAdmin()

			count := 0
			for _, p := range r.Players {
				if p.IsAdmin {
					count++
					assert.Equal(t, tc.expected, p.ID)
				}
			}
			assert.Equal(t, 1, count)
		})
	}
}

func TestRemovePlayer(t *testing.T) {
	r := testRoom()
	r.SetRevealed("p2", []int{0, 1})

	removed := r.RemovePlayer("p2")
	require.NotNil(t, removed)
	assert.Equal(t, "bob", removed.Name)
	assert.Nil(t, r.FindPlayer("p2"))
	assert.Len(t, r.Players, 2)
	assert.NotContains(t, r.RevealedLetters, "p2")

	assert.Nil(t, r.RemovePlayer("missing"))
}

func TestRankingIsStableOnTies(t *testing.T) {
	r := testRoom()
	r.Players[0].Score = 50
	r.Players[1].Score = 150
	r.Players[2].Score = 50

	ranking := r.Ranking()
	ids := []string{ranking[0].ID, ranking[1].ID, ranking[2].ID}
	assert.Equal(t, []string{"p2", "p1", "p3"}, ids)
}

func TestViewFor(t *testing.T) {
	r := testRoom()
	r.GameState = StateDrawing
	r.CurrentWord = "apple"
	r.WordOptions = []string{"apple", "cat", "dog"}
	r.DrawingPlayerID = "p1"
	r.Players[0].IsDrawing = true
	r.CustomWords = []string{"secret"}
	r.SetRevealed("p2", []int{0})
	r.SetRevealed("p3", []int{1})
	r.Strokes = []Stroke{{Timestamp: 1}}

	drawer := r.ViewFor("p1")
	assert.Equal(t, "apple", drawer.CurrentWord)
	assert.Len(t, drawer.WordOptions, 3)

	guesser := r.ViewFor("p2")
	assert.Empty(t, guesser.CurrentWord)
	assert.Empty(t, guesser.WordOptions)
	assert.Equal(t, map[string][]int{"p2": {0}}, guesser.RevealedLetters)
	assert.Nil(t, guesser.Strokes)
	assert.Nil(t, guesser.CustomWords)
	assert.Empty(t, guesser.Players[1].ClientID)

	// the source room is untouched
	assert.Equal(t, "c2", r.Players[1].ClientID)
	assert.Len(t, r.Strokes, 1)

	r.GameState = StateRoundEnd
	assert.Equal(t, "apple", r.PublicView().CurrentWord)
}

func TestRoomSnapshotRoundTrip(t *testing.T) {
	r := testRoom()
	r.GameState = StateDrawing
	r.CurrentRound = 2
	r.CurrentWord = "ice cream"
	r.DrawingPlayerID = "p2"
	r.Players[1].IsDrawing = true
	r.Players[2].HasGuessed = true
	r.Players[2].Score = 150
	r.SetRevealed("p1", []int{0, 4})
	r.Strokes = []Stroke{{Points: []DrawPoint{{X: 1, Y: 2, Color: "#000", Size: 3}}, Timestamp: 42}}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded Room
	require.NoError(t, json.Unmarshal(data, &decoded))

	if diff := cmp.Diff(r, &decoded); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}
