package game

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pictobattle/domain"
)

func TestDecodeInbound(t *testing.T) {
	testCases := []struct {
		desc     string
		data     string
		expected Inbound
	}{
		{
			desc: "create room",
			data: `{"type":"create_room","payload":{"playerName":"alice","playerAvatar":"🐱","isPublic":false,"totalRounds":4,"customWords":["pizza"],"clientId":"c1"}}`,
			expected: &CreateRoom{PlayerName: "alice", PlayerAvatar: "🐱", IsPublic: new(bool), TotalRounds: 4,
				CustomWords: []string{"pizza"}, ClientID: "c1"},
		},
		{
			desc:     "join room",
			data:     `{"type":"join_room","payload":{"roomId":"ABC123","playerName":"bob","clientId":"c2"}}`,
			expected: &JoinRoom{RoomID: "ABC123", PlayerName: "bob", ClientID: "c2"},
		},
		{
			desc:     "no payload",
			data:     `{"type":"start_game"}`,
			expected: &StartGame{},
		},
		{
			desc:     "null payload",
			data:     `{"type":"player_ready","payload":null}`,
			expected: &PlayerReady{},
		},
		{
			desc: "draw segment",
			data: `{"type":"draw_segment","payload":{"roomId":"ignored","stroke":{"points":[{"x":1,"y":2,"color":"#000","size":4}],"timestamp":9}}}`,
			expected: &DrawSegment{Stroke: domain.Stroke{
				Points:    []domain.DrawPoint{{X: 1, Y: 2, Color: "#000", Size: 4}},
				Timestamp: 9,
			}},
		},
		{
			desc:     "kick",
			data:     `{"type":"kick_player","payload":{"playerId":"p2"}}`,
			expected: &KickPlayer{PlayerID: "p2"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			ev, err := DecodeInbound([]byte(tc.data))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ev)
		})
	}
}

func TestDecodeInboundRejects(t *testing.T) {
	for _, data := range []string{
		`not json`,
		`{"type":"teleport"}`,
		`{"type":"disconnect"}`,
		`{"type":"select_word","payload":{"word":42}}`,
	} {
		_, err := DecodeInbound([]byte(data))
		assert.ErrorIs(t, err, domain.ErrInvalidEvent, data)
	}
}

func TestEveryInboundKindIsDispatched(t *testing.T) {
	h := newHarness(t)
	conn := h.conn("lonely")

	for kind, newEvent := range inboundDecoders {
		ev := newEvent()
		assert.Equal(t, kind, ev.Kind())

		err := h.c.dispatch(context.Background(), conn, ev)
		if err != nil {
			assert.NotContains(t, err.Error(), "unhandled event", kind)
		}
	}
}

func TestEncodeOutbound(t *testing.T) {
	data, err := EncodeOutbound(WordSelectedEvent{Word: "_____", WordLength: 5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"word_selected","payload":{"word":"_____","wordLength":5}}`, string(data))

	data, err = EncodeOutbound(errorEvent(domain.ErrRoomNotFound))
	require.NoError(t, err)
	var f recordedFrame
	require.NoError(t, json.Unmarshal(data, &f))
	assert.Equal(t, "error", f.Type)
	assert.JSONEq(t, `{"message":"Room not found","code":"room-not-found"}`, string(f.Payload))

	data, err = EncodeOutbound(NewMessageEvent{Message: domain.Message{
		ID: "m1", PlayerID: "p2", PlayerName: "bob", Content: "bob guessed the word!", Timestamp: 7, IsCorrectGuess: true,
	}})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &f))
	assert.Equal(t, "new_message", f.Type)
	assert.JSONEq(t, `{"message":{"id":"m1","playerId":"p2","playerName":"bob","content":"bob guessed the word!",
		"timestamp":7,"isCorrectGuess":true,"isCloseGuess":false}}`, string(f.Payload))
}

func TestCreateRoomSettings(t *testing.T) {
	s := CreateRoom{RoomName: "fun", TotalRounds: 20}.Settings()
	assert.True(t, s.IsPublic)
	assert.Equal(t, domain.MaxTotalRounds, s.TotalRounds)
	assert.Equal(t, "fun", s.Name)

	private := false
	s = CreateRoom{IsPublic: &private}.Settings()
	assert.False(t, s.IsPublic)
	assert.Equal(t, domain.DefaultTotalRounds, s.TotalRounds)
}
