package game

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pictobattle/domain"
)

const testOrigin = "http://localhost:5173"

func newTestRouter(h *harness) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewGameHandler(h.c, []string{testOrigin})
	r := gin.New()
	r.GET("/ws", handler.WebsocketHandler)
	r.GET("/rooms", handler.ListRoomsHandler)
	r.GET("/high-scores", handler.HighScoresHandler)
	r.GET("/rooms/:id/results", handler.GameResultsHandler)
	return r
}

func TestRestHandlers(t *testing.T) {
	h := newHarness(t)
	h.lobby(t, []string{"alice"})
	require.NoError(t, h.store.AddHighScores(context.Background(), []domain.HighScore{{Name: "bob", Score: 150}}))

	archive := &MockGameArchive{}
	archive.On("GameResults", "ROOM01").Return([]domain.GameResult{{RoomID: "ROOM01", Name: "bob", Score: 150, Rank: 1, EndedAt: 9}}, nil)
	archive.On("GameResults", "NOPE00").Return(nil, nil)
	archive.On("GameResults", "BROKEN").Return(nil, assert.AnError)

	withArchive := newHarness(t)
	withArchive.c.archive = archive

	testCases := []struct {
		name         string
		h            *harness
		path         string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "public rooms",
			h:            h,
			path:         "/rooms",
			expectedCode: http.StatusOK,
			expectedBody: `{"rooms":[{"id":"ROOM01","name":"alice's room","players":1,"maxPlayers":8,"gameState":"lobby"}]}`,
		},
		{
			name:         "high scores",
			h:            h,
			path:         "/high-scores",
			expectedCode: http.StatusOK,
			expectedBody: `{"scores":[{"name":"bob","score":150}]}`,
		},
		{
			name:         "archive disabled",
			h:            h,
			path:         "/rooms/ROOM01/results",
			expectedCode: http.StatusNotFound,
			expectedBody: `{"error":"archive-disabled"}`,
		},
		{
			name:         "archived results",
			h:            withArchive,
			path:         "/rooms/room01/results",
			expectedCode: http.StatusOK,
			expectedBody: `{"results":[{"roomId":"ROOM01","name":"bob","score":150,"rank":1,"endedAt":9}]}`,
		},
		{
			name:         "no archived game",
			h:            withArchive,
			path:         "/rooms/NOPE00/results",
			expectedCode: http.StatusNotFound,
			expectedBody: `{"error":"room-not-found"}`,
		},
		{
			name:         "archive failure",
			h:            withArchive,
			path:         "/rooms/BROKEN/results",
			expectedCode: http.StatusServiceUnavailable,
			expectedBody: `{"error":"service-unavailable"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			res := httptest.NewRecorder()
			newTestRouter(tc.h).ServeHTTP(res, req)

			assert.Equal(t, tc.expectedCode, res.Code)
			assert.JSONEq(t, tc.expectedBody, res.Body.String())
		})
	}
	archive.AssertExpectations(t)
}

func TestWebsocketHandler(t *testing.T) {
	h := newHarness(t)
	server := httptest.NewServer(newTestRouter(h))
	t.Cleanup(server.Close)
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	t.Run("foreign origin is refused", func(t *testing.T) {
		_, res, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.com"}})
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, res.StatusCode)
	})

	t.Run("create room over the socket", func(t *testing.T) {
		conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {testOrigin}})
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"get_rooms"}`)))
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"create_room","payload":{"playerName":"alice"}}`)))

		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var types []string
		for !slices.Contains(types, string(OutRoomCreated)) {
			var f recordedFrame
			require.NoError(t, conn.ReadJSON(&f))
			types = append(types, f.Type)
		}
		assert.Equal(t, string(OutRoomsList), types[0])

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`nonsense`)))
		var f recordedFrame
		for f.Type != string(OutError) {
			require.NoError(t, conn.ReadJSON(&f))
		}
		assert.JSONEq(t, `{"message":"Malformed event","code":"invalid-event"}`, string(f.Payload))
	})
}
