package game

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const pingInterval = 30 * time.Second

type GameHandler struct {
	coordinator *Coordinator
	upgrader    websocket.Upgrader
}

func NewGameHandler(coordinator *Coordinator, allowedOrigins []string) *GameHandler {
	return &GameHandler{
		coordinator: coordinator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return slices.Contains(allowedOrigins, r.Header.Get("Origin"))
			},
		},
	}
}

func (h *GameHandler) WebsocketHandler(ctx *gin.Context) {
	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("ip", ctx.ClientIP()).Msg("websocket upgrade failed")
		return
	}

	cl := NewClient(uuid.NewString(), NewWebsocketConnection(conn))
	h.coordinator.Register(cl)
	log.Debug().Str("conn", cl.ID()).Str("ip", ctx.ClientIP()).Msg("client connected")

	go cl.WritePump(pingInterval)
	cl.ReadPump(h.coordinator)
}

func (h *GameHandler) ListRoomsHandler(ctx *gin.Context) {
	rooms, err := h.coordinator.PublicRooms(ctx.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("list rooms failed")
		ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service-unavailable"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

func (h *GameHandler) HighScoresHandler(ctx *gin.Context) {
	scores, err := h.coordinator.HighScores(ctx.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("high scores failed")
		ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service-unavailable"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"scores": scores})
}

func (h *GameHandler) GameResultsHandler(ctx *gin.Context) {
	roomID := strings.ToUpper(ctx.Param("id"))
	results, enabled, err := h.coordinator.GameResults(ctx.Request.Context(), roomID)
	switch {
	case !enabled:
		ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "archive-disabled"})
	case err != nil:
		log.Error().Err(err).Str("roomId", roomID).Msg("game results failed")
		ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service-unavailable"})
	case len(results) == 0:
		ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "room-not-found"})
	default:
		ctx.JSON(http.StatusOK, gin.H{"results": results})
	}
}
