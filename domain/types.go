package domain

type GameState string

const (
	StateLobby         GameState = "lobby"
	StateWordSelection GameState = "word-selection"
	StateDrawing       GameState = "drawing"
	StateRoundEnd      GameState = "round-end"
	StateGameEnd       GameState = "game-end"
)

// InGame reports whether a round cycle is running.
func (s GameState) InGame() bool {
	return s == StateWordSelection || s == StateDrawing || s == StateRoundEnd
}

type Player struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Avatar     string `json:"avatar"`
	ClientID   string `json:"clientId,omitempty"`
	Score      int    `json:"score"`
	IsAdmin    bool   `json:"isAdmin"`
	IsDrawing  bool   `json:"isDrawing"`
	HasGuessed bool   `json:"hasGuessed"`
	IsReady    bool   `json:"isReady"`
}

type DrawPoint struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Color    string  `json:"color"`
	Size     float64 `json:"size"`
	IsEraser bool    `json:"isEraser,omitempty"`
}

type Stroke struct {
	Points    []DrawPoint `json:"points"`
	Timestamp int64       `json:"timestamp"`
}

type Message struct {
	ID             string `json:"id"`
	PlayerID       string `json:"playerId"`
	PlayerName     string `json:"playerName"`
	Content        string `json:"content"`
	Timestamp      int64  `json:"timestamp"`
	IsCorrectGuess bool   `json:"isCorrectGuess"`
	IsCloseGuess   bool   `json:"isCloseGuess"`
}

// DisconnectedPlayer is the reconnection record kept for a player whose
// connection dropped mid-session.
type DisconnectedPlayer struct {
	Player         Player `json:"player"`
	RoomID         string `json:"roomId"`
	DisconnectedAt int64  `json:"disconnectedAt"`
	Round          int    `json:"round"`
}

type HighScore struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type ScoreEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Score  int    `json:"score"`
}

// RoomSummary is the lobby listing entry of a public room.
type RoomSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Players    int       `json:"players"`
	MaxPlayers int       `json:"maxPlayers"`
	GameState  GameState `json:"gameState"`
}

// GameResult is one archived row of a finished game.
type GameResult struct {
	RoomID  string `json:"roomId"`
	Name    string `json:"name"`
	Score   int    `json:"score"`
	Rank    int    `json:"rank"`
	EndedAt int64  `json:"endedAt"`
}
