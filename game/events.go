package game

import (
	"encoding/json"
	"fmt"

	"pictobattle/domain"
)

type InboundKind string

const (
	InCreateRoom     InboundKind = "create_room"
	InJoinRoom       InboundKind = "join_room"
	InLeaveRoom      InboundKind = "leave_room"
	InStartGame      InboundKind = "start_game"
	InForceStartGame InboundKind = "force_start_game"
	InSelectWord     InboundKind = "select_word"
	InDraw           InboundKind = "draw"
	InDrawSegment    InboundKind = "draw_segment"
	InClearCanvas    InboundKind = "clear_canvas"
	InSendMessage    InboundKind = "send_message"
	InRestartGame    InboundKind = "restart_game"
	InPlayerReady    InboundKind = "player_ready"
	InKickPlayer     InboundKind = "kick_player"
	InGetRooms       InboundKind = "get_rooms"
	InGetHighScores  InboundKind = "get_high_scores"
)

// Inbound is a decoded client event. The set of implementations is closed;
// the coordinator switches over it and fails loudly on anything else.
type Inbound interface {
	Kind() InboundKind
}

type CreateRoom struct {
	PlayerName   string   `json:"playerName"`
	PlayerAvatar string   `json:"playerAvatar"`
	RoomName     string   `json:"roomName"`
	CustomWords  []string `json:"customWords"`
	IsPublic     *bool    `json:"isPublic"`
	TotalRounds  int      `json:"totalRounds"`
	ClientID     string   `json:"clientId"`
}

type JoinRoom struct {
	RoomID       string `json:"roomId"`
	PlayerName   string `json:"playerName"`
	PlayerAvatar string `json:"playerAvatar"`
	ClientID     string `json:"clientId"`
}

type LeaveRoom struct{}
type StartGame struct{}
type ForceStartGame struct{}

type SelectWord struct {
	Word string `json:"word"`
}

type Draw struct {
	Stroke domain.Stroke `json:"stroke"`
}

type DrawSegment struct {
	Stroke domain.Stroke `json:"stroke"`
}

type ClearCanvas struct{}

type SendMessage struct {
	Content string `json:"content"`
}

type RestartGame struct{}
type PlayerReady struct{}

type KickPlayer struct {
	PlayerID string `json:"playerId"`
}

type GetRooms struct{}
type GetHighScores struct{}

func (CreateRoom) Kind() InboundKind     { return InCreateRoom }
func (JoinRoom) Kind() InboundKind       { return InJoinRoom }
func (LeaveRoom) Kind() InboundKind      { return InLeaveRoom }
func (StartGame) Kind() InboundKind      { return InStartGame }
func (ForceStartGame) Kind() InboundKind { return InForceStartGame }
func (SelectWord) Kind() InboundKind     { return InSelectWord }
func (Draw) Kind() InboundKind           { return InDraw }
func (DrawSegment) Kind() InboundKind    { return InDrawSegment }
func (ClearCanvas) Kind() InboundKind    { return InClearCanvas }
func (SendMessage) Kind() InboundKind    { return InSendMessage }
func (RestartGame) Kind() InboundKind    { return InRestartGame }
func (PlayerReady) Kind() InboundKind    { return InPlayerReady }
func (KickPlayer) Kind() InboundKind     { return InKickPlayer }
func (GetRooms) Kind() InboundKind       { return InGetRooms }
func (GetHighScores) Kind() InboundKind  { return InGetHighScores }

// Settings turns the create payload into normalized room settings.
func (p CreateRoom) Settings() domain.RoomSettings {
	s := domain.DefaultSettings()
	s.Name = p.RoomName
	s.TotalRounds = p.TotalRounds
	s.CustomWords = p.CustomWords
	if p.IsPublic != nil {
		s.IsPublic = *p.IsPublic
	}
	return s.Normalize()
}

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

var inboundDecoders = map[InboundKind]func() Inbound{
	InCreateRoom:     func() Inbound { return &CreateRoom{} },
	InJoinRoom:       func() Inbound { return &JoinRoom{} },
	InLeaveRoom:      func() Inbound { return &LeaveRoom{} },
	InStartGame:      func() Inbound { return &StartGame{} },
	InForceStartGame: func() Inbound { return &ForceStartGame{} },
	InSelectWord:     func() Inbound { return &SelectWord{} },
	InDraw:           func() Inbound { return &Draw{} },
	InDrawSegment:    func() Inbound { return &DrawSegment{} },
	InClearCanvas:    func() Inbound { return &ClearCanvas{} },
	InSendMessage:    func() Inbound { return &SendMessage{} },
	InRestartGame:    func() Inbound { return &RestartGame{} },
	InPlayerReady:    func() Inbound { return &PlayerReady{} },
	InKickPlayer:     func() Inbound { return &KickPlayer{} },
	InGetRooms:       func() Inbound { return &GetRooms{} },
	InGetHighScores:  func() Inbound { return &GetHighScores{} },
}

// DecodeInbound parses a `{type, payload}` frame into its typed event.
func DecodeInbound(data []byte) (Inbound, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidEvent, err)
	}
	newEvent, ok := inboundDecoders[InboundKind(f.Type)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown type %q", domain.ErrInvalidEvent, f.Type)
	}
	ev := newEvent()
	if len(f.Payload) > 0 && string(f.Payload) != "null" {
		if err := json.Unmarshal(f.Payload, ev); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidEvent, err)
		}
	}
	return ev, nil
}

type OutboundKind string

const (
	OutRoomCreated       OutboundKind = "room_created"
	OutRoomJoined        OutboundKind = "room_joined"
	OutRoomUpdated       OutboundKind = "room_updated"
	OutPlayerJoined      OutboundKind = "player_joined"
	OutPlayerLeft        OutboundKind = "player_left"
	OutPlayerReconnected OutboundKind = "player_reconnected"
	OutPlayerKicked      OutboundKind = "player_kicked"
	OutPlayerReady       OutboundKind = "player_ready"
	OutRoomsList         OutboundKind = "rooms_list"
	OutGameStartCount    OutboundKind = "game_start_countdown"
	OutGameStarted       OutboundKind = "game_started"
	OutRoundStart        OutboundKind = "round_start"
	OutWordSelected      OutboundKind = "word_selected"
	OutRoundEnd          OutboundKind = "round_end"
	OutGameEnd           OutboundKind = "game_end"
	OutRestartGame       OutboundKind = "restart_game"
	OutDrawUpdate        OutboundKind = "draw_update"
	OutCanvasCleared     OutboundKind = "canvas_cleared"
	OutNewMessage        OutboundKind = "new_message"
	OutCorrectGuess      OutboundKind = "correct_guess"
	OutCloseGuess        OutboundKind = "close_guess"
	OutWordHintUpdate    OutboundKind = "word_hint_update"
	OutHighScoresList    OutboundKind = "high_scores_list"
	OutError             OutboundKind = "error"
)

type Outbound interface {
	Kind() OutboundKind
}

type RoomCreatedEvent struct {
	RoomID   string       `json:"roomId"`
	Room     *domain.Room `json:"room"`
	PlayerID string       `json:"playerId"`
}

type RoomJoinedEvent struct {
	Room        *domain.Room    `json:"room"`
	PlayerID    string          `json:"playerId"`
	Reconnected bool            `json:"reconnected"`
	Strokes     []domain.Stroke `json:"strokes"`
}

type RoomUpdatedEvent struct {
	Room *domain.Room `json:"room"`
}

type PlayerJoinedEvent struct {
	Player *domain.Player `json:"player"`
}

type PlayerLeftEvent struct {
	PlayerID string `json:"playerId"`
}

type PlayerReconnectedEvent struct {
	Player *domain.Player `json:"player"`
}

type PlayerKickedEvent struct {
	Message string `json:"message"`
}

type PlayerReadyEvent struct {
	PlayerID string `json:"playerId"`
	IsReady  bool   `json:"isReady"`
}

type RoomsListEvent struct {
	Rooms []domain.RoomSummary `json:"rooms"`
}

type GameStartCountdownEvent struct {
	SecondsRemaining int `json:"secondsRemaining"`
	UnreadyCount     int `json:"unreadyCount"`
}

type GameStartedEvent struct {
	Room *domain.Room `json:"room"`
}

type RoundStartEvent struct {
	Room *domain.Room `json:"room"`
}

type WordSelectedEvent struct {
	Word       string `json:"word"`
	WordLength int    `json:"wordLength"`
}

type RoundEndEvent struct {
	Word   string              `json:"word"`
	Scores []domain.ScoreEntry `json:"scores"`
}

type GameEndEvent struct {
	Scores []domain.ScoreEntry `json:"scores"`
}

type RestartGameEvent struct{}

type DrawUpdateEvent struct {
	Stroke domain.Stroke `json:"stroke"`
}

type CanvasClearedEvent struct{}

type NewMessageEvent struct {
	Message domain.Message `json:"message"`
}

type CorrectGuessEvent struct {
	PlayerID     string `json:"playerId"`
	PlayerName   string `json:"playerName"`
	Points       int    `json:"points"`
	IsFirstGuess bool   `json:"isFirstGuess"`
}

type CloseGuessEvent struct {
	Message string `json:"message"`
}

type WordHintUpdateEvent struct {
	PlayerID          string `json:"playerId"`
	RevealedPositions []int  `json:"revealedPositions"`
	HintWord          string `json:"hintWord"`
}

type HighScoresListEvent struct {
	Scores []domain.HighScore `json:"scores"`
}

type ErrorEvent struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (RoomCreatedEvent) Kind() OutboundKind        { return OutRoomCreated }
func (RoomJoinedEvent) Kind() OutboundKind         { return OutRoomJoined }
func (RoomUpdatedEvent) Kind() OutboundKind        { return OutRoomUpdated }
func (PlayerJoinedEvent) Kind() OutboundKind       { return OutPlayerJoined }
func (PlayerLeftEvent) Kind() OutboundKind         { return OutPlayerLeft }
func (PlayerReconnectedEvent) Kind() OutboundKind  { return OutPlayerReconnected }
func (PlayerKickedEvent) Kind() OutboundKind       { return OutPlayerKicked }
func (PlayerReadyEvent) Kind() OutboundKind        { return OutPlayerReady }
func (RoomsListEvent) Kind() OutboundKind          { return OutRoomsList }
func (GameStartCountdownEvent) Kind() OutboundKind { return OutGameStartCount }
func (GameStartedEvent) Kind() OutboundKind        { return OutGameStarted }
func (RoundStartEvent) Kind() OutboundKind         { return OutRoundStart }
func (WordSelectedEvent) Kind() OutboundKind       { return OutWordSelected }
func (RoundEndEvent) Kind() OutboundKind           { return OutRoundEnd }
func (GameEndEvent) Kind() OutboundKind            { return OutGameEnd }
func (RestartGameEvent) Kind() OutboundKind        { return OutRestartGame }
func (DrawUpdateEvent) Kind() OutboundKind         { return OutDrawUpdate }
func (CanvasClearedEvent) Kind() OutboundKind      { return OutCanvasCleared }
func (NewMessageEvent) Kind() OutboundKind         { return OutNewMessage }
func (CorrectGuessEvent) Kind() OutboundKind       { return OutCorrectGuess }
func (CloseGuessEvent) Kind() OutboundKind         { return OutCloseGuess }
func (WordHintUpdateEvent) Kind() OutboundKind     { return OutWordHintUpdate }
func (HighScoresListEvent) Kind() OutboundKind     { return OutHighScoresList }
func (ErrorEvent) Kind() OutboundKind              { return OutError }

func errorEvent(ge *domain.GameError) ErrorEvent {
	return ErrorEvent{Message: ge.Message, Code: ge.Code}
}

// EncodeOutbound renders an event as a `{type, payload}` frame.
func EncodeOutbound(ev Outbound) ([]byte, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return json.Marshal(frame{Type: string(ev.Kind()), Payload: payload})
}
