package domain

import (
	"slices"
	"sort"
)

// Room is the shared state snapshot of one game room. It is stored as JSON
// and every process works on a freshly loaded copy.
type Room struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	HostID          string           `json:"hostId"`
	Players         []*Player        `json:"players"`
	CurrentRound    int              `json:"currentRound"`
	TotalRounds     int              `json:"totalRounds"`
	CurrentWord     string           `json:"currentWord"`
	WordOptions     []string         `json:"wordOptions"`
	DrawingPlayerID string           `json:"drawingPlayerId"`
	RoundStartTime  int64            `json:"roundStartTime"`
	RoundDuration   int              `json:"roundDuration"`
	GameState       GameState        `json:"gameState"`
	CustomWords     []string         `json:"customWords"`
	RevealedLetters map[string][]int `json:"revealedLetters"`
	IsPublic        bool             `json:"isPublic"`
	MaxPlayers      int              `json:"maxPlayers"`
	Strokes         []Stroke         `json:"strokes"`
	CreatedAt       int64            `json:"createdAt"`
	SettingsVersion int              `json:"settingsVersion"`

	// CountdownEndsAt is when a running start countdown is due, in unix
	// millis. Zero when none runs.
	CountdownEndsAt int64 `json:"countdownEndsAt,omitempty"`
}

func NewRoom(id string, settings RoomSettings, host *Player, createdAt int64) *Room {
	settings = settings.Normalize()
	host.IsAdmin = true
	return &Room{
		ID:              id,
		Name:            settings.Name,
		HostID:          host.ID,
		Players:         []*Player{host},
		TotalRounds:     settings.TotalRounds,
		RoundDuration:   settings.RoundDuration,
		GameState:       StateLobby,
		CustomWords:     settings.CustomWords,
		RevealedLetters: map[string][]int{},
		IsPublic:        settings.IsPublic,
		MaxPlayers:      settings.MaxPlayers,
		CreatedAt:       createdAt,
		SettingsVersion: settings.Version,
	}
}

func (r *Room) FindPlayer(id string) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// RemovePlayer drops the player and returns the removed record.
func (r *Room) RemovePlayer(id string) *Player {
	i := slices.IndexFunc(r.Players, func(p *Player) bool { return p.ID == id })
	if i < 0 {
		return nil
	}
	removed := r.Players[i]
	r.Players = slices.Delete(r.Players, i, i+1)
	delete(r.RevealedLetters, id)
	return removed
}

func (r *Room) Admin() *Player {
	for _, p := range r.Players {
		if p.IsAdmin {
			return p
		}
	}
	return nil
}

// NormalizeAdmin keeps exactly one admin: the first player already flagged,
// or the first player when nobody is.
func (r *Room) NormalizeAdmin() {
	if len(r.Players) == 0 {
		return
	}
	admin := r.Admin()
	if admin == nil {
		admin = r.Players[0]
	}
	for _, p := range r.Players {
		p.IsAdmin = p == admin
	}
}

func (r *Room) Drawer() *Player {
	if r.DrawingPlayerID == "" {
		return nil
	}
	return r.FindPlayer(r.DrawingPlayerID)
}

// AllGuessed reports whether every non-drawer has guessed the word.
func (r *Room) AllGuessed() bool {
	for _, p := range r.Players {
		if !p.IsDrawing && !p.HasGuessed {
			return false
		}
	}
	return true
}

func (r *Room) GuessedCount() int {
	n := 0
	for _, p := range r.Players {
		if p.HasGuessed {
			n++
		}
	}
	return n
}

// Unready returns the non-admin players that have not toggled ready.
func (r *Room) Unready() []*Player {
	var unready []*Player
	for _, p := range r.Players {
		if !p.IsAdmin && !p.IsReady {
			unready = append(unready, p)
		}
	}
	return unready
}

func (r *Room) Summary() RoomSummary {
	return RoomSummary{
		ID:         r.ID,
		Name:       r.Name,
		Players:    len(r.Players),
		MaxPlayers: r.MaxPlayers,
		GameState:  r.GameState,
	}
}

// Ranking returns the players ordered by score, highest first. Ties keep
// seating order.
func (r *Room) Ranking() []ScoreEntry {
	entries := make([]ScoreEntry, 0, len(r.Players))
	for _, p := range r.Players {
		entries = append(entries, ScoreEntry{ID: p.ID, Name: p.Name, Avatar: p.Avatar, Score: p.Score})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	return entries
}

func (r *Room) Revealed(playerID string) []int {
	return r.RevealedLetters[playerID]
}

func (r *Room) SetRevealed(playerID string, positions []int) {
	if r.RevealedLetters == nil {
		r.RevealedLetters = map[string][]int{}
	}
	r.RevealedLetters[playerID] = positions
}

// ViewFor returns the copy of the room a given player may see. The word
// options are only kept for the drawer, the current word for the drawer or
// once the round is over, and the revealed letters only for the viewer.
// Custom words and strokes are left out; strokes travel separately on join.
func (r *Room) ViewFor(playerID string) *Room {
	v := *r
	v.Players = make([]*Player, len(r.Players))
	for i, p := range r.Players {
		cp := *p
		cp.ClientID = ""
		v.Players[i] = &cp
	}
	v.CustomWords = nil
	isDrawer := playerID != "" && playerID == r.DrawingPlayerID
	if !isDrawer {
		v.WordOptions = nil
		if r.GameState != StateRoundEnd {
			v.CurrentWord = ""
		}
	}
	v.RevealedLetters = map[string][]int{}
	if pos, ok := r.RevealedLetters[playerID]; ok {
		v.RevealedLetters[playerID] = slices.Clone(pos)
	}
	v.Strokes = nil
	return &v
}

// PublicView is the room as broadcast to everyone.
func (r *Room) PublicView() *Room {
	return r.ViewFor("")
}
