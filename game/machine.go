package game

import (
	"slices"
	"time"

	"pictobattle/domain"
)

// Rules holds the scoring constants.
type Rules struct {
	PointsForCorrectGuess    int
	BonusPointsForFirstGuess int
}

func DefaultRules() Rules {
	return Rules{
		PointsForCorrectGuess:    domain.DefaultPoints,
		BonusPointsForFirstGuess: domain.DefaultFirstBonus,
	}
}

// machine applies the room state transitions. It only mutates the room it is
// handed; persistence, timers and fan-out belong to the coordinator.
type machine struct {
	words RandomWordsGenerator
	ids   UniqueIdGenerator
	rules Rules
	now   func() time.Time
}

func newMachine(words RandomWordsGenerator, ids UniqueIdGenerator, rules Rules, now func() time.Time) *machine {
	return &machine{words: words, ids: ids, rules: rules, now: now}
}

func (m *machine) millis() int64 {
	return m.now().UnixMilli()
}

// startGame resets per-game state and opens round one.
func (m *machine) startGame(room *domain.Room) error {
	if room.GameState != domain.StateLobby {
		return domain.ErrGameInProgress
	}
	if len(room.Players) < 2 {
		return domain.ErrNotEnoughPlayers
	}
	for _, p := range room.Players {
		p.Score = 0
		p.HasGuessed = false
		p.IsDrawing = false
		p.IsReady = false
	}
	room.Strokes = nil
	room.CurrentRound = 1
	m.setupRound(room)
	return nil
}

// setupRound picks the drawer round-robin and offers three words.
func (m *machine) setupRound(room *domain.Room) {
	drawer := room.Players[(room.CurrentRound-1)%len(room.Players)]
	for _, p := range room.Players {
		p.HasGuessed = false
		p.IsDrawing = p == drawer
	}
	room.GameState = domain.StateWordSelection
	room.DrawingPlayerID = drawer.ID
	room.CurrentWord = ""
	room.WordOptions = m.words.Generate(wordPool(room.CustomWords), wordOptionsCount)
	room.RevealedLetters = map[string][]int{}
	room.RoundStartTime = 0
	room.Strokes = nil
}

func (m *machine) selectWord(room *domain.Room, playerID, word string) error {
	p := room.FindPlayer(playerID)
	if p == nil || !p.IsDrawing || room.DrawingPlayerID != playerID {
		return domain.ErrNotDrawer
	}
	if room.GameState != domain.StateWordSelection {
		return domain.ErrWrongPhase
	}
	if !slices.Contains(room.WordOptions, word) {
		return domain.ErrInvalidWord
	}
	room.CurrentWord = word
	room.GameState = domain.StateDrawing
	room.RoundStartTime = m.millis()
	return nil
}

// endRound closes the current round. The word stays visible until the next
// round is set up.
func (m *machine) endRound(room *domain.Room) {
	room.GameState = domain.StateRoundEnd
	room.DrawingPlayerID = ""
	room.WordOptions = nil
	room.RoundStartTime = 0
	for _, p := range room.Players {
		p.IsDrawing = false
	}
}

// nextRound advances after the intermission and reports whether the game is
// over instead.
func (m *machine) nextRound(room *domain.Room) (gameOver bool) {
	if room.CurrentRound >= room.TotalRounds || len(room.Players) == 0 {
		return true
	}
	room.CurrentRound++
	m.setupRound(room)
	return false
}

func (m *machine) finishGame(room *domain.Room) []domain.ScoreEntry {
	room.GameState = domain.StateGameEnd
	room.CurrentWord = ""
	room.WordOptions = nil
	room.DrawingPlayerID = ""
	room.RoundStartTime = 0
	for _, p := range room.Players {
		p.IsDrawing = false
	}
	return room.Ranking()
}

// restart brings any room back to a fresh lobby keeping the seated players.
func (m *machine) restart(room *domain.Room) {
	room.GameState = domain.StateLobby
	room.CurrentRound = 0
	room.CountdownEndsAt = 0
	room.CurrentWord = ""
	room.WordOptions = nil
	room.DrawingPlayerID = ""
	room.RoundStartTime = 0
	room.RevealedLetters = map[string][]int{}
	room.Strokes = nil
	for _, p := range room.Players {
		p.Score = 0
		p.IsDrawing = false
		p.HasGuessed = false
		p.IsReady = false
	}
	room.NormalizeAdmin()
}

type guessResult struct {
	message domain.Message

	correct    bool
	firstGuess bool
	points     int
	roundOver  bool

	close     bool
	hintDirty bool
	revealed  []int
}

// guess scores a chat line against the current word. Lines that are not a
// correct guess are returned as chat, possibly flagged close, and may reveal
// letters to the sender.
func (m *machine) guess(room *domain.Room, playerID, content string) (guessResult, error) {
	p := room.FindPlayer(playerID)
	if p == nil {
		return guessResult{}, domain.ErrNotInRoom
	}
	if p.IsDrawing {
		return guessResult{}, domain.ErrDrawerCannotGuess
	}

	res := guessResult{message: domain.Message{
		ID:         m.ids.MessageID(),
		PlayerID:   p.ID,
		PlayerName: p.Name,
		Content:    content,
		Timestamp:  m.millis(),
	}}

	guessing := room.GameState == domain.StateDrawing && room.CurrentWord != "" && !p.HasGuessed
	if !guessing {
		return res, nil
	}

	if isCorrectGuess(content, room.CurrentWord) {
		p.HasGuessed = true
		res.correct = true
		res.message.IsCorrectGuess = true
		res.firstGuess = room.GuessedCount() == 1
		res.points = m.rules.PointsForCorrectGuess
		if res.firstGuess {
			res.points += m.rules.BonusPointsForFirstGuess
		}
		p.Score += res.points
		res.roundOver = room.AllGuessed()
		return res, nil
	}

	res.close = isCloseGuess(content, room.CurrentWord)
	res.message.IsCloseGuess = res.close
	res.revealed, res.hintDirty = revealLetters(room.CurrentWord, content, room.Revealed(p.ID))
	if res.hintDirty {
		room.SetRevealed(p.ID, res.revealed)
	}
	return res, nil
}
