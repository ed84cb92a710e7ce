package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pictobattle/broker"
	"pictobattle/domain"
	"pictobattle/logger"
)

type Store interface {
	GetRoom(ctx context.Context, roomID string) (*domain.Room, error)
	RoomExists(ctx context.Context, roomID string) (bool, error)
	SaveRoom(ctx context.Context, room *domain.Room) error
	DeleteRoom(ctx context.Context, roomID string) error
	ListRooms(ctx context.Context) ([]*domain.Room, error)
	SaveDisconnected(ctx context.Context, clientID string, rec domain.DisconnectedPlayer, ttl time.Duration) error
	GetDisconnected(ctx context.Context, roomID, clientID string) (*domain.DisconnectedPlayer, error)
	DeleteDisconnected(ctx context.Context, roomID, clientID string) error
	AddHighScores(ctx context.Context, scores []domain.HighScore) error
	TopHighScores(ctx context.Context, n int) ([]domain.HighScore, error)
}

type RoomLocker interface {
	LockRoom(ctx context.Context, roomID string) (func(), error)
}

// GameArchive keeps finished games beyond the life of their room.
type GameArchive interface {
	RecordGame(ctx context.Context, roomID string, ranking []domain.ScoreEntry, endedAt time.Time) error
	GameResults(ctx context.Context, roomID string) ([]domain.GameResult, error)
}

type Timings struct {
	RoundEndDelay   time.Duration
	Countdown       time.Duration
	CountdownTick   time.Duration
	EvictionDelay   time.Duration
	ReconnectWindow time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		RoundEndDelay:   5 * time.Second,
		Countdown:       60 * time.Second,
		CountdownTick:   time.Second,
		EvictionDelay:   30 * time.Second,
		ReconnectWindow: 5 * time.Minute,
	}
}

const highScoresShown = 20

type Options struct {
	Store     Store
	Locker    RoomLocker
	Bus       broker.Bus
	Directory Directory
	Scheduler Scheduler
	Archive   GameArchive
	Words     RandomWordsGenerator
	Ids       UniqueIdGenerator
	Rules     Rules
	Timings   Timings
	Now       func() time.Time
	ProcessID string
}

// Coordinator owns the local connections and turns their events into room
// transitions. Work on a room runs on that room's mailbox; its events reach
// every process through the bus.
type Coordinator struct {
	store   Store
	locker  RoomLocker
	bus     broker.Bus
	dir     Directory
	sched   Scheduler
	archive GameArchive
	ids     UniqueIdGenerator
	machine *machine
	timings Timings
	origin  string
	log     zerolog.Logger
	baseCtx context.Context

	mailboxMu sync.Mutex
	mailboxes map[string]*mailbox

	timersMu   sync.Mutex
	timers     map[timerKey]armedTimer
	timerGen   uint64
	countdowns map[string]int
}

type nopLocker struct{}

func (nopLocker) LockRoom(context.Context, string) (func(), error) {
	return func() {}, nil
}

func NewCoordinator(opts Options) *Coordinator {
	if opts.Locker == nil {
		opts.Locker = nopLocker{}
	}
	if opts.Bus == nil {
		opts.Bus = broker.NewLocal()
	}
	if opts.Directory == nil {
		opts.Directory = NewDirectory()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = NewScheduler()
	}
	if opts.Words == nil {
		opts.Words = NewRandomWords()
	}
	if opts.Ids == nil {
		opts.Ids = NewIdGen()
	}
	if opts.Rules == (Rules{}) {
		opts.Rules = DefaultRules()
	}
	if opts.Timings == (Timings{}) {
		opts.Timings = DefaultTimings()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ProcessID == "" {
		opts.ProcessID = uuid.NewString()
	}

	return &Coordinator{
		store:      opts.Store,
		locker:     opts.Locker,
		bus:        opts.Bus,
		dir:        opts.Directory,
		sched:      opts.Scheduler,
		archive:    opts.Archive,
		ids:        opts.Ids,
		machine:    newMachine(opts.Words, opts.Ids, opts.Rules, opts.Now),
		timings:    opts.Timings,
		origin:     opts.ProcessID,
		log:        logger.Component("coordinator").With().Str("process", opts.ProcessID).Logger(),
		baseCtx:    context.Background(),
		mailboxes:  map[string]*mailbox{},
		timers:     map[timerKey]armedTimer{},
		countdowns: map[string]int{},
	}
}

// Start subscribes to the bus. Envelopes are delivered until ctx is done.
func (c *Coordinator) Start(ctx context.Context) error {
	c.baseCtx = context.WithoutCancel(ctx)
	return c.bus.Subscribe(ctx, c.deliver)
}

// Stop cancels every pending timer of this process.
func (c *Coordinator) Stop() {
	c.disarmAll()
}

func (c *Coordinator) Register(conn Conn) {
	c.dir.Register(conn)
}

// Handle runs one inbound event and reports failures to the sender.
func (c *Coordinator) Handle(ctx context.Context, conn Conn, ev Inbound) {
	c.dir.Register(conn)
	if err := c.dispatch(ctx, conn, ev); err != nil {
		c.replyError(conn, ev, err)
	}
}

func (c *Coordinator) dispatch(ctx context.Context, conn Conn, ev Inbound) error {
	switch ev := ev.(type) {
	case *CreateRoom:
		return c.CreateRoom(ctx, conn, *ev)
	case *JoinRoom:
		return c.JoinRoom(ctx, conn, *ev)
	case *LeaveRoom:
		return c.LeaveRoom(ctx, conn)
	case *StartGame:
		return c.StartGame(ctx, conn)
	case *ForceStartGame:
		return c.ForceStartGame(ctx, conn)
	case *SelectWord:
		return c.SelectWord(ctx, conn, ev.Word)
	case *Draw:
		return c.Draw(ctx, conn, ev.Stroke)
	case *DrawSegment:
		return c.DrawSegment(ctx, conn, ev.Stroke)
	case *ClearCanvas:
		return c.ClearCanvas(ctx, conn)
	case *SendMessage:
		return c.SendMessage(ctx, conn, ev.Content)
	case *RestartGame:
		return c.RestartGame(ctx, conn)
	case *PlayerReady:
		return c.TogglePlayerReady(ctx, conn)
	case *KickPlayer:
		return c.KickPlayer(ctx, conn, ev.PlayerID)
	case *GetRooms:
		return c.SendRoomList(ctx, conn)
	case *GetHighScores:
		return c.SendHighScores(ctx, conn)
	default:
		return fmt.Errorf("%w: unhandled event %T", domain.ErrInvalidEvent, ev)
	}
}

func (c *Coordinator) replyError(conn Conn, ev Inbound, err error) {
	ge, ok := domain.AsGameError(err)
	if !ok {
		c.log.Error().Err(err).Str("conn", conn.ID()).Str("event", string(ev.Kind())).Msg("event failed")
		ge = domain.ErrServiceUnavailable
	} else {
		c.log.Debug().Str("conn", conn.ID()).Str("event", string(ev.Kind())).Str("code", ge.Code).Msg("event rejected")
	}
	c.sendEvent(conn, errorEvent(ge))
}

func (c *Coordinator) sendEvent(conn Conn, ev Outbound) {
	frame, err := EncodeOutbound(ev)
	if err != nil {
		c.log.Error().Err(err).Str("event", string(ev.Kind())).Msg("encode failed")
		return
	}
	c.send(conn, frame)
}

func (c *Coordinator) send(conn Conn, frame []byte) {
	if err := conn.Send(frame); err != nil {
		c.log.Debug().Err(err).Str("conn", conn.ID()).Msg("send dropped")
	}
}

// deliver writes an envelope to the local connections in its scope. A kick
// also detaches the kicked connection from its room here, wherever the kick
// was decided.
func (c *Coordinator) deliver(env broker.Envelope) {
	switch env.Scope {
	case broker.ScopeLobby:
		for _, s := range c.dir.All() {
			c.send(s.Conn, env.Frame)
		}
	case broker.ScopeRoom:
		for _, s := range c.dir.InRoom(env.RoomID) {
			if env.ExceptPlayerID != "" && s.PlayerID == env.ExceptPlayerID {
				continue
			}
			c.send(s.Conn, env.Frame)
		}
	case broker.ScopePlayer:
		s, ok := c.dir.PlayerSession(env.RoomID, env.PlayerID)
		if !ok {
			return
		}
		c.send(s.Conn, env.Frame)
		if env.Kind == string(OutPlayerKicked) {
			c.dir.Unbind(s.Conn.ID())
		}
	default:
		c.log.Warn().Str("scope", string(env.Scope)).Msg("unknown envelope scope")
	}
}

// loadRoom fails closed: a store that cannot answer reads as a missing room.
func (c *Coordinator) loadRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	room, err := c.store.GetRoom(ctx, roomID)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, domain.ErrRoomNotFound) {
		c.log.Warn().Err(err).Str("roomId", roomID).Msg("room load failed")
	}
	return nil, domain.ErrRoomNotFound
}

func (c *Coordinator) save(ctx context.Context, room *domain.Room) error {
	if err := c.store.SaveRoom(ctx, room); err != nil {
		c.log.Error().Err(err).Str("roomId", room.ID).Msg("room save failed")
		return domain.ErrServiceUnavailable
	}
	return nil
}

type roomFunc func(ctx context.Context, out *outbox, room *domain.Room, player *domain.Player) error

// inRoom runs fn on the mailbox of the caller's room with the room and the
// caller's player freshly loaded.
func (c *Coordinator) inRoom(ctx context.Context, conn Conn, fn roomFunc) error {
	s, ok := c.dir.Lookup(conn.ID())
	if !ok || s.RoomID == "" {
		return domain.ErrNotInRoom
	}
	return c.submit(ctx, s.RoomID, func(ctx context.Context, out *outbox) error {
		room, err := c.loadRoom(ctx, s.RoomID)
		if err != nil {
			return err
		}
		player := room.FindPlayer(s.PlayerID)
		if player == nil {
			return domain.ErrNotInRoom
		}
		return fn(ctx, out, room, player)
	})
}

func (c *Coordinator) SendRoomList(ctx context.Context, conn Conn) error {
	rooms, err := c.PublicRooms(ctx)
	if err != nil {
		return err
	}
	c.sendEvent(conn, RoomsListEvent{Rooms: rooms})
	return nil
}

func (c *Coordinator) HighScores(ctx context.Context) ([]domain.HighScore, error) {
	return c.store.TopHighScores(ctx, highScoresShown)
}

func (c *Coordinator) SendHighScores(ctx context.Context, conn Conn) error {
	scores, err := c.HighScores(ctx)
	if err != nil {
		return err
	}
	c.sendEvent(conn, HighScoresListEvent{Scores: scores})
	return nil
}

// GameResults returns the archived ranking of the last game in a room.
func (c *Coordinator) GameResults(ctx context.Context, roomID string) ([]domain.GameResult, bool, error) {
	if c.archive == nil {
		return nil, false, nil
	}
	results, err := c.archive.GameResults(ctx, roomID)
	return results, true, err
}
