package game

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pictobattle/domain"
	"pictobattle/storage"
)

// --- WebsocketConnection ---

type MockWebsocketConnection struct {
	mock.Mock
}

func (m *MockWebsocketConnection) Close(errCode string) {
	m.Called(errCode)
}

func (m *MockWebsocketConnection) Write(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockWebsocketConnection) Read() ([]byte, error) {
	args := m.Called()
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockWebsocketConnection) Ping() error {
	args := m.Called()
	return args.Error(0)
}

// --- RandomWordsGenerator ---

type MockRandomWordsGenerator struct {
	mock.Mock
}

func (m *MockRandomWordsGenerator) Generate(pool []string, count int) []string {
	args := m.Called(pool, count)
	return args.Get(0).([]string)
}

// --- EventHandler ---

type MockEventHandler struct {
	mock.Mock
}

func (m *MockEventHandler) Handle(ctx context.Context, conn Conn, ev Inbound) {
	m.Called(conn, ev)
}

func (m *MockEventHandler) Disconnect(ctx context.Context, conn Conn) {
	m.Called(conn)
}

// --- fixed collaborators ---

type fixedWords []string

func (w fixedWords) Generate([]string, int) []string {
	return slices.Clone(w)
}

type seqIds struct {
	mu                      sync.Mutex
	rooms, players, message int
}

func (s *seqIds) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms++
	return fmt.Sprintf("ROOM%02d", s.rooms)
}

func (s *seqIds) PlayerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players++
	return fmt.Sprintf("p%d", s.players)
}

func (s *seqIds) MessageID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message++
	return fmt.Sprintf("m%d", s.message)
}

// --- Scheduler ---

type fakeTimer struct {
	s       *fakeScheduler
	d       time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{s: s, d: d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) active(d time.Duration) []*fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*fakeTimer
	for _, t := range s.timers {
		if t.d == d && !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fire runs the latest pending timer of duration d as if it expired.
func (s *fakeScheduler) fire(t *testing.T, d time.Duration) {
	t.Helper()
	pending := s.active(d)
	require.NotEmptyf(t, pending, "no pending %s timer", d)
	timer := pending[len(pending)-1]

	s.mu.Lock()
	timer.fired = true
	s.mu.Unlock()
	timer.fn()
}

// --- Conn ---

type recordedFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type recordingConn struct {
	id     string
	mu     sync.Mutex
	frames []recordedFrame
}

func newRecordingConn(id string) *recordingConn {
	return &recordingConn{id: id}
}

func (r *recordingConn) ID() string {
	return r.id
}

func (r *recordingConn) Send(data []byte) error {
	var f recordedFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	return nil
}

func (r *recordingConn) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.frames))
	for _, f := range r.frames {
		out = append(out, f.Type)
	}
	return out
}

func (r *recordingConn) count(kind OutboundKind) int {
	n := 0
	for _, tp := range r.types() {
		if tp == string(kind) {
			n++
		}
	}
	return n
}

func (r *recordingConn) last(kind OutboundKind) (json.RawMessage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.frames) - 1; i >= 0; i-- {
		if r.frames[i].Type == string(kind) {
			return r.frames[i].Payload, true
		}
	}
	return nil, false
}

func (r *recordingConn) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = nil
}

func payloadOf[T any](t *testing.T, conn *recordingConn, kind OutboundKind) T {
	t.Helper()
	raw, ok := conn.last(kind)
	require.Truef(t, ok, "%s got no %s frame, got %v", conn.id, kind, conn.types())
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

// --- Store ---

// flakyStore fails the next few reads or writes of rooms, then behaves like
// the Redis store it wraps.
type flakyStore struct {
	*storage.RedisStore

	mu           sync.Mutex
	getFailures  int
	saveFailures int
}

var errFlaky = fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, context.DeadlineExceeded)

func (s *flakyStore) failGets(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getFailures = n
}

func (s *flakyStore) failSaves(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveFailures = n
}

func (s *flakyStore) take(n *int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if *n == 0 {
		return false
	}
	*n--
	return true
}

func (s *flakyStore) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	if s.take(&s.getFailures) {
		return nil, errFlaky
	}
	return s.RedisStore.GetRoom(ctx, roomID)
}

func (s *flakyStore) SaveRoom(ctx context.Context, room *domain.Room) error {
	if s.take(&s.saveFailures) {
		return errFlaky
	}
	return s.RedisStore.SaveRoom(ctx, room)
}

// --- GameArchive ---

type MockGameArchive struct {
	mock.Mock
}

func (m *MockGameArchive) RecordGame(ctx context.Context, roomID string, ranking []domain.ScoreEntry, endedAt time.Time) error {
	args := m.Called(roomID, ranking, endedAt)
	return args.Error(0)
}

func (m *MockGameArchive) GameResults(ctx context.Context, roomID string) ([]domain.GameResult, error) {
	args := m.Called(roomID)
	results, _ := args.Get(0).([]domain.GameResult)
	return results, args.Error(1)
}
