package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"pictobattle/domain"
)

const (
	roomsKey      = "rooms"
	highScoresKey = "high_scores"

	HighScoresLimit = 20

	lockTTL   = 10 * time.Second
	lockRetry = 20 * time.Millisecond
)

func disconnectedKey(roomID, clientID string) string {
	return "disconnected:" + roomID + ":" + clientID
}

func lockKey(roomID string) string {
	return "lock:room:" + roomID
}

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore keeps room snapshots in the "rooms" hash, reconnection records
// as expiring string keys and the leaderboard as a sorted set. Every call is
// bounded by the store timeout.
type RedisStore struct {
	client  *redis.Client
	timeout time.Duration
}

func NewRedisStore(client *redis.Client, timeout time.Duration) *RedisStore {
	return &RedisStore{client: client, timeout: timeout}
}

// NewRedisClient parses a redis:// URL and checks the server is reachable.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return client, nil
}

func (s *RedisStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}

func (s *RedisStore) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	data, err := s.client.HGet(ctx, roomsKey, roomID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, unavailable(err)
	}
	var room domain.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", roomID, err)
	}
	return &room, nil
}

func (s *RedisStore) RoomExists(ctx context.Context, roomID string) (bool, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	ok, err := s.client.HExists(ctx, roomsKey, roomID).Result()
	if err != nil {
		return false, unavailable(err)
	}
	return ok, nil
}

func (s *RedisStore) SaveRoom(ctx context.Context, room *domain.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("encode room %s: %w", room.ID, err)
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()
	if err := s.client.HSet(ctx, roomsKey, room.ID, data).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *RedisStore) DeleteRoom(ctx context.Context, roomID string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.client.HDel(ctx, roomsKey, roomID).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// ListRooms returns every stored room. Snapshots that fail to decode are
// skipped and logged.
func (s *RedisStore) ListRooms(ctx context.Context) ([]*domain.Room, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	all, err := s.client.HGetAll(ctx, roomsKey).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	rooms := make([]*domain.Room, 0, len(all))
	for id, data := range all {
		var room domain.Room
		if err := json.Unmarshal([]byte(data), &room); err != nil {
			log.Warn().Err(err).Str("roomId", id).Msg("skipping corrupt room snapshot")
			continue
		}
		rooms = append(rooms, &room)
	}
	return rooms, nil
}

func (s *RedisStore) SaveDisconnected(ctx context.Context, clientID string, rec domain.DisconnectedPlayer, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()
	if err := s.client.Set(ctx, disconnectedKey(rec.RoomID, clientID), data, ttl).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// GetDisconnected returns the reconnection record or nil when none is live.
func (s *RedisStore) GetDisconnected(ctx context.Context, roomID, clientID string) (*domain.DisconnectedPlayer, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	data, err := s.client.Get(ctx, disconnectedKey(roomID, clientID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable(err)
	}
	var rec domain.DisconnectedPlayer
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode disconnected record: %w", err)
	}
	return &rec, nil
}

func (s *RedisStore) DeleteDisconnected(ctx context.Context, roomID, clientID string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.client.Del(ctx, disconnectedKey(roomID, clientID)).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// AddHighScores records final scores and trims the set to the top entries.
// A name keeps its best score.
func (s *RedisStore) AddHighScores(ctx context.Context, scores []domain.HighScore) error {
	if len(scores) == 0 {
		return nil
	}
	members := make([]redis.Z, 0, len(scores))
	for _, hs := range scores {
		members = append(members, redis.Z{Score: float64(hs.Score), Member: hs.Name})
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAddArgs(ctx, highScoresKey, redis.ZAddArgs{GT: true, Members: members})
		pipe.ZRemRangeByRank(ctx, highScoresKey, 0, -(HighScoresLimit + 1))
		return nil
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *RedisStore) TopHighScores(ctx context.Context, n int) ([]domain.HighScore, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	zs, err := s.client.ZRevRangeWithScores(ctx, highScoresKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	scores := make([]domain.HighScore, 0, len(zs))
	for _, z := range zs {
		name, _ := z.Member.(string)
		scores = append(scores, domain.HighScore{Name: name, Score: int(z.Score)})
	}
	return scores, nil
}

// LockRoom takes the cross-process lock of a room, retrying until the store
// timeout elapses. The returned func releases it only if still owned.
func (s *RedisStore) LockRoom(ctx context.Context, roomID string) (func(), error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	key := lockKey(roomID)
	token := uuid.NewString()
	for {
		ok, err := s.client.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil && ctx.Err() == nil {
			return nil, unavailable(err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: room %s", domain.ErrLockTimeout, roomID)
		case <-time.After(lockRetry):
		}
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := unlockScript.Run(ctx, s.client, []string{key}, token).Err(); err != nil {
			log.Warn().Err(err).Str("roomId", roomID).Msg("room unlock failed")
		}
	}, nil
}
