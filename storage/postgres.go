package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pictobattle/domain"
)

// PostgresArchive keeps the final ranking of finished games.
type PostgresArchive struct {
	pool *pgxpool.Pool
}

func NewPostgresArchive(ctx context.Context, connString string) (*PostgresArchive, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &PostgresArchive{pool: pool}, nil
}

func wrapDBError(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
}

// RecordGame stores one row per ranked player in a single transaction.
func (a *PostgresArchive) RecordGame(ctx context.Context, roomID string, ranking []domain.ScoreEntry, endedAt time.Time) error {
	if len(ranking) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, entry := range ranking {
		batch.Queue(
			"INSERT INTO game_results (room_id, player_name, score, rank, ended_at) VALUES ($1, $2, $3, $4, $5)",
			roomID, entry.Name, entry.Score, i+1, endedAt,
		)
	}

	err := pgx.BeginFunc(ctx, a.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

// GameResults returns the rows of the most recent game played in a room,
// best rank first.
func (a *PostgresArchive) GameResults(ctx context.Context, roomID string) ([]domain.GameResult, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT room_id, player_name, score, rank, ended_at
		FROM game_results
		WHERE room_id = $1 AND ended_at = (SELECT max(ended_at) FROM game_results WHERE room_id = $1)
		ORDER BY rank`, roomID)
	if err != nil {
		return nil, wrapDBError(err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.GameResult, error) {
		var r domain.GameResult
		var endedAt time.Time
		err := row.Scan(&r.RoomID, &r.Name, &r.Score, &r.Rank, &endedAt)
		r.EndedAt = endedAt.UnixMilli()
		return r, err
	})
	if err != nil {
		return nil, wrapDBError(err)
	}
	return results, nil
}

func (a *PostgresArchive) Close() {
	a.pool.Close()
}
