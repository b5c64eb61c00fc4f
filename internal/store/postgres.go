// Package store is the durable side of the session layer: room records and
// participant rows, consumed through a narrow create/find/upsert surface.
// Round state deliberately never lands here.
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AtharAdista/garuda-hacks-6-BE/internal"
)

type Postgres struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, connString string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (s *Postgres) Close() {
	s.pool.Close()
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureSchema creates the two tables this adapter owns.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS game_rooms (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			code text NOT NULL UNIQUE,
			mode text NOT NULL,
			status text NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS game_room_participants (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			game_room_id uuid NOT NULL REFERENCES game_rooms(id) ON DELETE CASCADE,
			user_id text NOT NULL,
			joined_at timestamptz NOT NULL DEFAULT now(),
			UNIQUE (game_room_id, user_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}

// CreateRoom inserts a room record if the code is free. When the code is
// already taken it returns the existing record's id together with
// internal.ErrRoomExists, so the caller can fall through to join-existing.
func (s *Postgres) CreateRoom(ctx context.Context, code, mode, status string) (string, error) {
	var id string
	err := s.withRetry(ctx, "CreateRoom", func(ctx context.Context) error {
		row := s.pool.QueryRow(ctx,
			`INSERT INTO game_rooms (code, mode, status) VALUES ($1, $2, $3)
			 ON CONFLICT (code) DO NOTHING
			 RETURNING id`,
			code, mode, status)
		return row.Scan(&id)
	})
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	// Conflict: the code exists. Hand back the existing id.
	err = s.withRetry(ctx, "CreateRoom/existing", func(ctx context.Context) error {
		return s.pool.QueryRow(ctx, `SELECT id FROM game_rooms WHERE code = $1`, code).Scan(&id)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Row vanished between the two statements; let the caller retry.
			return "", fmt.Errorf("%w: room %q disappeared during create", internal.ErrTransient, code)
		}
		return "", err
	}
	return id, fmt.Errorf("%w: code %q", internal.ErrRoomExists, code)
}

// FindRoomByCode loads the room record and its participants.
func (s *Postgres) FindRoomByCode(ctx context.Context, code string) (*internal.GameRoom, error) {
	var room internal.GameRoom
	err := s.withRetry(ctx, "FindRoomByCode", func(ctx context.Context) error {
		row := s.pool.QueryRow(ctx,
			`SELECT id, code, mode, status FROM game_rooms WHERE code = $1`, code)
		if err := row.Scan(&room.ID, &room.Code, &room.Mode, &room.Status); err != nil {
			return err
		}

		rows, err := s.pool.Query(ctx,
			`SELECT id, game_room_id, user_id FROM game_room_participants WHERE game_room_id = $1`,
			room.ID)
		if err != nil {
			return err
		}
		defer rows.Close()

		room.Participants = room.Participants[:0]
		for rows.Next() {
			var p internal.Participant
			if err := rows.Scan(&p.ID, &p.GameRoomID, &p.UserID); err != nil {
				return err
			}
			room.Participants = append(room.Participants, p)
		}
		return rows.Err()
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: code %q", internal.ErrRoomNotFound, code)
		}
		return nil, err
	}
	return &room, nil
}

// UpsertParticipant records a player's membership; re-adding is a no-op.
func (s *Postgres) UpsertParticipant(ctx context.Context, roomID, userID string) error {
	return s.withRetry(ctx, "UpsertParticipant", func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO game_room_participants (game_room_id, user_id) VALUES ($1, $2)
			 ON CONFLICT (game_room_id, user_id) DO NOTHING`,
			roomID, userID)
		return err
	})
}

// withRetry runs fn and, when it fails in a way that smells like a lost
// connection, pings the pool to force a reconnect and tries exactly once
// more. Anything still failing is surfaced as a transient error; it must
// never take the room down.
func (s *Postgres) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	err := fn(ctx)
	if err == nil || !retryable(err) {
		return err
	}

	log.Printf("[store] %s failed (%v), reconnecting and retrying once", op, err)
	if pingErr := s.pool.Ping(ctx); pingErr != nil {
		return fmt.Errorf("%w: %s: %v", internal.ErrTransient, op, err)
	}

	if err = fn(ctx); err != nil && retryable(err) {
		return fmt.Errorf("%w: %s: %v", internal.ErrTransient, op, err)
	}
	return err
}

func retryable(err error) bool {
	if err == nil ||
		errors.Is(err, pgx.ErrNoRows) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// The server answered; only connection-class states are worth a
		// second attempt. 08xxx is connection_exception, 57P01 is
		// admin_shutdown.
		return strings.HasPrefix(pgErr.Code, "08") || pgErr.Code == "57P01"
	}
	// No server response at all: network-level failure.
	return true
}
