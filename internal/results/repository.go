package results

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/bdevroede/courtplan/internal/challenge"
)

// Repository archives completed challenge results in Postgres. The in-memory
// ladder is rebuilt from reservations; this table is the durable history.
type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	r := &Repository{db: db}
	if err := r.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) migrate(ctx context.Context) error {
	q := `CREATE TABLE IF NOT EXISTS challenge_results (
        challenge_id text PRIMARY KEY,
        challenger   text NOT NULL,
        challenged   text NOT NULL,
        play_date    text NOT NULL,
        time_slot    text NOT NULL,
        winner       text NOT NULL,
        loser        text NOT NULL,
        created_at   timestamptz NOT NULL,
        recorded_at  timestamptz NOT NULL DEFAULT now()
      )`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

// SaveResult upserts one completed challenge.
func (r *Repository) SaveResult(ctx context.Context, ch challenge.Challenge) error {
	if r == nil || r.db == nil {
		return nil
	}
	if ch.Result == nil {
		return fmt.Errorf("challenge %s has no result", ch.ID)
	}
	q := `INSERT INTO challenge_results (
        challenge_id, challenger, challenged, play_date, time_slot,
        winner, loser, created_at, recorded_at
      ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now())
      ON CONFLICT (challenge_id) DO UPDATE SET
        winner=EXCLUDED.winner,
        loser=EXCLUDED.loser,
        recorded_at=now()`
	_, err := r.db.ExecContext(ctx, q,
		ch.ID, ch.From, ch.To, ch.Date, ch.Slot,
		ch.Result.Winner, ch.Result.Loser, ch.CreatedAt,
	)
	return err
}
