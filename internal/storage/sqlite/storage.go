package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mcoot/rpsmatch/internal/model"
	"github.com/mcoot/rpsmatch/internal/storage"
)

// Config holds SQLite ledger settings
type Config struct {
	// Path is the database file, or ":memory:"
	Path string `yaml:"path"`

	// BusyTimeout bounds how long a writer waits on a locked database
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// DefaultConfig returns sensible defaults for the SQLite ledger
func DefaultConfig() Config {
	return Config{
		Path:        "rps.db",
		BusyTimeout: 5 * time.Second,
	}
}

// Storage is a SQLite-backed implementation of the ledger
type Storage struct {
	db *sqlx.DB
}

// Ensure Storage implements the interface
var _ storage.Ledger = (*Storage)(nil)

// New opens (creating if needed) the database and applies the schema
func New(cfg Config) (*Storage, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite serialises writers; a single connection avoids SQLITE_BUSY churn
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

type gameRow struct {
	MatchID    string    `db:"match_id"`
	RoomID     string    `db:"room_id"`
	Player1ID  int64     `db:"player1_id"`
	Player2ID  int64     `db:"player2_id"`
	Choices    string    `db:"choices"`
	GameStatus string    `db:"game_status"`
	PlayedAt   time.Time `db:"played_at"`
}

func (r gameRow) record() (*model.MatchRecord, error) {
	moves := strings.SplitN(r.Choices, ",", 2)
	if len(moves) != 2 {
		return nil, fmt.Errorf("malformed choices %q for match %s", r.Choices, r.MatchID)
	}
	return &model.MatchRecord{
		ID:       r.MatchID,
		RoomID:   model.RoomID(r.RoomID),
		Players:  [2]model.PlayerID{model.PlayerID(r.Player1ID), model.PlayerID(r.Player2ID)},
		Moves:    [2]model.Move{model.Move(moves[0]), model.Move(moves[1])},
		Outcome:  model.Outcome(r.GameStatus),
		PlayedAt: r.PlayedAt,
	}, nil
}

// Player operations

func (s *Storage) RegisterOrFetchPlayer(ctx context.Context, name string) (model.PlayerID, error) {
	if strings.TrimSpace(name) == "" {
		return 0, model.ErrEmptyName
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO users (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, name); err != nil {
		return 0, err
	}

	var id int64
	if err := s.db.GetContext(ctx, &id, `SELECT id FROM users WHERE name = ?`, name); err != nil {
		return 0, err
	}
	return model.PlayerID(id), nil
}

func (s *Storage) DisplayName(ctx context.Context, id model.PlayerID) (string, error) {
	var name string
	err := s.db.GetContext(ctx, &name, `SELECT name FROM users WHERE id = ?`, int64(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", model.ErrPlayerNotFound
		}
		return "", err
	}
	return name, nil
}

// Match operations

func (s *Storage) RecordMatch(ctx context.Context, rec *model.MatchRecord) error {
	row := gameRow{
		MatchID:    rec.ID,
		RoomID:     string(rec.RoomID),
		Player1ID:  int64(rec.Players[0]),
		Player2ID:  int64(rec.Players[1]),
		Choices:    string(rec.Moves[0]) + "," + string(rec.Moves[1]),
		GameStatus: string(rec.Outcome),
		PlayedAt:   rec.PlayedAt.UTC(),
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO games (match_id, room_id, player1_id, player2_id, choices, game_status, played_at)
		VALUES (:match_id, :room_id, :player1_id, :player2_id, :choices, :game_status, :played_at)`, row)
	return err
}

func (s *Storage) AggregateScore(ctx context.Context, a, b model.PlayerID) (model.Score, error) {
	var counts struct {
		AWins int `db:"a_wins"`
		BWins int `db:"b_wins"`
		Draws int `db:"draws"`
	}
	err := s.db.GetContext(ctx, &counts, `
		SELECT
			COALESCE(SUM(CASE
				WHEN (player1_id = ?1 AND game_status = 'player1_win')
				  OR (player2_id = ?1 AND game_status = 'player2_win') THEN 1 ELSE 0 END), 0) AS a_wins,
			COALESCE(SUM(CASE
				WHEN (player1_id = ?2 AND game_status = 'player1_win')
				  OR (player2_id = ?2 AND game_status = 'player2_win') THEN 1 ELSE 0 END), 0) AS b_wins,
			COALESCE(SUM(CASE WHEN game_status = 'draw' THEN 1 ELSE 0 END), 0) AS draws
		FROM games
		WHERE (player1_id = ?1 AND player2_id = ?2)
		   OR (player1_id = ?2 AND player2_id = ?1)`,
		int64(a), int64(b))
	if err != nil {
		return model.Score{}, err
	}
	return model.Score{FirstWins: counts.AWins, SecondWins: counts.BWins, Draws: counts.Draws}, nil
}

func (s *Storage) ListMatches(ctx context.Context, a, b model.PlayerID, limit int) ([]*model.MatchRecord, error) {
	if limit <= 0 {
		limit = storage.DefaultMatchLimit
	}

	var rows []gameRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT match_id, room_id, player1_id, player2_id, choices, game_status, played_at
		FROM games
		WHERE (player1_id = ?1 AND player2_id = ?2)
		   OR (player1_id = ?2 AND player2_id = ?1)
		ORDER BY id DESC
		LIMIT ?3`,
		int64(a), int64(b), limit)
	if err != nil {
		return nil, err
	}

	result := make([]*model.MatchRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, nil
}
