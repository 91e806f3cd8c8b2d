package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/rpsmatch/internal/model"
	"github.com/mcoot/rpsmatch/internal/storage"
)

// Storage is a Redis-backed implementation of the ledger
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis ledger
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis ledger with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Ledger = (*Storage)(nil)

// matchDoc is the stored JSON form of a match record
type matchDoc struct {
	ID       string    `json:"id"`
	RoomID   string    `json:"room_id"`
	Player1  int64     `json:"player1"`
	Player2  int64     `json:"player2"`
	Choice1  string    `json:"choice1"`
	Choice2  string    `json:"choice2"`
	Outcome  string    `json:"outcome"`
	PlayedAt time.Time `json:"played_at"`
}

func toDoc(rec *model.MatchRecord) matchDoc {
	return matchDoc{
		ID:       rec.ID,
		RoomID:   string(rec.RoomID),
		Player1:  int64(rec.Players[0]),
		Player2:  int64(rec.Players[1]),
		Choice1:  string(rec.Moves[0]),
		Choice2:  string(rec.Moves[1]),
		Outcome:  string(rec.Outcome),
		PlayedAt: rec.PlayedAt,
	}
}

func (d matchDoc) record() *model.MatchRecord {
	return &model.MatchRecord{
		ID:       d.ID,
		RoomID:   model.RoomID(d.RoomID),
		Players:  [2]model.PlayerID{model.PlayerID(d.Player1), model.PlayerID(d.Player2)},
		Moves:    [2]model.Move{model.Move(d.Choice1), model.Move(d.Choice2)},
		Outcome:  model.Outcome(d.Outcome),
		PlayedAt: d.PlayedAt,
	}
}

// Player operations

func (s *Storage) RegisterOrFetchPlayer(ctx context.Context, name string) (model.PlayerID, error) {
	if strings.TrimSpace(name) == "" {
		return 0, model.ErrEmptyName
	}

	id, err := s.lookupName(ctx, name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, model.ErrPlayerNotFound) {
		return 0, err
	}

	next, err := s.client.Incr(ctx, playerSeqKey()).Result()
	if err != nil {
		return 0, err
	}

	// HSETNX arbitrates concurrent registrations of the same name; the loser
	// discards its allocated id and adopts the winner's
	won, err := s.client.HSetNX(ctx, nameIndexKey(), name, next).Result()
	if err != nil {
		return 0, err
	}
	if !won {
		return s.lookupName(ctx, name)
	}

	id = model.PlayerID(next)
	if err := s.client.Set(ctx, playerKey(id), name, 0).Err(); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Storage) lookupName(ctx context.Context, name string) (model.PlayerID, error) {
	raw, err := s.client.HGet(ctx, nameIndexKey(), name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, model.ErrPlayerNotFound
		}
		return 0, err
	}
	return model.ParsePlayerID(raw)
}

func (s *Storage) DisplayName(ctx context.Context, id model.PlayerID) (string, error) {
	name, err := s.client.Get(ctx, playerKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrPlayerNotFound
		}
		return "", err
	}
	return name, nil
}

// Match operations

func (s *Storage) RecordMatch(ctx context.Context, rec *model.MatchRecord) error {
	data, err := json.Marshal(toDoc(rec))
	if err != nil {
		return err
	}

	p0, p1 := rec.Players[0], rec.Players[1]
	field := fieldDraws
	if seat, ok := rec.Outcome.Winner(); ok {
		lo, _ := orderPair(p0, p1)
		if rec.Players[seat] == lo {
			field = fieldLoWins
		} else {
			field = fieldHiWins
		}
	}

	// Use a transaction so the list and the counters never disagree
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, matchesKey(p0, p1), data)
	if s.cfg.HistoryLimit > 0 {
		pipe.LTrim(ctx, matchesKey(p0, p1), -s.cfg.HistoryLimit, -1)
	}
	pipe.HIncrBy(ctx, scoreKey(p0, p1), field, 1)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) AggregateScore(ctx context.Context, a, b model.PlayerID) (model.Score, error) {
	counters, err := s.client.HGetAll(ctx, scoreKey(a, b)).Result()
	if err != nil {
		return model.Score{}, err
	}

	var ordered model.Score
	for field, dst := range map[string]*int{
		fieldLoWins: &ordered.FirstWins,
		fieldHiWins: &ordered.SecondWins,
		fieldDraws:  &ordered.Draws,
	} {
		raw, ok := counters[field]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return model.Score{}, fmt.Errorf("score counter %s: %w", field, err)
		}
		*dst = n
	}

	if lo, _ := orderPair(a, b); lo != a {
		return ordered.Swap(), nil
	}
	return ordered, nil
}

func (s *Storage) ListMatches(ctx context.Context, a, b model.PlayerID, limit int) ([]*model.MatchRecord, error) {
	if limit <= 0 {
		limit = storage.DefaultMatchLimit
	}

	raw, err := s.client.LRange(ctx, matchesKey(a, b), int64(-limit), -1).Result()
	if err != nil {
		return nil, err
	}

	result := make([]*model.MatchRecord, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var doc matchDoc
		if err := json.Unmarshal([]byte(raw[i]), &doc); err != nil {
			return nil, err
		}
		result = append(result, doc.record())
	}
	return result, nil
}
