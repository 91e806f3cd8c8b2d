package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/mcoot/rpsmatch/internal/model"
	"github.com/mcoot/rpsmatch/internal/storage"
)

// Storage is an in-memory implementation of the ledger
type Storage struct {
	mu sync.RWMutex

	nextID    model.PlayerID
	players   map[model.PlayerID]string
	nameIndex map[string]model.PlayerID
	matches   []*model.MatchRecord
}

// New creates a new in-memory ledger
func New() *Storage {
	return &Storage{
		players:   make(map[model.PlayerID]string),
		nameIndex: make(map[string]model.PlayerID),
	}
}

// Ensure Storage implements the interface
var _ storage.Ledger = (*Storage)(nil)

func (s *Storage) RegisterOrFetchPlayer(ctx context.Context, name string) (model.PlayerID, error) {
	if strings.TrimSpace(name) == "" {
		return 0, model.ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.nameIndex[name]; ok {
		return id, nil
	}
	s.nextID++
	s.players[s.nextID] = name
	s.nameIndex[name] = s.nextID
	return s.nextID, nil
}

func (s *Storage) RecordMatch(ctx context.Context, rec *model.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.matches = append(s.matches, &cp)
	return nil
}

func (s *Storage) AggregateScore(ctx context.Context, a, b model.PlayerID) (model.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var score model.Score
	for _, rec := range s.matches {
		if rec.Involves(a, b) {
			score.Tally(rec, a)
		}
	}
	return score, nil
}

func (s *Storage) DisplayName(ctx context.Context, id model.PlayerID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.players[id]
	if !ok {
		return "", model.ErrPlayerNotFound
	}
	return name, nil
}

func (s *Storage) ListMatches(ctx context.Context, a, b model.PlayerID, limit int) ([]*model.MatchRecord, error) {
	if limit <= 0 {
		limit = storage.DefaultMatchLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []*model.MatchRecord{}
	for i := len(s.matches) - 1; i >= 0 && len(result) < limit; i-- {
		if s.matches[i].Involves(a, b) {
			cp := *s.matches[i]
			result = append(result, &cp)
		}
	}
	return result, nil
}

// Close is a no-op for the in-memory ledger
func (s *Storage) Close() error {
	return nil
}
