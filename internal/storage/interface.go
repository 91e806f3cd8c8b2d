package storage

import (
	"context"

	"github.com/mcoot/rpsmatch/internal/model"
)

// DefaultMatchLimit caps ListMatches when the caller passes a non-positive limit
const DefaultMatchLimit = 20

// Ledger is the durable store of player identities and match history.
// Implementations must be safe for concurrent use.
type Ledger interface {
	// RegisterOrFetchPlayer returns the id for name, creating the player if needed
	RegisterOrFetchPlayer(ctx context.Context, name string) (model.PlayerID, error)

	// RecordMatch appends an immutable match record
	RecordMatch(ctx context.Context, rec *model.MatchRecord) error

	// AggregateScore counts head-to-head results between a and b, ordered as
	// (a wins, b wins, draws) regardless of which seat each player held
	AggregateScore(ctx context.Context, a, b model.PlayerID) (model.Score, error)

	// DisplayName resolves a player id, returning model.ErrPlayerNotFound if absent
	DisplayName(ctx context.Context, id model.PlayerID) (string, error)

	// ListMatches returns the most recent records between a and b, newest first
	ListMatches(ctx context.Context, a, b model.PlayerID, limit int) ([]*model.MatchRecord, error)

	// Close releases any underlying resources
	Close() error
}
