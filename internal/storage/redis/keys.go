package redis

import (
	"fmt"

	"github.com/mcoot/rpsmatch/internal/model"
)

// Key prefix for all ledger data
const keyPrefix = "rps"

// Fields of the per-pair score hash. "lo" and "hi" refer to the numerically
// smaller and larger player ids of the pair.
const (
	fieldLoWins = "lo_wins"
	fieldHiWins = "hi_wins"
	fieldDraws  = "draws"
)

// playerSeqKey returns the key of the player id counter
func playerSeqKey() string {
	return fmt.Sprintf("%s:seq:player", keyPrefix)
}

// nameIndexKey returns the key of the HASH mapping display name -> player id
func nameIndexKey() string {
	return fmt.Sprintf("%s:idx:name", keyPrefix)
}

// playerKey returns the key holding a player's display name
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// matchesKey returns the key of the LIST of match records for a pair
func matchesKey(a, b model.PlayerID) string {
	lo, hi := orderPair(a, b)
	return fmt.Sprintf("%s:matches:%s:%s", keyPrefix, lo, hi)
}

// scoreKey returns the key of the HASH of result counters for a pair
func scoreKey(a, b model.PlayerID) string {
	lo, hi := orderPair(a, b)
	return fmt.Sprintf("%s:score:%s:%s", keyPrefix, lo, hi)
}

func orderPair(a, b model.PlayerID) (model.PlayerID, model.PlayerID) {
	if a <= b {
		return a, b
	}
	return b, a
}
