package model

import "strconv"

// PlayerID is the ledger-assigned numeric identifier of a player
type PlayerID int64

// String returns the decimal form of the id
func (id PlayerID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParsePlayerID parses a decimal player id
func ParsePlayerID(s string) (PlayerID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return PlayerID(n), nil
}
