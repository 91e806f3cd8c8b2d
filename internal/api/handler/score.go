package handler

import (
	"net/http"
	"strconv"

	"github.com/mcoot/rpsmatch/internal/api/response"
	"github.com/mcoot/rpsmatch/internal/model"
	"github.com/mcoot/rpsmatch/internal/storage"
)

// MaxMatchLimit caps the limit query parameter for match history
const MaxMatchLimit = 100

// ScoreHandler handles head-to-head score endpoints
type ScoreHandler struct {
	ledger storage.Ledger
}

// NewScoreHandler creates a new score handler
func NewScoreHandler(ledger storage.Ledger) *ScoreHandler {
	return &ScoreHandler{
		ledger: ledger,
	}
}

// Get handles GET /api/v1/scores/{a}/{b}
func (h *ScoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, b, ok := h.pair(w, r)
	if !ok {
		return
	}

	score, err := h.ledger.AggregateScore(r.Context(), a.ID, b.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ScoreFromModel(a, b, score))
}

// Matches handles GET /api/v1/scores/{a}/{b}/matches
func (h *ScoreHandler) Matches(w http.ResponseWriter, r *http.Request) {
	a, b, ok := h.pair(w, r)
	if !ok {
		return
	}

	limit := storage.DefaultMatchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxMatchLimit {
			WriteError(w, NewInvalidRequestError("limit must be between 1 and 100"))
			return
		}
		limit = n
	}

	records, err := h.ledger.ListMatches(r.Context(), a.ID, b.ID, limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := response.MatchList{Matches: make([]response.Match, 0, len(records))}
	for _, rec := range records {
		resp.Matches = append(resp.Matches, response.MatchFromModel(rec))
	}
	response.JSON(w, http.StatusOK, resp)
}

// pair resolves both players named in the path, writing an error if either
// is invalid or unknown. Both ids are validated before the ledger is read.
func (h *ScoreHandler) pair(w http.ResponseWriter, r *http.Request) (response.Player, response.Player, bool) {
	var ids [2]model.PlayerID
	for i, key := range []string{"a", "b"} {
		id, err := playerIDVar(r, key)
		if err != nil {
			WriteError(w, err)
			return response.Player{}, response.Player{}, false
		}
		ids[i] = id
	}
	if ids[0] == ids[1] {
		WriteError(w, NewInvalidRequestError("players must differ"))
		return response.Player{}, response.Player{}, false
	}

	var players [2]response.Player
	for i, id := range ids {
		name, err := h.ledger.DisplayName(r.Context(), id)
		if err != nil {
			WriteError(w, err)
			return response.Player{}, response.Player{}, false
		}
		players[i] = response.Player{ID: id, DisplayName: name}
	}
	return players[0], players[1], true
}
