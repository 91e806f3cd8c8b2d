package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/rpsmatch/internal/api/response"
	"github.com/mcoot/rpsmatch/internal/model"
	"github.com/mcoot/rpsmatch/internal/storage"
)

// PlayerHandler handles player lookup endpoints
type PlayerHandler struct {
	ledger storage.Ledger
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(ledger storage.Ledger) *PlayerHandler {
	return &PlayerHandler{
		ledger: ledger,
	}
}

// Get handles GET /api/v1/players/{id}
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := playerIDVar(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	name, err := h.ledger.DisplayName(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Player{ID: id, DisplayName: name})
}

func playerIDVar(r *http.Request, key string) (model.PlayerID, error) {
	id, err := model.ParsePlayerID(mux.Vars(r)[key])
	if err != nil || id <= 0 {
		return 0, NewInvalidRequestError("player id must be a positive integer")
	}
	return id, nil
}
