package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/rpsmatch/internal/api/response"
	"github.com/mcoot/rpsmatch/internal/model"
	"github.com/mcoot/rpsmatch/internal/session"
)

// RoomHandler exposes read-only views of live rooms
type RoomHandler struct {
	registry *session.Registry
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(registry *session.Registry) *RoomHandler {
	return &RoomHandler{
		registry: registry,
	}
}

// List handles GET /api/v1/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	infos := h.registry.Snapshot()

	resp := response.RoomList{Rooms: make([]response.Room, 0, len(infos))}
	for _, info := range infos {
		resp.Rooms = append(resp.Rooms, response.RoomFromInfo(info))
	}
	response.JSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/rooms/{id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	room, err := h.registry.Room(model.RoomID(mux.Vars(r)["id"]))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromInfo(room.Info()))
}
