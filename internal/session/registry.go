package session

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/mcoot/rpsmatch/internal/dependencies/random"
	"github.com/mcoot/rpsmatch/internal/model"
)

const (
	// RoomCodeLength is the length of generated room ids
	RoomCodeLength = 6
	// RoomCodeAlphabet is the characters used in room ids (avoid confusing chars)
	RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

type registryEntry struct {
	room *Room
	// slots is the authoritative seat occupancy; a seat is claimed here
	// before the Coordinator attaches the connection to the Room
	slots [2]Conn
}

// Registry tracks live rooms and which room each connection belongs to.
// Its lock is never held while a Room lock is held, or vice versa.
type Registry struct {
	mu     sync.Mutex
	rooms  map[model.RoomID]*registryEntry
	conns  map[Conn]model.RoomID
	random random.Random
	logger *slog.Logger
}

// NewRegistry creates an empty Registry
func NewRegistry(random random.Random, logger *slog.Logger) *Registry {
	return &Registry{
		rooms:  make(map[model.RoomID]*registryEntry),
		conns:  make(map[Conn]model.RoomID),
		random: random,
		logger: logger.With(slog.String("component", "registry")),
	}
}

// Assign places conn in any live room with a free seat, or in seat 0 of a
// new room. It always succeeds.
func (r *Registry) Assign(conn Conn) (*Room, model.Seat) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.rooms {
		for _, seat := range model.Seats {
			if e.slots[seat] == nil {
				e.slots[seat] = conn
				r.conns[conn] = e.room.ID()
				return e.room, seat
			}
		}
	}

	id := r.newRoomIDLocked()
	e := &registryEntry{room: newRoom(id)}
	e.slots[model.Seat0] = conn
	r.rooms[id] = e
	r.conns[conn] = id

	r.logger.Info("room created", slog.String("room_id", string(id)), slog.Int("rooms", len(r.rooms)))
	return e.room, model.Seat0
}

func (r *Registry) newRoomIDLocked() model.RoomID {
	for {
		id := model.RoomID(r.random.String(RoomCodeLength, RoomCodeAlphabet))
		if _, exists := r.rooms[id]; !exists && id != "" {
			return id
		}
	}
}

// Release frees conn's seat and forgets its room mapping
func (r *Registry) Release(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.conns[conn]
	if !ok {
		return
	}
	delete(r.conns, conn)

	if e, ok := r.rooms[id]; ok {
		for _, seat := range model.Seats {
			if e.slots[seat] == conn {
				e.slots[seat] = nil
			}
		}
	}
}

// PruneIfEmpty removes the room when both of its seats are free. It reports
// whether the room was removed; an already-removed room is a no-op.
func (r *Registry) PruneIfEmpty(id model.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.rooms[id]
	if !ok {
		return false
	}
	if e.slots[model.Seat0] != nil || e.slots[model.Seat1] != nil {
		return false
	}
	delete(r.rooms, id)

	r.logger.Info("room pruned", slog.String("room_id", string(id)), slog.Int("rooms", len(r.rooms)))
	return true
}

// lookup returns the id of the room conn is assigned to
func (r *Registry) lookup(conn Conn) (model.RoomID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.conns[conn]
	return id, ok
}

// Room returns a live room by id
func (r *Registry) Room(id model.RoomID) (*Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return e.room, nil
}

// Len returns the number of live rooms
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// Snapshot returns the state of every live room, ordered by id
func (r *Registry) Snapshot() []RoomInfo {
	r.mu.Lock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, e := range r.rooms {
		rooms = append(rooms, e.room)
	}
	r.mu.Unlock()

	// Room locks are taken only after the registry lock is released
	infos := make([]RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		infos = append(infos, room.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// CloseAll closes every assigned connection. Their handlers observe the
// closed transport and run disconnect handling as usual.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	conns := make([]Conn, 0, len(r.conns))
	for c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.Unlock()

	for _, c := range conns {
		if err := c.Close(); err != nil {
			r.logger.Debug("close connection", slog.String("conn_id", c.ID()), slog.Any("error", err))
		}
	}
}
