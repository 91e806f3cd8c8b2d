package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mcoot/rpsmatch/internal/dependencies/clock"
	"github.com/mcoot/rpsmatch/internal/events"
	"github.com/mcoot/rpsmatch/internal/model"
	"github.com/mcoot/rpsmatch/internal/protocol"
	"github.com/mcoot/rpsmatch/internal/storage"
)

const (
	roundFailedText = "The result of this round could not be recorded. Please choose again."
	scoreFailedText = "The round was recorded but the score could not be read. Please choose again."
)

// Coordinator drives the state of each Room: seat fill, move collection,
// round resolution and disconnects
type Coordinator struct {
	ledger    storage.Ledger
	registry  *Registry
	clock     clock.Clock
	publisher events.Publisher
	logger    *slog.Logger
}

// NewCoordinator creates a new Coordinator
func NewCoordinator(
	ledger storage.Ledger,
	registry *Registry,
	clock clock.Clock,
	publisher events.Publisher,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		ledger:    ledger,
		registry:  registry,
		clock:     clock,
		publisher: publisher,
		logger:    logger.With(slog.String("component", "coordinator")),
	}
}

// Join assigns conn a seat and attaches it to the room
func (c *Coordinator) Join(conn Conn) (*Room, model.Seat) {
	room, seat := c.registry.Assign(conn)

	room.mu.Lock()
	room.seats[seat] = conn
	room.mu.Unlock()

	c.logger.Info("connection seated",
		slog.String("conn_id", conn.ID()),
		slog.String("room_id", string(room.ID())),
		slog.Int("seat", seat.Number()),
	)
	return room, seat
}

// RegisterSeat records the seat's identity and, once both seats are
// registered, sends the ready notice exactly once per fill cycle. A name
// already registered in the other seat is rejected with ErrNameInRoom, so
// the two seats of a room never share a player id.
func (c *Coordinator) RegisterSeat(ctx context.Context, room *Room, seat model.Seat, name string) error {
	room.mu.Lock()
	defer room.mu.Unlock()

	conn := room.seats[seat]
	if conn == nil {
		return model.ErrSeatEmpty
	}
	if other := seat.Other(); room.registered[other] && room.names[other] == name {
		return model.ErrNameInRoom
	}

	id, err := c.ledger.RegisterOrFetchPlayer(ctx, name)
	if err != nil {
		return fmt.Errorf("register player %q: %w", name, err)
	}

	room.names[seat] = name
	room.players[seat] = id
	room.registered[seat] = true

	c.logger.Info("player registered",
		slog.String("room_id", string(room.id)),
		slog.Int("seat", seat.Number()),
		slog.String("name", name),
		slog.String("player_id", id.String()),
	)
	c.send(room, seat, conn, protocol.NewRegistered(seat, room.id, id, name))

	if room.bothRegisteredLocked() && !room.readyNotified {
		return c.notifyReadyLocked(ctx, room)
	}
	return nil
}

func (c *Coordinator) notifyReadyLocked(ctx context.Context, room *Room) error {
	score, err := c.ledger.AggregateScore(ctx, room.players[model.Seat0], room.players[model.Seat1])
	if err != nil {
		return fmt.Errorf("read score for ready notice: %w", err)
	}

	for _, seat := range model.Seats {
		other := seat.Other()
		c.send(room, seat, room.seats[seat], protocol.NewGameReady(room.id, room.names[other], score.ForSeat(seat)))
	}
	room.readyNotified = true
	room.phase = model.PhaseReady

	c.logger.Info("room ready",
		slog.String("room_id", string(room.id)),
		slog.String("player1", room.names[model.Seat0]),
		slog.String("player2", room.names[model.Seat1]),
	)
	return nil
}

// SubmitChoice records a seat's move for the current round. The move that
// completes the round resolves it before SubmitChoice returns.
func (c *Coordinator) SubmitChoice(ctx context.Context, room *Room, seat model.Seat, move model.Move) error {
	if !move.Valid() {
		return model.ErrInvalidMove
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if !room.bothOccupiedLocked() {
		return model.ErrSeatEmpty
	}
	if !room.readyNotified {
		return model.ErrRoomNotReady
	}
	if _, chosen := room.moves[seat]; chosen {
		return model.ErrAlreadyChosen
	}

	room.moves[seat] = move
	room.phase = model.PhaseCollecting
	c.send(room, seat, room.seats[seat], protocol.NewChoiceReceived())

	if len(room.moves) < 2 {
		return nil
	}
	return c.resolveRoundLocked(ctx, room)
}

func (c *Coordinator) resolveRoundLocked(ctx context.Context, room *Room) error {
	defer room.clearMovesLocked()

	moves := [2]model.Move{room.moves[model.Seat0], room.moves[model.Seat1]}
	rec := &model.MatchRecord{
		ID:       uuid.NewString(),
		RoomID:   room.id,
		Players:  room.players,
		Moves:    moves,
		Outcome:  model.Resolve(moves[0], moves[1]),
		PlayedAt: c.clock.Now(),
	}

	if err := c.ledger.RecordMatch(ctx, rec); err != nil {
		return c.failRoundLocked(room, roundFailedText, fmt.Errorf("record match: %w", err))
	}
	score, err := c.ledger.AggregateScore(ctx, rec.Players[model.Seat0], rec.Players[model.Seat1])
	if err != nil {
		return c.failRoundLocked(room, scoreFailedText, fmt.Errorf("read score after match: %w", err))
	}

	for _, seat := range model.Seats {
		if conn := room.seats[seat]; conn != nil {
			c.send(room, seat, conn, protocol.NewResult(seat, rec, room.names, score))
		}
	}
	room.phase = model.PhaseResolved

	c.logger.Info("round resolved",
		slog.String("room_id", string(room.id)),
		slog.String("match_id", rec.ID),
		slog.String("outcome", string(rec.Outcome)),
	)

	if err := c.publisher.PublishMatch(ctx, rec); err != nil {
		c.logger.Warn("failed to publish match", slog.String("match_id", rec.ID), slog.Any("error", err))
	}
	return nil
}

// failRoundLocked tells both seats the round produced no result and lets
// them choose again
func (c *Coordinator) failRoundLocked(room *Room, text string, err error) error {
	c.logger.Error("round failed", slog.String("room_id", string(room.id)), slog.Any("error", err))
	for _, seat := range model.Seats {
		if conn := room.seats[seat]; conn != nil {
			c.send(room, seat, conn, protocol.NewError(text))
		}
	}
	room.phase = model.PhaseReady
	return err
}

// HandleDisconnect removes conn from its seat and returns the room to
// waiting. The other seat is sent opponent_disconnected only when it is
// occupied and the departing seat had registered; a connection that never
// registered leaves silently. The room is pruned once both seats are free.
func (c *Coordinator) HandleDisconnect(ctx context.Context, room *Room, seat model.Seat, conn Conn) {
	room.mu.Lock()
	if room.seats[seat] == conn {
		other := seat.Other()
		if room.registered[seat] && room.seats[other] != nil {
			c.send(room, other, room.seats[other], protocol.NewOpponentDisconnected())
		}
		room.clearSeatLocked(seat)
	}
	room.clearMovesLocked()
	room.readyNotified = false
	room.phase = model.PhaseWaiting
	room.mu.Unlock()

	if err := conn.Close(); err != nil {
		c.logger.Debug("close connection", slog.String("conn_id", conn.ID()), slog.Any("error", err))
	}

	c.registry.Release(conn)
	pruned := c.registry.PruneIfEmpty(room.ID())

	c.logger.Info("connection left",
		slog.String("conn_id", conn.ID()),
		slog.String("room_id", string(room.ID())),
		slog.Int("seat", seat.Number()),
		slog.Bool("room_pruned", pruned),
	)
}

// send delivers msg to one seat; failures are logged and otherwise ignored so
// that one broken connection cannot stall the other seat
func (c *Coordinator) send(room *Room, seat model.Seat, conn Conn, msg protocol.Message) {
	if conn == nil {
		return
	}
	if err := conn.Send(msg); err != nil {
		c.logger.Warn("failed to send message",
			slog.String("room_id", string(room.id)),
			slog.Int("seat", seat.Number()),
			slog.String("type", string(msg.MessageType())),
			slog.Any("error", err),
		)
	}
}
