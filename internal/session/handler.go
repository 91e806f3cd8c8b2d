package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/rpsmatch/internal/model"
	"github.com/mcoot/rpsmatch/internal/protocol"
)

const (
	registrationFailedText = "Registration failed. Please try again later."
	nameInRoomText         = "%s is already playing in this room. Please register with another name."
)

// Handler runs the lifecycle of one client connection
type Handler struct {
	coordinator *Coordinator
	logger      *slog.Logger
}

// NewHandler creates a new connection Handler
func NewHandler(coordinator *Coordinator, logger *slog.Logger) *Handler {
	return &Handler{
		coordinator: coordinator,
		logger:      logger.With(slog.String("component", "handler")),
	}
}

// Serve seats conn, performs the registration handshake and forwards moves
// until the connection ends. Disconnect handling always runs exactly once.
func (h *Handler) Serve(ctx context.Context, conn Conn) {
	room, seat := h.coordinator.Join(conn)
	logger := h.logger.With(
		slog.String("conn_id", conn.ID()),
		slog.String("remote_addr", conn.RemoteAddr()),
		slog.String("room_id", string(room.ID())),
		slog.Int("seat", seat.Number()),
	)
	defer h.coordinator.HandleDisconnect(context.WithoutCancel(ctx), room, seat, conn)

	registered := false
	for {
		msg, err := conn.Receive()
		if err != nil {
			if registered {
				logReceiveError(logger, "connection ended", err)
			} else {
				logReceiveError(logger, "connection ended before registration", err)
			}
			return
		}

		switch m := msg.(type) {
		case *protocol.Register:
			ok, keep := h.register(ctx, logger, room, seat, conn, m.Name)
			if !keep {
				return
			}
			registered = registered || ok
		case *protocol.Choice:
			if !registered {
				logger.Warn("expected register message", slog.String("type", string(msg.MessageType())))
				return
			}
			h.submit(ctx, logger, room, seat, m.Move)
		default:
			logger.Warn("unexpected message type", slog.String("type", string(msg.MessageType())))
			return
		}
	}
}

// register reports whether the seat is now registered under name and whether
// the connection should stay open. A name clash with the other seat is
// recoverable; ledger failures are not.
func (h *Handler) register(ctx context.Context, logger *slog.Logger, room *Room, seat model.Seat, conn Conn, name string) (ok, keep bool) {
	err := h.coordinator.RegisterSeat(ctx, room, seat, name)
	switch {
	case err == nil:
		return true, true
	case errors.Is(err, model.ErrNameInRoom):
		logger.Info("name already seated in room", slog.String("name", name))
		sendError(logger, conn, fmt.Sprintf(nameInRoomText, name))
		return false, true
	default:
		logger.Error("registration failed", slog.String("name", name), slog.Any("error", err))
		sendError(logger, conn, registrationFailedText)
		return false, false
	}
}

func sendError(logger *slog.Logger, conn Conn, text string) {
	if err := conn.Send(protocol.NewError(text)); err != nil {
		logger.Debug("failed to send error", slog.Any("error", err))
	}
}

func (h *Handler) submit(ctx context.Context, logger *slog.Logger, room *Room, seat model.Seat, move model.Move) {
	err := h.coordinator.SubmitChoice(ctx, room, seat, move)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrSeatEmpty),
		errors.Is(err, model.ErrRoomNotReady),
		errors.Is(err, model.ErrAlreadyChosen):
		logger.Debug("move ignored", slog.String("move", string(move)), slog.String("reason", err.Error()))
	default:
		logger.Error("failed to resolve round", slog.Any("error", err))
	}
}

func logReceiveError(logger *slog.Logger, msg string, err error) {
	if errors.Is(err, protocol.ErrMalformed) ||
		errors.Is(err, protocol.ErrUnknownType) ||
		errors.Is(err, protocol.ErrMessageTooLarge) {
		logger.Warn(msg, slog.String("reason", "protocol violation"), slog.Any("error", err))
		return
	}
	logger.Info(msg, slog.Any("error", err))
}
