package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mcoot/rpsmatch/internal/model"
)

// MatchSubject is the NATS subject resolved matches are published on
const MatchSubject = "rps.matches"

// Publisher announces resolved matches to interested consumers
type Publisher interface {
	PublishMatch(ctx context.Context, rec *model.MatchRecord) error
	Close() error
}

// MatchEvent is the published JSON form of a match record
type MatchEvent struct {
	MatchID   string    `json:"match_id"`
	RoomID    string    `json:"room_id"`
	Player1ID int64     `json:"player1_id"`
	Player2ID int64     `json:"player2_id"`
	Choice1   string    `json:"choice1"`
	Choice2   string    `json:"choice2"`
	Outcome   string    `json:"outcome"`
	PlayedAt  time.Time `json:"played_at"`
}

// NewMatchEvent converts a record into its published form
func NewMatchEvent(rec *model.MatchRecord) MatchEvent {
	return MatchEvent{
		MatchID:   rec.ID,
		RoomID:    string(rec.RoomID),
		Player1ID: int64(rec.Players[0]),
		Player2ID: int64(rec.Players[1]),
		Choice1:   string(rec.Moves[0]),
		Choice2:   string(rec.Moves[1]),
		Outcome:   string(rec.Outcome),
		PlayedAt:  rec.PlayedAt,
	}
}

// NopPublisher discards every event
type NopPublisher struct{}

func (NopPublisher) PublishMatch(context.Context, *model.MatchRecord) error { return nil }

func (NopPublisher) Close() error { return nil }

// publishConn is the subset of *nats.Conn the publisher needs
type publishConn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher publishes match events to a NATS server
type NATSPublisher struct {
	conn    publishConn
	subject string
	logger  *slog.Logger
}

// NewNATSPublisher connects to the server at url
func NewNATSPublisher(url string, logger *slog.Logger) (*NATSPublisher, error) {
	logger = logger.With(slog.String("component", "events"))
	conn, err := nats.Connect(url,
		nats.Name("rpsmatch"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", slog.Any("error", err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", slog.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}
	return newNATSPublisher(conn, MatchSubject, logger), nil
}

func newNATSPublisher(conn publishConn, subject string, logger *slog.Logger) *NATSPublisher {
	return &NATSPublisher{conn: conn, subject: subject, logger: logger}
}

// PublishMatch encodes the record and hands it to the client's outbound
// buffer; delivery is at-most-once
func (p *NATSPublisher) PublishMatch(ctx context.Context, rec *model.MatchRecord) error {
	data, err := json.Marshal(NewMatchEvent(rec))
	if err != nil {
		return err
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish match %s: %w", rec.ID, err)
	}
	p.logger.Debug("match published", slog.String("match_id", rec.ID))
	return nil
}

// Close flushes pending events and closes the connection
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
