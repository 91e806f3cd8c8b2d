package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/rpsmatch/internal/protocol"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
}

// NewOutput creates a new Output formatter writing to out and errOut
func NewOutput(format string, out, errOut io.Writer) *Output {
	return &Output{format: format, out: out, errOut: errOut}
}

func newOutput(cmd *cobra.Command) *Output {
	return NewOutput(cfg.Output, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		_, _ = fmt.Fprintln(o.errOut, string(data))
	} else {
		_, _ = fmt.Fprintf(o.errOut, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.out, string(data))
	} else {
		_, _ = fmt.Fprintln(o.out, msg)
	}
}

// PrintServerMessage renders one message received from the game server.
// JSON output passes the message through on a single line.
func (o *Output) PrintServerMessage(msg protocol.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.format == "json" {
		data, _ := json.Marshal(msg)
		_, _ = fmt.Fprintln(o.out, string(data))
		return
	}

	switch m := msg.(type) {
	case *protocol.Registered:
		o.printf("%s (room %s, player id %s)\n", m.Message, m.RoomID, m.PlayerID)
	case *protocol.GameReady:
		o.printf("Opponent found: %s\n", m.OpponentName)
		o.printf("Head to head: you %d - %d %s, %d draws\n", m.YourScore, m.OpponentScore, m.OpponentName, m.Draws)
		o.printf("Choose rock, paper or scissors:\n")
	case *protocol.ChoiceReceived:
		o.printf("%s\n", m.Message)
	case *protocol.Result:
		o.printf("You chose %s, %s chose %s. %s\n", m.YourChoice, m.OpponentName, m.OpponentChoice, m.WinnerText)
		o.printf("Head to head: you %d - %d %s, %d draws\n", m.YourScore, m.OpponentScore, m.OpponentName, m.Draws)
		o.printf("Choose rock, paper or scissors:\n")
	case *protocol.OpponentDisconnected:
		o.printf("%s\n", m.Message)
	case *protocol.Error:
		o.printf("Server error: %s\n", m.Message)
	default:
		o.printJSON(msg)
	}
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.out, format, args...)
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case Score:
		o.printScore(v)
	case MatchList:
		o.printMatchList(v)
	case RoomList:
		o.printRoomList(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
}

// Score response type
type Score struct {
	PlayerA Player `json:"player_a"`
	PlayerB Player `json:"player_b"`
	AWins   int    `json:"a_wins"`
	BWins   int    `json:"b_wins"`
	Draws   int    `json:"draws"`
}

// Match response type
type Match struct {
	ID       string    `json:"id"`
	RoomID   string    `json:"room_id"`
	Players  [2]int64  `json:"players"`
	Choices  [2]string `json:"choices"`
	Outcome  string    `json:"outcome"`
	PlayedAt time.Time `json:"played_at"`
}

// MatchList response type
type MatchList struct {
	Matches []Match `json:"matches"`
}

// Seat response type
type Seat struct {
	Number   int     `json:"number"`
	Occupied bool    `json:"occupied"`
	Player   *Player `json:"player,omitempty"`
}

// Room response type
type Room struct {
	ID           string `json:"id"`
	Phase        string `json:"phase"`
	Seats        []Seat `json:"seats"`
	PendingMoves int    `json:"pending_moves"`
}

// RoomList response type
type RoomList struct {
	Rooms []Room `json:"rooms"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
	Rooms  int    `json:"rooms"`
}

func (o *Output) printPlayer(p Player) {
	o.printf("Player: %s (%d)\n", p.DisplayName, p.ID)
}

func (o *Output) printScore(s Score) {
	o.printf("%s (%d) vs %s (%d)\n", s.PlayerA.DisplayName, s.PlayerA.ID, s.PlayerB.DisplayName, s.PlayerB.ID)
	o.printf("Wins: %d - %d\n", s.AWins, s.BWins)
	o.printf("Draws: %d\n", s.Draws)
}

func (o *Output) printMatchList(l MatchList) {
	if len(l.Matches) == 0 {
		o.printf("No matches played\n")
		return
	}
	o.printf("Recent matches (%d):\n", len(l.Matches))
	for _, m := range l.Matches {
		o.printf("  %s  %d:%s vs %d:%s  %s\n",
			m.PlayedAt.Format(time.RFC3339), m.Players[0], m.Choices[0], m.Players[1], m.Choices[1], m.Outcome)
	}
}

func (o *Output) printRoomList(l RoomList) {
	if len(l.Rooms) == 0 {
		o.printf("No rooms\n")
		return
	}
	for _, r := range l.Rooms {
		o.printf("Room %s [%s] pending moves: %d\n", r.ID, r.Phase, r.PendingMoves)
		for _, s := range r.Seats {
			o.printf("  Seat %d: %s\n", s.Number, seatLabel(s))
		}
	}
}

func seatLabel(s Seat) string {
	switch {
	case s.Player != nil:
		return fmt.Sprintf("%s (%d)", s.Player.DisplayName, s.Player.ID)
	case s.Occupied:
		return "connected, not registered"
	default:
		return "empty"
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	o.printf("Status: %s\n", h.Status)
	o.printf("Live rooms: %d\n", h.Rooms)
}
