package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/rpsmatch/internal/model"
	"github.com/mcoot/rpsmatch/internal/protocol"
	"github.com/mcoot/rpsmatch/internal/transport"
)

var errQuit = errors.New("quit")

var moveShorthand = map[string]model.Move{
	"r": model.MoveRock,
	"p": model.MovePaper,
	"s": model.MoveScissors,
}

func newPlayCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Join a room on the game server and play interactively",
		Long: `Connects to the game server, registers under --name and waits for an
opponent. Type rock, paper or scissors (or r, p, s) to play a round and
quit to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := net.Dial("tcp", cfg.ServerAddr)
			if err != nil {
				return fmt.Errorf("failed to connect to %s: %w", cfg.ServerAddr, err)
			}

			return runPlay(conn, name, cmd.InOrStdin(), newOutput(cmd), cfg.WriteTimeout)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

// runPlay drives one game session over conn until the server hangs up,
// input ends or the user quits
func runPlay(conn net.Conn, name string, in io.Reader, out *Output, writeTimeout time.Duration) error {
	sc := transport.NewStreamConn(conn, writeTimeout)
	defer func() { _ = sc.Close() }()

	if err := sc.Send(protocol.NewRegister(name)); err != nil {
		return fmt.Errorf("failed to register: %w", err)
	}

	received := make(chan error, 1)
	go func() {
		for {
			msg, err := sc.Receive()
			if err != nil {
				received <- err
				return
			}
			out.PrintServerMessage(msg)
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case err := <-received:
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				out.PrintMessage("Server closed the connection")
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)

		case line, ok := <-lines:
			if !ok {
				return nil
			}
			move, err := parseMoveInput(line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				out.PrintError(err)
				continue
			}
			if move == "" {
				continue
			}
			if err := sc.Send(protocol.NewChoice(move)); err != nil {
				return fmt.Errorf("failed to send choice: %w", err)
			}
		}
	}
}

// parseMoveInput maps a line of user input to a move. Blank input yields
// an empty move and no error.
func parseMoveInput(line string) (model.Move, error) {
	s := strings.ToLower(strings.TrimSpace(line))
	switch s {
	case "":
		return "", nil
	case "quit", "q", "exit":
		return "", errQuit
	}
	if m, ok := moveShorthand[s]; ok {
		return m, nil
	}
	return model.ParseMove(s)
}
