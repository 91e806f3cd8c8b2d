package e2e_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rpsmatch/internal/api"
	"github.com/mcoot/rpsmatch/internal/factory"
	"github.com/mcoot/rpsmatch/internal/testutil"
	"github.com/mcoot/rpsmatch/internal/transport"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	gameAddr   string
	apiURL     string
}

func newCLIRunner(t *testing.T, ts *testServer) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "rps-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/rps")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		gameAddr:   ts.gameAddr,
		apiURL:     ts.apiURL,
	}
}

func (r *cliRunner) args(args ...string) []string {
	return append([]string{
		"--server", r.gameAddr,
		"--api", r.apiURL,
		"--output", "json",
	}, args...)
}

func (r *cliRunner) run(args ...string) (string, error) {
	cmd := exec.Command(r.binaryPath, r.args(args...)...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// player is a running "rps play" process
type player struct {
	t     *testing.T
	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan map[string]any
}

func (r *cliRunner) play(t *testing.T, name string) *player {
	t.Helper()

	cmd := exec.Command(r.binaryPath, r.args("play", "--name", name)...)
	stdin, err := cmd.StdinPipe()
	require.NoError(t, err)
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())

	p := &player{t: t, cmd: cmd, stdin: stdin, lines: make(chan map[string]any, 16)}
	go func() {
		defer close(p.lines)
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			var msg map[string]any
			if err := json.Unmarshal(scanner.Bytes(), &msg); err == nil {
				p.lines <- msg
			}
		}
	}()
	return p
}

// expect waits for the next server message of the given type, skipping others
func (p *player) expect(msgType string) map[string]any {
	p.t.Helper()

	timeout := time.After(10 * time.Second)
	for {
		select {
		case msg, ok := <-p.lines:
			require.True(p.t, ok, "client exited while waiting for %s", msgType)
			if msg["type"] == msgType {
				return msg
			}
		case <-timeout:
			p.t.Fatalf("timed out waiting for %s", msgType)
		}
	}
}

func (p *player) send(line string) {
	p.t.Helper()
	_, err := io.WriteString(p.stdin, line+"\n")
	require.NoError(p.t, err)
}

func (p *player) quit() {
	p.t.Helper()
	_ = p.stdin.Close()
	require.NoError(p.t, p.cmd.Wait())
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer runs the game listener and the admin API on loopback ports
type testServer struct {
	gameAddr string
	apiURL   string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	logger := testutil.NopLogger()

	gameServer := transport.NewServer(transport.ServerConfig{Host: "127.0.0.1", Port: 0}, app.Handler, app.Registry, logger)
	require.NoError(t, gameServer.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := gameServer.Serve(ctx); err != nil {
			t.Logf("game server error: %v", err)
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Logger:   logger,
		Ledger:   app.Ledger,
		Registry: app.Registry,
	})
	httpConfig := api.DefaultServerConfig()
	httpConfig.Host = "127.0.0.1"
	httpConfig.Port = 0
	httpServer := api.NewServer(router, httpConfig, logger)
	require.NoError(t, httpServer.Listen())

	go func() {
		if err := httpServer.Serve(); err != nil {
			t.Logf("http server error: %v", err)
		}
	}()

	return &testServer{
		gameAddr: gameServer.Addr(),
		apiURL:   "http://" + httpServer.Addr(),
		shutdown: func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = httpServer.Shutdown(shutdownCtx)
			_ = gameServer.Shutdown(shutdownCtx)
			cancel()
		},
	}
}

// Response types for JSON parsing
type healthResponse struct {
	Status string `json:"status"`
}

type scoreResponse struct {
	PlayerA struct {
		ID          int64  `json:"id"`
		DisplayName string `json:"display_name"`
	} `json:"player_a"`
	AWins int `json:"a_wins"`
	BWins int `json:"b_wins"`
	Draws int `json:"draws"`
}

type roomsResponse struct {
	Rooms []struct {
		ID    string `json:"id"`
		Phase string `json:"phase"`
	} `json:"rooms"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_FullGameFlow(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts)

	alice := cli.play(t, "Alice")
	registered := alice.expect("registered")
	assert.Equal(t, float64(1), registered["seat_number"])

	bob := cli.play(t, "Bob")
	registered = bob.expect("registered")
	assert.Equal(t, float64(2), registered["seat_number"])

	ready := alice.expect("game_ready")
	assert.Equal(t, "Bob", ready["opponent_name"])
	ready = bob.expect("game_ready")
	assert.Equal(t, "Alice", ready["opponent_name"])

	// Room is visible through the admin API while both are seated
	output, err := cli.run("rooms")
	require.NoError(t, err, "output: %s", output)
	var rooms roomsResponse
	require.NoError(t, json.Unmarshal([]byte(output), &rooms))
	require.Len(t, rooms.Rooms, 1)
	assert.Equal(t, "ready", rooms.Rooms[0].Phase)

	alice.send("rock")
	alice.expect("choice_received")
	bob.send("s")

	result := alice.expect("result")
	assert.Equal(t, "Alice wins!", result["winner_text"])
	assert.Equal(t, float64(1), result["your_score"])
	result = bob.expect("result")
	assert.Equal(t, "Alice wins!", result["winner_text"])
	assert.Equal(t, float64(1), result["opponent_score"])

	alice.quit()
	bob.expect("opponent_disconnected")
	bob.quit()

	output, err = cli.run("score", "1", "2")
	require.NoError(t, err, "output: %s", output)
	var score scoreResponse
	require.NoError(t, json.Unmarshal([]byte(output), &score))
	assert.Equal(t, "Alice", score.PlayerA.DisplayName)
	assert.Equal(t, 1, score.AWins)
	assert.Equal(t, 0, score.BWins)
	assert.Equal(t, 0, score.Draws)
}

func TestCLI_ErrorHandling(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts)

	output, err := cli.run("player", "42")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "not found")

	output, err = cli.run("score", "1", "abc")
	assert.Error(t, err)
	assert.Contains(t, output, "INVALID_REQUEST")
}
