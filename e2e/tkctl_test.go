package e2e_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/tkserver/internal/api"
	"github.com/mcoot/tkserver/internal/factory"
	"github.com/mcoot/tkserver/internal/protocol"
	"github.com/mcoot/tkserver/internal/server"
	"github.com/mcoot/tkserver/internal/services/restart"
	"github.com/mcoot/tkserver/internal/session"
	"github.com/mcoot/tkserver/internal/testutil"
)

const (
	adminToken  = "e2e-admin-token"
	shellSecret = "e2e-shell-secret"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	ts         *testServer
}

func newCLIRunner(t *testing.T, ts *testServer) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "tkctl-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/tkctl")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		ts:         ts,
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--admin", r.ts.adminURL,
		"--token", adminToken,
		"--addr", r.ts.addr,
		"--data-dir", r.ts.dataDir,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
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

// testServer runs the game listener and admin API in-process on file storage
type testServer struct {
	app      *factory.App
	addr     string
	adminURL string
	dataDir  string
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	dataDir := t.TempDir()
	logger := testutil.NopLogger()

	app, err := factory.New(factory.Config{
		Logger:      logger,
		DataDir:     dataDir,
		StorageType: factory.StorageTypeFile,
		Session:     session.DefaultConfig(),
		Restart:     restart.DefaultConfig(),
		ShellSecret: shellSecret,
	})
	require.NoError(t, err)
	app.Whitelist.Load(context.Background())

	tcp := server.New(app.Sessions, app.Clients, server.Config{
		Addr:            "127.0.0.1:0",
		ShutdownTimeout: time.Second,
	}, logger)
	require.NoError(t, tcp.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = tcp.Serve(ctx) }()

	admin := httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:    logger,
		Clock:     app.Clock,
		Whitelist: app.Whitelist,
		Clients:   app.Clients,
		Scheduler: app.Scheduler,
		Token:     adminToken,
	}))

	t.Cleanup(func() {
		cancel()
		_ = tcp.Shutdown(context.Background())
		admin.Close()
		_ = app.Close()
	})

	return &testServer{
		app:      app,
		addr:     tcp.Addr(),
		adminURL: admin.URL,
		dataDir:  dataDir,
	}
}

// Response types for JSON parsing
type healthResponse struct {
	Status string `json:"status"`
}

type probeResponse struct {
	Exchanges []struct {
		Sent     string   `json:"sent"`
		Received []string `json:"received"`
	} `json:"exchanges"`
}

type usersResponse struct {
	Users []struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
		Member      bool   `json:"member"`
	} `json:"users"`
	Count int `json:"count"`
}

type scheduleResponse struct {
	Active      bool       `json:"active"`
	Interval    string     `json:"interval"`
	NextRestart *time.Time `json:"next_restart"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	cli := newCLIRunner(t, ts)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_RegistrationPersistsToDisk(t *testing.T) {
	ts := startTestServer(t)
	cli := newCLIRunner(t, ts)

	// Register over the game protocol
	output, err := cli.run("probe", "76561198000000001|ABCD-1234|Alice")
	require.NoError(t, err, "output: %s", output)

	var probe probeResponse
	require.NoError(t, json.Unmarshal([]byte(output), &probe))
	require.Len(t, probe.Exchanges, 2)
	assert.Equal(t, []string{protocol.RespVersionOK}, probe.Exchanges[0].Received)
	assert.Equal(t, []string{protocol.RespRegistered}, probe.Exchanges[1].Received)

	// Same secret under another id is refused
	output, err = cli.run("probe", "76561198000000002|ABCD-1234|Mallory")
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &probe))
	assert.Equal(t, []string{protocol.RespSecretTaken}, probe.Exchanges[1].Received)

	// Both projections were written
	data, err := os.ReadFile(filepath.Join(ts.dataDir, "whitelist.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"SteamId": "76561198000000001"`)
	assert.NotContains(t, string(data), "Mallory")

	data, err = os.ReadFile(filepath.Join(ts.dataDir, "whitelist.txt"))
	require.NoError(t, err)
	assert.Equal(t, "76561198000000001", strings.TrimSpace(string(data)))

	// The offline reader sees the same as the admin API
	for _, args := range [][]string{{"users"}, {"users", "--offline"}} {
		output, err = cli.run(args...)
		require.NoError(t, err, "output: %s", output)

		var users usersResponse
		require.NoError(t, json.Unmarshal([]byte(output), &users))
		require.Equal(t, 1, users.Count, "%v", args)
		assert.Equal(t, "Alice", users.Users[0].DisplayName)
		assert.True(t, users.Users[0].Member)
		assert.NotContains(t, output, "ABCD-1234")
	}
}

func TestCLI_ShellSessionWithDisabledExecutor(t *testing.T) {
	ts := startTestServer(t)
	cli := newCLIRunner(t, ts)

	output, err := cli.run("probe", protocol.TokenShell, shellSecret, "uptime", "EXIT")
	require.NoError(t, err, "output: %s", output)

	var probe probeResponse
	require.NoError(t, json.Unmarshal([]byte(output), &probe))
	require.Len(t, probe.Exchanges, 5)

	assert.Equal(t, []string{protocol.ShellPasswordPrompt}, probe.Exchanges[1].Received)
	assert.Equal(t, []string{protocol.ShellPasswordOK, protocol.ShellActive, protocol.ShellPrompt}, probe.Exchanges[2].Received)

	cmdReply := probe.Exchanges[3].Received
	require.Len(t, cmdReply, 2)
	assert.True(t, strings.HasPrefix(cmdReply[0], "ERROR:"), cmdReply[0])
	assert.Equal(t, protocol.ShellPrompt, cmdReply[1])

	assert.Equal(t, []string{protocol.ShellEnded}, probe.Exchanges[4].Received)
}

func TestCLI_RestartSchedule(t *testing.T) {
	ts := startTestServer(t)
	cli := newCLIRunner(t, ts)

	output, err := cli.run("restart", "set", "1:30")
	require.NoError(t, err, "output: %s", output)

	var sched scheduleResponse
	require.NoError(t, json.Unmarshal([]byte(output), &sched))
	assert.True(t, sched.Active)
	assert.Equal(t, "1h30m0s", sched.Interval)
	require.NotNil(t, sched.NextRestart)
	assert.WithinDuration(t, time.Now().Add(90*time.Minute), *sched.NextRestart, 5*time.Second)

	output, err = cli.run("restart", "cancel")
	require.NoError(t, err, "output: %s", output)

	output, err = cli.run("restart", "show")
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &sched))
	assert.False(t, sched.Active)
	assert.Nil(t, sched.NextRestart)
}

func TestCLI_WrongAdminToken(t *testing.T) {
	ts := startTestServer(t)
	cli := newCLIRunner(t, ts)

	output, err := cli.run("--token", "wrong", "status")
	require.Error(t, err)
	assert.Contains(t, output, "UNAUTHORIZED")
}
