package e2e_test

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/pitfall"
	"github.com/sagarc03/pitfall/probe"
)

func TestE2E_Memory(t *testing.T) {
	client := startServer(t, ServerConfig{Backend: "memory"})
	runProbeSuite(t, client)
}

func TestE2E_SQLite(t *testing.T) {
	client := startServer(t, ServerConfig{
		Backend: "sqlite",
		DSN:     filepath.Join(t.TempDir(), "users.db"),
	})
	runProbeSuite(t, client)
}

func TestE2E_Postgres(t *testing.T) {
	dsn := getSharedPostgresDatabase(t)

	client := startServer(t, ServerConfig{
		Backend: "postgres",
		DSN:     dsn,
		Table:   "e2e_users",
	})
	runProbeSuite(t, client)
}

// runProbeSuite drives every endpoint through the probe client.
func runProbeSuite(t *testing.T, client *probe.Client) {
	t.Helper()
	ctx := context.Background()

	t.Run("login with seeded admin exposes stored record", func(t *testing.T) {
		result, err := client.Login(ctx, "admin", "admin123")
		require.NoError(t, err)
		assert.Equal(t, "Login successful", result.Message)
		assert.Equal(t, 1, result.User.ID)
		assert.Equal(t, pitfall.RoleAdmin, result.User.Role)
		assert.Equal(t, "admin123", result.User.Password)
	})

	t.Run("login rejects bad credentials", func(t *testing.T) {
		for _, creds := range [][2]string{
			{"admin", "wrong"},
			{"nobody", "admin123"},
			{"admin' OR '1'='1", "x"},
			{"", ""},
		} {
			_, err := client.Login(ctx, creds[0], creds[1])
			assert.True(t, probe.IsStatus(err, http.StatusUnauthorized), "creds %q: %v", creds, err)
		}
	})

	t.Run("traversal names rejected and sample served", func(t *testing.T) {
		report, err := probe.CheckTraversal(ctx, client, probe.TraversalOptions{ValidName: "sample.txt"})
		require.NoError(t, err)
		for _, c := range report.Cases {
			assert.True(t, c.Passed, "%s: got %d want %d", c.Name, c.Status, c.Expected)
		}
		assert.True(t, report.Passed)
	})

	t.Run("missing file is 404", func(t *testing.T) {
		result, err := client.File(ctx, "missing.txt")
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, result.StatusCode)
		assert.Equal(t, "not_found", result.ErrorCode)
	})

	t.Run("rejection body does not leak paths", func(t *testing.T) {
		result, err := client.File(ctx, "../secret.txt")
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, result.StatusCode)
		assert.NotContains(t, result.Message, "/")
	})

	t.Run("concurrent increments are unique", func(t *testing.T) {
		report, err := probe.CheckRace(ctx, client, probe.RaceOptions{})
		require.NoError(t, err)
		assert.Empty(t, report.Errors)
		assert.Equal(t, probe.DefaultRaceConcurrency, report.Unique)
		assert.True(t, report.Passed)
	})

	t.Run("duplicates answers within thresholds", func(t *testing.T) {
		report, err := probe.CheckPerf(ctx, client, probe.PerfOptions{})
		require.NoError(t, err)
		assert.True(t, report.Passed, "grade %s after %s", report.Grade, report.Elapsed)
	})

	t.Run("monitor ids grow", func(t *testing.T) {
		first, err := client.Monitor(ctx, 50*time.Millisecond)
		require.NoError(t, err)
		second, err := client.Monitor(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, first+1, second)
	})

	t.Run("run all passes", func(t *testing.T) {
		report := probe.RunAll(ctx, client, probe.AllOptions{})
		assert.True(t, report.Passed(), "errors: %v", report.Errors)
	})
}

func TestE2E_RedactPassword(t *testing.T) {
	client := startServer(t, ServerConfig{Backend: "memory", RedactPassword: true})

	result, err := client.Login(context.Background(), "user1", "pass123")
	require.NoError(t, err)
	assert.Equal(t, "user1", result.User.Username)
	assert.Empty(t, result.User.Password)
}

func TestE2E_InlineUsers(t *testing.T) {
	client := startServer(t, ServerConfig{
		Backend: "sqlite",
		DSN:     filepath.Join(t.TempDir(), "users.db"),
		Inline:  []string{"4:guest:guest1:user", "2:user1:changed:user"},
	})
	ctx := context.Background()

	result, err := client.Login(ctx, "guest", "guest1")
	require.NoError(t, err)
	assert.Equal(t, 4, result.User.ID)

	_, err = client.Login(ctx, "user1", "pass123")
	assert.True(t, probe.IsStatus(err, http.StatusUnauthorized))

	_, err = client.Login(ctx, "user1", "changed")
	assert.NoError(t, err)
}

func TestE2E_Metrics(t *testing.T) {
	client := startServer(t, ServerConfig{Backend: "memory", Metrics: true})
	ctx := context.Background()

	_, err := client.Increment(ctx)
	require.NoError(t, err)
	_, err = client.Monitor(ctx, time.Second)
	require.NoError(t, err)

	resp, err := http.Get(client.Endpoint() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, "pitfall_counter_value 1")
	assert.Contains(t, text, "pitfall_monitor_tasks 1")
	assert.True(t, strings.Contains(text, `route="/increment"`), "request counter missing route label")
}

func TestE2E_MetricsDisabled(t *testing.T) {
	client := startServer(t, ServerConfig{Backend: "memory"})

	resp, err := http.Get(client.Endpoint() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
