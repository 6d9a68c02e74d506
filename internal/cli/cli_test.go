package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/app-bouncer/internal/application"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommandsAgainstSQLite(t *testing.T) {
	logOutput = io.Discard
	t.Setenv("BOUNCER_CONFIG", "")
	t.Setenv("BOUNCER_STORAGE", "")
	t.Setenv("BOUNCER_ORACLE_PROVIDER", "")
	t.Setenv("BOUNCER_HISTORY_WINDOW_HOURS", "")

	dsn := "file:" + filepath.Join(t.TempDir(), "cli.db")
	common := []string{"--storage", "sqlite", "--sqlite-dsn", dsn, "--provider", "none"}

	out, err := run(t, append([]string{"migrate"}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, "sqlite schema at version 2\n", out)

	out, err = run(t, append([]string{"onboard", "--name", "Tim", "--surname", "Berg", "--app", "TikTok", "--worktime", "9"}, common...)...)
	require.NoError(t, err)
	userID := strings.TrimSpace(out)
	require.NotEmpty(t, userID)

	out, err = run(t, append([]string{"history", "--user", userID}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, "no requests in the last 24 hours\n", out)

	_, err = run(t, append([]string{"ask", "--user", userID, "just", "one", "video"}, common...)...)
	require.Error(t, err)
	assert.True(t, errors.Is(err, application.ErrUpstreamUnavailable), "got %v", err)

	out, err = run(t, append([]string{"history", "--user", userID, "--today"}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, "0\n", out)

	out, err = run(t, append([]string{"purge", "--user", userID}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, "removed 0 requests\n", out)
}

func TestLoadConfigRejectsUnknownProvider(t *testing.T) {
	logOutput = io.Discard
	t.Setenv("BOUNCER_CONFIG", "")

	_, err := run(t, "migrate", "--storage", "memory", "--provider", "smoke-signals")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle.provider")
}
