package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/gamewatch/internal/model"
	"github.com/nhle/gamewatch/internal/notify"
)

// execute runs the CLI against a throwaway config and database.
func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("GAMEWATCH_DATABASE_PATH", filepath.Join(dir, "gamewatch.db"))
	t.Setenv("GAMEWATCH_LOG_LEVEL", "error")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", filepath.Join(dir, "config.yaml")}, args...))

	err := root.Execute()
	return out.String(), err
}

func TestFollowing_Empty(t *testing.T) {
	out, err := execute(t, t.TempDir(), "following", "--chat", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "Not following anyone")
}

func TestUnfollow_NotFound(t *testing.T) {
	out, err := execute(t, t.TempDir(), "unfollow", "--chat", "42", "Stephen", "Curry")
	require.NoError(t, err)
	assert.Contains(t, out, "not_found")
	assert.Contains(t, out, "Stephen Curry")
}

func TestFollowing_RequiresChat(t *testing.T) {
	_, err := execute(t, t.TempDir(), "following")
	assert.Error(t, err)
}

func TestPass_UnknownKind(t *testing.T) {
	_, err := execute(t, t.TempDir(), "pass", "weekly")
	assert.Error(t, err)
}

func TestInit_WritesConfigOnce(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "config.yaml")

	cfg, err := model.LoadConfig(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", cfg.Schedule.Timezone)

	_, err = execute(t, dir, "init")
	assert.Error(t, err)
}

func TestStatus(t *testing.T) {
	out, err := execute(t, t.TempDir(), "status")
	require.NoError(t, err)
	assert.Contains(t, out, "schema v2")
	assert.Contains(t, out, "upcoming")
	assert.Contains(t, out, "0 9 * * *")
}

func TestRenderReport(t *testing.T) {
	out := renderReport(notify.PassReport{
		PassID:    "abc",
		Kind:      model.KindCompleted,
		Delivered: 3,
		Failed:    1,
	})

	assert.Contains(t, out, "completed pass abc")
	assert.Contains(t, out, "degraded")
	assert.Contains(t, out, "delivered")
}

func TestParseKinds(t *testing.T) {
	kinds, err := parseKinds([]string{"upcoming", "completed"})
	require.NoError(t, err)
	assert.Equal(t, []model.Kind{model.KindUpcoming, model.KindCompleted}, kinds)

	_, err = parseKinds([]string{"daily"})
	assert.Error(t, err)
}
