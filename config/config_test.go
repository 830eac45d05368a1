package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	for _, env := range envBindings {
		unsetEnv(t, env)
	}
	t.Setenv("INPUT_GITHUB_TOKEN", "gh-token")
	t.Setenv("GITHUB_EVENT_NAME", "issues")
	t.Setenv("GITHUB_EVENT_PATH", "/tmp/event.json")
	t.Setenv("INPUT_SHORTCUT_API_TOKEN", "sc-token")
	t.Setenv("INPUT_SHORTCUT_DEFAULT_USER_NAME", "Default Dev")
	t.Setenv("INPUT_SHORTCUT_WORKFLOW", "Engineering")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FromEnvironment(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("INPUT_SHORTCUT_TEAM", "Platform")
	t.Setenv("INPUT_GH_SC_USER_MAP", `{"alice": "Alice Liddell"}`)
	t.Setenv("INPUT_GH_ACTION_SC_STATE_MAP", `{"closed": "Done"}`)
	t.Setenv("INPUT_HTTP_TIMEOUT", "45s")

	env, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "gh-token", env.GitHubToken)
	assert.Equal(t, "sc-token", env.ShortcutToken)
	assert.Equal(t, "Default Dev", env.DefaultUserName)
	assert.Equal(t, "Engineering", env.Workflow)
	assert.Equal(t, "Platform", env.Team)
	assert.Empty(t, env.Project)
	assert.Equal(t, map[string]string{"alice": "Alice Liddell"}, env.UserMap)
	assert.Equal(t, map[string]string{"closed": "Done"}, env.StateMap)
	assert.Equal(t, 45*time.Second, env.HTTPTimeout)
	assert.Equal(t, "https://api.app.shortcut.com/api/v3", env.ShortcutAPIURL)
	assert.True(t, env.IsIssuesEvent())
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	env, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultHTTPTimeout, env.HTTPTimeout)
	assert.Empty(t, env.UserMap)
	assert.Empty(t, env.StateMap)
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequiredEnv(t)
	unsetEnv(t, "INPUT_SHORTCUT_API_TOKEN", "INPUT_SHORTCUT_WORKFLOW")

	_, err := Load(nil)
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{"INPUT_SHORTCUT_API_TOKEN", "INPUT_SHORTCUT_WORKFLOW"}, cfgErr.Keys)
}

func TestLoad_MalformedHTTPTimeout(t *testing.T) {
	for _, raw := range []string{"abc", "30"} {
		t.Run(raw, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv("INPUT_HTTP_TIMEOUT", raw)

			env, err := Load(nil)
			assert.Nil(t, env)
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, []string{"INPUT_HTTP_TIMEOUT"}, cfgErr.Keys)
		})
	}
}

func TestLoad_MalformedMappingFallsBackToEmpty(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("INPUT_GH_SC_USER_MAP", `{"alice": `)
	t.Setenv("INPUT_GH_ACTION_SC_STATE_MAP", `closed:Done`)

	env, err := Load(nil)
	require.NoError(t, err)
	assert.Empty(t, env.UserMap)
	assert.Empty(t, env.StateMap)
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	setRequiredEnv(t)

	flags := NewFlagSet("test")
	require.NoError(t, flags.Parse([]string{"--event-path", "/other/event.json", "--event-name", "push"}))

	env, err := Load(flags)
	require.NoError(t, err)
	assert.Equal(t, "/other/event.json", env.EventPath)
	assert.Equal(t, "push", env.EventName)
	assert.False(t, env.IsIssuesEvent())
}

func TestLoad_EnvFile(t *testing.T) {
	setRequiredEnv(t)
	unsetEnv(t, "INPUT_SHORTCUT_PROJECT")
	path := writeFile(t, "test.env", "INPUT_SHORTCUT_PROJECT=Backend\nINPUT_SHORTCUT_WORKFLOW=Ignored\n")

	flags := NewFlagSet("test")
	require.NoError(t, flags.Parse([]string{"--env-file", path}))

	env, err := Load(flags)
	require.NoError(t, err)
	assert.Equal(t, "Backend", env.Project)
	assert.Equal(t, "Engineering", env.Workflow, "existing environment wins over the env file")
}

func TestLoad_MissingEnvFile(t *testing.T) {
	setRequiredEnv(t)

	flags := NewFlagSet("test")
	require.NoError(t, flags.Parse([]string{"--env-file", filepath.Join(t.TempDir(), "nope.env")}))

	_, err := Load(flags)
	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestLoad_ConfigFile(t *testing.T) {
	setRequiredEnv(t)
	path := writeFile(t, "config.toml", `
shortcut_team = "Platform"
http_timeout = "10s"

[gh_sc_user_map]
alice = "Alice Liddell"
`)

	flags := NewFlagSet("test")
	require.NoError(t, flags.Parse([]string{"--config", path}))

	env, err := Load(flags)
	require.NoError(t, err)
	assert.Equal(t, "Platform", env.Team)
	assert.Equal(t, 10*time.Second, env.HTTPTimeout)
	assert.Equal(t, map[string]string{"alice": "Alice Liddell"}, env.UserMap)
}

func TestEnviron_LogFieldsRedactTokens(t *testing.T) {
	t.Parallel()
	env := &Environ{GitHubToken: "gh-secret", ShortcutToken: "sc-secret"}

	for _, f := range env.LogFields() {
		assert.NotContains(t, f.String, "secret", f.Key)
	}
}

func TestParseUserMap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  any
		want map[string]string
	}{
		{"nil", nil, map[string]string{}},
		{"empty string", "  ", map[string]string{}},
		{"json", `{"alice": "Alice Liddell", "bob": "bob@example.com"}`, map[string]string{"alice": "Alice Liddell", "bob": "bob@example.com"}},
		{"pair list", "alice:Alice Liddell, bob:bob", map[string]string{"alice": "Alice Liddell", "bob": "bob"}},
		{"trailing comma", "alice:alice,", map[string]string{"alice": "alice"}},
		{"table", map[string]any{"alice": "Alice"}, map[string]string{"alice": "Alice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseUserMap(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseUserMap_Malformed(t *testing.T) {
	t.Parallel()

	for _, raw := range []any{`{"alice": }`, "alice", "alice:", ":Alice", map[string]any{"alice": 3}, 42} {
		_, err := ParseUserMap(raw)
		var mpe *MappingParseError
		require.True(t, errors.As(err, &mpe), "%v", raw)
		assert.Equal(t, KeyUserMap, mpe.Key)
	}
}

func TestParseStateMap(t *testing.T) {
	t.Parallel()

	got, err := ParseStateMap(`{"closed": "Done", "labeled": "In Progress"}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"closed": "Done", "labeled": "In Progress"}, got)

	_, err = ParseStateMap("closed:Done")
	var mpe *MappingParseError
	require.True(t, errors.As(err, &mpe))
	assert.Equal(t, KeyStateMap, mpe.Key)
}

func TestLoadEvent(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "event.json", `{
		"action": "opened",
		"issue": {
			"number": 12,
			"title": "Fix login bug",
			"user": {"login": "alice"},
			"assignees": [{"login": "bob"}]
		},
		"repository": {"full_name": "octo/app"}
	}`)

	event, err := LoadEvent(path)
	require.NoError(t, err)
	assert.Equal(t, "opened", event.Action)
	assert.Equal(t, 12, event.Issue.Number)
	assert.Equal(t, "alice", event.Issue.User.Login)
	require.Len(t, event.Issue.Assignees, 1)
	assert.Equal(t, "bob", event.Issue.Assignees[0].Login)
	assert.Equal(t, "octo/app", event.Repository.FullName)
}

func TestLoadEvent_Invalid(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	for name, content := range map[string]string{
		"malformed.json": `{"action": `,
		"no-issue.json":  `{"action": "opened", "repository": {"full_name": "octo/app"}}`,
		"no-repo.json":   `{"action": "opened", "issue": {"number": 1}}`,
		"no-action.json": `{"issue": {"number": 1}, "repository": {"full_name": "octo/app"}}`,
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		_, err := LoadEvent(path)
		var cfgErr *ConfigError
		assert.True(t, errors.As(err, &cfgErr), name)
	}

	_, err := LoadEvent(filepath.Join(dir, "missing.json"))
	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}
