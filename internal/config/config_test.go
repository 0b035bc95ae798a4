package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "router", cfg.Router.Name)
	assert.Equal(t, 60, cfg.Invites.DefaultTimeoutMinutes)
	assert.Equal(t, 10, cfg.Reconcile.IntervalMinutes)
	assert.Equal(t, "deterministic", cfg.TeamMode.Strategy)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_ParsesAgentsAndTeams(t *testing.T) {
	path := writeConfig(t, `
homeserver:
  domain: example.org
router:
  name: dispatch
agents:
  - name: phone
    displayName: Phone Agent
    role: handles calls
    rooms: ["!lobby:example.org"]
  - name: email
    rooms: ["!lobby:example.org", "!mail:example.org"]
teams:
  - name: comms
    agents: [phone, email]
    rooms: ["!comms:example.org"]
authorization:
  allowedSenders: ["@boss:example.org"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "example.org", cfg.Homeserver.Domain)
	assert.Equal(t, "dispatch", cfg.Router.Name)
	require.Len(t, cfg.Agents, 2)
	assert.Equal(t, "Phone Agent", cfg.Agents[0].DisplayName)
	assert.Equal(t, []string{"!lobby:example.org", "!mail:example.org"}, cfg.Agents[1].Rooms)
	require.Len(t, cfg.Teams, 1)
	assert.Equal(t, []string{"phone", "email"}, cfg.Teams[0].Agents)
	assert.Equal(t, []string{"@boss:example.org"}, cfg.Authorization.AllowedSenders)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "agents: [broken")

	_, err := Load(path)
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoad_ExpandsGatewayToken(t *testing.T) {
	t.Setenv("CONCORD_TEST_TOKEN", "s3cret")
	path := writeConfig(t, `
homeserver:
  domain: example.org
gateway:
  auth:
    token: ${CONCORD_TEST_TOKEN}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Gateway.Auth.Token)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONCORD_LOG_LEVEL", "DEBUG")
	t.Setenv("CONCORD_GATEWAY_PORT", "19999")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 19999, cfg.Gateway.Port)
}

func TestConfigLookupHelpers(t *testing.T) {
	cfg := Config{
		Agents: []AgentEntry{{Name: "phone"}, {Name: "email"}},
		Teams:  []TeamEntry{{Name: "comms", Agents: []string{"phone"}}},
	}

	a, ok := cfg.Agent("email")
	require.True(t, ok)
	assert.Equal(t, "email", a.Name)

	_, ok = cfg.Agent("fax")
	assert.False(t, ok)

	tm, ok := cfg.Team("comms")
	require.True(t, ok)
	assert.Equal(t, []string{"phone"}, tm.Agents)

	_, ok = cfg.Team("ops")
	assert.False(t, ok)
}

func TestProvider_ReloadSwapsSnapshot(t *testing.T) {
	path := writeConfig(t, `
homeserver:
  domain: example.org
agents:
  - name: phone
`)

	p, err := NewProvider(path)
	require.NoError(t, err)

	first := p.Current()
	require.Len(t, first.Agents, 1)

	require.NoError(t, os.WriteFile(path, []byte(`
homeserver:
  domain: example.org
agents:
  - name: phone
  - name: email
`), 0o600))
	require.NoError(t, p.Reload())

	// Old snapshot is untouched, new snapshot sees the new agent.
	assert.Len(t, first.Agents, 1)
	assert.Len(t, p.Current().Agents, 2)
}

func TestProvider_ReloadKeepsOldSnapshotOnError(t *testing.T) {
	path := writeConfig(t, "homeserver:\n  domain: example.org\n")

	p, err := NewProvider(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("agents: [broken"), 0o600))
	require.Error(t, p.Reload())
	assert.Equal(t, "example.org", p.Current().Homeserver.Domain)
}

func TestParseConfigPath(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []string
		wantErr bool
	}{
		{name: "simple", in: "logging.level", want: []string{"logging", "level"}},
		{name: "single", in: "router", want: []string{"router"}},
		{name: "empty", in: "", wantErr: true},
		{name: "empty segment", in: "logging..level", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfigPath(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValueAtPathRoundTrip(t *testing.T) {
	root := map[string]any{}

	SetValueAtPath(root, []string{"logging", "level"}, "debug")
	v, ok := GetValueAtPath(root, []string{"logging", "level"})
	require.True(t, ok)
	assert.Equal(t, "debug", v)

	assert.True(t, UnsetValueAtPath(root, []string{"logging", "level"}))
	_, ok = GetValueAtPath(root, []string{"logging", "level"})
	assert.False(t, ok)
	assert.False(t, UnsetValueAtPath(root, []string{"logging", "level"}))
}
