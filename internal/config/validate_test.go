package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Homeserver.Domain = "example.org"
	cfg.Agents = []AgentEntry{
		{Name: "phone", Rooms: []string{"!lobby:example.org"}},
		{Name: "email"},
	}
	cfg.Teams = []TeamEntry{
		{Name: "comms", Agents: []string{"phone", "email"}},
	}
	return cfg
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	assert.Empty(t, Validate(&cfg))
}

func TestValidate_Issues(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantPath string
	}{
		{
			name:     "missing domain",
			mutate:   func(c *Config) { c.Homeserver.Domain = "" },
			wantPath: "homeserver.domain",
		},
		{
			name:     "agent without name",
			mutate:   func(c *Config) { c.Agents = append(c.Agents, AgentEntry{}) },
			wantPath: "agents[2].name",
		},
		{
			name:     "duplicate agent",
			mutate:   func(c *Config) { c.Agents = append(c.Agents, AgentEntry{Name: "phone"}) },
			wantPath: "agents[2].name",
		},
		{
			name:     "team references unknown agent",
			mutate:   func(c *Config) { c.Teams[0].Agents = append(c.Teams[0].Agents, "fax") },
			wantPath: "teams[0].agents[2]",
		},
		{
			name:     "negative invite timeout",
			mutate:   func(c *Config) { c.Invites.DefaultTimeoutMinutes = -1 },
			wantPath: "invites.defaultTimeoutMinutes",
		},
		{
			name:     "negative reconcile interval",
			mutate:   func(c *Config) { c.Reconcile.IntervalMinutes = -5 },
			wantPath: "reconcile.intervalMinutes",
		},
		{
			name:     "bad team strategy",
			mutate:   func(c *Config) { c.TeamMode.Strategy = "vibes" },
			wantPath: "teamMode.strategy",
		},
		{
			name:     "bad gateway port",
			mutate:   func(c *Config) { c.Gateway.Port = 99999 },
			wantPath: "gateway.port",
		},
		{
			name:     "bad log level",
			mutate:   func(c *Config) { c.Logging.Level = "loud" },
			wantPath: "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			issues := Validate(&cfg)
			paths := make([]string, 0, len(issues))
			for _, issue := range issues {
				paths = append(paths, issue.Path)
			}
			assert.Contains(t, paths, tt.wantPath)
		})
	}
}
