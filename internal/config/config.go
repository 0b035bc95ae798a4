package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Router: RouterConfig{
			Name: "router",
		},
		Invites: InvitesConfig{
			DefaultTimeoutMinutes: 60,
			SweepIntervalMinutes:  10,
		},
		Reconcile: ReconcileConfig{
			IntervalMinutes: 10,
		},
		TeamMode: TeamModeConfig{
			Strategy: "deterministic",
		},
		Gateway: GatewayConfig{
			Port: 18990,
			Bind: "127.0.0.1",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Agent looks up a configured agent by name.
func (c *Config) Agent(name string) (AgentEntry, bool) {
	for _, a := range c.Agents {
		if a.Name == name {
			return a, true
		}
	}
	return AgentEntry{}, false
}

// Team looks up a configured team by name.
func (c *Config) Team(name string) (TeamEntry, bool) {
	for _, t := range c.Teams {
		if t.Name == name {
			return t, true
		}
	}
	return TeamEntry{}, false
}
