package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Homeserver.Domain == "" {
		issues = append(issues, ValidationIssue{
			Path:    "homeserver.domain",
			Message: "domain is required to derive agent identities",
		})
	}

	seen := map[string]bool{}
	for i, a := range cfg.Agents {
		path := fmt.Sprintf("agents[%d]", i)
		if a.Name == "" {
			issues = append(issues, ValidationIssue{Path: path + ".name", Message: "name is required"})
			continue
		}
		if seen[a.Name] {
			issues = append(issues, ValidationIssue{
				Path:    path + ".name",
				Message: fmt.Sprintf("duplicate agent name %q", a.Name),
			})
		}
		seen[a.Name] = true
	}

	for i, tm := range cfg.Teams {
		path := fmt.Sprintf("teams[%d]", i)
		if tm.Name == "" {
			issues = append(issues, ValidationIssue{Path: path + ".name", Message: "name is required"})
		}
		if seen[tm.Name] {
			issues = append(issues, ValidationIssue{
				Path:    path + ".name",
				Message: fmt.Sprintf("team name %q collides with an agent or team", tm.Name),
			})
		}
		seen[tm.Name] = true
		for j, member := range tm.Agents {
			if _, ok := cfg.Agent(member); !ok {
				issues = append(issues, ValidationIssue{
					Path:    fmt.Sprintf("%s.agents[%d]", path, j),
					Message: fmt.Sprintf("unknown agent %q", member),
				})
			}
		}
	}

	if cfg.Invites.DefaultTimeoutMinutes < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "invites.defaultTimeoutMinutes",
			Message: fmt.Sprintf("must be non-negative, got %d", cfg.Invites.DefaultTimeoutMinutes),
		})
	}
	if cfg.Reconcile.IntervalMinutes < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "reconcile.intervalMinutes",
			Message: fmt.Sprintf("must be non-negative, got %d", cfg.Reconcile.IntervalMinutes),
		})
	}

	validStrategies := []string{"deterministic", "advisor"}
	if cfg.TeamMode.Strategy != "" && !slices.Contains(validStrategies, cfg.TeamMode.Strategy) {
		issues = append(issues, ValidationIssue{
			Path:    "teamMode.strategy",
			Message: fmt.Sprintf("must be one of %v, got %q", validStrategies, cfg.TeamMode.Strategy),
		})
	}

	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Gateway.Port),
		})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	return issues
}
