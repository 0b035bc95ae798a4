package config

// Config is the root configuration for Concord. A loaded Config is an
// immutable snapshot: reloads build a fresh value and swap the shared
// reference, they never mutate a Config in use.
type Config struct {
	Homeserver    HomeserverConfig    `yaml:"homeserver"`
	Router        RouterConfig        `yaml:"router,omitempty"`
	Authorization AuthorizationConfig `yaml:"authorization,omitempty"`
	Agents        []AgentEntry        `yaml:"agents,omitempty"`
	Teams         []TeamEntry         `yaml:"teams,omitempty"`
	Invites       InvitesConfig       `yaml:"invites,omitempty"`
	Reconcile     ReconcileConfig     `yaml:"reconcile,omitempty"`
	TeamMode      TeamModeConfig      `yaml:"teamMode,omitempty"`
	Gateway       GatewayConfig       `yaml:"gateway,omitempty"`
	Store         StoreConfig         `yaml:"store,omitempty"`
	Logging       LoggingConfig       `yaml:"logging,omitempty"`
}

// HomeserverConfig identifies the deployment's messaging domain. Agent
// identities are derived from the agent name plus this domain.
type HomeserverConfig struct {
	Domain string `yaml:"domain"`
	URL    string `yaml:"url,omitempty"`
}

// RouterConfig names the distinguished fallback agent.
type RouterConfig struct {
	Name string `yaml:"name,omitempty"`
}

// AuthorizationConfig lists sender identities allowed to trigger agents.
// An empty list allows everyone.
type AuthorizationConfig struct {
	AllowedSenders []string `yaml:"allowedSenders,omitempty"`
}

// AgentEntry defines a single agent.
type AgentEntry struct {
	Name        string   `yaml:"name"`
	DisplayName string   `yaml:"displayName,omitempty"`
	Role        string   `yaml:"role,omitempty"`
	Rooms       []string `yaml:"rooms,omitempty"`
}

// TeamEntry defines a named ordered group of agents.
type TeamEntry struct {
	Name   string   `yaml:"name"`
	Agents []string `yaml:"agents"`
	Rooms  []string `yaml:"rooms,omitempty"`
}

// InvitesConfig controls the invitation lifecycle.
type InvitesConfig struct {
	DefaultTimeoutMinutes int `yaml:"defaultTimeoutMinutes,omitempty"`
	SweepIntervalMinutes  int `yaml:"sweepIntervalMinutes,omitempty"`
}

// ReconcileConfig controls the membership reconciliation sweep.
type ReconcileConfig struct {
	Enabled         *bool `yaml:"enabled,omitempty"` // default true
	IntervalMinutes int   `yaml:"intervalMinutes,omitempty"`
}

// TeamModeConfig selects the team-formation strategy.
type TeamModeConfig struct {
	Strategy string `yaml:"strategy,omitempty"` // "deterministic" | "advisor"
}

// GatewayConfig controls the admin HTTP/WebSocket server.
type GatewayConfig struct {
	Enabled bool        `yaml:"enabled,omitempty"`
	Port    int         `yaml:"port,omitempty"`
	Bind    string      `yaml:"bind,omitempty"`
	Auth    GatewayAuth `yaml:"auth,omitempty"`
}

// GatewayAuth configures gateway token authentication.
type GatewayAuth struct {
	Token string `yaml:"token,omitempty"`
}

// StoreConfig locates the persisted invitation/activity state.
type StoreConfig struct {
	Path string `yaml:"path,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File  string `yaml:"file,omitempty"`
}
