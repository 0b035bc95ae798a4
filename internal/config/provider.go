package config

import "sync/atomic"

// Provider holds the current immutable config snapshot and swaps it
// atomically on reload. Running sessions capture Current() once per
// decision cycle; in-flight decisions keep whichever snapshot they took.
type Provider struct {
	path string
	cur  atomic.Pointer[Config]
}

// NewProvider loads the config at path and returns a provider holding it.
func NewProvider(path string) (*Provider, error) {
	p := &Provider{path: path}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// NewStaticProvider wraps an already-built config, bypassing the file
// system. Used by tests and one-shot CLI commands.
func NewStaticProvider(cfg Config) *Provider {
	p := &Provider{}
	p.cur.Store(&cfg)
	return p
}

// Current returns the live snapshot. Callers must not mutate it.
func (p *Provider) Current() *Config {
	return p.cur.Load()
}

// Swap replaces the snapshot directly, bypassing the file system.
func (p *Provider) Swap(cfg Config) {
	p.cur.Store(&cfg)
}

// Reload re-reads the config file and swaps the snapshot. On error the
// previous snapshot stays in place.
func (p *Provider) Reload() error {
	if p.path == "" {
		return &ConfigError{Message: "provider has no config path"}
	}
	cfg, err := Load(p.path)
	if err != nil {
		return err
	}
	p.cur.Store(&cfg)
	return nil
}
