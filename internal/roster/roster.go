// Package roster resolves protocol identities against a config snapshot.
//
// All resolution is total: an identity that does not map to a configured
// agent yields "no match", never an error. Unknown senders and stale
// mentions degrade gracefully during config reloads.
package roster

import (
	"strings"

	"github.com/concordchat/concord/internal/config"
)

// Roster is an immutable view over one config snapshot. Build a fresh
// Roster per decision cycle; never cache one across reloads.
type Roster struct {
	cfg      *config.Config
	domain   string
	byUserID map[string]string // derived user id → agent name
	routerID string
}

// New builds a roster from a config snapshot.
func New(cfg *config.Config) *Roster {
	r := &Roster{
		cfg:      cfg,
		domain:   cfg.Homeserver.Domain,
		byUserID: make(map[string]string, len(cfg.Agents)),
		routerID: UserID(cfg.Router.Name, cfg.Homeserver.Domain),
	}
	for _, a := range cfg.Agents {
		r.byUserID[UserID(a.Name, cfg.Homeserver.Domain)] = a.Name
	}
	return r
}

// UserID derives the canonical protocol identity for a name on a domain:
// "@<name>:<domain>" with a lowercased localpart.
func UserID(name, domain string) string {
	return "@" + strings.ToLower(name) + ":" + domain
}

// RouterName returns the configured router agent name.
func (r *Roster) RouterName() string {
	return r.cfg.Router.Name
}

// RouterUserID returns the router's derived protocol identity.
func (r *Roster) RouterUserID() string {
	return r.routerID
}

// IsRouter reports whether the identity is the router's.
func (r *Roster) IsRouter(userID string) bool {
	return userID == r.routerID
}

// AgentUserID derives the protocol identity for a configured agent name.
// Unconfigured names never resolve.
func (r *Roster) AgentUserID(name string) (string, bool) {
	if _, ok := r.cfg.Agent(name); !ok {
		return "", false
	}
	return UserID(name, r.domain), true
}

// TeamUserID derives the protocol identity for a configured team name.
func (r *Roster) TeamUserID(name string) (string, bool) {
	if _, ok := r.cfg.Team(name); !ok {
		return "", false
	}
	return UserID(name, r.domain), true
}

// ResolveAgent maps a raw sender identity back to a configured agent
// name. The router and team identities do not resolve here.
func (r *Roster) ResolveAgent(userID string) (string, bool) {
	name, ok := r.byUserID[userID]
	return name, ok
}

// ConfiguredRooms returns the rooms an agent natively has standing in:
// its own rooms plus the rooms of every team it belongs to. Order is
// config order with duplicates removed.
func (r *Roster) ConfiguredRooms(agentName string) []string {
	var rooms []string
	seen := map[string]bool{}
	add := func(ids []string) {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				rooms = append(rooms, id)
			}
		}
	}

	if a, ok := r.cfg.Agent(agentName); ok {
		add(a.Rooms)
	}
	for _, tm := range r.cfg.Teams {
		for _, member := range tm.Agents {
			if member == agentName {
				add(tm.Rooms)
				break
			}
		}
	}
	return rooms
}

// AllConfiguredRooms returns the union of every room any agent or team
// is configured for. This is the router's expected room set.
func (r *Roster) AllConfiguredRooms() []string {
	var rooms []string
	seen := map[string]bool{}
	add := func(ids []string) {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				rooms = append(rooms, id)
			}
		}
	}

	for _, a := range r.cfg.Agents {
		add(a.Rooms)
	}
	for _, tm := range r.cfg.Teams {
		add(tm.Rooms)
	}
	return rooms
}

// TeamNames returns the configured team names in config order.
func (r *Roster) TeamNames() []string {
	names := make([]string, 0, len(r.cfg.Teams))
	for _, tm := range r.cfg.Teams {
		names = append(names, tm.Name)
	}
	return names
}

// AgentNames returns the configured agent names in config order.
func (r *Roster) AgentNames() []string {
	names := make([]string, 0, len(r.cfg.Agents))
	for _, a := range r.cfg.Agents {
		names = append(names, a.Name)
	}
	return names
}
