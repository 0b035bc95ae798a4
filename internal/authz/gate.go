// Package authz decides whether a sender may trigger any agent action.
package authz

import (
	"slices"

	"github.com/concordchat/concord/internal/roster"
)

// Authorized reports whether the sender may trigger agents. Pure function
// of the sender identity and the config snapshot behind the roster.
//
// Rules, in order:
//  1. an empty allow-list allows everyone (backward-compatible default)
//  2. the router's derived identity is always allowed
//  3. any configured agent's or team's derived identity is allowed
//  4. otherwise the raw sender must be literally present in the allow-list
func Authorized(sender string, r *roster.Roster, allowedSenders []string) bool {
	if len(allowedSenders) == 0 {
		return true
	}
	if r.IsRouter(sender) {
		return true
	}
	if _, ok := r.ResolveAgent(sender); ok {
		return true
	}
	if teamIsSender(sender, r) {
		return true
	}
	return slices.Contains(allowedSenders, sender)
}

func teamIsSender(sender string, r *roster.Roster) bool {
	for _, name := range r.TeamNames() {
		if id, ok := r.TeamUserID(name); ok && id == sender {
			return true
		}
	}
	return false
}
