// Package thread extracts ordered agent sets from thread history.
//
// All three readers preserve first-occurrence order and drop duplicates.
// That order is load-bearing: it becomes the execution order for
// multi-agent runs.
package thread

import (
	"github.com/concordchat/concord/internal/domain"
	"github.com/concordchat/concord/internal/roster"
)

// MentionedAgents maps a message's explicit mention list to configured
// agent names, in mention order. Identities that resolve to no
// configured agent are silently dropped.
func MentionedAgents(mentions []string, r *roster.Roster) []string {
	var agents []string
	seen := map[string]bool{}
	for _, id := range mentions {
		name, ok := r.ResolveAgent(id)
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		agents = append(agents, name)
	}
	return agents
}

// AgentsInThread walks the history chronologically and collects the
// configured agents that have sent a message, each on first sight. The
// router never appears in the result.
func AgentsInThread(history []domain.Event, r *roster.Roster) []string {
	var agents []string
	seen := map[string]bool{}
	for _, ev := range history {
		if r.IsRouter(ev.Sender) {
			continue
		}
		name, ok := r.ResolveAgent(ev.Sender)
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		agents = append(agents, name)
	}
	return agents
}

// AllMentionedAgents accumulates every message's mentions across the
// whole history, in message order. Unlike AgentsInThread, the router is
// not excluded: it can be explicitly mentioned.
func AllMentionedAgents(history []domain.Event, r *roster.Roster) []string {
	var agents []string
	seen := map[string]bool{}
	for _, ev := range history {
		for _, id := range ev.Mentions {
			var name string
			if r.IsRouter(id) {
				name = r.RouterName()
			} else {
				resolved, ok := r.ResolveAgent(id)
				if !ok {
					continue
				}
				name = resolved
			}
			if seen[name] {
				continue
			}
			seen[name] = true
			agents = append(agents, name)
		}
	}
	return agents
}
