// Package session runs the per-agent evaluation of incoming messages.
//
// One Session exists per agent; all sessions see the same events and
// decide independently. Nothing coordinates them beyond the shared
// persisted state each one reads for itself.
package session

import (
	"context"
	"fmt"
	"slices"

	"github.com/concordchat/concord/internal/activity"
	"github.com/concordchat/concord/internal/authz"
	"github.com/concordchat/concord/internal/config"
	"github.com/concordchat/concord/internal/decision"
	"github.com/concordchat/concord/internal/domain"
	"github.com/concordchat/concord/internal/invite"
	"github.com/concordchat/concord/internal/logging"
	"github.com/concordchat/concord/internal/roster"
	"github.com/concordchat/concord/internal/thread"
	"github.com/concordchat/concord/internal/transport"
)

// Task is the unit handed off for execution once an agent decides to
// respond. What happens with it (model calls, tool runs) is out of
// scope here.
type Task struct {
	AgentName string                `json:"agentName"`
	RoomID    string                `json:"roomId"`
	ThreadID  string                `json:"threadId,omitempty"`
	Event     domain.Event          `json:"event"`
	Team      decision.TeamDecision `json:"team"`
}

// Executor receives tasks for agents that decided to respond.
type Executor interface {
	Execute(ctx context.Context, task Task) error
}

// Outcome reports what one agent decided about one event.
type Outcome struct {
	Decision decision.Decision
	Team     decision.TeamDecision // populated only when responding
}

// Session is one agent's evaluation loop.
type Session struct {
	agentName string
	provider  *config.Provider
	tp        transport.Transport
	invites   *invite.Manager
	activity  *activity.Tracker
	advisor   decision.Advisor
	exec      Executor
	log       *logging.Logger
}

// New creates a session for one agent. advisor and exec may be nil.
func New(agentName string, provider *config.Provider, tp transport.Transport,
	invites *invite.Manager, tracker *activity.Tracker,
	advisor decision.Advisor, exec Executor, log *logging.Logger) *Session {
	return &Session{
		agentName: agentName,
		provider:  provider,
		tp:        tp,
		invites:   invites,
		activity:  tracker,
		advisor:   advisor,
		exec:      exec,
		log:       log.Sub("session").With("agent", agentName),
	}
}

// HandleEvent evaluates one inbound event for this agent. The config
// snapshot is captured once at the top; a reload mid-decision is
// observed on the next event.
func (s *Session) HandleEvent(ctx context.Context, ev domain.Event) (Outcome, error) {
	cfg := s.provider.Current()
	rst := roster.New(cfg)

	if !authz.Authorized(ev.Sender, rst, cfg.Authorization.AllowedSenders) {
		s.log.Debug().Str("sender", ev.Sender).Msg("sender not authorized, dropping")
		return Outcome{}, nil
	}

	mentioned := slices.Contains(thread.MentionedAgents(ev.Mentions, rst), s.agentName)
	inThread := ev.InThread()
	invited := s.invites.IsInvited(ev.RoomID, s.agentName, ev.ThreadID)

	// History is read fresh from the transport for every decision.
	var history []domain.Event
	if inThread {
		var err error
		history, err = s.tp.ThreadHistory(ctx, ev.RoomID, ev.ThreadID)
		if err != nil {
			return Outcome{}, fmt.Errorf("reading thread history: %w", err)
		}
	}

	d := decision.Decide(decision.Input{
		AgentName:       s.agentName,
		Mentioned:       mentioned,
		InThread:        inThread,
		Invited:         invited,
		RoomID:          ev.RoomID,
		ConfiguredRooms: rst.ConfiguredRooms(s.agentName),
		History:         history,
		Roster:          rst,
	})

	if !d.Respond {
		if d.DeferToRouter {
			s.log.Debug().Str("room", ev.RoomID).Str("thread", ev.ThreadID).Msg("deferring to router")
		}
		return Outcome{Decision: d}, nil
	}

	tagged := thread.MentionedAgents(ev.Mentions, rst)
	if len(tagged) == 0 {
		// Thread continuation: this agent is the implicit sole tag.
		tagged = []string{s.agentName}
	}
	team := decision.FormTeamWith(ctx, s.advisor, decision.TeamInput{
		Tagged:       tagged,
		InThread:     thread.AgentsInThread(history, rst),
		AllMentioned: thread.AllMentionedAgents(history, rst),
		RoomID:       ev.RoomID,
		Body:         ev.Body,
	})

	s.recordActivity(ev, invited)

	s.log.Info().
		Str("room", ev.RoomID).
		Str("thread", ev.ThreadID).
		Str("mode", string(team.Mode)).
		Strs("agents", team.Agents).
		Msg("responding")

	if s.exec != nil {
		task := Task{
			AgentName: s.agentName,
			RoomID:    ev.RoomID,
			ThreadID:  ev.ThreadID,
			Event:     ev,
			Team:      team,
		}
		if err := s.exec.Execute(ctx, task); err != nil {
			return Outcome{Decision: d, Team: team}, fmt.Errorf("executing task: %w", err)
		}
	}

	return Outcome{Decision: d, Team: team}, nil
}

// recordActivity advances the shared presence state after a respond
// decision. Invite renewal keeps an invited agent's standing alive for
// as long as it keeps participating.
func (s *Session) recordActivity(ev domain.Event, invited bool) {
	if err := s.activity.Touch(s.agentName, ev.RoomID, ev.ThreadID); err != nil {
		s.log.Warn().Err(err).Msg("recording activity failed")
	}
	if invited {
		if err := s.invites.RecordActivity(ev.RoomID, s.agentName, ev.ThreadID); err != nil {
			s.log.Warn().Err(err).Msg("renewing invite failed")
		}
	}
}
