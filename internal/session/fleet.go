package session

import (
	"context"
	"sync"

	"github.com/concordchat/concord/internal/activity"
	"github.com/concordchat/concord/internal/config"
	"github.com/concordchat/concord/internal/decision"
	"github.com/concordchat/concord/internal/domain"
	"github.com/concordchat/concord/internal/invite"
	"github.com/concordchat/concord/internal/logging"
	"github.com/concordchat/concord/internal/transport"
)

// Fleet runs one session per configured agent and fans every inbound
// event out to all of them. Each session decides independently; the
// fleet only delivers. Sessions are created on first sight of an agent
// name, so a config reload that adds agents takes effect without a
// restart.
type Fleet struct {
	provider *config.Provider
	tp       transport.Transport
	invites  *invite.Manager
	tracker  *activity.Tracker
	advisor  decision.Advisor
	exec     Executor
	log      *logging.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewFleet creates a fleet over the agents in the current config.
// advisor and exec may be nil, as with New.
func NewFleet(provider *config.Provider, tp transport.Transport,
	invites *invite.Manager, tracker *activity.Tracker,
	advisor decision.Advisor, exec Executor, log *logging.Logger) *Fleet {
	return &Fleet{
		provider: provider,
		tp:       tp,
		invites:  invites,
		tracker:  tracker,
		advisor:  advisor,
		exec:     exec,
		log:      log.Sub("fleet"),
		sessions: make(map[string]*Session),
	}
}

// HandleEvent delivers one event to every configured agent's session.
// A failure in one session is logged and does not block the others.
func (f *Fleet) HandleEvent(ctx context.Context, ev domain.Event) {
	cfg := f.provider.Current()
	for _, a := range cfg.Agents {
		s := f.session(a.Name)
		if _, err := s.HandleEvent(ctx, ev); err != nil {
			f.log.Warn().Err(err).Str("agent", a.Name).Msg("event handling failed")
		}
	}
}

// Run consumes events from the channel until it closes or ctx is
// canceled.
func (f *Fleet) Run(ctx context.Context, events <-chan domain.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			f.HandleEvent(ctx, ev)
		}
	}
}

func (f *Fleet) session(agentName string) *Session {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.sessions[agentName]
	if !ok {
		s = New(agentName, f.provider, f.tp, f.invites, f.tracker, f.advisor, f.exec, f.log)
		f.sessions[agentName] = s
	}
	return s
}
