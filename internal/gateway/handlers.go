package gateway

import (
	"time"

	"github.com/concordchat/concord/internal/domain"
	"github.com/concordchat/concord/internal/version"
)

// StatusResult reports gateway and coordination state.
type StatusResult struct {
	Version     string   `json:"version"`
	UptimeSec   int64    `json:"uptimeSec"`
	Clients     int      `json:"clients"`
	LiveInvites int      `json:"liveInvites"`
	Agents      []string `json:"agents"`
	Teams       []string `json:"teams"`
}

func handleStatus(rc *RequestContext) {
	s := rc.Server
	cfg := s.provider.Current()

	agents := make([]string, 0, len(cfg.Agents))
	for _, a := range cfg.Agents {
		agents = append(agents, a.Name)
	}
	teams := make([]string, 0, len(cfg.Teams))
	for _, t := range cfg.Teams {
		teams = append(teams, t.Name)
	}

	s.mu.RLock()
	clients := len(s.clients)
	s.mu.RUnlock()

	rc.Respond(StatusResult{
		Version:     version.Version,
		UptimeSec:   int64(time.Since(s.startedAt).Seconds()),
		Clients:     clients,
		LiveInvites: len(s.invites.ListAll()),
		Agents:      agents,
		Teams:       teams,
	})
}

// ConfigReloadResult reports the outcome of a config reload.
type ConfigReloadResult struct {
	Reloaded bool `json:"reloaded"`
}

func handleConfigReload(rc *RequestContext) {
	if err := rc.Server.provider.Reload(); err != nil {
		rc.RespondError("reload_failed", err.Error())
		return
	}
	rc.Server.log.Info().Msg("configuration reloaded")
	rc.Respond(ConfigReloadResult{Reloaded: true})
}

// InvitesListParams selects which invites to list. An empty roomId lists
// invites across all rooms.
type InvitesListParams struct {
	RoomID string `json:"roomId"`
}

// InvitesListResult carries the live invite records.
type InvitesListResult struct {
	Invites []domain.Invite `json:"invites"`
}

func handleInvitesList(rc *RequestContext) {
	var params InvitesListParams
	if err := rc.Params(&params); err != nil {
		rc.RespondError("bad_params", err.Error())
		return
	}

	var invites []domain.Invite
	if params.RoomID == "" {
		invites = rc.Server.invites.ListAll()
	} else {
		invites = rc.Server.invites.ListRoom(params.RoomID)
	}
	if invites == nil {
		invites = []domain.Invite{}
	}
	rc.Respond(InvitesListResult{Invites: invites})
}

// InvitesAddParams describes the invite to create or renew.
type InvitesAddParams struct {
	RoomID         string `json:"roomId"`
	AgentName      string `json:"agentName"`
	ThreadID       string `json:"threadId"`
	InvitedBy      string `json:"invitedBy"`
	TimeoutMinutes int    `json:"timeoutMinutes"`
}

// InvitesAddResult returns the created invite.
type InvitesAddResult struct {
	Invite domain.Invite `json:"invite"`
}

func handleInvitesAdd(rc *RequestContext) {
	var params InvitesAddParams
	if err := rc.Params(&params); err != nil {
		rc.RespondError("bad_params", err.Error())
		return
	}
	if params.RoomID == "" || params.AgentName == "" {
		rc.RespondError("bad_params", "roomId and agentName are required")
		return
	}

	timeout := time.Duration(params.TimeoutMinutes) * time.Minute
	if timeout <= 0 {
		timeout = time.Duration(rc.Server.provider.Current().Invites.DefaultTimeoutMinutes) * time.Minute
	}

	inv, err := rc.Server.invites.AddInvite(params.RoomID, params.AgentName, params.InvitedBy, params.ThreadID, timeout)
	if err != nil {
		rc.RespondError("invite_failed", err.Error())
		return
	}

	rc.Respond(InvitesAddResult{Invite: inv})
	rc.Server.Broadcast("invite.added", inv)
}

// InvitesRemoveParams identifies the invite to revoke.
type InvitesRemoveParams struct {
	RoomID    string `json:"roomId"`
	AgentName string `json:"agentName"`
	ThreadID  string `json:"threadId"`
}

// InvitesRemoveResult reports whether an invite existed.
type InvitesRemoveResult struct {
	Removed bool `json:"removed"`
}

func handleInvitesRemove(rc *RequestContext) {
	var params InvitesRemoveParams
	if err := rc.Params(&params); err != nil {
		rc.RespondError("bad_params", err.Error())
		return
	}
	if params.RoomID == "" || params.AgentName == "" {
		rc.RespondError("bad_params", "roomId and agentName are required")
		return
	}

	removed := rc.Server.invites.RemoveInvite(params.RoomID, params.AgentName, params.ThreadID)
	rc.Respond(InvitesRemoveResult{Removed: removed})
	if removed {
		rc.Server.Broadcast("invite.removed", params)
	}
}
