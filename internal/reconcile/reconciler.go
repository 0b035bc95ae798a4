// Package reconcile removes agents from rooms they have no standing in.
package reconcile

import (
	"context"
	"slices"
	"time"

	"github.com/concordchat/concord/internal/invite"
	"github.com/concordchat/concord/internal/logging"
	"github.com/concordchat/concord/internal/roster"
	"github.com/concordchat/concord/internal/transport"
)

// Revocation records one successful membership removal.
type Revocation struct {
	AgentName string `json:"agentName"`
	RoomID    string `json:"roomId"`
}

// SweepError records one failed step; the sweep continues past it.
type SweepError struct {
	AgentName string `json:"agentName"`
	RoomID    string `json:"roomId,omitempty"`
	Err       string `json:"error"`
}

// Report summarizes one reconciliation pass.
type Report struct {
	Revoked []Revocation `json:"revoked,omitempty"`
	Errors  []SweepError `json:"errors,omitempty"`
}

// Reconciler compares each agent's actual joined rooms against its
// expected set and revokes the difference. Safe to run repeatedly and
// concurrently with message traffic: eligibility is re-read fresh every
// pass, never cached.
type Reconciler struct {
	tp       transport.Transport
	invites  *invite.Manager
	rosterFn func() *roster.Roster
	log      *logging.Logger
}

// New creates a reconciler. rosterFn is called at the start of every
// pass so config reloads are picked up.
func New(tp transport.Transport, invites *invite.Manager, rosterFn func() *roster.Roster, log *logging.Logger) *Reconciler {
	return &Reconciler{tp: tp, invites: invites, rosterFn: rosterFn, log: log.Sub("reconcile")}
}

// Run performs one reconciliation pass over every configured agent plus
// the router.
func (r *Reconciler) Run(ctx context.Context) Report {
	rst := r.rosterFn()
	var report Report

	for _, name := range rst.AgentNames() {
		expected := rst.ConfiguredRooms(name)
		expected = append(expected, r.invites.InvitedRooms(name)...)
		r.sweepAgent(ctx, rst, name, expected, &report)
	}

	// The router must be able to observe every configured room; its
	// expected set is the union across all agents and teams.
	r.sweepRouter(ctx, rst, &report)

	r.log.Info().
		Int("revoked", len(report.Revoked)).
		Int("errors", len(report.Errors)).
		Msg("membership reconciliation finished")
	return report
}

func (r *Reconciler) sweepAgent(ctx context.Context, rst *roster.Roster, name string, expected []string, report *Report) {
	userID, ok := rst.AgentUserID(name)
	if !ok {
		return
	}

	actual, err := r.tp.JoinedRooms(ctx, userID)
	if err != nil {
		report.Errors = append(report.Errors, SweepError{AgentName: name, Err: err.Error()})
		r.log.Warn().Err(err).Str("agent", name).Msg("reading joined rooms failed")
		return
	}

	for _, roomID := range actual {
		if slices.Contains(expected, roomID) {
			continue
		}
		if err := r.tp.Kick(ctx, roomID, userID, "no configured or invited standing in this room"); err != nil {
			report.Errors = append(report.Errors, SweepError{AgentName: name, RoomID: roomID, Err: err.Error()})
			r.log.Warn().Err(err).
				Str("agent", name).
				Str("room", roomID).
				Msg("membership revocation failed")
			continue
		}
		report.Revoked = append(report.Revoked, Revocation{AgentName: name, RoomID: roomID})
		r.log.Info().Str("agent", name).Str("room", roomID).Msg("membership revoked")
	}
}

func (r *Reconciler) sweepRouter(ctx context.Context, rst *roster.Roster, report *Report) {
	routerID := rst.RouterUserID()
	expected := rst.AllConfiguredRooms()

	actual, err := r.tp.JoinedRooms(ctx, routerID)
	if err != nil {
		report.Errors = append(report.Errors, SweepError{AgentName: rst.RouterName(), Err: err.Error()})
		return
	}

	for _, roomID := range actual {
		if slices.Contains(expected, roomID) {
			continue
		}
		if err := r.tp.Kick(ctx, roomID, routerID, "room is not configured for any agent"); err != nil {
			report.Errors = append(report.Errors, SweepError{AgentName: rst.RouterName(), RoomID: roomID, Err: err.Error()})
			continue
		}
		report.Revoked = append(report.Revoked, Revocation{AgentName: rst.RouterName(), RoomID: roomID})
	}
}

// RunEvery runs reconciliation passes on a cadence until ctx is canceled.
func (r *Reconciler) RunEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Run(ctx)
		}
	}
}
