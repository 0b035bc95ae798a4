package decision

import "context"

// Mode selects solo or ordered multi-agent execution.
type Mode string

const (
	ModeSolo       Mode = "solo"
	ModeCoordinate Mode = "coordinate"
)

// TeamInput feeds the team formation decider.
type TeamInput struct {
	Tagged       []string // agents explicitly tagged in the triggering message, tag order
	InThread     []string // agents that have already participated, first-sight order
	AllMentioned []string // all-time mentioned agents across the thread
	RoomID       string
	Body         string
}

// TeamDecision is the selected mode plus the final ordered agent list.
type TeamDecision struct {
	Mode   Mode     `json:"mode"`
	Agents []string `json:"agents"`
}

// Advisor is an external (AI-assisted) team formation strategy.
// Execution machinery behind it is out of scope here.
type Advisor interface {
	FormTeam(ctx context.Context, in TeamInput) (TeamDecision, error)
}

// FormTeam applies the deterministic rule: more than one distinct tagged
// agent coordinates in exactly the tag order; otherwise the single
// tagged (or thread-continuing) agent runs solo. Tag order is the
// intended hand-off order and is never re-sorted.
func FormTeam(in TeamInput) TeamDecision {
	tagged := dedupe(in.Tagged)
	if len(tagged) > 1 {
		return TeamDecision{Mode: ModeCoordinate, Agents: tagged}
	}
	return TeamDecision{Mode: ModeSolo, Agents: tagged}
}

// FormTeamWith consults the advisor when one is configured, falling back
// to the deterministic rule on error or when advisor is nil.
func FormTeamWith(ctx context.Context, advisor Advisor, in TeamInput) TeamDecision {
	if advisor == nil {
		return FormTeam(in)
	}
	td, err := advisor.FormTeam(ctx, in)
	if err != nil || len(td.Agents) == 0 {
		return FormTeam(in)
	}
	return td
}

func dedupe(names []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
