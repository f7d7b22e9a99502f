package core

// Phase tracks a session's position in the game lifecycle
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseInRound
	PhaseAllShown
	PhaseNameResolved
)

func (p Phase) String() string {
	switch p {
	case PhaseInRound:
		return "in_round"
	case PhaseAllShown:
		return "all_shown"
	case PhaseNameResolved:
		return "name_resolved"
	case PhaseNotStarted:
		return "not_started"
	default:
		return "unknown"
	}
}
