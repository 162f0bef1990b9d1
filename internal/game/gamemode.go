package game

import "github.com/pkg/errors"

// GameMode selects the round lifecycle: wave survival, pillar defence, or
// free-for-all PvP.
type GameMode uint8

const (
	Survival GameMode = iota
	PillarDefence
	PvP
)

// ErrInvalidGameMode is returned for unknown game mode names.
var ErrInvalidGameMode = errors.New("invalid game mode")

// ParseGameMode parses a mode name; "coop" is an alias for survival.
func ParseGameMode(s string) (GameMode, error) {
	switch s {
	case "coop", "survival":
		return Survival, nil
	case "pillars":
		return PillarDefence, nil
	case "pvp":
		return PvP, nil
	default:
		return Survival, errors.Wrapf(ErrInvalidGameMode, "'%s'", s)
	}
}

func (m GameMode) HasPillars() bool {
	return m == PillarDefence
}

func (m GameMode) String() string {
	switch m {
	case PillarDefence:
		return "pillars"
	case PvP:
		return "pvp"
	default:
		return "survival"
	}
}
