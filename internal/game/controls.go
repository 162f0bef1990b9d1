package game

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// PlayerID identifies a connected player across the server.
type PlayerID string

// ControlKind enumerates the inputs a creature can act on.
type ControlKind uint8

const (
	ControlMove ControlKind = iota
	ControlShoot
	ControlShootPrecise
	ControlSuicide
	ControlNextWeapon
	ControlPreviousWeapon
)

// Control is one creature input. Dir is used by Move and, when HasDir is set,
// by Shoot as a facing override. Vec carries the aimed fire vector for
// ShootPrecise, which only the AI planner produces.
type Control struct {
	Kind   ControlKind
	Dir    Direction
	HasDir bool
	Vec    Pos
}

func MoveControl(d Direction) Control {
	return Control{Kind: ControlMove, Dir: d, HasDir: true}
}

func ShootControl(d Direction) Control {
	return Control{Kind: ControlShoot, Dir: d, HasDir: true}
}

func ShootControlFacing() Control {
	return Control{Kind: ControlShoot}
}

func ShootPreciseControl(vec Pos) Control {
	return Control{Kind: ControlShootPrecise, Vec: vec}
}

// ParseControl decodes a control from its wire form. Plain strings name the
// argument-less controls; single-key objects carry a direction:
//
//	"suicide" | "nextweapon" | "previousweapon"
//	{"move": "north"} | {"shoot": "east"} | {"shoot": null}
func ParseControl(raw json.RawMessage) (Control, error) {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		switch name {
		case "suicide":
			return Control{Kind: ControlSuicide}, nil
		case "nextweapon":
			return Control{Kind: ControlNextWeapon}, nil
		case "previousweapon":
			return Control{Kind: ControlPreviousWeapon}, nil
		default:
			return Control{}, errors.Errorf("unknown control '%s'", name)
		}
	}

	var obj map[string]*string
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Control{}, errors.New("control must be a string or an object")
	}
	if dir, ok := obj["move"]; ok {
		if dir == nil {
			return Control{}, errors.New("move needs a direction")
		}
		d, err := ParseDirection(*dir)
		if err != nil {
			return Control{}, err
		}
		return MoveControl(d), nil
	}
	if dir, ok := obj["shoot"]; ok {
		if dir == nil {
			return ShootControlFacing(), nil
		}
		d, err := ParseDirection(*dir)
		if err != nil {
			return Control{}, err
		}
		return ShootControl(d), nil
	}
	return Control{}, errors.New("unknown control object")
}

// ActionKind enumerates the inbox mutations the driver feeds into the world.
type ActionKind uint8

const (
	ActionJoin ActionKind = iota
	ActionLeave
	ActionInput
)

// Action is one inbound event from the transport layer.
type Action struct {
	Kind    ActionKind
	Player  PlayerID
	Sprite  Sprite
	Control Control
}
