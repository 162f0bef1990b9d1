package game

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Direction is one of the four cardinal directions creatures can face and
// walk in.
type Direction uint8

const (
	North Direction = iota
	South
	East
	West
)

// Directions lists all cardinal directions in a fixed order. Iteration order
// matters for determinism, so always range over this instead of hand-rolling.
var Directions = [4]Direction{North, South, East, West}

// Pos returns the unit vector for the direction. North is negative y.
func (d Direction) Pos() Pos {
	switch d {
	case North:
		return Pos{0, -1}
	case South:
		return Pos{0, 1}
	case East:
		return Pos{1, 0}
	default:
		return Pos{-1, 0}
	}
}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case South:
		return "south"
	case East:
		return "east"
	default:
		return "west"
	}
}

// ParseDirection parses the lowercase wire name of a direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "north":
		return North, nil
	case "south":
		return South, nil
	case "east":
		return East, nil
	case "west":
		return West, nil
	default:
		return North, errors.Errorf("'%s' is not a valid direction", s)
	}
}

// Pos is an integer grid position or 2-D integer vector. Bullet directions
// reuse Pos as an arbitrary-magnitude vector, so never assume unit length.
type Pos struct {
	X int
	Y int
}

// P is shorthand for constructing a Pos.
func P(x, y int) Pos {
	return Pos{X: x, Y: y}
}

func (p Pos) Add(other Pos) Pos {
	return Pos{p.X + other.X, p.Y + other.Y}
}

func (p Pos) AddDir(d Direction) Pos {
	return p.Add(d.Pos())
}

func (p Pos) Sub(other Pos) Pos {
	return Pos{p.X - other.X, p.Y - other.Y}
}

func (p Pos) Neg() Pos {
	return Pos{-p.X, -p.Y}
}

func (p Pos) Abs() Pos {
	return Pos{abs(p.X), abs(p.Y)}
}

// Size is the L1 norm |x| + |y|.
func (p Pos) Size() int {
	return abs(p.X) + abs(p.Y)
}

// DistanceTo is the L1 distance to another position.
func (p Pos) DistanceTo(other Pos) int {
	return other.Sub(p).Size()
}

// Signum maps each axis to -1, 0 or 1.
func (p Pos) Signum() Pos {
	return Pos{sign(p.X), sign(p.Y)}
}

// DirectionsTo returns the subset of cardinal directions that bring p closer
// to other, x axis first.
func (p Pos) DirectionsTo(other Pos) []Direction {
	d := other.Sub(p)
	dirs := make([]Direction, 0, 2)
	if d.X > 0 {
		dirs = append(dirs, East)
	}
	if d.X < 0 {
		dirs = append(dirs, West)
	}
	if d.Y > 0 {
		dirs = append(dirs, South)
	}
	if d.Y < 0 {
		dirs = append(dirs, North)
	}
	return dirs
}

// MarshalJSON encodes a position as the two-element array the wire protocol
// uses.
func (p Pos) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.X, p.Y})
}

func (p *Pos) UnmarshalJSON(data []byte) error {
	var arr [2]int
	if err := json.Unmarshal(data, &arr); err != nil {
		return errors.Wrap(err, "position must be a [x, y] array")
	}
	p.X = arr[0]
	p.Y = arr[1]
	return nil
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

func sign(i int) int {
	switch {
	case i > 0:
		return 1
	case i < 0:
		return -1
	default:
		return 0
	}
}
