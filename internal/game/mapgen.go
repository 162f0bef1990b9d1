package game

import (
	"encoding/json"
	"math/rand"

	"github.com/pkg/errors"
)

// MapTemplate is everything needed to (re)build a map: the ground grid, the
// pre-placed creatures, the player spawnpoint and the monster entry cells.
type MapTemplate struct {
	Size         Pos
	Ground       Grid[Tile]
	Creatures    []PlacedCreature
	Spawnpoint   Pos
	Monsterspawn []Pos
}

// PlacedCreature pins a creature type to a map cell.
type PlacedCreature struct {
	Pos  Pos
	Type CreatureType
}

// ErrInvalidMap is returned for unknown builtin map names.
var ErrInvalidMap = errors.New("invalid map")

// mapKind tags the MapType variants.
type mapKind uint8

const (
	mapSquare mapKind = iota
	mapCustom
)

// MapType selects the builtin square map or a custom template.
type MapType struct {
	kind     mapKind
	template MapTemplate
}

func SquareMap() MapType {
	return MapType{kind: mapSquare}
}

func CustomMap(template MapTemplate) MapType {
	return MapType{kind: mapCustom, template: template}
}

// ParseMapType resolves a builtin map name.
func ParseMapType(s string) (MapType, error) {
	if s == "square" {
		return SquareMap(), nil
	}
	return MapType{}, errors.Wrapf(ErrInvalidMap, "'%s'", s)
}

// CreateMap instantiates the template for a map type. Builtin maps are
// regenerated on every call, so lakes move between rounds.
func CreateMap(typ MapType, gamemode GameMode, rng *rand.Rand) MapTemplate {
	if typ.kind == mapCustom {
		return typ.template
	}
	return createSquareMap(gamemode, rng)
}

// createSquareMap builds the default 64x64 arena: a walled sanctuary with
// gates in the middle, dirt roads along the spawn axes, hashed grass
// elsewhere and, in each quadrant with probability 1/2, one random lake.
func createSquareMap(gamemode GameMode, rng *rand.Rand) MapTemplate {
	size := P(64, 64)
	template := MapTemplate{
		Size:       size,
		Ground:     NewGrid(size, TileDirt),
		Spawnpoint: P(size.X/2, size.Y/2),
		Monsterspawn: []Pos{
			P(0, 0),
			P(size.X-1, 0),
			P(0, size.Y-1),
			P(size.X-1, size.Y-1),
		},
	}

	grasses := [3]Tile{TileGrass1, TileGrass2, TileGrass3}
	for x := 0; x < size.X; x++ {
		for y := 0; y < size.Y; y++ {
			pos := P(x, y)
			dspawn := pos.Sub(template.Spawnpoint).Abs()
			var floor Tile
			switch {
			case dspawn.X <= 3 && dspawn.Y <= 3:
				floor = TileSanctuary
			case dspawn.X <= 4 && dspawn.Y <= 4 && dspawn.X != dspawn.Y:
				floor = TileGate
			case dspawn.X <= 1 || dspawn.Y <= 1:
				floor = TileDirt
			default:
				floor = grasses[randomize(uint32(x+1)+randomize(uint32(y+1)))%3]
			}
			template.Ground.SetUnchecked(pos, floor)
		}
	}

	quadrants := [4]Pos{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	for _, q := range quadrants {
		for _, w := range [6]Pos{{3, 3}, {4, 3}, {4, 2}, {3, 4}, {2, 4}, {4, 4}} {
			template.Ground.Set(template.Spawnpoint.Add(P(w.X*q.X, w.Y*q.Y)), TileWall)
		}
		if gamemode.HasPillars() {
			corner := template.Spawnpoint.Add(P(4*q.X, 4*q.Y))
			template.Ground.Set(corner, TileRubble)
			template.Creatures = append(template.Creatures, PlacedCreature{Pos: corner, Type: CreaturePillar})
		}

		if rng.Intn(2) == 0 {
			lakepos := template.Spawnpoint.Add(P(
				(12+rng.Intn(size.X/2-20))*q.X,
				(12+rng.Intn(size.Y/2-20))*q.Y,
			))
			p := lakepos
			for i := 0; i < 16; i++ {
				template.Ground.Set(p, TileWater)
				p = p.AddDir(Directions[rng.Intn(4)])
				if lakepos.DistanceTo(p) > 4 {
					break
				}
			}
		}
	}
	return template
}

// randomize is a xorshift32 mix used to pick grass tiles deterministically
// per cell, so the pattern survives map regeneration.
func randomize(x uint32) uint32 {
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	return x
}

// templateFile is the on-disk JSON shape of a custom map.
type templateFile struct {
	Size         Pos                 `json:"size"`
	Ground       []string            `json:"ground"`
	Creatures    [][]json.RawMessage `json:"creatures"`
	Spawnpoint   Pos                 `json:"spawnpoint"`
	Monsterspawn []Pos               `json:"monsterspawn"`
}

// LoadTemplate parses a custom map template from JSON. Ground rows are
// strings of tile characters; unknown characters fail the whole load.
func LoadTemplate(data []byte) (MapTemplate, error) {
	var file templateFile
	if err := json.Unmarshal(data, &file); err != nil {
		return MapTemplate{}, errors.Wrap(err, "parsing map template")
	}
	if file.Size.X <= 0 || file.Size.Y <= 0 {
		return MapTemplate{}, errors.Wrap(ErrInvalidMap, "non-positive size")
	}
	template := MapTemplate{
		Size:         file.Size,
		Ground:       NewGrid(file.Size, TileDirt),
		Spawnpoint:   file.Spawnpoint,
		Monsterspawn: file.Monsterspawn,
	}
	for y, line := range file.Ground {
		x := 0
		for _, r := range line {
			tile, err := TileFromRune(r)
			if err != nil {
				return MapTemplate{}, err
			}
			template.Ground.Set(P(x, y), tile)
			x++
		}
	}
	for _, entry := range file.Creatures {
		if len(entry) != 2 {
			return MapTemplate{}, errors.Wrap(ErrInvalidMap, "creature entries must be [pos, type] pairs")
		}
		var pos Pos
		if err := json.Unmarshal(entry[0], &pos); err != nil {
			return MapTemplate{}, errors.Wrap(err, "creature position")
		}
		var typ CreatureType
		if err := json.Unmarshal(entry[1], &typ); err != nil {
			return MapTemplate{}, errors.Wrap(err, "creature type")
		}
		template.Creatures = append(template.Creatures, PlacedCreature{Pos: pos, Type: typ})
	}
	return template, nil
}
