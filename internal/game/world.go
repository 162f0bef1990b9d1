package game

import (
	"math"
	"math/rand"
	"sort"

	"github.com/pkg/errors"
)

// Typed failures for the player inbox. The driver reports these to the
// transport and keeps ticking.
var (
	ErrPlayerExists   = errors.New("player already exists")
	ErrPlayerNotFound = errors.New("player not found")
)

// roundStateKind tags the RoundState variants.
type roundStateKind uint8

const (
	roundRunning roundStateKind = iota
	roundPaused
	roundGameOver
)

// RoundState is the round lifecycle: Running, Paused(n) between waves, or
// GameOver(n) counting down to a reset.
type RoundState struct {
	kind    roundStateKind
	counter int
}

func Running() RoundState           { return RoundState{kind: roundRunning} }
func Paused(n int) RoundState       { return RoundState{kind: roundPaused, counter: n} }
func GameOver(n int) RoundState     { return RoundState{kind: roundGameOver, counter: n} }
func (s RoundState) IsPaused() bool { return s.kind == roundPaused }

func (s RoundState) String() string {
	switch s.kind {
	case roundPaused:
		return "paused"
	case roundGameOver:
		return "gameover"
	default:
		return "running"
	}
}

// Player is the server-side record for a connected player. Body is a handle
// into the creature holder; 0 means the player has no body and respawns next
// tick.
type Player struct {
	Plan   *Control
	Sprite Sprite
	Body   int
	IsNew  bool
}

// World is the whole simulation state, advanced one tick at a time by
// Update. It is not safe for concurrent use; the engine serializes access.
type World struct {
	time              int
	size              Pos
	ground            Grid[Tile]
	players           map[PlayerID]*Player
	playerOrder       []PlayerID
	creatures         *Holder[Creature]
	bullets           []Bullet
	particles         map[Pos]Sprite
	spawnpoint        Pos
	monsterspawn      []Pos
	items             map[Pos]Item
	wave              int
	toSpawn           []CreatureType
	roundState        RoundState
	gamemode          GameMode
	mapType           MapType
	buildingDistances Grid[int]
	playerDistances   Grid[int]
	lastDrawing       map[Pos][]Sprite
	rng               *rand.Rand
}

// unreachable marks cells a distance field never reached.
const unreachable = -1

// NewWorld builds a fresh world for the mode and map. The caller owns the
// RNG; tests pass a seeded one for determinism.
func NewWorld(gamemode GameMode, mapType MapType, rng *rand.Rand) *World {
	w := &World{
		players:   make(map[PlayerID]*Player),
		creatures: NewHolder[Creature](),
		particles: make(map[Pos]Sprite),
		items:     make(map[Pos]Item),
		gamemode:  gamemode,
		mapType:   mapType,
		rng:       rng,
	}
	w.Reset()
	return w
}

// Reset rebuilds the map and wipes every round-scoped part of the state.
// Connected players stay registered but lose their bodies and get a full
// field on their next view.
func (w *World) Reset() {
	w.creatures.Clear()
	w.bullets = w.bullets[:0]
	w.particles = make(map[Pos]Sprite)
	w.items = make(map[Pos]Item)
	w.wave = 0
	w.toSpawn = nil
	w.roundState = Running()
	template := CreateMap(w.mapType, w.gamemode, w.rng)
	w.size = template.Size
	w.ground = template.Ground
	w.spawnpoint = template.Spawnpoint
	w.monsterspawn = template.Monsterspawn
	for _, placed := range template.Creatures {
		w.creatures.Insert(CreateCreature(placed.Type, placed.Pos, w.rng))
	}
	w.lastDrawing = nil
	for _, player := range w.players {
		player.IsNew = true
	}
	w.computeBuildingDistances()
}

// AddPlayer registers a player. The body spawns on the next tick.
func (w *World) AddPlayer(id PlayerID, sprite Sprite) error {
	if _, ok := w.players[id]; ok {
		return errors.Wrapf(ErrPlayerExists, "player %s", id)
	}
	w.players[id] = &Player{Sprite: sprite, IsNew: true}
	w.playerOrder = append(w.playerOrder, id)
	return nil
}

// RemovePlayer unregisters a player and removes its body, if any.
func (w *World) RemovePlayer(id PlayerID) error {
	player, ok := w.players[id]
	if !ok {
		return errors.Wrapf(ErrPlayerNotFound, "player %s", id)
	}
	delete(w.players, id)
	for i, pid := range w.playerOrder {
		if pid == id {
			w.playerOrder = append(w.playerOrder[:i], w.playerOrder[i+1:]...)
			break
		}
	}
	w.creatures.Remove(player.Body)
	return nil
}

// ControlPlayer stores a player's pending control; the last input before a
// tick wins.
func (w *World) ControlPlayer(id PlayerID, control Control) error {
	player, ok := w.players[id]
	if !ok {
		return errors.Wrapf(ErrPlayerNotFound, "player %s", id)
	}
	player.Plan = &control
	return nil
}

func (w *World) NPlayers() int {
	return len(w.players)
}

func (w *World) computePlayerDistances() {
	var targets []Pos
	w.creatures.Each(func(_ int, c *Creature) {
		if !c.IsBuilding && c.Alignment != AlignMonsters() {
			targets = append(targets, c.Pos)
		}
	})
	w.playerDistances = w.distanceMap(targets)
}

func (w *World) computeBuildingDistances() {
	var targets []Pos
	w.creatures.Each(func(_ int, c *Creature) {
		if c.IsBuilding && c.Alignment != AlignMonsters() {
			targets = append(targets, c.Pos)
		}
	})
	w.buildingDistances = w.distanceMap(targets)
}

// distanceMap runs an unweighted BFS from the target set over walkable
// cells. Unreachable cells keep the sentinel value.
func (w *World) distanceMap(targets []Pos) Grid[int] {
	known := NewGrid(w.size, unreachable)
	type frontierEntry struct {
		pos  Pos
		cost int
	}
	frontier := make([]frontierEntry, 0, len(targets))
	for _, pos := range targets {
		frontier = append(frontier, frontierEntry{pos: pos})
	}
	for len(frontier) > 0 {
		entry := frontier[0]
		frontier = frontier[1:]
		if !known.Contains(entry.pos) || known.GetUnchecked(entry.pos) != unreachable {
			continue
		}
		known.SetUnchecked(entry.pos, entry.cost)
		for _, dir := range Directions {
			next := entry.pos.AddDir(dir)
			if tile, ok := w.ground.Get(next); ok && !tile.BlocksWalking() {
				frontier = append(frontier, frontierEntry{pos: next, cost: entry.cost + 1})
			}
		}
	}
	return known
}

// monsterPlan picks a control for an AI creature: aimed fire when a target is
// in reach, otherwise a step along the distance field with an occasional
// wander.
func (w *World) monsterPlan(creature *Creature, distances *Grid[int], isTarget func(*Creature) bool, deviation int) *Control {
	var target *Pos
	w.creatures.Each(func(_ int, other *Creature) {
		if !isTarget(other) {
			return
		}
		if target == nil || creature.Pos.DistanceTo(other.Pos) < creature.Pos.DistanceTo(*target) {
			pos := other.Pos
			target = &pos
		}
	})
	if target != nil {
		rang := creature.AttackRange()
		distance := creature.Pos.DistanceTo(*target)
		if rang <= 5 && distance <= rang || distance*11 <= rang*10 {
			ctrl := ShootPreciseControl(target.Sub(creature.Pos))
			return &ctrl
		}
	}

	var dirs []Direction
	for _, dir := range Directions {
		if tile, ok := w.ground.Get(creature.Pos.AddDir(dir)); ok && !tile.BlocksWalking() {
			dirs = append(dirs, dir)
		}
	}
	w.rng.Shuffle(len(dirs), func(i, j int) {
		dirs[i], dirs[j] = dirs[j], dirs[i]
	})
	if w.rng.Intn(100) >= deviation {
		sort.SliceStable(dirs, func(i, j int) bool {
			return w.distanceValue(distances, creature.Pos.AddDir(dirs[i])) <
				w.distanceValue(distances, creature.Pos.AddDir(dirs[j]))
		})
	}
	if len(dirs) == 0 {
		return nil
	}
	ctrl := MoveControl(dirs[0])
	return &ctrl
}

func (w *World) distanceValue(distances *Grid[int], pos Pos) int {
	if val, ok := distances.Get(pos); ok && val != unreachable {
		return val
	}
	return math.MaxInt
}

func (w *World) creaturePlan(creature *Creature) *Control {
	switch creature.Mind.kind {
	case mindPlayer:
		if player, ok := w.players[creature.Mind.player]; ok {
			return player.Plan
		}
		ctrl := Control{Kind: ControlSuicide}
		return &ctrl
	case mindBloodThirst:
		return w.monsterPlan(
			creature,
			&w.playerDistances,
			func(other *Creature) bool {
				return other.Alignment != creature.Alignment &&
					!other.IsBuilding &&
					w.ground.GetUnchecked(other.Pos) != TileSanctuary
			},
			creature.Mind.deviation,
		)
	case mindDestroyer:
		return w.monsterPlan(
			creature,
			&w.buildingDistances,
			func(other *Creature) bool {
				return other.Alignment != creature.Alignment && other.IsBuilding
			},
			0,
		)
	default:
		return nil
	}
}

// updateCreatures runs the plan/apply phases of a tick. Plans are computed
// over a frozen view, then creatures act in insertion order against a live
// occupancy map so movement conflicts resolve deterministically.
func (w *World) updateCreatures() {
	creatureMap := make(map[Pos]int, w.creatures.Len())
	w.creatures.Each(func(id int, c *Creature) {
		creatureMap[c.Pos] = id
	})
	w.computePlayerDistances()

	plans := make(map[int]Control)
	w.creatures.Each(func(id int, c *Creature) {
		if c.Cooldown <= 0 {
			if plan := w.creaturePlan(c); plan != nil {
				plans[id] = *plan
			}
		}
	})

	for _, id := range w.creatures.IDs() {
		creature, ok := w.creatures.Get(id)
		if !ok || creature.IsDead() {
			continue
		}
		if w.ground.GetUnchecked(creature.Pos) == TileSanctuary {
			creature.Heal(2)
		} else if w.roundState.IsPaused() {
			if creature.IsBuilding {
				creature.Heal(20)
			} else {
				creature.Heal(2)
			}
		}
		if creature.Cooldown > 0 {
			creature.Cooldown--
			continue
		}
		plan, ok := plans[id]
		if !ok {
			continue
		}
		switch plan.Kind {
		case ControlMove:
			creature.Cooldown = creature.WalkCooldown
			creature.Dir = plan.Dir
			w.moveCreature(id, creature, plan.Dir, creatureMap)
		case ControlShoot:
			if plan.HasDir {
				creature.Dir = plan.Dir
			}
			w.fire(creature, creature.Dir.Pos())
		case ControlShootPrecise:
			w.fire(creature, plan.Vec)
		case ControlSuicide:
			creature.Kill()
		case ControlNextWeapon:
			creature.SelectNextWeapon()
		case ControlPreviousWeapon:
			creature.SelectPreviousWeapon()
		}
	}
}

// moveCreature steps a creature one cell if the target tile is walkable and
// free. Gates open only from Sanctuary at full health. Player bodies pick up
// any item they step onto.
func (w *World) moveCreature(id int, creature *Creature, dir Direction, creatureMap map[Pos]int) {
	newpos := creature.Pos.AddDir(dir)
	tile, ok := w.ground.Get(newpos)
	if !ok {
		return
	}
	passable := !tile.BlocksWalking() ||
		tile == TileGate &&
			w.ground.GetUnchecked(creature.Pos) == TileSanctuary &&
			creature.HasFullHealth()
	if !passable {
		return
	}
	if _, occupied := creatureMap[newpos]; occupied {
		return
	}
	if creatureMap[creature.Pos] == id {
		delete(creatureMap, creature.Pos)
	}
	creatureMap[newpos] = id
	creature.Pos = newpos
	if creature.IsPlayer() {
		if item, ok := w.items[creature.Pos]; ok && item == ItemHealth {
			creature.Heal(100)
			delete(w.items, creature.Pos)
		}
	}
}

// fire emits the selected weapon's bullets unless the shooter is somehow
// stuck inside blocking geometry.
func (w *World) fire(creature *Creature, direction Pos) {
	weapon := creature.Weapon()
	if weapon == nil {
		creature.Cooldown = 0
		return
	}
	if !w.ground.GetUnchecked(creature.Pos).BlocksWalking() {
		w.bullets = append(w.bullets, weapon.Shoot(creature.Pos, direction, creature.Alignment, w.rng)...)
	}
	creature.Cooldown = weapon.Cooldown
}

// updateBullets advances every bullet its sub-steps for this tick and keeps
// the survivors. The first sub-step resolves hits at the firing cell without
// moving, which is how melee sprites like the bite connect.
func (w *World) updateBullets() {
	creatureMap := make(map[Pos]int, w.creatures.Len())
	w.creatures.Each(func(id int, c *Creature) {
		creatureMap[c.Pos] = id
	})

	surviving := w.bullets[:0]
	for _, bullet := range w.bullets {
		if w.stepBullet(&bullet, creatureMap) {
			surviving = append(surviving, bullet)
		}
	}
	w.bullets = surviving
}

// stepBullet reports whether the bullet survives the tick.
func (w *World) stepBullet(bullet *Bullet, creatureMap map[Pos]int) bool {
	for i := 0; i <= bullet.Ammo.Speed; i++ {
		if i != 0 {
			bullet.DoMove(w.rng)
			if bullet.OutOfRange() {
				return false
			}
			w.particles[bullet.Pos] = bullet.Sprite()
		}
		if id, ok := creatureMap[bullet.Pos]; ok {
			if creature, ok := w.creatures.Get(id); ok && creature.Alignment != bullet.Alignment {
				creature.Damage(bullet.Ammo.Damage)
				return false
			}
		}
		if tile, ok := w.ground.Get(bullet.Pos); ok && tile.BlocksBullets() {
			return false
		}
	}
	return true
}

// reap removes dead creatures and returns them for loot processing.
func (w *World) reap() []*Creature {
	var dead []*Creature
	for _, id := range w.creatures.IDs() {
		if creature, ok := w.creatures.Get(id); ok && creature.IsDead() {
			w.creatures.Remove(id)
			dead = append(dead, creature)
		}
	}
	return dead
}

// spawn respawns player bodies, runs the wave director and drops loot.
func (w *World) spawn(dead []*Creature) {
	for _, id := range w.playerOrder {
		player := w.players[id]
		if !w.creatures.Contains(player.Body) {
			body := NewPlayerCreature(id, player.Sprite, w.spawnpoint, w.gamemode == PvP)
			player.Body = w.creatures.Insert(body)
		}
		player.Plan = nil
	}

	nmonsters := 0
	w.creatures.Each(func(_ int, c *Creature) {
		if c.Alignment == AlignMonsters() {
			nmonsters++
		}
	})
	if w.gamemode != PvP && nmonsters == 0 && len(w.toSpawn) == 0 {
		w.wave++
		w.roundState = Paused(25)
		for _, typ := range WaveComposition(w.wave) {
			w.toSpawn = append(w.toSpawn, w.spawnModify(typ)...)
		}
	}
	if w.roundState.kind == roundPaused {
		if w.roundState.counter <= 0 {
			w.roundState = Running()
		} else {
			w.roundState = Paused(w.roundState.counter - 1)
		}
	} else if w.time%5 == 0 && len(w.toSpawn) > 0 {
		typ := w.toSpawn[0]
		w.toSpawn = w.toSpawn[1:]
		pos := w.monsterspawn[w.rng.Intn(len(w.monsterspawn))]
		w.creatures.Insert(CreateCreature(typ, pos, w.rng))
	}

	nplayers := len(w.players)
	if nplayers < 1 {
		nplayers = 1
	}
	for _, creature := range dead {
		if creature.Alignment != AlignPlayers() && len(w.items) < nplayers+1 && w.rng.Intn(10) == 0 {
			w.items[creature.Pos] = ItemHealth
		}
	}
}

// spawnModify substitutes building-hunters with extra chaff in survival mode,
// where there are no buildings to hunt.
func (w *World) spawnModify(typ CreatureType) []CreatureType {
	if w.gamemode != Survival {
		return []CreatureType{typ}
	}
	switch typ {
	case CreatureWorm:
		return []CreatureType{CreatureZombie, CreatureZombie, CreatureZombie}
	case CreatureTroll:
		return []CreatureType{CreatureYmp, CreatureZombie, CreatureZombie}
	default:
		return []CreatureType{typ}
	}
}

// Update advances the world one tick.
func (w *World) Update() {
	switch w.roundState.kind {
	case roundRunning, roundPaused:
		w.particles = make(map[Pos]Sprite)
		w.updateCreatures()
		w.updateBullets()
		dead := w.reap()
		for _, creature := range dead {
			if creature.IsBuilding && creature.Alignment == AlignPlayers() {
				w.computeBuildingDistances()
				break
			}
		}
		w.spawn(dead)
		if w.isGameOver() {
			w.roundState = GameOver(50)
		}
		w.time++

	case roundGameOver:
		if banner := "GAME_OVER!"; w.size.X > len(banner) {
			gopos := P(w.rng.Intn(w.size.X-len(banner)), w.rng.Intn(w.size.Y))
			for i, r := range banner {
				if sprite, ok := LetterSprite(r); ok {
					w.particles[P(gopos.X+i, gopos.Y)] = sprite
				}
			}
		}
		if w.roundState.counter <= 0 {
			w.Reset()
		} else {
			w.roundState = GameOver(w.roundState.counter - 1)
		}
	}
}

func (w *World) isGameOver() bool {
	switch w.gamemode {
	case PillarDefence:
		alive := false
		w.creatures.Each(func(_ int, c *Creature) {
			if c.Mind.kind == mindPillar && c.Alignment == AlignPlayers() {
				alive = true
			}
		})
		return !alive
	case Survival:
		if w.wave <= 1 {
			return false
		}
		fighting := false
		w.creatures.Each(func(_ int, c *Creature) {
			if c.IsPlayer() && w.ground.GetUnchecked(c.Pos) != TileSanctuary {
				fighting = true
			}
		})
		return !fighting
	default:
		return false
	}
}
