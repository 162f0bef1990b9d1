package game

import "math/rand"

// mindKind tags the Mind variants.
type mindKind uint8

const (
	mindPlayer mindKind = iota
	mindBloodThirst
	mindDestroyer
	mindPillar
)

// Mind decides how a creature is planned each tick: player minds read the
// control inbox, blood-thirsty minds hunt creatures, destroyers hunt
// buildings, pillars do nothing.
type Mind struct {
	kind      mindKind
	player    PlayerID
	deviation int
}

func PlayerMind(id PlayerID) Mind {
	return Mind{kind: mindPlayer, player: id}
}

// BloodThirstMind hunts hostile non-buildings. deviation is the percentage of
// planning turns spent wandering instead of homing.
func BloodThirstMind(deviation int) Mind {
	return Mind{kind: mindBloodThirst, deviation: deviation}
}

func DestroyerMind() Mind {
	return Mind{kind: mindDestroyer}
}

func PillarMind() Mind {
	return Mind{kind: mindPillar}
}

func (m Mind) IsPlayer() bool {
	return m.kind == mindPlayer
}

// alignmentKind tags the Alignment variants.
type alignmentKind uint8

const (
	alignPlayers alignmentKind = iota
	alignSinglePlayer
	alignMonsters
)

// Alignment is the team tag governing hostility. Two creatures are hostile
// iff their alignments differ.
type Alignment struct {
	kind   alignmentKind
	player PlayerID
}

func AlignPlayers() Alignment {
	return Alignment{kind: alignPlayers}
}

// AlignPlayer is the individual alignment used for PvP bodies.
func AlignPlayer(id PlayerID) Alignment {
	return Alignment{kind: alignSinglePlayer, player: id}
}

func AlignMonsters() Alignment {
	return Alignment{kind: alignMonsters}
}

// CreatureType names everything a map template or wave can spawn.
type CreatureType string

const (
	CreatureZombie   CreatureType = "zombie"
	CreatureYmp      CreatureType = "ymp"
	CreatureWorm     CreatureType = "worm"
	CreatureTroll    CreatureType = "troll"
	CreatureXiangliu CreatureType = "xiangliu"
	CreatureVargr    CreatureType = "vargr"
	CreaturePillar   CreatureType = "pillar"
	CreaturePlayer   CreatureType = "player"
)

// WeaponSlot is one entry in a creature's loadout. Disabled slots are skipped
// when cycling weapons.
type WeaponSlot struct {
	Weapon  Weapon
	Enabled bool
}

// Creature is any living grid entity: player body, monster or building.
type Creature struct {
	Mind           Mind
	Pos            Pos
	Dir            Direction
	Health         int
	MaxHealth      int
	Cooldown       int
	WalkCooldown   int
	Sprite         Sprite
	Alignment      Alignment
	Weapons        []WeaponSlot
	SelectedWeapon int
	IsBuilding     bool
}

func (c *Creature) IsPlayer() bool {
	return c.Mind.IsPlayer()
}

func (c *Creature) IsDead() bool {
	return c.Health <= 0
}

func (c *Creature) Kill() {
	c.Health = -1
}

// Heal raises health by amount, capped at max health. Healing never lowers
// health below its current value.
func (c *Creature) Heal(amount int) {
	healed := c.Health + amount
	if healed > c.MaxHealth {
		healed = c.MaxHealth
	}
	if healed > c.Health {
		c.Health = healed
	}
}

func (c *Creature) HasFullHealth() bool {
	return c.Health >= c.MaxHealth
}

func (c *Creature) Damage(amount int) {
	c.Health -= amount
}

// Weapon returns the selected weapon, or nil for an empty loadout.
func (c *Creature) Weapon() *Weapon {
	if c.SelectedWeapon >= len(c.Weapons) {
		return nil
	}
	return &c.Weapons[c.SelectedWeapon].Weapon
}

// SelectNextWeapon advances the selection to the next enabled slot, wrapping
// around. Disabled slots are skipped.
func (c *Creature) SelectNextWeapon() {
	if len(c.Weapons) == 0 {
		return
	}
	c.clampSelection()
	n := len(c.Weapons)
	for i := 1; i <= n; i++ {
		idx := (c.SelectedWeapon + i) % n
		if c.Weapons[idx].Enabled {
			c.SelectedWeapon = idx
			return
		}
	}
	c.SelectedWeapon = 0
}

// SelectPreviousWeapon moves the selection to the previous enabled slot,
// wrapping around.
func (c *Creature) SelectPreviousWeapon() {
	if len(c.Weapons) == 0 {
		return
	}
	c.clampSelection()
	n := len(c.Weapons)
	for i := 1; i <= n; i++ {
		idx := (c.SelectedWeapon - i + n) % n
		if c.Weapons[idx].Enabled {
			c.SelectedWeapon = idx
			return
		}
	}
	c.SelectedWeapon = 0
}

func (c *Creature) clampSelection() {
	if c.SelectedWeapon >= len(c.Weapons) {
		c.SelectedWeapon = len(c.Weapons) - 1
	}
}

// AttackRange is the selected weapon's range, 0 without a weapon.
func (c *Creature) AttackRange() int {
	if w := c.Weapon(); w != nil {
		return w.Range()
	}
	return 0
}

// CreateCreature instantiates a creature of the given type at pos. Monster
// initial cooldowns are randomized so a wave doesn't act in lockstep.
func CreateCreature(typ CreatureType, pos Pos, rng *rand.Rand) *Creature {
	switch typ {
	case CreatureZombie:
		return newMonster(pos, BloodThirstMind(10), 20, 2, "zombie", BiteWeapon(10, 2), rng)
	case CreatureYmp:
		return newMonster(pos, BloodThirstMind(10), 20, 2, "ymp", CastWeapon(10, 30, 0, 2), rng)
	case CreatureWorm:
		return newMonster(pos, DestroyerMind(), 12, 3, "worm", CastWeapon(10, 2, 0, 3), rng)
	case CreatureTroll:
		return newMonster(pos, DestroyerMind(), 100, 4, "troll", CastWeapon(50, 2, 0, 4), rng)
	case CreatureXiangliu:
		return newMonster(pos, BloodThirstMind(10), 50, 2, "xiangliu", CastWeapon(10, 16, 30, 0), rng)
	case CreatureVargr:
		return newMonster(pos, BloodThirstMind(20), 30, 1, "vargr", BiteWeapon(20, 3), rng)
	case CreaturePillar:
		return NewPillar(pos)
	default:
		// A bodyless player creature; it suicides as soon as it plans.
		return NewPlayerCreature("", "player_g-x", pos, true)
	}
}

func NewPillar(pos Pos) *Creature {
	return &Creature{
		Mind:         PillarMind(),
		Pos:          pos,
		Dir:          North,
		Health:       200,
		MaxHealth:    200,
		Cooldown:     1,
		WalkCooldown: 1,
		Sprite:       "pillar",
		Alignment:    AlignPlayers(),
		IsBuilding:   true,
	}
}

// NewPlayerCreature spawns a fresh player body. Bodies start at 1 health and
// heal up on the sanctuary they spawn in. In PvP every body is its own team.
func NewPlayerCreature(id PlayerID, sprite Sprite, pos Pos, pvp bool) *Creature {
	alignment := AlignPlayers()
	if pvp {
		alignment = AlignPlayer(id)
	}
	return &Creature{
		Mind:      PlayerMind(id),
		Pos:       pos,
		Dir:       North,
		Health:    1,
		MaxHealth: 100,
		Sprite:    sprite,
		Weapons: []WeaponSlot{
			{Weapon: RifleWeapon(), Enabled: true},
			{Weapon: SMGWeapon(), Enabled: true},
			{Weapon: NoWeapon()},
			{Weapon: SMGWeapon(), Enabled: true},
			{Weapon: RifleWeapon(), Enabled: true},
		},
		Alignment: alignment,
	}
}

func newMonster(pos Pos, mind Mind, health, cooldown int, sprite Sprite, weapon Weapon, rng *rand.Rand) *Creature {
	return &Creature{
		Mind:         mind,
		Pos:          pos,
		Dir:          North,
		Health:       health,
		MaxHealth:    health,
		Cooldown:     rng.Intn(cooldown + 1),
		WalkCooldown: cooldown,
		Sprite:       sprite,
		Weapons:      []WeaponSlot{{Weapon: weapon, Enabled: true}},
		Alignment:    AlignMonsters(),
	}
}
