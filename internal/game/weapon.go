package game

import "math/rand"

// Ammo describes the bullets a weapon emits.
type Ammo struct {
	Damage int
	// Range caps the L1 distance a bullet travels, in axis steps.
	Range int
	// Speed is the number of moving sub-steps per tick.
	Speed int
	// Sprites holds one trail sprite, or two for axis-dependent trails
	// ([0] vertical, [1] horizontal).
	Sprites []Sprite
	// Spreading bullets jitter sideways on their first step.
	Spreading bool
}

// Weapon emits bullets. A weapon with zero bullets (the empty slot) still
// consumes the fire input but does nothing.
type Weapon struct {
	Cooldown int
	NBullets int
	// Spread widens the shot cone, as a percentage of the aim vector's L1
	// size per axis.
	Spread int
	Ammo   Ammo
	Name   string
}

// Shoot emits the weapon's bullets from pos toward direction. With spread,
// the aim vector is scaled by 100 and jittered per axis by up to
// spread% of its L1 size, keeping sub-pixel accuracy in integer space.
func (w *Weapon) Shoot(pos Pos, direction Pos, alignment Alignment, rng *rand.Rand) []Bullet {
	deviation := w.Spread * direction.Size()
	bullets := make([]Bullet, 0, w.NBullets)
	for i := 0; i < w.NBullets; i++ {
		dir := direction
		if w.Spread != 0 {
			jitter := Pos{
				X: rng.Intn(2*deviation+1) - deviation,
				Y: rng.Intn(2*deviation+1) - deviation,
			}
			dir = Pos{direction.X * 100, direction.Y * 100}.Add(jitter)
		}
		bullets = append(bullets, Bullet{
			Direction: dir,
			Pos:       pos,
			Alignment: alignment,
			Ammo:      w.Ammo,
		})
	}
	return bullets
}

func (w *Weapon) Range() int {
	return w.Ammo.Range
}

// Weapon constructors. Monster weapons take their stats as parameters because
// each creature type tunes them; player weapons are fixed.

func BiteWeapon(damage, cooldown int) Weapon {
	return Weapon{
		Cooldown: cooldown,
		NBullets: 1,
		Name:     "Bite",
		Ammo: Ammo{
			Damage:  damage,
			Range:   1,
			Speed:   2,
			Sprites: []Sprite{"bite"},
		},
	}
}

func CastWeapon(damage, rang, spread, cooldown int) Weapon {
	return Weapon{
		Cooldown: cooldown,
		NBullets: 1,
		Spread:   spread,
		Name:     "Cast",
		Ammo: Ammo{
			Damage:  damage,
			Range:   rang,
			Speed:   1,
			Sprites: []Sprite{"bullet"},
		},
	}
}

func SpitWeapon(damage, rang, nbullets, spread, cooldown int) Weapon {
	return Weapon{
		Cooldown: cooldown,
		NBullets: nbullets,
		Spread:   spread,
		Name:     "Spit",
		Ammo: Ammo{
			Damage:  damage,
			Range:   rang,
			Speed:   1,
			Sprites: []Sprite{"spit"},
		},
	}
}

func SMGWeapon() Weapon {
	return Weapon{
		Cooldown: 0,
		NBullets: 1,
		Name:     "SMG",
		Ammo: Ammo{
			Damage:    10,
			Range:     24,
			Speed:     3,
			Sprites:   []Sprite{"bulletvert", "bullethor"},
			Spreading: true,
		},
	}
}

func RifleWeapon() Weapon {
	return Weapon{
		Cooldown: 4,
		NBullets: 1,
		Name:     "Rifle",
		Ammo: Ammo{
			Damage:  25,
			Range:   40,
			Speed:   4,
			Sprites: []Sprite{"bulletvert", "bullethor"},
		},
	}
}

func ShotgunWeapon() Weapon {
	return Weapon{
		Cooldown: 5,
		NBullets: 20,
		Spread:   45,
		Name:     "Shotgun",
		Ammo: Ammo{
			Damage:  5,
			Range:   14,
			Speed:   5,
			Sprites: []Sprite{"bulletvert", "bullethor"},
		},
	}
}

func NoWeapon() Weapon {
	return Weapon{Name: "none", Ammo: Ammo{Speed: 1, Sprites: []Sprite{"bullet"}}}
}

// Bullet is a projectile in flight. Direction is an arbitrary-magnitude
// integer vector; Steps counts the axis-wise advances taken so far, so
// Steps.Size() is the L1 distance traveled.
type Bullet struct {
	Direction Pos
	Steps     Pos
	Pos       Pos
	Alignment Alignment
	Ammo      Ammo
}

// DoMove advances the bullet one sub-step.
func (b *Bullet) DoMove(rng *rand.Rand) {
	if b.Ammo.Spreading {
		b.Pos = b.Pos.Add(b.inaccurateMovement(rng))
	}
	d := b.movement(rng)
	b.Pos = b.Pos.Add(d)
	if d.X != 0 {
		b.Steps.X++
	}
	if d.Y != 0 {
		b.Steps.Y++
	}
}

// inaccurateMovement sometimes shifts a fresh bullet one cell orthogonal to
// its dominant axis to simulate an inaccurate weapon.
func (b *Bullet) inaccurateMovement(rng *rand.Rand) Pos {
	if b.Steps.Size() != 1 || rng.Intn(2) == 0 {
		return Pos{}
	}
	r := 1
	if rng.Intn(2) == 0 {
		r = -1
	}
	if abs(b.Direction.Y) > abs(b.Direction.X) {
		return Pos{r, 0}
	}
	return Pos{0, r}
}

func (b *Bullet) movement(rng *rand.Rand) Pos {
	dabs := b.Direction.Abs()
	if quadrantMoveY(dabs, b.Steps, rng) {
		return Pos{0, sign(b.Direction.Y)}
	}
	return Pos{sign(b.Direction.X), 0}
}

func (b *Bullet) OutOfRange() bool {
	return b.Steps.Size() > b.Ammo.Range
}

// Sprite picks the trail sprite; two-sprite ammo selects the horizontal
// variant when the direction is more horizontal than vertical.
func (b *Bullet) Sprite() Sprite {
	if len(b.Ammo.Sprites) > 1 && abs(b.Direction.X) > abs(b.Direction.Y) {
		return b.Ammo.Sprites[1]
	}
	return b.Ammo.Sprites[0]
}

// quadrantMoveY decides whether the next unit step is along y. The problem is
// mirrored into the octant 0 <= dy <= dx; exact diagonals flip a coin for
// which octant to use.
func quadrantMoveY(dir Pos, steps Pos, rng *rand.Rand) bool {
	if dir.Y > dir.X || dir.X == dir.Y && rng.Intn(2) == 0 {
		return !octantMoveY(Pos{dir.Y, dir.X}, Pos{steps.Y, steps.X})
	}
	return octantMoveY(dir, steps)
}

// octantMoveY is the Bresenham-style cadence for 0 <= dir.y <= dir.x: step y
// once the accumulated x steps overshoot the ideal line by half a cell.
func octantMoveY(dir Pos, steps Pos) bool {
	return dir.Y*steps.X > steps.Y*dir.X+dir.X/2
}
