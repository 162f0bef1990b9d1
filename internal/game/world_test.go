package game

import (
	"errors"
	"strings"
	"testing"
)

// openWorld builds a world on an all-dirt custom map with the spawnpoint in
// the middle and one monster entry in the corner.
func openWorld(t *testing.T, mode GameMode, size int, creatures ...PlacedCreature) *World {
	t.Helper()
	template := MapTemplate{
		Size:         P(size, size),
		Ground:       NewGrid(P(size, size), TileDirt),
		Creatures:    creatures,
		Spawnpoint:   P(size/2, size/2),
		Monsterspawn: []Pos{P(0, 0)},
	}
	return NewWorld(mode, CustomMap(template), testRNG())
}

func body(t *testing.T, w *World, id PlayerID) *Creature {
	t.Helper()
	player, ok := w.players[id]
	if !ok {
		t.Fatalf("player %s not registered", id)
	}
	creature, ok := w.creatures.Get(player.Body)
	if !ok {
		t.Fatalf("player %s has no body", id)
	}
	return creature
}

func TestPlayerLifecycle(t *testing.T) {
	w := openWorld(t, Survival, 16)

	if err := w.AddPlayer("alice", "player_r-a"); err != nil {
		t.Fatal(err)
	}
	if err := w.AddPlayer("alice", "player_r-a"); !errors.Is(err, ErrPlayerExists) {
		t.Errorf("expected ErrPlayerExists, got %v", err)
	}
	if err := w.ControlPlayer("bob", MoveControl(North)); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("expected ErrPlayerNotFound, got %v", err)
	}

	w.Update()
	b := body(t, w, "alice")
	if b.Pos != P(8, 8) {
		t.Errorf("body must spawn at the spawnpoint, got %v", b.Pos)
	}

	if err := w.RemovePlayer("alice"); err != nil {
		t.Fatal(err)
	}
	if w.creatures.Len() != 0 {
		t.Error("removing a player removes its body")
	}
	if err := w.RemovePlayer("alice"); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("expected ErrPlayerNotFound, got %v", err)
	}
}

func TestMoveSetsFacingAndPosition(t *testing.T) {
	w := openWorld(t, PvP, 16)
	w.AddPlayer("alice", "player_r-a")
	w.Update()

	w.ControlPlayer("alice", MoveControl(East))
	w.Update()

	b := body(t, w, "alice")
	if b.Pos != P(9, 8) {
		t.Errorf("expected (9,8), got %v", b.Pos)
	}
	if b.Dir != East {
		t.Errorf("moving sets the facing, got %v", b.Dir)
	}
}

func TestMoveBlockedByCreature(t *testing.T) {
	w := openWorld(t, Survival, 16,
		PlacedCreature{Pos: P(9, 8), Type: CreaturePillar})
	w.AddPlayer("alice", "player_r-a")
	w.Update()

	w.ControlPlayer("alice", MoveControl(East))
	w.Update()

	b := body(t, w, "alice")
	if b.Pos != P(8, 8) {
		t.Errorf("moving into an occupied cell is denied, body at %v", b.Pos)
	}
	if b.Dir != East {
		t.Error("a denied move still turns the creature")
	}
}

// TestFirstShot covers the survival-first-shot scenario: a rifle shot fired
// north travels its per-tick sub-steps immediately and expires at its range.
func TestFirstShot(t *testing.T) {
	w := openWorld(t, PvP, 64)
	w.AddPlayer("alice", "player_r-a")
	w.Update()

	w.ControlPlayer("alice", ShootControl(North))
	w.Update()

	if len(w.bullets) != 1 {
		t.Fatalf("expected 1 bullet, got %d", len(w.bullets))
	}
	bullet := w.bullets[0]
	if bullet.Direction != P(0, -1) {
		t.Errorf("expected direction (0,-1), got %v", bullet.Direction)
	}
	// rifle speed 4: four moving sub-steps in the firing tick
	if bullet.Pos != P(32, 28) {
		t.Errorf("expected bullet at (32,28), got %v", bullet.Pos)
	}
	b := body(t, w, "alice")
	if b.Cooldown != RifleWeapon().Cooldown {
		t.Errorf("shooter cooldown must match the weapon, got %d", b.Cooldown)
	}

	// The range is a hard cap: the bullet dies within range+1 steps
	for i := 0; i < 20 && len(w.bullets) > 0; i++ {
		if s := w.bullets[0].Steps.Size(); s > w.bullets[0].Ammo.Range+1 {
			t.Fatalf("bullet exceeded its range: %d steps", s)
		}
		w.Update()
	}
	if len(w.bullets) != 0 {
		t.Error("the bullet must expire at its range")
	}
}

func TestBulletHitsHostile(t *testing.T) {
	w := openWorld(t, Survival, 16,
		PlacedCreature{Pos: P(8, 5), Type: CreatureZombie})
	w.AddPlayer("alice", "player_r-a")

	var zombie *Creature
	w.creatures.Each(func(_ int, c *Creature) {
		if c.Sprite == "zombie" {
			zombie = c
		}
	})
	if zombie == nil {
		t.Fatal("no zombie placed")
	}
	// Pin the zombie so it can't walk out of the line of fire
	zombie.Cooldown = 100
	w.Update()
	before := zombie.Health

	w.ControlPlayer("alice", ShootControl(North))
	w.Update()

	if zombie.Health != before-RifleWeapon().Ammo.Damage {
		t.Errorf("expected %d damage, health went %d -> %d",
			RifleWeapon().Ammo.Damage, before, zombie.Health)
	}
	if len(w.bullets) != 0 {
		t.Error("a bullet that hits is spent")
	}
}

func TestBulletsDontHitAllies(t *testing.T) {
	w := openWorld(t, Survival, 16,
		PlacedCreature{Pos: P(8, 5), Type: CreaturePillar})
	w.AddPlayer("alice", "player_r-a")
	w.Update()

	var pillar *Creature
	w.creatures.Each(func(_ int, c *Creature) {
		if c.IsBuilding {
			pillar = c
		}
	})
	before := pillar.Health

	w.ControlPlayer("alice", ShootControl(North))
	w.Update()

	if pillar.Health != before {
		t.Error("bullets pass through same-alignment creatures")
	}
}

func TestSuicideControl(t *testing.T) {
	w := openWorld(t, PvP, 16)
	w.AddPlayer("alice", "player_r-a")
	w.Update()

	first := w.players["alice"].Body
	w.ControlPlayer("alice", Control{Kind: ControlSuicide})
	w.Update()

	// The corpse is reaped and a fresh body spawned in the same tick
	b := body(t, w, "alice")
	if w.players["alice"].Body == first {
		t.Error("suicide must cost the body")
	}
	if b.Health != 1 {
		t.Errorf("respawned bodies start at 1 health, got %d", b.Health)
	}
}

// TestSanctuaryGate covers the gate rule: passable only from Sanctuary at
// full health.
func TestSanctuaryGate(t *testing.T) {
	template := MapTemplate{
		Size:       P(4, 3),
		Ground:     NewGrid(P(4, 3), TileWall),
		Spawnpoint: P(1, 1),
	}
	template.Ground.Set(P(1, 1), TileSanctuary)
	template.Ground.Set(P(2, 1), TileGate)
	w := NewWorld(PvP, CustomMap(template), testRNG())

	w.AddPlayer("alice", "player_r-a")
	w.Update()

	b := body(t, w, "alice")
	if b.HasFullHealth() {
		t.Fatal("fresh bodies must not be at full health yet")
	}

	w.ControlPlayer("alice", MoveControl(East))
	w.Update()
	if b.Pos != P(1, 1) {
		t.Fatalf("gate must deny a wounded creature, body at %v", b.Pos)
	}

	b.Health = b.MaxHealth
	w.ControlPlayer("alice", MoveControl(East))
	w.Update()
	if b.Pos != P(2, 1) {
		t.Errorf("gate must admit a full-health creature from sanctuary, body at %v", b.Pos)
	}
}

func TestSanctuaryHealing(t *testing.T) {
	template := MapTemplate{
		Size:       P(3, 3),
		Ground:     NewGrid(P(3, 3), TileSanctuary),
		Spawnpoint: P(1, 1),
	}
	w := NewWorld(PvP, CustomMap(template), testRNG())
	w.AddPlayer("alice", "player_r-a")
	w.Update()

	b := body(t, w, "alice")
	start := b.Health
	w.Update()
	if b.Health != start+2 {
		t.Errorf("sanctuary heals 2 per tick, went %d -> %d", start, b.Health)
	}
}

// TestZombieChase covers the chase scenario: a zombie closes in on a player
// across an open map, guided by the player distance field.
func TestZombieChase(t *testing.T) {
	w := openWorld(t, Survival, 32,
		PlacedCreature{Pos: P(0, 0), Type: CreatureZombie})
	w.AddPlayer("alice", "player_r-a")
	w.Update()

	findZombie := func() *Creature {
		var zombie *Creature
		w.creatures.Each(func(_ int, c *Creature) {
			if c.Sprite == "zombie" {
				zombie = c
			}
		})
		return zombie
	}

	prev := findZombie().Pos.DistanceTo(body(t, w, "alice").Pos)
	decreases := 0
	for i := 0; i < 64; i++ {
		w.Update()
		zombie := findZombie()
		if zombie == nil {
			t.Fatal("the zombie disappeared")
		}
		dist := zombie.Pos.DistanceTo(body(t, w, "alice").Pos)
		if dist < prev {
			decreases++
		}
		prev = dist
	}
	if decreases < 13 {
		t.Errorf("the zombie closed in only %d times over 64 ticks", decreases)
	}
	if prev >= 32 {
		t.Errorf("expected the gap to shrink from 32, still %d", prev)
	}
}

func TestNoTwoCreaturesShareACell(t *testing.T) {
	w := openWorld(t, Survival, 12,
		PlacedCreature{Pos: P(1, 1), Type: CreatureZombie},
		PlacedCreature{Pos: P(1, 2), Type: CreatureZombie},
		PlacedCreature{Pos: P(2, 1), Type: CreatureZombie},
		PlacedCreature{Pos: P(2, 2), Type: CreatureVargr},
		PlacedCreature{Pos: P(3, 3), Type: CreatureVargr},
	)
	w.AddPlayer("alice", "player_r-a")

	for i := 0; i < 40; i++ {
		w.Update()
		seen := make(map[Pos]bool)
		w.creatures.Each(func(_ int, c *Creature) {
			if seen[c.Pos] {
				t.Fatalf("tick %d: two creatures at %v", i, c.Pos)
			}
			seen[c.Pos] = true
		})
	}
}

// TestPillarDefenceLoss covers the pillar-defence loss scenario: all pillars
// down transitions into game over, fifty ticks later the world resets.
func TestPillarDefenceLoss(t *testing.T) {
	w := NewWorld(PillarDefence, SquareMap(), testRNG())
	w.AddPlayer("alice", "player_r-a")

	pillars := 0
	w.creatures.Each(func(_ int, c *Creature) {
		if c.IsBuilding {
			c.Health = 0
			pillars++
		}
	})
	if pillars != 4 {
		t.Fatalf("expected 4 pillars, got %d", pillars)
	}

	w.Update()
	if w.roundState != GameOver(50) {
		t.Fatalf("expected GameOver(50), got %v", w.roundState)
	}

	ticks := 0
	for w.roundState.kind == roundGameOver {
		if ticks++; ticks > 60 {
			t.Fatal("game over never reset")
		}
		w.Update()
	}
	if w.roundState != Running() {
		t.Fatalf("expected a running world after reset, got %v", w.roundState)
	}
	if w.wave != 0 {
		t.Errorf("reset clears the wave counter, got %d", w.wave)
	}
	reseeded := 0
	w.creatures.Each(func(_ int, c *Creature) {
		if c.IsBuilding {
			reseeded++
		}
	})
	if reseeded != 4 {
		t.Errorf("reset re-seeds the template creatures, got %d pillars", reseeded)
	}
	if !w.players["alice"].IsNew {
		t.Error("players get a full field after a reset")
	}
}

func TestSurvivalGameOver(t *testing.T) {
	template := MapTemplate{
		Size:       P(8, 8),
		Ground:     NewGrid(P(8, 8), TileSanctuary),
		Spawnpoint: P(4, 4),
	}
	w := NewWorld(Survival, CustomMap(template), testRNG())
	w.AddPlayer("alice", "player_r-a")
	w.wave = 5

	w.Update()
	if w.roundState.kind != roundGameOver {
		t.Errorf("everyone hiding on sanctuary past wave 1 ends the round, got %v", w.roundState)
	}
}

func TestPvPNeverEnds(t *testing.T) {
	w := openWorld(t, PvP, 8)
	w.AddPlayer("alice", "player_r-a")
	for i := 0; i < 30; i++ {
		w.Update()
		if w.roundState.kind == roundGameOver {
			t.Fatal("pvp rounds have no end condition")
		}
	}
	if w.wave != 0 {
		t.Error("pvp spawns no waves")
	}
}

// TestWaveLifecycle covers the wave property: between waves there is exactly
// one Paused(1) tick and the wave counter has been incremented.
func TestWaveLifecycle(t *testing.T) {
	w := openWorld(t, Survival, 16)
	w.AddPlayer("alice", "player_r-a")

	w.Update()
	if w.wave != 1 {
		t.Fatalf("an empty map starts wave 1, got %d", w.wave)
	}
	if !w.roundState.IsPaused() {
		t.Fatalf("wave start pauses the round, got %v", w.roundState)
	}
	if len(w.toSpawn) == 0 {
		t.Fatal("the pending queue must hold wave 1")
	}
	for _, typ := range w.toSpawn {
		if typ != CreatureZombie {
			t.Fatalf("wave 1 is zombies only, got %v", w.toSpawn)
		}
	}

	pausedOne := 0
	ticks := 0
	for w.roundState.IsPaused() {
		if w.roundState == Paused(1) {
			pausedOne++
			views := w.View()
			msg := views["alice"]
			if len(msg.Sounds) != 1 || !strings.Contains(msg.Sounds[0].Text, "Wave 1") {
				t.Errorf("expected the wave banner sound, got %v", msg.Sounds)
			}
		}
		if ticks++; ticks > 30 {
			t.Fatal("pause never ended")
		}
		w.Update()
	}
	if pausedOne != 1 {
		t.Errorf("expected exactly one Paused(1) tick, got %d", pausedOne)
	}

	// Once running, the queue drip-feeds one monster every fifth tick
	pending := len(w.toSpawn)
	for i := 0; i < 12 && len(w.toSpawn) == pending; i++ {
		w.Update()
	}
	if len(w.toSpawn) >= pending {
		t.Error("pending monsters must start spawning after the pause")
	}
	monsters := 0
	w.creatures.Each(func(_ int, c *Creature) {
		if c.Alignment == AlignMonsters() {
			monsters++
		}
	})
	if monsters == 0 {
		t.Error("a spawned monster should be on the map")
	}
}

func TestSurvivalSubstitution(t *testing.T) {
	w := openWorld(t, Survival, 8)
	got := w.spawnModify(CreatureWorm)
	if len(got) != 3 {
		t.Fatalf("worms become three zombies in survival, got %v", got)
	}
	got = w.spawnModify(CreatureTroll)
	if len(got) != 3 || got[0] != CreatureYmp {
		t.Fatalf("trolls become ymp plus two zombies in survival, got %v", got)
	}

	w2 := NewWorld(PillarDefence, SquareMap(), testRNG())
	if got := w2.spawnModify(CreatureWorm); len(got) != 1 || got[0] != CreatureWorm {
		t.Errorf("no substitution outside survival, got %v", got)
	}
}

// TestItemDrop covers loot: monster corpses drop health packs with the
// configured probability, capped by the player count.
func TestItemDrop(t *testing.T) {
	w := openWorld(t, PvP, 8)

	corpse := CreateCreature(CreatureZombie, P(2, 2), w.rng)
	corpse.Health = -5
	for i := 0; i < 200 && len(w.items) == 0; i++ {
		w.spawn([]*Creature{corpse})
	}
	if item, ok := w.items[P(2, 2)]; !ok || item != ItemHealth {
		t.Fatal("expected a health drop at the death cell")
	}
}

func TestTeamCorpsesDropNothing(t *testing.T) {
	w := openWorld(t, PvP, 8)

	corpse := NewPlayerCreature("alice", "player_r-a", P(3, 3), false)
	corpse.Health = -5
	for i := 0; i < 200; i++ {
		w.spawn([]*Creature{corpse})
	}
	if len(w.items) != 0 {
		t.Error("team-aligned corpses never drop items")
	}
}

func TestItemPickup(t *testing.T) {
	w := openWorld(t, PvP, 8)
	w.AddPlayer("alice", "player_r-a")
	w.Update()

	b := body(t, w, "alice")
	b.Health = 40
	w.items[P(5, 4)] = ItemHealth

	w.ControlPlayer("alice", MoveControl(East))
	w.Update()

	if b.Pos != P(5, 4) {
		t.Fatalf("expected the body on the item cell, got %v", b.Pos)
	}
	// Healing ticks may apply on top; the pack must have filled the body up
	if b.Health != b.MaxHealth {
		t.Errorf("health packs refill to max, got %d", b.Health)
	}
	if len(w.items) != 0 {
		t.Error("consumed items disappear")
	}
}

func TestMonstersIgnoreItems(t *testing.T) {
	w := openWorld(t, Survival, 8,
		PlacedCreature{Pos: P(1, 1), Type: CreatureZombie})
	w.items[P(1, 2)] = ItemHealth

	for i := 0; i < 20; i++ {
		w.Update()
	}
	if len(w.items) != 1 {
		t.Error("only player bodies consume items")
	}
}

func TestDistanceMap(t *testing.T) {
	template := MapTemplate{
		Size:       P(5, 1),
		Ground:     NewGrid(P(5, 1), TileDirt),
		Spawnpoint: P(1, 0),
	}
	template.Ground.Set(P(0, 0), TileWall)
	template.Ground.Set(P(2, 0), TileWater)
	w := NewWorld(PvP, CustomMap(template), testRNG())

	distances := w.distanceMap([]Pos{P(1, 0)})
	if got := distances.GetUnchecked(P(1, 0)); got != 0 {
		t.Errorf("source cost is 0, got %d", got)
	}
	if got := distances.GetUnchecked(P(0, 0)); got != unreachable {
		t.Errorf("walls are unreachable, got %d", got)
	}
	if got := distances.GetUnchecked(P(3, 0)); got != unreachable {
		t.Errorf("water cuts the path, got %d", got)
	}
}

func TestDistanceMapCosts(t *testing.T) {
	template := MapTemplate{
		Size:       P(4, 4),
		Ground:     NewGrid(P(4, 4), TileDirt),
		Spawnpoint: P(0, 0),
	}
	w := NewWorld(PvP, CustomMap(template), testRNG())

	distances := w.distanceMap([]Pos{P(0, 0)})
	if got := distances.GetUnchecked(P(3, 3)); got != 6 {
		t.Errorf("expected BFS cost 6 at the far corner, got %d", got)
	}
	if got := distances.GetUnchecked(P(2, 0)); got != 2 {
		t.Errorf("expected BFS cost 2, got %d", got)
	}
}

func TestDestroyerTargetsBuildings(t *testing.T) {
	w := openWorld(t, PillarDefence, 16,
		PlacedCreature{Pos: P(8, 8), Type: CreaturePillar},
		PlacedCreature{Pos: P(1, 1), Type: CreatureWorm},
	)

	var worm, pillar *Creature
	w.creatures.Each(func(_ int, c *Creature) {
		switch c.Sprite {
		case "worm":
			worm = c
		case "pillar":
			pillar = c
		}
	})

	prev := worm.Pos.DistanceTo(pillar.Pos)
	decreases := 0
	for i := 0; i < 40; i++ {
		w.Update()
		dist := worm.Pos.DistanceTo(pillar.Pos)
		if dist < prev {
			decreases++
		}
		prev = dist
	}
	if decreases < 6 {
		t.Errorf("the worm closed in only %d times over 40 ticks", decreases)
	}
}

func TestMonstersIgnoreSanctuaryCampers(t *testing.T) {
	template := MapTemplate{
		Size:       P(8, 8),
		Ground:     NewGrid(P(8, 8), TileDirt),
		Spawnpoint: P(4, 4),
		Creatures: []PlacedCreature{
			{Pos: P(4, 3), Type: CreatureZombie},
		},
	}
	template.Ground.Set(P(4, 4), TileSanctuary)
	w := NewWorld(Survival, CustomMap(template), testRNG())
	w.AddPlayer("alice", "player_r-a")
	w.Update()

	b := body(t, w, "alice")
	start := b.Health
	for i := 0; i < 10; i++ {
		w.Update()
	}
	// The zombie stands next to the sanctuary but never bites into it
	if b.Health < start {
		t.Error("creatures on sanctuary are not targeted")
	}
}
