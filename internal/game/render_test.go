package game

import "testing"

// fieldToStacks expands a dense field message back into per-cell sprite
// stacks.
func fieldToStacks(t *testing.T, fm *FieldMessage) map[Pos][]Sprite {
	t.Helper()
	stacks := make(map[Pos][]Sprite)
	for y := 0; y < fm.Height; y++ {
		for x := 0; x < fm.Width; x++ {
			idx := fm.Field[y*fm.Width+x]
			if idx < 0 || idx >= len(fm.Mapping) {
				t.Fatalf("field index %d outside mapping of %d stacks", idx, len(fm.Mapping))
			}
			stacks[P(x, y)] = fm.Mapping[idx]
		}
	}
	return stacks
}

func TestFullFieldRender(t *testing.T) {
	w := openWorld(t, PvP, 8)
	w.AddPlayer("alice", "player_r-a")
	w.Update()

	views := w.View()
	msg := views["alice"]
	if msg.Field == nil {
		t.Fatal("a new player gets a full field")
	}
	if msg.Change != nil {
		t.Fatal("a message never carries both field and change")
	}
	if msg.Field.Width != 8 || msg.Field.Height != 8 || len(msg.Field.Field) != 64 {
		t.Fatalf("field dimensions wrong: %dx%d/%d", msg.Field.Width, msg.Field.Height, len(msg.Field.Field))
	}

	stacks := fieldToStacks(t, msg.Field)
	if got := stacks[P(4, 4)]; len(got) != 2 || got[0] != "player_r-a" || got[1] != "ground" {
		t.Errorf("expected [player, floor] at the spawnpoint, got %v", got)
	}
	if got := stacks[P(0, 0)]; len(got) != 1 || got[0] != "ground" {
		t.Errorf("expected the bare floor elsewhere, got %v", got)
	}

	// Status fields ride along
	if msg.Pos == nil || *msg.Pos != P(4, 4) {
		t.Error("expected the body position")
	}
	if msg.Health == nil || msg.Health.Max != 100 {
		t.Error("expected the health pair")
	}
	if msg.Weapons == nil || len(msg.Weapons.Names) != 5 || msg.Weapons.Selected != 0 {
		t.Error("expected the weapon list")
	}
}

// TestDiffSoundness checks the renderer property: applying the change set to
// the previous full field reproduces a fresh full render.
func TestDiffSoundness(t *testing.T) {
	w := openWorld(t, PvP, 8)
	w.AddPlayer("alice", "player_r-a")
	w.Update()

	views := w.View()
	stacks := fieldToStacks(t, views["alice"].Field)

	w.ControlPlayer("alice", MoveControl(East))
	w.Update()
	views = w.View()
	msg := views["alice"]
	if msg.Field != nil {
		t.Fatal("the second view must be a diff, not a full field")
	}
	if len(msg.Change) == 0 {
		t.Fatal("a moved body must produce changed cells")
	}

	for _, cell := range msg.Change {
		stacks[cell.Pos] = cell.Sprites
	}

	fresh := fieldToStacks(t, drawField(w.size, &w.ground, w.drawDynamic()))
	for pos, want := range fresh {
		if !spritesEqual(stacks[pos], want) {
			t.Fatalf("diff drift at %v: patched %v, fresh %v", pos, stacks[pos], want)
		}
	}
}

func TestVacatedCellFallsBackToFloor(t *testing.T) {
	w := openWorld(t, PvP, 8)
	w.AddPlayer("alice", "player_r-a")
	w.Update()
	w.View()

	w.ControlPlayer("alice", MoveControl(East))
	w.Update()
	views := w.View()

	var vacated *ChangeCell
	for i := range views["alice"].Change {
		if views["alice"].Change[i].Pos == P(4, 4) {
			vacated = &views["alice"].Change[i]
		}
	}
	if vacated == nil {
		t.Fatal("the vacated spawn cell must appear in the change set")
	}
	if len(vacated.Sprites) != 1 || vacated.Sprites[0] != "ground" {
		t.Errorf("a vacated cell shows its floor, got %v", vacated.Sprites)
	}
}

func TestResetForcesFullField(t *testing.T) {
	w := openWorld(t, PvP, 8)
	w.AddPlayer("alice", "player_r-a")
	w.Update()
	w.View()
	w.Update()

	if views := w.View(); views["alice"].Field != nil {
		t.Fatal("steady state should diff")
	}

	w.Reset()
	w.Update()
	if views := w.View(); views["alice"].Field == nil {
		t.Error("players get a full field after a reset")
	}
}

func TestMappingDeduplicates(t *testing.T) {
	w := openWorld(t, PvP, 8)
	w.Update()
	fm := drawField(w.size, &w.ground, w.drawDynamic())

	// An all-dirt empty map renders as a single deduplicated stack
	if len(fm.Mapping) != 1 {
		t.Errorf("expected one mapping entry, got %d", len(fm.Mapping))
	}
	for _, idx := range fm.Field {
		if idx != 0 {
			t.Fatal("every cell must reference the shared stack")
		}
	}
}

func TestParticleLayering(t *testing.T) {
	w := openWorld(t, PvP, 8)
	w.AddPlayer("alice", "player_r-a")
	w.Update()

	w.particles[P(4, 4)] = "bullet"
	dynamic := w.drawDynamic()
	stack := dynamic[P(4, 4)]
	if len(stack) != 3 || stack[0] != "bullet" || stack[1] != "player_r-a" || stack[2] != "ground" {
		t.Errorf("expected [particle, creature, floor], got %v", stack)
	}
}
