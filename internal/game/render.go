package game

import "fmt"

// drawDynamic layers the sprites of every particle, creature and item onto
// their cells, topmost first, and closes each stack with the floor sprite.
// Cells with nothing on them are absent; their display is implicitly the
// floor tile.
func (w *World) drawDynamic() map[Pos][]Sprite {
	sprites := make(map[Pos][]Sprite)
	for pos, sprite := range w.particles {
		sprites[pos] = []Sprite{sprite}
	}
	w.creatures.Each(func(_ int, c *Creature) {
		sprites[c.Pos] = append(sprites[c.Pos], c.Sprite)
	})
	for pos, item := range w.items {
		sprites[pos] = append(sprites[pos], item.Sprite())
	}
	for pos := range sprites {
		tile, ok := w.ground.Get(pos)
		if !ok {
			delete(sprites, pos)
			continue
		}
		sprites[pos] = append(sprites[pos], tile.Sprite())
	}
	return sprites
}

// drawChanges diffs the current drawing against the previous tick's. Cells
// that emptied out fall back to their bare floor sprite. Returns nil when
// there is no previous drawing to diff against.
func (w *World) drawChanges(sprites map[Pos][]Sprite) []ChangeCell {
	if w.lastDrawing == nil {
		return nil
	}
	full := make(map[Pos][]Sprite, len(sprites))
	for pos, stack := range sprites {
		full[pos] = stack
	}
	for pos := range w.lastDrawing {
		if _, ok := full[pos]; !ok {
			if tile, tileOk := w.ground.Get(pos); tileOk {
				full[pos] = []Sprite{tile.Sprite()}
			}
		}
	}
	changes := make([]ChangeCell, 0)
	for pos, stack := range full {
		if !spritesEqual(w.lastDrawing[pos], stack) {
			changes = append(changes, ChangeCell{Pos: pos, Sprites: stack})
		}
	}
	return changes
}

func spritesEqual(a, b []Sprite) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// drawField renders the whole grid as a dense row-major index array over a
// deduplicated stack mapping. First occurrence of a stack assigns the next
// index.
func drawField(size Pos, tiles *Grid[Tile], sprites map[Pos][]Sprite) *FieldMessage {
	values := make([]int, 0, size.X*size.Y)
	var mapping [][]Sprite
	indices := make(map[string]int)
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			stack, ok := sprites[P(x, y)]
			if !ok {
				stack = []Sprite{tiles.GetUnchecked(P(x, y)).Sprite()}
			}
			key := stackKey(stack)
			index, ok := indices[key]
			if !ok {
				index = len(mapping)
				mapping = append(mapping, stack)
				indices[key] = index
			}
			values = append(values, index)
		}
	}
	return &FieldMessage{
		Width:   size.X,
		Height:  size.Y,
		Field:   values,
		Mapping: mapping,
	}
}

func stackKey(stack []Sprite) string {
	key := ""
	for _, sprite := range stack {
		key += string(sprite) + ";"
	}
	return key
}

// View assembles one message per player from the post-tick world. Players
// that saw last tick's drawing get a change set; new or reset players get a
// full field. The current drawing is kept for the next diff.
func (w *World) View() map[PlayerID]*WorldMessage {
	dynamic := w.drawDynamic()
	changes := w.drawChanges(dynamic)
	var field *FieldMessage
	views := make(map[PlayerID]*WorldMessage, len(w.players))
	for _, id := range w.playerOrder {
		player := w.players[id]
		msg := &WorldMessage{}
		if changes != nil && !player.IsNew {
			msg.Change = changes
		} else {
			if field == nil {
				field = drawField(w.size, &w.ground, dynamic)
			}
			msg.Field = field
			player.IsNew = false
		}
		if body, ok := w.creatures.Get(player.Body); ok {
			pos := body.Pos
			msg.Pos = &pos
			msg.Health = &HealthMessage{Current: body.Health, Max: body.MaxHealth}
			names := make([]string, len(body.Weapons))
			for i, slot := range body.Weapons {
				names[i] = slot.Weapon.Name
			}
			msg.Weapons = &WeaponsMessage{Names: names, Selected: body.SelectedWeapon}
		}
		if w.roundState == GameOver(1) {
			msg.Sounds = []Sound{{Tag: "restart", Text: "---- Starting new session ----"}}
		} else if w.roundState == Paused(1) {
			msg.Sounds = []Sound{{Tag: "wave", Text: waveBanner(w.wave)}}
		}
		views[id] = msg
	}
	w.lastDrawing = dynamic
	return views
}

func waveBanner(wave int) string {
	return fmt.Sprintf("**** Wave %d ****", wave)
}
