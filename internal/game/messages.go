package game

import "encoding/json"

// FieldMessage is a dense full-field render: row-major indices into a
// deduplicated sprite-stack mapping.
type FieldMessage struct {
	Width   int        `json:"width"`
	Height  int        `json:"height"`
	Field   []int      `json:"field"`
	Mapping [][]Sprite `json:"mapping"`
}

// ChangeCell is one cell whose sprite stack changed since the previous tick.
type ChangeCell struct {
	Pos     Pos
	Sprites []Sprite
}

func (c ChangeCell) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{c.Pos, c.Sprites})
}

// Sound is a one-shot notification shown to the player.
type Sound struct {
	Tag  string
	Text string
}

func (s Sound) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]any{s.Tag, s.Text, nil})
}

// WeaponsMessage reports a body's loadout and selection.
type WeaponsMessage struct {
	Names    []string
	Selected int
}

func (w WeaponsMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{w.Names, w.Selected})
}

// HealthMessage reports (current, max) health.
type HealthMessage struct {
	Current int
	Max     int
}

func (h HealthMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{h.Current, h.Max})
}

// WorldMessage is the per-player outbound view after a tick. A message holds
// either a full field or a change set, never both.
type WorldMessage struct {
	Field   *FieldMessage
	Change  []ChangeCell
	Pos     *Pos
	Health  *HealthMessage
	Weapons *WeaponsMessage
	Sounds  []Sound
}

// IsEmpty reports whether there is nothing worth sending.
func (m *WorldMessage) IsEmpty() bool {
	return m.Field == nil && m.Change == nil && m.Pos == nil &&
		m.Health == nil && m.Weapons == nil && len(m.Sounds) == 0
}

// MarshalJSON encodes the message as the tagged-update array the client
// protocol expects: ["world", [["field", ...], ["playerpos", ...], ...]].
func (m *WorldMessage) MarshalJSON() ([]byte, error) {
	updates := make([]any, 0, 6)
	if m.Field != nil {
		updates = append(updates, [2]any{"field", m.Field})
	}
	if m.Change != nil {
		updates = append(updates, [2]any{"changecells", m.Change})
	}
	if m.Pos != nil {
		updates = append(updates, [2]any{"playerpos", m.Pos})
	}
	if m.Health != nil {
		updates = append(updates, [2]any{"health", m.Health})
	}
	if m.Weapons != nil {
		updates = append(updates, [2]any{"weapons", m.Weapons})
	}
	if len(m.Sounds) > 0 {
		updates = append(updates, [2]any{"sounds", m.Sounds})
	}
	return json.Marshal([2]any{"world", updates})
}
