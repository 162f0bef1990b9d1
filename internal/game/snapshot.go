package game

// WorldStats is a cheap read-only summary for the HTTP API and metrics.
type WorldStats struct {
	Time       int    `json:"time"`
	Wave       int    `json:"wave"`
	RoundState string `json:"roundState"`
	GameMode   string `json:"gameMode"`
	Players    int    `json:"players"`
	Creatures  int    `json:"creatures"`
	Monsters   int    `json:"monsters"`
	Bullets    int    `json:"bullets"`
	Items      int    `json:"items"`
	Pending    int    `json:"pendingSpawns"`
}

func (w *World) Stats() WorldStats {
	monsters := 0
	w.creatures.Each(func(_ int, c *Creature) {
		if c.Alignment == AlignMonsters() {
			monsters++
		}
	})
	return WorldStats{
		Time:       w.time,
		Wave:       w.wave,
		RoundState: w.roundState.String(),
		GameMode:   w.gamemode.String(),
		Players:    len(w.players),
		Creatures:  w.creatures.Len(),
		Monsters:   monsters,
		Bullets:    len(w.bullets),
		Items:      len(w.items),
		Pending:    len(w.toSpawn),
	}
}

// PlayerInfo is one row of the player table exposed over the API.
type PlayerInfo struct {
	Name      string `json:"name"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Health    int    `json:"health"`
	MaxHealth int    `json:"maxHealth"`
	Weapon    string `json:"weapon"`
	Alive     bool   `json:"alive"`
}

func (w *World) PlayerInfos() []PlayerInfo {
	infos := make([]PlayerInfo, 0, len(w.players))
	for _, id := range w.playerOrder {
		player := w.players[id]
		info := PlayerInfo{Name: string(id)}
		if body, ok := w.creatures.Get(player.Body); ok {
			info.X = body.Pos.X
			info.Y = body.Pos.Y
			info.Health = body.Health
			info.MaxHealth = body.MaxHealth
			info.Alive = !body.IsDead()
			if weapon := body.Weapon(); weapon != nil {
				info.Weapon = weapon.Name
			}
		}
		infos = append(infos, info)
	}
	return infos
}
