// map-viz renders a map template to a PNG for eyeballing map generation
// without connecting a client.
//
// Usage:
//
//	map-viz -mode pillars -out map.png
//	map-viz -file custom.json -out map.png
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/fogleman/gg"

	"github.com/jmdejong/battilde/internal/game"
)

const cellSize = 12

var tileColors = map[game.Tile][3]float64{
	game.TileDirt:      {0.55, 0.45, 0.30},
	game.TileStone:     {0.55, 0.55, 0.55},
	game.TileGrass1:    {0.30, 0.60, 0.25},
	game.TileGrass2:    {0.28, 0.55, 0.24},
	game.TileGrass3:    {0.33, 0.63, 0.28},
	game.TileSanctuary: {0.85, 0.80, 0.45},
	game.TileGate:      {0.70, 0.60, 0.35},
	game.TileWall:      {0.25, 0.25, 0.25},
	game.TileRubble:    {0.40, 0.38, 0.35},
	game.TileRock:      {0.35, 0.35, 0.40},
	game.TileWater:     {0.20, 0.40, 0.75},
}

func main() {
	mode := flag.String("mode", "survival", "game mode (coop|survival|pillars|pvp)")
	file := flag.String("file", "", "custom map template JSON (overrides builtin map)")
	mapName := flag.String("map", "square", "builtin map name")
	out := flag.String("out", "map.png", "output PNG path")
	seed := flag.Int64("seed", 0, "map RNG seed, 0 seeds from the clock")
	flag.Parse()

	gamemode, err := game.ParseGameMode(*mode)
	if err != nil {
		log.Fatal(err)
	}

	var mapType game.MapType
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			log.Fatal(err)
		}
		template, err := game.LoadTemplate(data)
		if err != nil {
			log.Fatal(err)
		}
		mapType = game.CustomMap(template)
	} else {
		mapType, err = game.ParseMapType(*mapName)
		if err != nil {
			log.Fatal(err)
		}
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))
	template := game.CreateMap(mapType, gamemode, rng)

	dc := gg.NewContext(template.Size.X*cellSize, template.Size.Y*cellSize)
	for y := 0; y < template.Size.Y; y++ {
		for x := 0; x < template.Size.X; x++ {
			tile := template.Ground.GetUnchecked(game.P(x, y))
			c := tileColors[tile]
			dc.SetRGB(c[0], c[1], c[2])
			dc.DrawRectangle(float64(x*cellSize), float64(y*cellSize), cellSize, cellSize)
			dc.Fill()
		}
	}

	// Spawnpoint marker
	dc.SetRGB(1, 1, 1)
	dc.DrawCircle(
		float64(template.Spawnpoint.X*cellSize)+cellSize/2,
		float64(template.Spawnpoint.Y*cellSize)+cellSize/2,
		cellSize/3,
	)
	dc.Fill()

	// Monster entry cells
	dc.SetRGB(0.9, 0.1, 0.1)
	for _, pos := range template.Monsterspawn {
		dc.DrawCircle(
			float64(pos.X*cellSize)+cellSize/2,
			float64(pos.Y*cellSize)+cellSize/2,
			cellSize/3,
		)
		dc.Fill()
	}

	// Pre-placed creatures
	dc.SetRGB(0.2, 0.2, 0.9)
	for _, placed := range template.Creatures {
		dc.DrawRectangle(
			float64(placed.Pos.X*cellSize)+cellSize/4,
			float64(placed.Pos.Y*cellSize)+cellSize/4,
			cellSize/2, cellSize/2,
		)
		dc.Fill()
	}

	if err := dc.SavePNG(*out); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wrote %s (%dx%d cells, seed %d)\n", *out, template.Size.X, template.Size.Y, *seed)
}
