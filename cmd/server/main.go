package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/jmdejong/battilde/internal/api"
	"github.com/jmdejong/battilde/internal/config"
	"github.com/jmdejong/battilde/internal/game"
	"github.com/jmdejong/battilde/internal/registry"
)

var rootCmd = &cobra.Command{
	Use:   "battilde",
	Short: "Multiplayer terminal shooter server",
	Long:  "Authoritative tick-driven world simulation for the battilde terminal shooter.",
	RunE:  runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the game server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var statsAddr string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Query a running server and print the player table",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsAddr, "addr", "http://localhost:9021", "base URL of the running server")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  BATTILDE SERVER")
	log.Println("🎮 ================================")

	appConfig := config.Load()
	gameCfg := appConfig.Game
	serverCfg := appConfig.Server

	gamemode, err := game.ParseGameMode(gameCfg.GameMode)
	if err != nil {
		return err
	}

	mapType, err := resolveMap(gameCfg)
	if err != nil {
		return err
	}

	seed := gameCfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	log.Printf("🗺️ Game mode: %s, map: %s, tick: %dms, seed: %d",
		gamemode, gameCfg.Map, gameCfg.StepMillis, seed)

	reg, err := registry.Open(appConfig.Registry.Path)
	if err != nil {
		return err
	}
	defer reg.Close()
	log.Printf("💾 Player registry: %s", appConfig.Registry.Path)

	world := game.NewWorld(gamemode, mapType, rng)
	hub := api.NewHub(reg)
	engine := game.NewEngine(world, time.Duration(gameCfg.StepMillis)*time.Millisecond, hub)
	hub.BindEngine(engine)
	engine.SetTickObserver(api.ObserveTickDuration)

	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		if err := api.StartDebugServer(api.DefaultObservabilityConfig()); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}
	stopSampler := api.StartStatsSampler(engine)
	defer stopSampler()

	server := api.NewServer(engine, hub)

	engine.Start()
	log.Println("✅ Simulation engine started")

	go func() {
		addr := ":" + strconv.Itoa(serverCfg.Port)
		log.Printf("🌐 Listening on http://localhost%s (websocket on /ws)", addr)
		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	engine.Stop()
	server.Stop()
	log.Println("👋 Goodbye!")
	return nil
}

// resolveMap picks the custom template file when configured, the builtin map
// otherwise.
func resolveMap(cfg config.GameConfig) (game.MapType, error) {
	if cfg.MapFile != "" {
		data, err := os.ReadFile(cfg.MapFile)
		if err != nil {
			return game.MapType{}, err
		}
		template, err := game.LoadTemplate(data)
		if err != nil {
			return game.MapType{}, err
		}
		return game.CustomMap(template), nil
	}
	return game.ParseMapType(cfg.Map)
}

func runStats(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	var stats game.WorldStats
	if err := fetchJSON(client, statsAddr+"/api/state", &stats); err != nil {
		return err
	}
	var players []game.PlayerInfo
	if err := fetchJSON(client, statsAddr+"/api/players", &players); err != nil {
		return err
	}

	fmt.Printf("mode=%s state=%s tick=%d wave=%d creatures=%d monsters=%d bullets=%d\n\n",
		stats.GameMode, stats.RoundState, stats.Time, stats.Wave,
		stats.Creatures, stats.Monsters, stats.Bullets)

	if len(players) == 0 {
		fmt.Println("No players connected.")
		return nil
	}

	table := tablewriter.NewTable(os.Stdout)
	table.Header("NAME", "POS", "HEALTH", "WEAPON", "ALIVE")
	for _, p := range players {
		table.Append(
			p.Name,
			fmt.Sprintf("(%d,%d)", p.X, p.Y),
			fmt.Sprintf("%d/%d", p.Health, p.MaxHealth),
			p.Weapon,
			fmt.Sprintf("%v", p.Alive),
		)
	}
	table.Render()
	return nil
}

func fetchJSON(client *http.Client, url string, out any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
