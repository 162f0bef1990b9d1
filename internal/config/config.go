// Package config provides the game, server and registry settings: typed
// defaults with environment variable overrides. The debug-server switch
// (DISABLE_DEBUG_SERVER) is not part of it; cmd/server reads that variable
// directly.
package config

import (
	"os"
	"strconv"
)

// GameConfig holds the simulation settings.
type GameConfig struct {
	GameMode   string // coop|survival|pillars|pvp
	Map        string // builtin map name
	MapFile    string // path to a custom map template, overrides Map
	StepMillis int    // tick interval in milliseconds
	Seed       int64  // RNG seed; 0 means seed from the clock
}

// DefaultGame returns the default game configuration.
func DefaultGame() GameConfig {
	return GameConfig{
		GameMode:   "survival",
		Map:        "square",
		StepMillis: 100,
	}
}

// GameFromEnv returns game configuration with environment variable
// overrides.
func GameFromEnv() GameConfig {
	cfg := DefaultGame()

	if m := os.Getenv("GAMEMODE"); m != "" {
		cfg.GameMode = m
	}
	if m := os.Getenv("MAP"); m != "" {
		cfg.Map = m
	}
	if f := os.Getenv("MAP_FILE"); f != "" {
		cfg.MapFile = f
	}
	if ms := getEnvInt("STEP_MS", 0); ms > 0 {
		cfg.StepMillis = ms
	}
	if seed := getEnvInt64("SEED", 0); seed != 0 {
		cfg.Seed = seed
	}

	return cfg
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int
	MaxClients   int
	ClientsPerIP int
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:         9021,
		MaxClients:   500,
		ClientsPerIP: 10,
	}
}

// ServerFromEnv returns server configuration with environment variable
// overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if mc := getEnvInt("MAX_CLIENTS", 0); mc > 0 {
		cfg.MaxClients = mc
	}
	if per := getEnvInt("CLIENTS_PER_IP", 0); per > 0 {
		cfg.ClientsPerIP = per
	}

	return cfg
}

// RegistryConfig holds player registry settings.
type RegistryConfig struct {
	Path string // sqlite database path
}

// DefaultRegistry returns the default registry configuration.
func DefaultRegistry() RegistryConfig {
	return RegistryConfig{Path: "players.db"}
}

// RegistryFromEnv returns registry configuration with environment variable
// overrides.
func RegistryFromEnv() RegistryConfig {
	cfg := DefaultRegistry()
	if p := os.Getenv("REGISTRY_PATH"); p != "" {
		cfg.Path = p
	}
	return cfg
}

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Game     GameConfig
	Server   ServerConfig
	Registry RegistryConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Game:     GameFromEnv(),
		Server:   ServerFromEnv(),
		Registry: RegistryFromEnv(),
	}
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}
