package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env       string `yaml:"env"` // "dev" | "prod"
	StationID string `yaml:"station_id"`

	// Record store
	Store          string   `yaml:"store"` // "sqlite" | "grpc" | "memory"
	DBPath         string   `yaml:"db_path"`
	StoreAddr      string   `yaml:"store_addr"`
	StoreListen    string   `yaml:"store_listen"`
	StoreToken     string   `yaml:"store_token"`
	StoreTLS       bool     `yaml:"store_tls"`
	KnownStations  []string `yaml:"known_stations"`
	StoreTimeoutMS int      `yaml:"store_timeout_ms"`
	SeedFile       string   `yaml:"seed_file"`

	// Station surface
	HTTPAddr        string `yaml:"http_addr"`
	Decoder         string `yaml:"decoder"` // "lines" | "frames"
	FramesDir       string `yaml:"frames_dir"`
	FPS             int    `yaml:"fps"`
	DisplayWindowMS int    `yaml:"display_window_ms"`
	NoColor         bool   `yaml:"no_color"`

	// Audit log retention
	EventRetentionDays int `yaml:"event_retention_days"` // 0 = keep forever
	PruneIntervalHours int `yaml:"prune_interval_hours"`
}

func defaults() Config {
	return Config{
		Env:                "dev",
		StationID:          "station-1",
		Store:              "sqlite",
		DBPath:             "./data/janus.db",
		StoreAddr:          "localhost:7443",
		StoreListen:        ":7443",
		StoreTimeoutMS:     5000,
		HTTPAddr:           ":8080",
		Decoder:            "lines",
		FramesDir:          "./frames",
		FPS:                10,
		DisplayWindowMS:    4000,
		EventRetentionDays: 90,
		PruneIntervalHours: 6,
	}
}

// FromEnv builds a Config from defaults and JANUS_* variables only.
func FromEnv() Config {
	cfg := defaults()
	applyEnv(&cfg)
	normalize(&cfg)
	return cfg
}

// Load layers defaults, the YAML file at path (or $JANUS_CONFIG when path
// is empty) and the environment, in that order.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path == "" {
		path = strings.TrimSpace(os.Getenv("JANUS_CONFIG"))
	}
	if path != "" {
		if err := readFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	normalize(&cfg)
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Env = strings.ToLower(getenvDefault("JANUS_ENV", cfg.Env))
	cfg.StationID = getenvDefault("JANUS_STATION_ID", cfg.StationID)

	cfg.Store = strings.ToLower(getenvDefault("JANUS_STORE", cfg.Store))
	cfg.DBPath = getenvDefault("JANUS_DB_PATH", cfg.DBPath)
	cfg.StoreAddr = getenvDefault("JANUS_STORE_ADDR", cfg.StoreAddr)
	cfg.StoreListen = getenvDefault("JANUS_STORE_LISTEN", cfg.StoreListen)
	cfg.StoreToken = getenvDefault("JANUS_STORE_TOKEN", cfg.StoreToken)
	cfg.StoreTLS = getenvBool("JANUS_STORE_TLS", cfg.StoreTLS)
	if v := splitCSV(os.Getenv("JANUS_KNOWN_STATIONS")); v != nil {
		cfg.KnownStations = v
	}
	cfg.StoreTimeoutMS = getenvInt("JANUS_STORE_TIMEOUT_MS", cfg.StoreTimeoutMS)
	cfg.SeedFile = getenvDefault("JANUS_SEED_FILE", cfg.SeedFile)

	cfg.HTTPAddr = getenvDefault("JANUS_HTTP_ADDR", cfg.HTTPAddr)
	cfg.Decoder = strings.ToLower(getenvDefault("JANUS_DECODER", cfg.Decoder))
	cfg.FramesDir = getenvDefault("JANUS_FRAMES_DIR", cfg.FramesDir)
	cfg.FPS = getenvInt("JANUS_FPS", cfg.FPS)
	cfg.DisplayWindowMS = getenvInt("JANUS_DISPLAY_WINDOW_MS", cfg.DisplayWindowMS)
	cfg.NoColor = getenvBool("JANUS_NO_COLOR", cfg.NoColor)

	cfg.EventRetentionDays = getenvInt("JANUS_EVENT_RETENTION_DAYS", cfg.EventRetentionDays)
	cfg.PruneIntervalHours = getenvInt("JANUS_PRUNE_INTERVAL_HOURS", cfg.PruneIntervalHours)
}

func normalize(cfg *Config) {
	if cfg.Env != "dev" && cfg.Env != "prod" {
		// fail-soft: treat unknown as dev
		cfg.Env = "dev"
	}
	cfg.StationID = strings.TrimSpace(cfg.StationID)

	d := defaults()
	if cfg.FPS <= 0 {
		cfg.FPS = d.FPS
	}
	if cfg.DisplayWindowMS <= 0 {
		cfg.DisplayWindowMS = d.DisplayWindowMS
	}
	if cfg.StoreTimeoutMS <= 0 {
		cfg.StoreTimeoutMS = d.StoreTimeoutMS
	}
	if cfg.PruneIntervalHours <= 0 {
		cfg.PruneIntervalHours = d.PruneIntervalHours
	}
	if cfg.EventRetentionDays < 0 {
		cfg.EventRetentionDays = 0
	}
}

// Validate reports settings that cannot be defaulted away.
func (c Config) Validate() error {
	switch c.Store {
	case "sqlite", "grpc", "memory":
	default:
		return fmt.Errorf("config: unknown store %q", c.Store)
	}
	switch c.Decoder {
	case "lines", "frames":
	default:
		return fmt.Errorf("config: unknown decoder %q", c.Decoder)
	}
	if c.StationID == "" {
		return errors.New("config: station_id is required")
	}
	if c.Env == "prod" && c.StoreToken == "" && c.Store == "grpc" {
		return errors.New("config: store_token is required in prod")
	}
	if c.Env == "prod" && c.Store == "memory" {
		return errors.New("config: memory store is dev only")
	}
	return nil
}

func (c Config) DisplayWindow() time.Duration {
	return time.Duration(c.DisplayWindowMS) * time.Millisecond
}

func (c Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMS) * time.Millisecond
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getenvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return strings.EqualFold(v, "true") || v == "1"
}

func splitCSV(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
