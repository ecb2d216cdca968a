package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// History backend choices.
const (
	BackendKV  = "kv"
	BackendWAL = "wal"
)

const (
	defaultDataDir = "./data"
	defaultGoalMl  = 2500
	defaultLang    = "en"
	minGoalMl      = 500
)

// Config describes how the tracker is wired: where documents live, which
// history backend is used and the defaults applied on first run.
type Config struct {
	// DataDir is the directory holding the per-key JSON documents.
	DataDir string
	// HistoryBackend is BackendKV (legacy-compatible array) or BackendWAL
	// (append-only per-record log).
	HistoryBackend string
	// WALDir is the history WAL directory, only used with BackendWAL.
	WALDir string
	// DefaultGoalMl is the daily goal before the user sets one.
	DefaultGoalMl int
	// DefaultLang is used when neither storage nor the device locale decide.
	DefaultLang string
	// DeviceLocale is the host locale tag ("tr-TR") used to pick the initial
	// language on first run.
	DeviceLocale string
	// MidnightRollover enables the cron-driven rollover for long-running
	// processes.
	MidnightRollover bool
}

type configTmp struct {
	DataDir          string `yaml:"data_dir"`
	HistoryBackend   string `yaml:"history_backend"`
	WALDir           string `yaml:"wal_dir"`
	DefaultGoalMl    int    `yaml:"default_goal_ml"`
	DefaultLang      string `yaml:"default_lang"`
	DeviceLocale     string `yaml:"device_locale"`
	MidnightRollover bool   `yaml:"midnight_rollover"`
}

// Default returns the configuration used when nothing else is provided.
// GYMLEDGER_DATA_DIR (from the environment or a .env file) overrides the
// data directory.
func Default() Config {
	_ = godotenv.Load()

	dataDir := defaultDataDir
	if env := os.Getenv("GYMLEDGER_DATA_DIR"); env != "" {
		dataDir = env
	}

	return Config{
		DataDir:        dataDir,
		HistoryBackend: BackendKV,
		WALDir:         filepath.Join(dataDir, "history"),
		DefaultGoalMl:  defaultGoalMl,
		DefaultLang:    defaultLang,
	}
}

// Load reads a yaml config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	payload, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config file")
	}

	var tmp configTmp
	if err := yaml.Unmarshal(payload, &tmp); err != nil {
		return Config{}, errors.Wrap(err, "decode config file")
	}

	if tmp.DataDir != "" {
		cfg.DataDir = tmp.DataDir
		cfg.WALDir = filepath.Join(tmp.DataDir, "history")
	}
	if tmp.HistoryBackend != "" {
		cfg.HistoryBackend = tmp.HistoryBackend
	}
	if tmp.WALDir != "" {
		cfg.WALDir = tmp.WALDir
	}
	if tmp.DefaultGoalMl != 0 {
		cfg.DefaultGoalMl = tmp.DefaultGoalMl
	}
	if tmp.DefaultLang != "" {
		cfg.DefaultLang = tmp.DefaultLang
	}
	if tmp.DeviceLocale != "" {
		cfg.DeviceLocale = tmp.DeviceLocale
	}
	cfg.MidnightRollover = tmp.MidnightRollover

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the configuration for values the tracker cannot work with.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("config: data_dir is required")
	}

	switch c.HistoryBackend {
	case BackendKV:
	case BackendWAL:
		if c.WALDir == "" {
			return errors.New("config: wal_dir is required for the wal backend")
		}
	default:
		return errors.Errorf("config: unknown history backend %q", c.HistoryBackend)
	}

	if c.DefaultGoalMl < minGoalMl {
		return errors.Errorf("config: default goal %d ml is below the %d ml minimum",
			c.DefaultGoalMl, minGoalMl)
	}

	return nil
}
