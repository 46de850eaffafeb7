package config

import (
	"os"
	"path/filepath"
	"time"
)

// Settings is the process-wide client configuration read from the
// environment.
type Settings struct {
	// StateDir holds per-broker cookie state files. Empty selects
	// ~/.targetkit.
	StateDir string `env:"TTB_STATE_DIR"`
	// Inventory is the path of the broker inventory file. Empty selects
	// ~/.targetkit/brokers.yaml.
	Inventory string `env:"TTB_INVENTORY"`
	// Timeout bounds each broker HTTP call.
	Timeout time.Duration `env:"TTB_TIMEOUT" envDefault:"8m"`
	// RedisURL, when set, switches cookie state to a Redis store at
	// this address instead of StateDir.
	RedisURL string `env:"TTB_REDIS_URL"`
	// Debug raises log verbosity to debug level.
	Debug bool `env:"TTB_DEBUG"`
}

// defaultDir is where state and inventory live unless overridden.
const defaultDir = ".targetkit"

// StateDirOrDefault returns StateDir, defaulting under the user's home.
func (s Settings) StateDirOrDefault() string {
	if s.StateDir != "" {
		return s.StateDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultDir
	}
	return filepath.Join(home, defaultDir)
}

// InventoryOrDefault returns the inventory path, defaulting under the
// state directory.
func (s Settings) InventoryOrDefault() string {
	if s.Inventory != "" {
		return s.Inventory
	}
	return filepath.Join(s.StateDirOrDefault(), "brokers.yaml")
}
