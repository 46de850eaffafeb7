package config

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	cache      sync.Map // reflect.Type → parsed value
	dotenvOnce sync.Once
)

// Load parses environment variables into cfg using its `env` struct
// tags. Each struct type is parsed once per process and cached; later
// calls return the cached value so configuration stays consistent for
// the process lifetime.
func Load[T any](cfg *T) error {
	dotenvOnce.Do(func() {
		// Missing .env files are the normal case.
		_ = godotenv.Load()
	})

	key := reflect.TypeOf(*cfg)
	if cached, ok := cache.Load(key); ok {
		*cfg = cached.(T)
		return nil
	}
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: parsing %s: %w", key, err)
	}
	actual, _ := cache.LoadOrStore(key, *cfg)
	*cfg = actual.(T)
	return nil
}

// MustLoad is Load panicking on failure, for process startup paths
// where a broken environment should stop everything.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
