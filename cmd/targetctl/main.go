// Command targetctl drives remote target brokers: list and select
// hardware targets, acquire and release them, manage login sessions.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/targetkit/targetkit/core/broker"
	"github.com/targetkit/targetkit/core/cache"
	"github.com/targetkit/targetkit/core/config"
	"github.com/targetkit/targetkit/core/statestore"
	"github.com/targetkit/targetkit/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "targetctl: error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		printUsage()
		return fmt.Errorf("subcommand required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "list":
		return runList(ctx, os.Args[2:])
	case "acquire":
		return runAcquire(ctx, os.Args[2:])
	case "release":
		return runRelease(ctx, os.Args[2:])
	case "login":
		return runLogin(ctx, os.Args[2:])
	case "logout":
		return runLogout(ctx, os.Args[2:])
	case "-h", "--help", "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand: %q", os.Args[1])
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: targetctl <subcommand> [flags] [args]

Subcommands:
  list      List targets, optionally filtered by selection expressions
  acquire   Acquire ownership of targets by id or fullid
  release   Release ownership of targets
  login     Log into all configured brokers
  logout    Log out of all configured brokers

Configuration comes from the environment (TTB_*) and the broker
inventory file (default ~/.targetkit/brokers.yaml).

Run 'targetctl <subcommand> --help' for subcommand flags.
`)
}

// client bundles everything a subcommand needs: the configured broker
// sessions, the multi-broker cache over them and the state store that
// persists their cookies.
type client struct {
	settings config.Settings
	store    statestore.Store
	sessions []*broker.Session
	cache    *cache.Cache
	log      *slog.Logger
}

func newClient(ctx context.Context) (*client, error) {
	var settings config.Settings
	if err := config.Load(&settings); err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if settings.Debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	inv, err := config.LoadInventory(settings.InventoryOrDefault())
	if err != nil {
		return nil, err
	}

	var store statestore.Store
	if settings.RedisURL != "" {
		opts, err := redis.ParseURL(settings.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("TTB_REDIS_URL: %w", err)
		}
		store = statestore.NewRedisStore(redis.NewClient(opts), 0, log)
	} else {
		store = statestore.NewFileStore(settings.StateDirOrDefault(), log)
	}

	sessions := make([]*broker.Session, 0, len(inv.Brokers))
	for _, cfg := range inv.SessionConfigs(settings.Timeout) {
		session, err := broker.New(cfg, broker.WithLogger(log))
		if err != nil {
			return nil, err
		}
		if err := session.LoadState(ctx, store); err != nil {
			log.Warn("cannot load state", logger.Broker(session.Aka()), logger.Error(err))
		}
		sessions = append(sessions, session)
	}

	targets, err := cache.New(sessions, cache.WithLogger(log))
	if err != nil {
		return nil, err
	}
	return &client{
		settings: settings,
		store:    store,
		sessions: sessions,
		cache:    targets,
		log:      log,
	}, nil
}

// saveState persists every session's cookies before exit; failures are
// reported but never abort the command that just succeeded.
func (c *client) saveState(ctx context.Context) {
	for _, session := range c.sessions {
		if err := session.SaveState(ctx, c.store); err != nil {
			c.log.Warn("cannot save state", logger.Broker(session.Aka()), logger.Error(err))
		}
	}
}
