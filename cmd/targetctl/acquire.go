package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/targetkit/targetkit/pkg/logger"
)

func runAcquire(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("acquire", pflag.ContinueOnError)
	ticket := flags.StringP("ticket", "t", "", "allocation ticket to acquire under")
	newTicket := flags.Bool("new-ticket", false, "generate a fresh allocation ticket and print it")
	force := flags.BoolP("force", "f", false, "steal the target from its current owner (admin only)")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: targetctl acquire [flags] TARGET [TARGET ...]\n\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return fmt.Errorf("at least one target required")
	}
	if *newTicket {
		*ticket = uuid.NewString()
		fmt.Printf("ticket: %s\n", *ticket)
	}

	c, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer c.saveState(ctx)

	for _, id := range flags.Args() {
		t, err := c.cache.Get(ctx, id)
		if err != nil {
			return err
		}
		session, ok := c.cache.SessionFor(t)
		if !ok {
			return fmt.Errorf("%s: no session for broker %q", t.FullID, t.Aka)
		}
		if err := session.Acquire(ctx, t.ID, *ticket, *force); err != nil {
			return fmt.Errorf("%s: %w", t.FullID, err)
		}
		c.log.Info("acquired", logger.Target(t.FullID))
	}
	c.cache.Invalidate()
	return nil
}

func runRelease(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("release", pflag.ContinueOnError)
	ticket := flags.StringP("ticket", "t", "", "allocation ticket the target was acquired under")
	force := flags.BoolP("force", "f", false, "release somebody else's target (admin only)")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: targetctl release [flags] TARGET [TARGET ...]\n\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return fmt.Errorf("at least one target required")
	}

	c, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer c.saveState(ctx)

	for _, id := range flags.Args() {
		t, err := c.cache.Get(ctx, id)
		if err != nil {
			return err
		}
		session, ok := c.cache.SessionFor(t)
		if !ok {
			return fmt.Errorf("%s: no session for broker %q", t.FullID, t.Aka)
		}
		if err := session.Release(ctx, t.ID, *ticket, *force); err != nil {
			return fmt.Errorf("%s: %w", t.FullID, err)
		}
		c.log.Info("released", logger.Target(t.FullID))
	}
	c.cache.Invalidate()
	return nil
}
