package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/targetkit/targetkit/pkg/logger"
)

func runLogout(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("logout", pflag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: targetctl logout\n\n"+
			"Logs out of every configured broker and drops the persisted cookies.\n")
	}
	if err := flags.Parse(args); err != nil {
		return err
	}

	c, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer c.saveState(ctx)

	for _, session := range c.sessions {
		if err := session.Logout(ctx); err != nil {
			c.log.Warn("logout failed, dropping local state anyway",
				logger.Broker(session.Aka()), logger.Error(err))
			continue
		}
		c.log.Info("logged out", logger.Broker(session.Aka()))
	}
	return nil
}
