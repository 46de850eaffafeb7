package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/targetkit/targetkit/core/broker"
	"github.com/targetkit/targetkit/core/config"
	"github.com/targetkit/targetkit/pkg/logger"
)

func runLogin(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("login", pflag.ContinueOnError)
	user := flags.StringP("user", "u", "", "login name (overrides TTB_USER)")
	password := flags.StringP("password", "p", "", "password (overrides TTB_PASSWORD; prefer the environment)")
	batch := flags.BoolP("batch", "q", false, "never prompt, fail when credentials are missing")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: targetctl login [flags]\n\n"+
			"Logs into every configured broker. Credentials come from --user/--password,\n"+
			"TTB_USER_<aka>/TTB_PASSWORD_<aka>, TTB_USER/TTB_PASSWORD or the terminal.\n\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return err
	}

	c, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer c.saveState(ctx)

	var prompt config.Prompter
	if !*batch {
		prompt = config.TerminalPrompter{}
	}

	failed := 0
	for _, session := range c.sessions {
		if session.ValidateSession(ctx, false) {
			c.log.Info("already logged in", logger.Broker(session.Aka()))
			continue
		}
		creds, err := config.ResolveCredentials(session.URL(), session.Aka(), *user, *password, prompt)
		if err != nil {
			return err
		}
		ok, err := session.Login(ctx, creds.User, creds.Password)
		if err != nil {
			return fmt.Errorf("%s: %w", session.Aka(), err)
		}
		if !ok {
			c.log.Error("login rejected", logger.Broker(session.Aka()))
			failed++
			continue
		}
		c.log.Info("logged in", logger.Broker(session.Aka()), logger.URL(session.URL()))
	}
	if failed > 0 {
		return fmt.Errorf("%w by %d broker(s)", broker.ErrAuthFailure, failed)
	}
	return nil
}
