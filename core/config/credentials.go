package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNoCredentials is returned when no credential source can produce a
// user name or password.
var ErrNoCredentials = errors.New("cannot obtain credentials")

// Credentials is one user/password pair for a broker login.
type Credentials struct {
	User     string
	Password string
}

// Prompter interactively asks for missing credentials. A nil Prompter
// disables prompting (batch mode).
type Prompter interface {
	User(domain string) (string, error)
	Password(user, domain string) (string, error)
}

// ResolveCredentials builds the credentials for the broker aliased aka
// at domain. Sources in increasing priority: general environment,
// per-alias environment override, command-line values, interactive
// prompt for whatever is still missing.
func ResolveCredentials(domain, aka, cliUser, cliPassword string, prompt Prompter) (Credentials, error) {
	creds := Credentials{
		User:     os.Getenv("TTB_USER"),
		Password: os.Getenv("TTB_PASSWORD"),
	}
	if v := os.Getenv("TTB_USER_" + aka); v != "" {
		creds.User = v
	}
	if v := os.Getenv("TTB_PASSWORD_" + aka); v != "" {
		creds.Password = v
	}
	if cliUser != "" {
		creds.User = cliUser
	}
	if cliPassword != "" {
		creds.Password = cliPassword
	}

	if creds.User == "" {
		if prompt == nil {
			return Credentials{}, fmt.Errorf(
				"%w: no login name for %s; set TTB_USER[_%s] or pass one", ErrNoCredentials, domain, aka)
		}
		user, err := prompt.User(domain)
		if err != nil {
			return Credentials{}, errors.Join(ErrNoCredentials, err)
		}
		creds.User = user
	}
	if creds.Password == "" {
		if prompt == nil {
			return Credentials{}, fmt.Errorf(
				"%w: no password for %s; set TTB_PASSWORD[_%s] or pass one", ErrNoCredentials, domain, aka)
		}
		password, err := prompt.Password(creds.User, domain)
		if err != nil {
			return Credentials{}, errors.Join(ErrNoCredentials, err)
		}
		creds.Password = password
	}
	return creds, nil
}

// TerminalPrompter asks on the controlling terminal, refusing to ask
// when stdin is not one.
type TerminalPrompter struct{}

func (TerminalPrompter) User(domain string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("stdin is not a terminal, cannot ask for a login name for %s", domain)
	}
	fmt.Fprintf(os.Stderr, "Login for %s: ", domain)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	user := strings.TrimSpace(line)
	if user == "" {
		return "", errors.New("empty login name")
	}
	return user, nil
}

func (TerminalPrompter) Password(user, domain string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("stdin is not a terminal, cannot ask for a password for %s", domain)
	}
	fmt.Fprintf(os.Stderr, "Password for %s at %s: ", user, domain)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(secret), nil
}
