// Package config assembles the client's configuration surface: process
// settings from the environment, the broker inventory from a YAML file,
// and login credentials from a layered resolution chain.
//
// Environment loading is type-safe and cached per struct type:
//
//	var s config.Settings
//	config.MustLoad(&s)
//
// A .env file in the working directory is folded into the environment
// on first use.
//
// Credentials resolve in increasing priority: general environment
// (TTB_USER / TTB_PASSWORD), per-alias environment overrides
// (TTB_USER_<aka> / TTB_PASSWORD_<aka>), command-line values, and
// finally an interactive prompt. The prompt refuses to run when stdin
// is not a terminal, so batch jobs fail fast instead of hanging.
package config
