// Package config loads typed configuration structs from environment
// variables, with optional .env file support for local development.
//
// Configuration structs declare their sources with `env` tags from
// github.com/caarlos0/env; config.Load parses them and config.MustLoad
// panics on failure for settings the process cannot start without.
package config
