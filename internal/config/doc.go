// Package config loads service settings from defaults, an optional YAML
// file and the environment, in that order. Secrets are only ever read from
// the environment (or a .env file).
package config
