// Package config reads nutrilog settings from the environment and an optional .env file.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvDB        = "NUTRILOG_DB"
	EnvUser      = "NUTRILOG_USER"
	EnvLogLevel  = "NUTRILOG_LOG_LEVEL"
	EnvProviders = "NUTRILOG_PROVIDERS"
	EnvUSDAKey   = "USDA_API_KEY"
	EnvUPCKey    = "UPCITEMDB_API_KEY"

	DefaultLogLevel  = "warn"
	DefaultProviders = "openfoodfacts,usda"
)

type Config struct {
	DBPath          string
	UserID          string
	LogLevel        string
	Providers       []string
	USDAAPIKey      string
	UPCItemDBAPIKey string
}

// Load reads .env files (missing files are ignored) and then the process
// environment. Variables already set in the environment win over .env.
func Load(files ...string) Config {
	_ = godotenv.Load(files...)
	return FromEnv()
}

func FromEnv() Config {
	return Config{
		DBPath:          strings.TrimSpace(os.Getenv(EnvDB)),
		UserID:          strings.TrimSpace(os.Getenv(EnvUser)),
		LogLevel:        firstNonEmpty(strings.TrimSpace(os.Getenv(EnvLogLevel)), DefaultLogLevel),
		Providers:       ParseList(os.Getenv(EnvProviders)),
		USDAAPIKey:      strings.TrimSpace(os.Getenv(EnvUSDAKey)),
		UPCItemDBAPIKey: strings.TrimSpace(os.Getenv(EnvUPCKey)),
	}
}

// ParseList splits a comma separated list, lowercasing and dropping blanks.
func ParseList(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// FirstNonEmpty resolves a setting by precedence: earlier values win.
func FirstNonEmpty(values ...string) string {
	return firstNonEmpty(values...)
}
