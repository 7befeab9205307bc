package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	log "github.com/sirupsen/logrus"
)

// Env holds the settings taken from the process environment. They
// override the input file where both apply.
type Env struct {
	Workers      int    `env:"MOC_WORKERS" envDefault:"0"`
	LogLevel     string `env:"MOC_LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"MOC_LOG_FORMAT" envDefault:"text"`
	CheckpointDB string `env:"MOC_CHECKPOINT_DB" envDefault:"moc.db"`
	MonitorAddr  string `env:"MOC_MONITOR_ADDR"`
	OTLPEndpoint string `env:"MOC_OTEL_ENDPOINT"`
	OutputDir    string `env:"MOC_OUTPUT_DIR" envDefault:"out"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadEnv parses an Env.
func LoadEnv() (Env, error) {
	var e Env
	err := ParseEnv(&e)
	return e, err
}

// SetupLogging configures the standard logger. format is "text" or
// "json".
func SetupLogging(level, format string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(lvl)
	switch strings.ToLower(format) {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("log format %q: want text or json", format)
	}
	log.SetOutput(os.Stderr)
	return nil
}
