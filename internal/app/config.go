package app

import (
	"errors"
	"fmt"
)

// Commands the application knows how to run.
const (
	CommandValidate = "validate"
	CommandShow     = "show"
	CommandSpawn    = "spawn"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Command string
	Paths   []string // prefab files or directories holding them

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	switch cfg.Command {
	case CommandValidate, CommandShow, CommandSpawn:
	default:
		return nil, fmt.Errorf("unknown command %q", cfg.Command)
	}
	if len(cfg.Paths) == 0 {
		return nil, errors.New("at least one prefab path is required")
	}
	return &cfg, nil
}
