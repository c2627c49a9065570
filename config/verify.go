package config

import (
	"errors"
	"fmt"
	"os"
)

var (
	ErrEmptyServerCommand = errors.New("server.command must not be empty")
	ErrServerDirNotFound  = errors.New("server.directory does not exist")
	ErrUnknownJoinMethod  = errors.New("join.methods contains an unrecognized method")
	ErrVersionMismatch    = errors.New("config.version does not match this build")
)

var validJoinMethods = map[string]bool{
	"hold":    true,
	"kick":    true,
	"forward": true,
	"lobby":   true,
}

// Verify validates a Config the way `lazymc config test` does: catch
// obvious misconfiguration before any process is spawned or socket
// opened. Version mismatches are reported but are not fatal.
func Verify(cfg Config) (warnings []error, err error) {
	if cfg.Server.Command == "" {
		return warnings, ErrEmptyServerCommand
	}

	if info, statErr := os.Stat(cfg.Server.Directory); statErr != nil || !info.IsDir() {
		return warnings, fmt.Errorf("%w: %s", ErrServerDirNotFound, cfg.Server.Directory)
	}

	for _, method := range cfg.Join.Methods {
		if !validJoinMethods[method] {
			return warnings, fmt.Errorf("%w: %q", ErrUnknownJoinMethod, method)
		}
	}

	if cfg.Config.Version != "" && cfg.Config.Version != ConfigVersion {
		warnings = append(warnings, fmt.Errorf("%w: file has %q, build expects %q", ErrVersionMismatch, cfg.Config.Version, ConfigVersion))
	}

	return warnings, nil
}
