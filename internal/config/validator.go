package config

import (
	"fmt"
	"strings"

	"github.com/gyaneshwarpardhi/surveyflow/internal/logging"
	"github.com/gyaneshwarpardhi/surveyflow/internal/validator"
)

// Validate checks the config for:
//   - Required fields
//   - Known validation strictness, storage driver and log level
//   - A usable staircase layout
func Validate(cfg *Config) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string

	if cfg.Server.Addr == "" {
		errs = append(errs, "server.addr is required")
	}
	timeouts := []struct {
		name string
		ms   int
	}{
		{"server.read_timeout_ms", cfg.Server.ReadTimeoutMs},
		{"server.write_timeout_ms", cfg.Server.WriteTimeoutMs},
		{"server.shutdown_timeout_ms", cfg.Server.ShutdownTimeoutMs},
	}
	for _, t := range timeouts {
		if t.ms < 0 {
			errs = append(errs, fmt.Sprintf("%s must not be negative", t.name))
		}
	}
	if _, err := validator.ParseStrictness(cfg.Validation.Strictness); err != nil {
		errs = append(errs, "validation.strictness: "+err.Error())
	}
	switch cfg.Storage.Driver {
	case "memory":
	case "file":
		if cfg.Storage.Dir == "" {
			errs = append(errs, "storage.dir is required for the file driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.driver %q is not one of file, memory", cfg.Storage.Driver))
	}
	if cfg.Layout.StepX <= 0 || cfg.Layout.StepY <= 0 {
		errs = append(errs, "layout.step_x and layout.step_y must be positive")
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, "log.level: "+err.Error())
	}
	if cfg.Runs.MaxActive < 0 {
		errs = append(errs, "runs.max_active must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
