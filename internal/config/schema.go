package config

import (
	"time"

	"github.com/gyaneshwarpardhi/surveyflow/internal/transform"
)

// Config is the top-level YAML structure.
type Config struct {
	Version    string           `yaml:"version"`
	Server     ServerConf       `yaml:"server"`
	Validation ValidationConf   `yaml:"validation"`
	Storage    StorageConf      `yaml:"storage"`
	Layout     transform.Layout `yaml:"layout"`
	Log        LogConf          `yaml:"log"`
	Runs       RunsConf         `yaml:"runs"`
}

// ServerConf holds HTTP listener settings.
type ServerConf struct {
	Addr              string `yaml:"addr"`
	ReadTimeoutMs     int    `yaml:"read_timeout_ms"`
	WriteTimeoutMs    int    `yaml:"write_timeout_ms"`
	ShutdownTimeoutMs int    `yaml:"shutdown_timeout_ms"`
}

func (s ServerConf) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutMs) * time.Millisecond
}

func (s ServerConf) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutMs) * time.Millisecond
}

func (s ServerConf) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutMs) * time.Millisecond
}

// ValidationConf selects the validator variant run after each edit.
// Export always runs the full variant.
type ValidationConf struct {
	Strictness string `yaml:"strictness"` // full | quick
}

// StorageConf selects where documents are saved.
type StorageConf struct {
	Driver string `yaml:"driver"` // file | memory
	Dir    string `yaml:"dir"`
	// Import is an optional document (.json, .yaml) loaded into the editor at startup.
	Import string `yaml:"import"`
}

type LogConf struct {
	Level string `yaml:"level"`
}

// RunsConf bounds the respondent runs kept in memory.
type RunsConf struct {
	MaxActive int `yaml:"max_active"`
}
