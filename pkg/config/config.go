// Package config holds the settings of the task runner. Values come from
// defaults, an optional .taskrc.toml and TASK_* environment variables;
// anything invocation-specific stays on the command line.
package config

import (
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigtoml"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Config describes all configuration options.
type Config struct {
	Taskfile string `default:"" usage:"Path to the runfile (default: search upwards for tasks.yml)"`
	Log      struct {
		Level string `default:"info"`
		JSON  bool   `default:"false" usage:"Log NDJSON instead of pretty console messages"`
	}
	Watch struct {
		Lull  time.Duration `default:"300ms" usage:"Quiet period before a change batch triggers a re-run"`
		Clear bool          `default:"true" usage:"Clear the terminal before each watched run"`
	}
}

var logLevels = map[string]zerolog.Level{
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
	"fatal":   zerolog.FatalLevel,
}

// Loader initializes an empty config object and returns a new Loader for
// this object
func Loader() (*Config, *aconfig.Loader) {
	cfg := Config{}
	return &cfg, aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "TASK",
		SkipFlags: true,
		Files:     []string{".taskrc.toml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".toml": aconfigtoml.New(),
		},
	})
}

// Validate verifies that all config fields have valid values
func (cfg *Config) Validate() error {
	_, ok := logLevels[cfg.Log.Level]
	if !ok {
		return eris.Errorf(`invalid value for log.level: %s`, cfg.Log.Level)
	}

	if cfg.Watch.Lull <= 0 {
		return eris.Errorf("invalid value for watch.lull: %s", cfg.Watch.Lull)
	}

	return nil
}

// LogLevel converts the .Log.Level field to a zerolog.Level
func (cfg *Config) LogLevel() zerolog.Level {
	return logLevels[cfg.Log.Level]
}
