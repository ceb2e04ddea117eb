package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/josephlewis42/myshell/core/executor"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"

	// EnvPrefix is prepended to the env tag of every overridable field.
	EnvPrefix = "MYSHELL_"
)

type Configuration struct {
	configurationDir string
	configFs         afero.Fs

	// Name is used in the banner, the \s prompt escape and diagnostics.
	Name string `json:"name" env:"NAME" validate:"required,excludesall=/"`
	// Prompt template, see core.ExpandPrompt.
	Prompt      string `json:"prompt" env:"PROMPT"`
	ColorPrompt bool   `json:"color_prompt" env:"COLOR_PROMPT"`
	Banner      bool   `json:"banner" env:"BANNER"`

	// HistoryFile and EventLog are relative to the configuration directory,
	// empty disables them.
	HistoryFile string `json:"history_file" env:"HISTORY_FILE"`
	EventLog    string `json:"event_log" env:"EVENT_LOG"`

	SubshellStatus string `json:"subshell_status" env:"SUBSHELL_STATUS" validate:"oneof=discard propagate"`

	// Aliases replace the first word of a command with a list of words.
	Aliases map[string]string `json:"aliases" env:"ALIASES" validate:"dive,keys,required,endkeys,required"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

// SubshellPolicy returns the configured status policy for groups.
func (c *Configuration) SubshellPolicy() (executor.SubshellPolicy, error) {
	return executor.ParseSubshellPolicy(c.SubshellStatus)
}

// Dir returns the directory the configuration was loaded from, empty for the
// built-in defaults.
func (c *Configuration) Dir() string {
	return c.configurationDir
}

func (c *Configuration) fs() afero.Fs {
	return c.configFs
}

// path resolves name against the configuration directory. Relative names
// resolve to nothing for the built-in defaults.
func (c *Configuration) path(name string) string {
	switch {
	case name == "":
		return ""
	case filepath.IsAbs(name):
		return name
	case c.configurationDir == "":
		return ""
	default:
		return filepath.Join(c.configurationDir, name)
	}
}

// HistoryPath returns the absolute path of the history file or an empty
// string if history isn't persisted.
func (c *Configuration) HistoryPath() string {
	return c.path(c.HistoryFile)
}

// EventLogPath returns the path of the event log or an empty string if events
// aren't recorded.
func (c *Configuration) EventLogPath() string {
	return c.path(c.EventLog)
}

// OpenEventLog opens the event log in an append only state.
func (c *Configuration) OpenEventLog() (afero.File, error) {
	path := c.EventLogPath()
	if path == "" {
		return nil, os.ErrNotExist
	}
	if err := c.fs().MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	return c.fs().OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// ReadEventLog opens the event log for reading.
func (c *Configuration) ReadEventLog() (afero.File, error) {
	path := c.EventLogPath()
	if path == "" {
		return nil, os.ErrNotExist
	}
	return c.fs().OpenFile(path, os.O_RDONLY, 0600)
}

// applyEnv overrides fields from MYSHELL_* variables. A nil environ reads
// the process environment.
func (c *Configuration) applyEnv(environ map[string]string) error {
	return env.ParseWithOptions(c, env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	})
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}

// Default returns the built-in configuration with environment overrides
// applied. It has no directory, so history and the event log are only
// available if given as absolute paths.
func Default() (*Configuration, error) {
	out := defaultConfig()
	out.configFs = afero.NewOsFs()
	if err := out.applyEnv(nil); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
