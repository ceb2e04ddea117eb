package config

import (
	"reflect"
	"strings"
	"testing"

	"github.com/josephlewis42/myshell/core/executor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestBuiltinConfig(t *testing.T) {
	rawConfig := make(map[string]interface{})
	assert.Nil(t, yaml.Unmarshal(defaultConfigData, &rawConfig))

	knownFields := make(map[string]bool)
	rt := reflect.TypeOf(Configuration{})
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		assert.NotEmpty(t, jsonTag)
		jsonField := strings.Split(jsonTag, ",")[0]
		knownFields[jsonField] = true

		if _, ok := rawConfig[jsonField]; !ok {
			assert.False(t, true, "default config missing field: %q", jsonField)
		}

		assert.NotEmpty(t, field.Tag.Get("env"), "field %q can't be overridden", jsonField)
	}

	for k := range rawConfig {
		_, ok := knownFields[k]
		assert.True(t, ok, "default config contains invalid field: %q", k)
	}
}

func TestDefaultConfig(t *testing.T) {
	// Will panic() on load failure because it should never happen at runtime.
	cfg := defaultConfig()
	assert.NotNil(t, cfg)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "myshell", cfg.Name)
	assert.Equal(t, `\s> `, cfg.Prompt)

	policy, err := cfg.SubshellPolicy()
	assert.NoError(t, err)
	assert.Equal(t, executor.DiscardSubshellStatus, policy)
}

func TestDefaultHasNoRelativeFiles(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Empty(t, cfg.Dir())
	assert.Empty(t, cfg.HistoryPath())
	assert.Empty(t, cfg.EventLogPath())

	_, err = cfg.OpenEventLog()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]struct {
		modify  func(*Configuration)
		wantErr string
	}{
		"default": {
			modify: func(*Configuration) {},
		},
		"missing-name": {
			modify:  func(c *Configuration) { c.Name = "" },
			wantErr: "name",
		},
		"slash-in-name": {
			modify:  func(c *Configuration) { c.Name = "my/shell" },
			wantErr: "name",
		},
		"propagate": {
			modify: func(c *Configuration) { c.SubshellStatus = "propagate" },
		},
		"aliases": {
			modify: func(c *Configuration) { c.Aliases = map[string]string{"ll": "ls -l"} },
		},
		"empty-alias": {
			modify:  func(c *Configuration) { c.Aliases = map[string]string{"ll": ""} },
			wantErr: "aliases",
		},
		"bad-policy": {
			modify:  func(c *Configuration) { c.SubshellStatus = "sometimes" },
			wantErr: "subshell_status",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			cfg := defaultConfig()
			tc.modify(cfg)

			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.applyEnv(map[string]string{
		"MYSHELL_NAME":            "testsh",
		"MYSHELL_COLOR_PROMPT":    "true",
		"MYSHELL_BANNER":          "false",
		"MYSHELL_SUBSHELL_STATUS": "propagate",
		"MYSHELL_ALIASES":         "ll:ls -l,la:ls -a",
		"NAME":                    "ignored",
	}))

	assert.Equal(t, "testsh", cfg.Name)
	assert.True(t, cfg.ColorPrompt)
	assert.False(t, cfg.Banner)
	assert.Equal(t, "propagate", cfg.SubshellStatus)
	assert.Equal(t, map[string]string{"ll": "ls -l", "la": "ls -a"}, cfg.Aliases)
	// Untouched fields keep their configured values.
	assert.Equal(t, `\s> `, cfg.Prompt)
	assert.Equal(t, "history", cfg.HistoryFile)

	assert.Error(t, cfg.applyEnv(map[string]string{"MYSHELL_BANNER": "sometimes"}))
}
