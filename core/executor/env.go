package executor

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// EnvironFetcher is anything that can list environment variables in the
// KEY=value form used by os.Environ.
type EnvironFetcher interface {
	Environ() []string
}

// EnvList adapts a KEY=value slice to EnvironFetcher.
type EnvList []string

// Environ implements EnvironFetcher.
func (e EnvList) Environ() []string {
	return e
}

// CopyEnv copies all the environment variables from src to dst.
func CopyEnv(dst *MapEnv, src EnvironFetcher) {
	for _, e := range src.Environ() {
		key, value := splitEnv(e)
		dst.Setenv(key, value)
	}
}

// NewMapEnv creates a new environment backed by a map.
func NewMapEnv() *MapEnv {
	return &MapEnv{}
}

// NewMapEnvFrom creates a new environment with a copy of the environment
// variables in the original environment.
func NewMapEnvFrom(src EnvironFetcher) *MapEnv {
	out := &MapEnv{}
	CopyEnv(out, src)
	return out
}

// NewOSEnv snapshots the environment of the current process.
func NewOSEnv() *MapEnv {
	return NewMapEnvFrom(EnvList(os.Environ()))
}

func splitEnv(e string) (key, value string) {
	split := strings.SplitN(e, "=", 2)
	key = split[0]
	if len(split) > 1 {
		value = split[1]
	}
	return key, value
}

// MapEnv is an in-memory environment. Each shell process (the shell itself
// and each side of a pipeline) owns one so builtins never touch os.Environ.
type MapEnv struct {
	rw  sync.RWMutex
	env map[string]string
}

var _ EnvironFetcher = (*MapEnv)(nil)

// Unsetenv removes key from the environment.
func (m *MapEnv) Unsetenv(key string) {
	m.rw.Lock()
	defer m.rw.Unlock()
	if m.env != nil {
		delete(m.env, key)
	}
}

// Setenv sets key to value.
func (m *MapEnv) Setenv(key, value string) {
	m.rw.Lock()
	defer m.rw.Unlock()

	if m.env == nil {
		m.env = make(map[string]string)
	}
	m.env[key] = value
}

// LookupEnv returns the value of key and whether it was set.
func (m *MapEnv) LookupEnv(key string) (string, bool) {
	m.rw.RLock()
	defer m.rw.RUnlock()

	val, ok := m.env[key]
	return val, ok
}

// Getenv returns the value of key or an empty string.
func (m *MapEnv) Getenv(key string) string {
	val, _ := m.LookupEnv(key)
	return val
}

// Environ lists the environment sorted by key.
func (m *MapEnv) Environ() []string {
	m.rw.RLock()
	defer m.rw.RUnlock()

	env := make([]string, 0, len(m.env))
	for k, v := range m.env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(env)

	return env
}
