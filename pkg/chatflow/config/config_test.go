package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/chatflow/pkg/chatflow/config"
)

func TestNew_NilMap(t *testing.T) {
	cfg := config.New(nil)
	assert.False(t, cfg.Has("anything"))
	assert.Equal(t, "x", cfg.String("anything", "x"))
}

func TestString(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		key  string
		want string
	}{
		{"key exists", map[string]any{"addr": ":9000"}, "addr", ":9000"},
		{"key missing", map[string]any{"other": "x"}, "addr", "default"},
		{"wrong type", map[string]any{"addr": 9000}, "addr", "default"},
		{"nested", map[string]any{"store": map[string]any{"driver": "sqlite"}}, "store.driver", "sqlite"},
		{"nested missing", map[string]any{"store": map[string]any{}}, "store.driver", "default"},
		{"nested through scalar", map[string]any{"store": "sqlite"}, "store.driver", "default"},
		{"flat dotted key wins", map[string]any{"store.driver": "redis", "store": map[string]any{"driver": "sqlite"}}, "store.driver", "redis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, config.New(tt.data).String(tt.key, "default"))
		})
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want time.Duration
	}{
		{"string", "15s", 15 * time.Second},
		{"bad string", "soon", time.Minute},
		{"int seconds", 3, 3 * time.Second},
		{"int64 seconds", int64(4), 4 * time.Second},
		{"float seconds", 1.5, 1500 * time.Millisecond},
		{"duration", 2 * time.Second, 2 * time.Second},
		{"wrong type", true, time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"timeout": tt.val})
			assert.Equal(t, tt.want, cfg.Duration("timeout", time.Minute))
		})
	}
}

func TestBool(t *testing.T) {
	cfg := config.New(map[string]any{"on": true, "off": false, "str": "true"})

	assert.True(t, cfg.Bool("on", false))
	assert.False(t, cfg.Bool("off", true))
	assert.True(t, cfg.Bool("str", true))
	assert.False(t, cfg.Bool("missing", false))
}

func TestStringSlice(t *testing.T) {
	def := []string{"default"}
	tests := []struct {
		name string
		val  any
		want []string
	}{
		{"string slice", []string{"a", "b"}, []string{"a", "b"}},
		{"any slice", []any{"a", "b"}, []string{"a", "b"}},
		{"mixed slice", []any{"a", 1}, def},
		{"comma string", "http://a.test, http://b.test,", []string{"http://a.test", "http://b.test"}},
		{"wrong type", 12, def},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"origins": tt.val})
			assert.Equal(t, tt.want, cfg.StringSlice("origins", def))
		})
	}
}

func TestSub(t *testing.T) {
	cfg := config.New(map[string]any{
		"store": map[string]any{
			"driver": "sqlite",
			"sqlite": map[string]any{"path": "flows.db"},
		},
		"addr": ":8080",
	})

	store := cfg.Sub("store")
	assert.Equal(t, "sqlite", store.String("driver", ""))
	assert.Equal(t, "flows.db", store.String("sqlite.path", ""))

	assert.False(t, cfg.Sub("addr").Has("driver"))
	assert.False(t, cfg.Sub("missing").Has("driver"))
}

func TestHas(t *testing.T) {
	cfg := config.New(map[string]any{"log": map[string]any{"level": "debug"}})

	assert.True(t, cfg.Has("log"))
	assert.True(t, cfg.Has("log.level"))
	assert.False(t, cfg.Has("log.format"))
}

func TestFromYAML(t *testing.T) {
	cfg, err := config.FromYAML([]byte(`
addr: ":9000"
store:
  driver: sqlite
  compress: true
cors:
  origins: [http://localhost:5173]
shutdown_timeout: 5s
`))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.String("addr", ""))
	assert.Equal(t, "sqlite", cfg.String("store.driver", ""))
	assert.True(t, cfg.Bool("store.compress", false))
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.StringSlice("cors.origins", nil))
	assert.Equal(t, 5*time.Second, cfg.Duration("shutdown_timeout", 0))
}

func TestFromYAML_Invalid(t *testing.T) {
	_, err := config.FromYAML([]byte("addr: [unterminated"))
	assert.ErrorContains(t, err, "parse yaml")
}

func TestFromJSON(t *testing.T) {
	cfg, err := config.FromJSON([]byte(`{"store": {"driver": "redis", "redis_url": "redis://localhost:6379/0"}}`))
	require.NoError(t, err)
	assert.Equal(t, "redis://localhost:6379/0", cfg.String("store.redis_url", ""))

	_, err = config.FromJSON([]byte(`{`))
	assert.ErrorContains(t, err, "parse json")
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "chatflow.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("addr: \":1\"\n"), 0o600))
	cfg, err := config.FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, ":1", cfg.String("addr", ""))

	jsonPath := filepath.Join(dir, "chatflow.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"addr": ":2"}`), 0o600))
	cfg, err = config.FromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, ":2", cfg.String("addr", ""))

	tomlPath := filepath.Join(dir, "chatflow.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(`addr = ":3"`), 0o600))
	_, err = config.FromFile(tomlPath)
	assert.ErrorContains(t, err, "unsupported config file extension")

	_, err = config.FromFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "read config file")
}
