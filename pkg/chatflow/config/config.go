package config

import (
	"strings"
	"time"
)

// Config wraps a decoded YAML or JSON document.
//
// Keys may be dotted paths ("store.driver") that walk nested maps. A flat
// key that contains dots literally wins over the nested path. Accessors
// return the default when the key is missing or holds the wrong type.
type Config struct {
	data map[string]any
}

// New creates a Config from the given map. A nil map gives an empty Config.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

func (c Config) lookup(key string) (any, bool) {
	if v, ok := c.data[key]; ok {
		return v, true
	}

	parts := strings.Split(key, ".")
	if len(parts) == 1 {
		return nil, false
	}

	cur := c.data
	for i, part := range parts {
		v, ok := cur[part]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		next, ok := asMap(v)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return nil, false
}

// asMap accepts both map shapes the decoders produce.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			s, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[s] = val
		}
		return out, true
	}
	return nil, false
}

// String returns the string at key, or defaultVal.
func (c Config) String(key, defaultVal string) string {
	if s, ok := c.get(key).(string); ok {
		return s
	}
	return defaultVal
}

// Duration returns the duration at key, or defaultVal.
//
// Strings go through time.ParseDuration; bare numbers are seconds.
func (c Config) Duration(key string, defaultVal time.Duration) time.Duration {
	switch val := c.get(key).(type) {
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	case float64:
		return time.Duration(val * float64(time.Second))
	case int:
		return time.Duration(val) * time.Second
	case int64:
		return time.Duration(val) * time.Second
	case time.Duration:
		return val
	}
	return defaultVal
}

// Bool returns the bool at key, or defaultVal.
func (c Config) Bool(key string, defaultVal bool) bool {
	if b, ok := c.get(key).(bool); ok {
		return b
	}
	return defaultVal
}

// StringSlice returns the strings at key, or defaultVal. A comma
// separated string is split.
func (c Config) StringSlice(key string, defaultVal []string) []string {
	switch val := c.get(key).(type) {
	case []string:
		return val
	case []any:
		result := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return defaultVal
			}
			result = append(result, s)
		}
		return result
	case string:
		var result []string
		for _, s := range strings.Split(val, ",") {
			if s = strings.TrimSpace(s); s != "" {
				result = append(result, s)
			}
		}
		return result
	}
	return defaultVal
}

// Sub returns the nested section at key. Missing or non-map values give an
// empty Config.
func (c Config) Sub(key string) Config {
	if m, ok := asMap(c.get(key)); ok {
		return New(m)
	}
	return New(nil)
}

// Has reports whether key resolves to a value.
func (c Config) Has(key string) bool {
	_, ok := c.lookup(key)
	return ok
}

func (c Config) get(key string) any {
	v, _ := c.lookup(key)
	return v
}
