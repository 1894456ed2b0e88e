package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Environment variables that override file values.
const (
	EnvAddr       = "CHATFLOW_ADDR"
	EnvStore      = "CHATFLOW_STORE"
	EnvSQLitePath = "CHATFLOW_SQLITE_PATH"
	EnvRedisURL   = "CHATFLOW_REDIS_URL"
	EnvCodec      = "CHATFLOW_CODEC"
	EnvLogLevel   = "CHATFLOW_LOG_LEVEL"
	EnvOTLP       = "CHATFLOW_OTLP_ENDPOINT"
)

// Server is the resolved configuration of chatflowd.
type Server struct {
	Addr             string `validate:"required"`
	Store            StoreSettings
	Log              LogSettings
	CORSOrigins      []string `validate:"dive,required"`
	TelemetryEnabled bool
	// OTLPEndpoint, when set, receives spans over OTLP/gRPC.
	OTLPEndpoint    string
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

// StoreSettings selects and configures the flow store.
type StoreSettings struct {
	Driver     string `validate:"oneof=memory sqlite redis"`
	SQLitePath string `validate:"required_if=Driver sqlite"`
	RedisURL   string `validate:"required_if=Driver redis"`
	Codec      string `validate:"oneof=json msgpack"`
	Compress   bool
}

// LogSettings configures the slog handler.
type LogSettings struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json text"`
}

// DefaultServer returns the configuration used when nothing is set.
func DefaultServer() Server {
	return Server{
		Addr: ":8080",
		Store: StoreSettings{
			Driver:     DriverMemory,
			SQLitePath: "chatflow.db",
			Codec:      "json",
		},
		Log: LogSettings{
			Level:  "info",
			Format: "json",
		},
		CORSOrigins:     []string{"*"},
		ShutdownTimeout: 10 * time.Second,
	}
}

// ServerFrom reads server settings out of c, falling back to DefaultServer
// for anything missing. Setting telemetry.otlp_endpoint turns telemetry on
// unless telemetry.enabled says otherwise.
func ServerFrom(c Config) Server {
	d := DefaultServer()
	store := c.Sub("store")
	log := c.Sub("log")
	tel := c.Sub("telemetry")

	return Server{
		Addr: c.String("addr", d.Addr),
		Store: StoreSettings{
			Driver:     store.String("driver", d.Store.Driver),
			SQLitePath: store.String("sqlite_path", d.Store.SQLitePath),
			RedisURL:   store.String("redis_url", d.Store.RedisURL),
			Codec:      store.String("codec", d.Store.Codec),
			Compress:   store.Bool("compress", d.Store.Compress),
		},
		Log: LogSettings{
			Level:  strings.ToLower(log.String("level", d.Log.Level)),
			Format: log.String("format", d.Log.Format),
		},
		CORSOrigins:      c.StringSlice("cors.origins", d.CORSOrigins),
		TelemetryEnabled: tel.Bool("enabled", tel.Has("otlp_endpoint")),
		OTLPEndpoint:     tel.String("otlp_endpoint", d.OTLPEndpoint),
		ShutdownTimeout:  c.Duration("shutdown_timeout", d.ShutdownTimeout),
	}
}

// ApplyEnv overrides settings from environment variables. lookup is
// usually os.LookupEnv.
func (s *Server) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(&s.Addr, EnvAddr)
	set(&s.Store.Driver, EnvStore)
	set(&s.Store.SQLitePath, EnvSQLitePath)
	set(&s.Store.RedisURL, EnvRedisURL)
	set(&s.Store.Codec, EnvCodec)
	set(&s.Log.Level, EnvLogLevel)
	set(&s.OTLPEndpoint, EnvOTLP)
	s.Log.Level = strings.ToLower(s.Log.Level)
}

// Validate checks the settings.
func (s Server) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}
	return nil
}

// LoadServer reads path (when not empty), applies environment overrides
// and validates the result.
func LoadServer(path string) (Server, error) {
	c := New(nil)
	if path != "" {
		var err error
		if c, err = FromFile(path); err != nil {
			return Server{}, err
		}
	}

	s := ServerFrom(c)
	s.ApplyEnv(os.LookupEnv)
	if err := s.Validate(); err != nil {
		return Server{}, err
	}
	return s, nil
}
