/*
Package config loads chatflowd settings.

Config wraps a decoded YAML or JSON document and hands out typed values
with defaults. Dotted keys walk nested sections:

	cfg, err := config.FromFile("chatflow.yaml")
	if err != nil {
	    return err
	}
	driver := cfg.String("store.driver", "memory")
	timeout := cfg.Duration("shutdown_timeout", 10*time.Second)

LoadServer combines a file, CHATFLOW_* environment overrides and
validation into a Server value:

	srv, err := config.LoadServer(*configPath)

A sample file:

	addr: ":8080"
	store:
	  driver: sqlite
	  sqlite_path: /var/lib/chatflow/flows.db
	  codec: msgpack
	  compress: true
	log:
	  level: debug
	  format: text
	cors:
	  origins: ["http://localhost:5173"]
	telemetry:
	  enabled: true
	  otlp_endpoint: localhost:4317
	shutdown_timeout: 15s
*/
package config
