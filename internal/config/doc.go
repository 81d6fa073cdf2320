// Package config handles configuration loading for swarm-gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from SWARM_GATEWAY_CONFIG environment variable
//  2. ./config.yaml (current directory)
//  3. ~/.config/swarm-gateway/config.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	store:
//	  redis_url: "${SWARM_REDIS_URL}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	monitor:
//	  interval: "60s"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8765"   # MCP endpoint, health, and metrics
//
// Store backend (memory, sqlite, or redis):
//
//	store:
//	  backend: "sqlite"
//	  path: "/var/lib/swarm-gateway/swarm.db"
//	  redis_url: "${SWARM_REDIS_URL}"   # redis backend only
//
// Timeout monitor:
//
//	monitor:
//	  enabled: true
//	  interval: "60s"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// Metrics:
//
//	metrics:
//	  enabled: true
//	  path: "/metrics"
//
// # Validation
//
// Load() validates:
//
//   - Server address presence
//   - Backend name and its required settings
//   - Duration format validity
//   - Monitor interval positivity when enabled
//
// # Usage
//
// Load configuration from a path:
//
//	cfg, err := config.Load("/etc/swarm-gateway/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
