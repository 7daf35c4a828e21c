// Package config handles configuration loading for chatrelay.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${CHATRELAY_JWT_SECRET}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	auth:
//	  token_ttl: "72h"
//	inference:
//	  timeout: "60s"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//
// Database:
//
//	database:
//	  path: "/var/lib/chatrelay/chatrelay.db"
//
// Authentication:
//
//	auth:
//	  jwt_secret: "${CHATRELAY_JWT_SECRET}"  # Required
//	  token_ttl: "72h"
//
// Inference engine:
//
//	inference:
//	  url: "http://localhost:5000"  # Required
//	  timeout: "60s"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//	  file: "/var/log/chatrelay/chatrelay.log"  # optional, rotated
//	  max_size_mb: 50
//	  max_backups: 5
//	  max_age_days: 30
//
// # Usage
//
// Load configuration from a path:
//
//	cfg, err := config.Load("/etc/chatrelay/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
