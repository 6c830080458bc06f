// Package config provides configuration loading and validation for pitfall.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (PITFALL_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with PITFALL_ prefix:
//   - server.port → PITFALL_SERVER_PORT
//   - users.backend → PITFALL_USERS_BACKEND
//   - counter.work_duration → PITFALL_COUNTER_WORK_DURATION
//
// Durations use Go syntax ("10ms", "1s").
//
// # Validation
//
//   - Port must be 1-65535
//   - users.backend must be memory, sqlite, or postgres; postgres needs users.dsn
//   - users.table must be a lowercase SQL identifier
//   - counter.poll_interval and monitor.default_interval must be positive
//   - Log level must be debug, info, warn, or error
package config
