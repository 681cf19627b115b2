// Package config loads harness configuration from files and the environment.
//
// It uses Viper to read a YAML (or JSON/TOML) file found in the usual
// locations, overlays environment variables sharing the application prefix,
// and optionally loads a .env file first via godotenv.
//
// # Usage
//
//	var cfg scenario.Config
//	err := config.Load("rxscenario", &cfg)
//
// Environment variables override file values using the upper-cased name as a
// prefix with underscore-separated paths (e.g., RXSCENARIO_ASYNC_TIMEOUT=5s,
// RXSCENARIO_LOGGING_LEVEL=debug).
package config
