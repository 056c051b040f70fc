// Package config provides centralized configuration management for StockPulse.
// It handles loading configuration from multiple sources, validation, and provides
// a type-safe API for accessing configuration values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. A .env file in the working directory (never overrides set variables)
//	3. A YAML configuration file
//	4. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern STOCKPULSE_<SECTION>_<FIELD>:
//
//	STOCKPULSE_SERVER_PORT=8080
//	STOCKPULSE_UPSTREAM_BASE_URL=http://20.244.56.144/evaluation-service
//	STOCKPULSE_UPSTREAM_TOKEN=...
//	STOCKPULSE_ANALYTICS_SYMBOL_LIMIT=5
//	STOCKPULSE_FALLBACK_ENABLED=true
//
// STOCK_API_TOKEN is still honoured when STOCKPULSE_UPSTREAM_TOKEN is unset.
//
// The YAML file is taken from STOCKPULSE_CONFIG_FILE or the first of
// config.yaml, configs/config.yaml, ../configs/config.yaml.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Testing
//
// Use config.Default() for a fully populated configuration that needs no
// environment or files.
package config
