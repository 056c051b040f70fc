package config

// Application constants
const (
	// Application Info
	AppName    = "StockPulse"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable, e.g. STOCKPULSE_SERVER_PORT
	EnvPrefix = "STOCKPULSE"

	// LegacyTokenEnv is read when STOCKPULSE_UPSTREAM_TOKEN is unset
	LegacyTokenEnv = "STOCK_API_TOKEN"

	DefaultUpstreamURL = "http://20.244.56.144/evaluation-service"
	DefaultLogFile     = "logs/stockpulse.log"
)
