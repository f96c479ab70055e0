package domain

import "time"

// Config is the normalized process configuration. It is built once at startup
// and passed by value to the components that need it.
type Config struct {
	Credentials      Credentials
	TokenURL         string
	BaseURL          string
	Scopes           []string
	CacheTokens      bool
	TokenRenewBefore time.Duration
	TokenTimeout     time.Duration
	RequestTimeout   time.Duration
	MaxResponseBytes int64
	Observability    ObservabilityConfig
	HTTP             HTTPConfig
}

type ObservabilityConfig struct {
	ListenAddress string
	Metrics       bool
	Healthz       bool
}

// HTTPConfig configures the streamable HTTP transport.
type HTTPConfig struct {
	Addr         string
	Path         string
	Token        string
	JSONResponse bool
}
