package domain

const (
	DefaultTokenURL                   = "https://portal-accept2.api.bolagsverket.se/oauth2/token"
	DefaultBaseURL                    = "https://gw-accept2.api.bolagsverket.se/vardefulla-datamangder/v1"
	DefaultScopeRead                  = "vardefulla-datamangder:read"
	DefaultScopePing                  = "vardefulla-datamangder:ping"
	DefaultCacheTokens                = true
	DefaultTokenRenewBeforeSeconds    = 60
	DefaultTokenTimeoutSeconds        = 15
	DefaultRequestTimeoutSeconds      = 30
	DefaultMaxResponseBytes           = 10 << 20
	DefaultObservabilityListenAddress = "127.0.0.1:9090"
	DefaultHTTPAddr                   = "127.0.0.1:8090"
	DefaultHTTPPath                   = "/mcp"
	ServerName                        = "bolagsverket-mcp-server"
	ServerVersion                     = "0.1.0"
)

// Environment variables recognised for secrets and endpoints.
const (
	EnvClientID     = "BOLAGSVERKET_API_CLIENT_ID"
	EnvClientSecret = "BOLAGSVERKET_API_CLIENT_SECRET"
	EnvTokenURL     = "BOLAGSVERKET_TOKEN_URL"
	EnvBaseURL      = "BOLAGSVERKET_BASE_URL"
)

// DefaultScopes returns the combined scope set requested for every token.
func DefaultScopes() []string {
	return []string{DefaultScopeRead, DefaultScopePing}
}
