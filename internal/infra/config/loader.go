package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"bolagsverket-mcp/internal/domain"
)

// DefaultEnvFile is read when present and no other dotenv file was requested.
const DefaultEnvFile = ".env"

// Sources lists where configuration is read from. Later sources win:
// defaults, config file, dotenv file, process environment, Overrides.
type Sources struct {
	ConfigPath string
	EnvFile    string
	// Overrides are applied last, keyed by config key (e.g. "http.addr").
	Overrides map[string]any
}

type Loader struct {
	logger    *zap.Logger
	lookupEnv lookupFunc
}

func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger.Named("config"), lookupEnv: os.LookupEnv}
}

// envBindings maps environment variables onto config keys.
var envBindings = []struct {
	env string
	key string
}{
	{domain.EnvClientID, "clientId"},
	{domain.EnvClientSecret, "clientSecret"},
	{domain.EnvTokenURL, "tokenUrl"},
	{domain.EnvBaseURL, "baseUrl"},
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("tokenUrl", domain.DefaultTokenURL)
	v.SetDefault("baseUrl", domain.DefaultBaseURL)
	v.SetDefault("scopes", domain.DefaultScopes())
	v.SetDefault("cacheTokens", domain.DefaultCacheTokens)
	v.SetDefault("tokenRenewBeforeSeconds", domain.DefaultTokenRenewBeforeSeconds)
	v.SetDefault("tokenTimeoutSeconds", domain.DefaultTokenTimeoutSeconds)
	v.SetDefault("requestTimeoutSeconds", domain.DefaultRequestTimeoutSeconds)
	v.SetDefault("maxResponseBytes", domain.DefaultMaxResponseBytes)
	v.SetDefault("observability.listenAddress", domain.DefaultObservabilityListenAddress)
	v.SetDefault("http.addr", domain.DefaultHTTPAddr)
	v.SetDefault("http.path", domain.DefaultHTTPPath)
}

type rawConfig struct {
	ClientID                string           `mapstructure:"clientId"`
	ClientSecret            string           `mapstructure:"clientSecret"`
	TokenURL                string           `mapstructure:"tokenUrl"`
	BaseURL                 string           `mapstructure:"baseUrl"`
	Scopes                  []string         `mapstructure:"scopes"`
	CacheTokens             bool             `mapstructure:"cacheTokens"`
	TokenRenewBeforeSeconds int              `mapstructure:"tokenRenewBeforeSeconds"`
	TokenTimeoutSeconds     int              `mapstructure:"tokenTimeoutSeconds"`
	RequestTimeoutSeconds   int              `mapstructure:"requestTimeoutSeconds"`
	MaxResponseBytes        int64            `mapstructure:"maxResponseBytes"`
	Observability           rawObservability `mapstructure:"observability"`
	HTTP                    rawHTTP          `mapstructure:"http"`
}

type rawObservability struct {
	ListenAddress string `mapstructure:"listenAddress"`
	Metrics       bool   `mapstructure:"metrics"`
	Healthz       bool   `mapstructure:"healthz"`
}

type rawHTTP struct {
	Addr         string `mapstructure:"addr"`
	Path         string `mapstructure:"path"`
	Token        string `mapstructure:"token"`
	JSONResponse bool   `mapstructure:"jsonResponse"`
}

// Load resolves the process configuration. Missing credentials fail with a
// *domain.ConfigurationError.
func (l *Loader) Load(ctx context.Context, src Sources) (domain.Config, error) {
	dotenv, err := l.readEnvFile(src.EnvFile)
	if err != nil {
		return domain.Config{}, err
	}
	lookup := l.chainLookup(dotenv)

	v := newViper()
	if src.ConfigPath != "" {
		if err := l.readConfigFile(v, src.ConfigPath, lookup); err != nil {
			return domain.Config{}, err
		}
	}
	for _, binding := range envBindings {
		if val, ok := lookup(binding.env); ok && strings.TrimSpace(val) != "" {
			v.Set(binding.key, val)
		}
	}
	for key, val := range src.Overrides {
		v.Set(key, val)
	}

	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return domain.Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg, err := normalizeConfig(raw)
	if err != nil {
		return domain.Config{}, err
	}
	return cfg, ctx.Err()
}

func (l *Loader) readConfigFile(v *viper.Viper, path string, lookup lookupFunc) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	expanded, missing, err := expandConfigEnv(data, lookup)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		l.logger.Warn("missing environment variables in config", zap.String("path", path), zap.Strings("missing", missing))
	}
	if err := v.ReadConfig(strings.NewReader(expanded)); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// readEnvFile parses a dotenv file. The default file is optional; an
// explicitly named one must exist.
func (l *Loader) readEnvFile(path string) (map[string]string, error) {
	optional := false
	if path == "" {
		path = DefaultEnvFile
		optional = true
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read env file: %w", err)
	}

	dv := viper.New()
	dv.SetConfigType("env")
	if err := dv.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("parse env file %s: %w", path, err)
	}
	values := make(map[string]string)
	for key, val := range dv.AllSettings() {
		values[strings.ToLower(key)] = fmt.Sprint(val)
	}
	l.logger.Debug("loaded env file", zap.String("path", path), zap.Int("keys", len(values)))
	return values, nil
}

// chainLookup prefers the process environment over the dotenv file, matching
// dotenv loaders that never override variables already set.
func (l *Loader) chainLookup(dotenv map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		if val, ok := l.lookupEnv(key); ok {
			return val, true
		}
		val, ok := dotenv[strings.ToLower(key)]
		return val, ok
	}
}

func normalizeConfig(raw rawConfig) (domain.Config, error) {
	clientID := strings.TrimSpace(raw.ClientID)
	clientSecret := strings.TrimSpace(raw.ClientSecret)
	var missing []string
	if clientID == "" {
		missing = append(missing, domain.EnvClientID)
	}
	if clientSecret == "" {
		missing = append(missing, domain.EnvClientSecret)
	}
	if len(missing) > 0 {
		return domain.Config{}, &domain.ConfigurationError{Missing: missing}
	}

	var errs []string
	tokenURL, err := normalizeEndpoint("tokenUrl", raw.TokenURL)
	if err != nil {
		errs = append(errs, err.Error())
	}
	baseURL, err := normalizeEndpoint("baseUrl", raw.BaseURL)
	if err != nil {
		errs = append(errs, err.Error())
	}
	httpPath := strings.TrimSpace(raw.HTTP.Path)
	if httpPath == "" {
		httpPath = domain.DefaultHTTPPath
	}
	if !strings.HasPrefix(httpPath, "/") {
		errs = append(errs, fmt.Sprintf("http.path must start with '/': %q", httpPath))
	}
	if len(errs) > 0 {
		return domain.Config{}, domain.E(domain.CodeInvalidArgument, "config", strings.Join(errs, "; "), nil)
	}

	scopes := normalizeScopes(raw.Scopes)
	if len(scopes) == 0 {
		scopes = domain.DefaultScopes()
	}
	maxBytes := raw.MaxResponseBytes
	if maxBytes <= 0 {
		maxBytes = domain.DefaultMaxResponseBytes
	}
	renewBefore := domain.SecondsOrZero(raw.TokenRenewBeforeSeconds)

	return domain.Config{
		Credentials: domain.Credentials{
			ClientID:     clientID,
			ClientSecret: clientSecret,
		},
		TokenURL:         tokenURL,
		BaseURL:          strings.TrimRight(baseURL, "/"),
		Scopes:           scopes,
		CacheTokens:      raw.CacheTokens,
		TokenRenewBefore: renewBefore,
		TokenTimeout:     domain.SecondsOrDefault(raw.TokenTimeoutSeconds, domain.DefaultTokenTimeoutSeconds),
		RequestTimeout:   domain.SecondsOrDefault(raw.RequestTimeoutSeconds, domain.DefaultRequestTimeoutSeconds),
		MaxResponseBytes: maxBytes,
		Observability: domain.ObservabilityConfig{
			ListenAddress: strings.TrimSpace(raw.Observability.ListenAddress),
			Metrics:       raw.Observability.Metrics,
			Healthz:       raw.Observability.Healthz,
		},
		HTTP: domain.HTTPConfig{
			Addr:         strings.TrimSpace(raw.HTTP.Addr),
			Path:         httpPath,
			Token:        strings.TrimSpace(raw.HTTP.Token),
			JSONResponse: raw.HTTP.JSONResponse,
		},
	}, nil
}

func normalizeEndpoint(field, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%s is required", field)
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%s is invalid: %v", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("%s must be an http(s) url: %q", field, trimmed)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("%s must include a host: %q", field, trimmed)
	}
	return trimmed, nil
}

// normalizeScopes trims entries and splits space-separated values, dropping
// blanks and duplicates while keeping order.
func normalizeScopes(scopes []string) []string {
	seen := make(map[string]struct{}, len(scopes))
	out := make([]string, 0, len(scopes))
	for _, entry := range scopes {
		for _, scope := range strings.Fields(entry) {
			if _, ok := seen[scope]; ok {
				continue
			}
			seen[scope] = struct{}{}
			out = append(out, scope)
		}
	}
	return out
}
