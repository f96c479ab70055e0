package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	"bolagsverket-mcp/internal/domain"
	"bolagsverket-mcp/internal/infra/telemetry"
)

const refreshKey = "token"

type Options struct {
	Credentials domain.Credentials
	TokenURL    string
	Scopes      []string
	// CacheTokens keeps a token until RenewBefore ahead of its expiry. When
	// false every Token call performs a full round trip.
	CacheTokens bool
	RenewBefore time.Duration
	Timeout     time.Duration
	HTTPClient  *http.Client
	Metrics     domain.Metrics
	Health      *telemetry.HealthTracker
	Logger      *zap.Logger
	Now         func() time.Time
}

// Provider obtains bearer tokens with the OAuth2 client-credentials grant.
type Provider struct {
	oauth       clientcredentials.Config
	httpClient  *http.Client
	cache       bool
	renewBefore time.Duration
	timeout     time.Duration
	metrics     domain.Metrics
	health      *telemetry.HealthTracker
	logger      *zap.Logger
	now         func() time.Time

	mu     sync.Mutex
	cached domain.AccessToken
	group  singleflight.Group
}

func NewProvider(opts Options) *Provider {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = domain.NoopMetrics{}
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Duration(domain.DefaultTokenTimeoutSeconds) * time.Second
	}
	renewBefore := opts.RenewBefore
	if renewBefore < 0 {
		renewBefore = 0
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	scopes := append([]string(nil), opts.Scopes...)
	if len(scopes) == 0 {
		scopes = domain.DefaultScopes()
	}

	return &Provider{
		oauth: clientcredentials.Config{
			ClientID:     opts.Credentials.ClientID,
			ClientSecret: opts.Credentials.ClientSecret,
			TokenURL:     opts.TokenURL,
			Scopes:       scopes,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		httpClient:  httpClient,
		cache:       opts.CacheTokens,
		renewBefore: renewBefore,
		timeout:     timeout,
		metrics:     metrics,
		health:      opts.Health,
		logger:      logger.Named("auth"),
		now:         now,
	}
}

// Token returns a bearer token that is valid at the time of the call. Failures
// are reported as *domain.AuthError.
func (p *Provider) Token(ctx context.Context) (domain.AccessToken, error) {
	if err := ctx.Err(); err != nil {
		return domain.AccessToken{}, &domain.AuthError{Cause: err}
	}
	if !p.cache {
		return p.fetch(ctx)
	}
	if token, ok := p.lookup(); ok {
		p.metrics.ObserveTokenFetch(domain.TokenSourceCache, 0, nil)
		return token, nil
	}

	// Waiters share one refresh. It runs detached from any single caller's
	// cancellation, bounded by the token timeout inside fetch.
	refreshCtx := context.WithoutCancel(ctx)
	var leader bool
	ch := p.group.DoChan(refreshKey, func() (any, error) {
		leader = true
		if token, ok := p.lookup(); ok {
			return token, nil
		}
		token, err := p.fetch(refreshCtx)
		if err != nil {
			return domain.AccessToken{}, err
		}
		p.store(token)
		return token, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return domain.AccessToken{}, res.Err
		}
		token := res.Val.(domain.AccessToken)
		// A token of unknown expiry serves only the caller that fetched it.
		if !leader && token.ExpiresAt.IsZero() {
			return p.fetch(ctx)
		}
		return token, nil
	case <-ctx.Done():
		return domain.AccessToken{}, &domain.AuthError{Cause: ctx.Err()}
	}
}

// Invalidate drops the cached token if it is still the one given.
func (p *Provider) Invalidate(value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached.Value != "" && p.cached.Value == value {
		p.cached = domain.AccessToken{}
		p.logger.Debug("cached token discarded", telemetry.EventField(telemetry.EventTokenDiscard))
	}
}

func (p *Provider) lookup() (domain.AccessToken, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached.ValidAt(p.now(), p.renewBefore) {
		return p.cached, true
	}
	return domain.AccessToken{}, false
}

func (p *Provider) store(token domain.AccessToken) {
	if token.ExpiresAt.IsZero() {
		return
	}
	p.mu.Lock()
	p.cached = token
	p.mu.Unlock()
}

func (p *Provider) fetch(ctx context.Context) (domain.AccessToken, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	fetchCtx = context.WithValue(fetchCtx, oauth2.HTTPClient, p.httpClient)

	logger := telemetry.LoggerWithRequest(ctx, p.logger)
	start := p.now()
	tok, err := p.oauth.Token(fetchCtx)
	duration := p.now().Sub(start)
	if err != nil {
		authErr := toAuthError(err)
		p.metrics.ObserveTokenFetch(domain.TokenSourceNetwork, duration, authErr)
		p.health.Mark(telemetry.ComponentTokenEndpoint, authErr)
		logger.Warn("token request failed",
			telemetry.EventField(telemetry.EventTokenFailure),
			telemetry.StatusField(authErr.Status),
			telemetry.DurationField(duration),
			zap.Error(authErr.Cause),
		)
		return domain.AccessToken{}, authErr
	}

	token := domain.AccessToken{
		Value:      tok.AccessToken,
		ObtainedAt: start,
		ExpiresAt:  tok.Expiry,
	}
	if token.ExpiresAt.IsZero() {
		token.ExpiresAt = expiryFromJWT(tok.AccessToken)
	}
	p.metrics.ObserveTokenFetch(domain.TokenSourceNetwork, duration, nil)
	p.health.Mark(telemetry.ComponentTokenEndpoint, nil)
	logger.Debug("token obtained",
		telemetry.EventField(telemetry.EventTokenFetch),
		telemetry.DurationField(duration),
		zap.Time("expires_at", token.ExpiresAt),
	)
	return token, nil
}

func toAuthError(err error) *domain.AuthError {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		authErr := &domain.AuthError{
			Body:  strings.TrimSpace(string(retrieveErr.Body)),
			Cause: err,
		}
		if retrieveErr.Response != nil {
			authErr.Status = retrieveErr.Response.StatusCode
		}
		return authErr
	}
	return &domain.AuthError{Cause: err}
}

// expiryFromJWT reads the exp claim of a JWT access token without verifying
// it. Opaque tokens yield a zero time.
func expiryFromJWT(raw string) time.Time {
	if strings.Count(raw, ".") != 2 {
		return time.Time{}
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
