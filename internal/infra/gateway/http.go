package gateway

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"bolagsverket-mcp/internal/domain"
	"bolagsverket-mcp/internal/infra/telemetry"
)

// HTTPOptions configures the streamable HTTP transport.
type HTTPOptions struct {
	Addr         string
	Path         string
	Token        string
	JSONResponse bool
}

// HTTPOptionsFromConfig maps the loaded configuration onto HTTPOptions.
func HTTPOptionsFromConfig(cfg domain.HTTPConfig) HTTPOptions {
	return HTTPOptions{
		Addr:         cfg.Addr,
		Path:         cfg.Path,
		Token:        cfg.Token,
		JSONResponse: cfg.JSONResponse,
	}
}

// ValidateHTTPOptions rejects listeners that would expose the gateway
// without a bearer token.
func ValidateHTTPOptions(opts HTTPOptions) error {
	if strings.TrimSpace(opts.Addr) == "" {
		return errors.New("http address is required")
	}
	if opts.Path != "" && !strings.HasPrefix(opts.Path, "/") {
		return fmt.Errorf("http path must start with '/': %q", opts.Path)
	}
	if !isLocalhostAddr(opts.Addr) && strings.TrimSpace(opts.Token) == "" {
		return errors.New("http token is required when binding to non-localhost address")
	}
	return nil
}

// HTTPHandler returns the streamable HTTP handler mounted at opts.Path.
func (g *Gateway) HTTPHandler(opts HTTPOptions) http.Handler {
	path := opts.Path
	if path == "" {
		path = domain.DefaultHTTPPath
	}
	streamable := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return g.server
	}, &mcp.StreamableHTTPOptions{JSONResponse: opts.JSONResponse})

	mux := http.NewServeMux()
	mux.Handle(path, requireBearer(opts.Token, streamable))
	return mux
}

// RunStreamableHTTP serves MCP over streamable HTTP until ctx is done.
func (g *Gateway) RunStreamableHTTP(ctx context.Context, opts HTTPOptions) error {
	if err := ValidateHTTPOptions(opts); err != nil {
		return err
	}
	listener, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return fmt.Errorf("streamable http listen: %w", err)
	}
	logger := g.logger.With(
		zap.String("path", opts.Path),
		zap.Bool("auth", opts.Token != ""),
		zap.Strings("tools", g.registry.Names()),
	)
	return telemetry.ServeListener(ctx, "gateway (streamable http transport)", listener, g.HTTPHandler(opts), logger)
}

func requireBearer(token string, next http.Handler) http.Handler {
	token = strings.TrimSpace(token)
	if token == "" {
		return next
	}
	expected := []byte("Bearer " + token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := []byte(r.Header.Get("Authorization"))
		if subtle.ConstantTimeCompare(got, expected) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="mcp"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isLocalhostAddr(addr string) bool {
	host := addr
	if strings.Contains(addr, ":") {
		if h, _, err := net.SplitHostPort(addr); err == nil {
			host = h
		}
	}
	host = strings.TrimSpace(host)
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback()
}
