package app

import "bolagsverket-mcp/internal/domain"

// Version is the server version, set at build time via -ldflags.
var Version = domain.ServerVersion
