package gateway

import (
	"context"
	"sync/atomic"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SessionLog is a zap core that forwards entries to connected MCP sessions as
// logging notifications. It is inert until a gateway attaches its server.
// Sessions that never set a logging level receive nothing.
type SessionLog struct {
	zapcore.LevelEnabler
	server *atomic.Pointer[mcp.Server]
	fields []zapcore.Field
}

func NewSessionLog(level zapcore.LevelEnabler) *SessionLog {
	if level == nil {
		level = zapcore.InfoLevel
	}
	return &SessionLog{LevelEnabler: level, server: new(atomic.Pointer[mcp.Server])}
}

// WithSessionLog returns base with its entries also published through sink.
func WithSessionLog(base *zap.Logger, sink *SessionLog) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	if sink == nil {
		return base
	}
	return base.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, sink)
	}))
}

func (s *SessionLog) attach(server *mcp.Server) {
	s.server.Store(server)
}

func (s *SessionLog) With(fields []zapcore.Field) zapcore.Core {
	next := make([]zapcore.Field, 0, len(s.fields)+len(fields))
	next = append(next, s.fields...)
	next = append(next, fields...)
	return &SessionLog{LevelEnabler: s.LevelEnabler, server: s.server, fields: next}
}

func (s *SessionLog) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if s.Enabled(entry.Level) && s.server.Load() != nil {
		return checked.AddCore(entry, s)
	}
	return checked
}

func (s *SessionLog) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	server := s.server.Load()
	if server == nil {
		return nil
	}
	enc := zapcore.NewMapObjectEncoder()
	for _, field := range s.fields {
		field.AddTo(enc)
	}
	for _, field := range fields {
		field.AddTo(enc)
	}
	data := make(map[string]any, len(enc.Fields)+1)
	for key, val := range enc.Fields {
		data[key] = val
	}
	data["message"] = entry.Message

	params := &mcp.LoggingMessageParams{
		Logger: entry.LoggerName,
		Level:  mapZapLevel(entry.Level),
		Data:   data,
	}
	ctx := context.Background()
	for session := range server.Sessions() {
		_ = session.Log(ctx, params)
	}
	return nil
}

func (s *SessionLog) Sync() error {
	return nil
}

func mapZapLevel(level zapcore.Level) mcp.LoggingLevel {
	switch level {
	case zapcore.DebugLevel:
		return "debug"
	case zapcore.InfoLevel:
		return "info"
	case zapcore.WarnLevel:
		return "warning"
	case zapcore.ErrorLevel:
		return "error"
	case zapcore.DPanicLevel, zapcore.PanicLevel:
		return "critical"
	case zapcore.FatalLevel:
		return "emergency"
	default:
		return "debug"
	}
}
