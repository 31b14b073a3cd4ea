package logger

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestIDKey is the context key under which the per-request identifier is
// stored by the HTTP middleware.
type RequestIDKey struct{}

var (
	log  *zap.Logger
	once sync.Once
)

// Init builds the process-wide logger. Production config in all environments
// except development, which gets the console encoder.
func Init(env string) *zap.Logger {
	once.Do(func() {
		var cfg zap.Config
		if env == "development" {
			cfg = zap.NewDevelopmentConfig()
		} else {
			cfg = zap.NewProductionConfig()
			cfg.EncoderConfig.TimeKey = "ts"
			cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		}
		var err error
		log, err = cfg.Build(zap.AddCallerSkip(1))
		if err != nil {
			log = zap.NewNop()
		}
	})
	return log
}

// L returns the process logger, initializing a production logger if Init was
// never called.
func L() *zap.Logger {
	if log == nil {
		return Init("production")
	}
	return log
}

// FromContext returns the process logger annotated with the request id when
// one is present on the context.
func FromContext(ctx context.Context) *zap.Logger {
	l := L()
	if ctx == nil {
		return l
	}
	if id, ok := ctx.Value(RequestIDKey{}).(string); ok && id != "" {
		return l.With(zap.String("request_id", id))
	}
	return l
}

// Sync flushes buffered log entries.
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}

// MaskEmail hides the local part of an address except its first character, so
// logs stay correlatable without exposing PII.
func MaskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

// MaskIP truncates an address to its network prefix.
func MaskIP(ip string) string {
	if idx := strings.LastIndexByte(ip, '.'); idx > 0 {
		return ip[:idx] + ".x"
	}
	if idx := strings.IndexByte(ip, ':'); idx > 0 {
		return ip[:idx] + "::x"
	}
	return "***"
}
