package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

type requestIDKey struct{}

// ContextWithRequestID attaches a request id for WithOptimizationContext.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request id attached to ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// InitLogger configures the process-wide structured logger. Development
// gets colored text output; everything else gets JSON.
func InitLogger(logLevel string, isDevelopment bool) *logrus.Logger {
	log := logrus.New()

	if logLevel == "" {
		logLevel = os.Getenv("LOG_LEVEL")
		if logLevel == "" {
			if isDevelopment {
				logLevel = "debug"
			} else {
				logLevel = "info"
			}
		}
	}

	if level, err := logrus.ParseLevel(strings.ToLower(logLevel)); err == nil {
		log.SetLevel(level)
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("invalid_level", logLevel).Warn("Invalid LOG_LEVEL, using INFO")
	}

	if !isDevelopment || strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	log.SetOutput(os.Stdout)
	Logger = log
	return log
}

// NewDiscardLogger returns a logger that drops everything. Used by the CLI
// when --quiet is set and by tests.
func NewDiscardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// GetLogger returns the global logger instance
func GetLogger() *logrus.Logger {
	if Logger == nil {
		return InitLogger("info", false)
	}
	return Logger
}

// WithService creates a logger with service context
func WithService(serviceName string) *logrus.Entry {
	return GetLogger().WithField("service", serviceName)
}

// WithOptimizationContext tags a solve with its id, format and pool size,
// plus the id of the request that triggered it when ctx carries one.
func WithOptimizationContext(ctx context.Context, optimizationID, format string, poolSize int) *logrus.Entry {
	return WithRequestContext(RequestIDFromContext(ctx), optimizationID).WithFields(logrus.Fields{
		"format":    format,
		"pool_size": poolSize,
	})
}

// WithPoolContext creates a logger scoped to a stored candidate pool.
func WithPoolContext(poolID string) *logrus.Entry {
	return GetLogger().WithField("pool_id", poolID)
}

// WithRequestContext creates a logger with request context. An empty
// request id is left out.
func WithRequestContext(requestID, optimizationID string) *logrus.Entry {
	entry := GetLogger().WithField("optimization_id", optimizationID)
	if requestID != "" {
		entry = entry.WithField("request_id", requestID)
	}
	return entry
}

// WithHTTPContext creates a logger with HTTP request context
func WithHTTPContext(method, path, userAgent string) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"http_method":     method,
		"http_path":       path,
		"http_user_agent": userAgent,
	})
}
