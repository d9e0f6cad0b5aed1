// ============================================================================
// SAFE LOGGING - masks personal and financial data in production
// ============================================================================

package utils

import (
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/shopspring/decimal"
)

// ============================================================================
// CONFIGURATION
// ============================================================================

// IsProduction turns on masking. Set once by SetupLogging.
var IsProduction bool

// SetupLogging installs the default slog logger: colored tint output in
// development, JSON in production.
func SetupLogging(level string, production bool) {
	IsProduction = production

	var handler slog.Handler
	if production {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: ParseLogLevel(level)})
	} else {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      ParseLogLevel(level),
			TimeFormat: time.Kitchen,
		})
	}
	slog.SetDefault(slog.New(handler))
}

func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ============================================================================
// MASKING
// ============================================================================

var (
	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	uuidRegex  = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
	tokenRegex = regexp.MustCompile(`token=[0-9a-fA-F]{16,}`)
)

// MaskString hides emails, share tokens and full UUIDs.
func MaskString(input string) string {
	if !IsProduction {
		return input
	}

	result := emailRegex.ReplaceAllString(input, "***@***.***")
	result = tokenRegex.ReplaceAllString(result, "token=***")
	return uuidRegex.ReplaceAllStringFunc(result, func(id string) string {
		return id[:8] + "..."
	})
}

func MaskAmount(amount decimal.Decimal) string {
	if IsProduction {
		return "***"
	}
	return amount.StringFixed(2)
}

// MaskID keeps the first 8 characters of an id.
func MaskID(id string) string {
	if !IsProduction {
		return id
	}
	if len(id) <= 8 {
		return "***"
	}
	return id[:8] + "..."
}

func MaskEmail(email string) string {
	if !IsProduction {
		return email
	}
	return "***@***.***"
}

// ============================================================================
// DOMAIN LOGGERS
// ============================================================================

func LogTripAction(action string, tripID string, profileID string) {
	slog.Info("[Trip] "+action,
		"trip_id", MaskID(tripID),
		"profile_id", MaskID(profileID),
	)
}

func LogSavingsAction(action string, tripID string, memberID string, oldAmount, newAmount decimal.Decimal) {
	slog.Info("[Savings] "+action,
		"trip_id", MaskID(tripID),
		"member_id", MaskID(memberID),
		"old", MaskAmount(oldAmount),
		"new", MaskAmount(newAmount),
	)
}

func LogShareAction(action string, tripID string, profileID string) {
	slog.Info("[Share] "+action,
		"trip_id", MaskID(tripID),
		"profile_id", MaskID(profileID),
	)
}

func LogAuthAction(action string, email string, success bool) {
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	slog.Info("[Auth] "+action,
		"email", MaskEmail(email),
		"status", status,
	)
}

// LogAPIRequest logs one request without its body.
func LogAPIRequest(method string, path string, profileID string, statusCode int, duration time.Duration) {
	attrs := []any{
		"method", method,
		"path", MaskString(path),
		"profile_id", MaskID(profileID),
		"status", statusCode,
		"duration_ms", duration.Milliseconds(),
	}
	switch {
	case statusCode >= 500:
		slog.Error("[API] request", attrs...)
	case statusCode >= 400:
		slog.Warn("[API] request", attrs...)
	default:
		slog.Info("[API] request", attrs...)
	}
}

// ============================================================================
// UTILITIES
// ============================================================================

func GetEnvMode() string {
	if IsProduction {
		return "production"
	}
	return "development"
}

func LogStartup(appName string, port int) {
	slog.Info(appName+" starting",
		"mode", GetEnvMode(),
		"port", port,
	)
	if IsProduction {
		slog.Info("Production mode: sensitive data will be masked in logs")
	}
}
