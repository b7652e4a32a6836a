package util

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// SecurityEventType represents different types of security events
type SecurityEventType string

const (
	EventLoginSuccess       SecurityEventType = "LOGIN_SUCCESS"
	EventLoginFailure       SecurityEventType = "LOGIN_FAILURE"
	EventSignupSuccess      SecurityEventType = "SIGNUP_SUCCESS"
	EventSignupFailure      SecurityEventType = "SIGNUP_FAILURE"
	EventLogout             SecurityEventType = "LOGOUT"
	EventUnauthorizedAccess SecurityEventType = "UNAUTHORIZED_ACCESS"
	EventRateLimitExceeded  SecurityEventType = "RATE_LIMIT_EXCEEDED"
	EventSuspiciousActivity SecurityEventType = "SUSPICIOUS_ACTIVITY"
)

// SecurityEvent represents a security event to be logged
type SecurityEvent struct {
	EventType SecurityEventType
	Username  string
	IP        string
	UserAgent string
	Message   string
	Details   map[string]interface{}
}

// sanitizeLogValue removes newlines and other characters that could break log parsing
func sanitizeLogValue(value string) string {
	// Replace newlines, carriage returns, and tabs with spaces
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\t", " ")
	// Truncate very long values to prevent log flooding
	if len(value) > 200 {
		value = value[:200] + "..."
	}
	return value
}

// LogSecurityEvent logs a security event on the "security" logger.
func LogSecurityEvent(event SecurityEvent) {
	fields := []zap.Field{
		zap.String("event", sanitizeLogValue(string(event.EventType))),
		zap.String("username", sanitizeLogValue(event.Username)),
		zap.String("ip", sanitizeLogValue(event.IP)),
		zap.String("user_agent", sanitizeLogValue(event.UserAgent)),
	}

	if len(event.Details) > 0 {
		keys := make([]string, 0, len(event.Details))
		for k := range event.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v := event.Details[k]
			if s, ok := v.(string); ok {
				v = sanitizeLogValue(s)
			}
			fields = append(fields, zap.Any("detail."+sanitizeLogValue(k), v))
		}
	}

	log := Logger().Named("security")
	switch event.EventType {
	case EventLoginFailure, EventSignupFailure, EventUnauthorizedAccess, EventRateLimitExceeded, EventSuspiciousActivity:
		log.Warn(sanitizeLogValue(event.Message), fields...)
	default:
		log.Info(sanitizeLogValue(event.Message), fields...)
	}
}

// LogSignupSuccess logs a newly created account
func LogSignupSuccess(username, ip, userAgent string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventSignupSuccess,
		Username:  username,
		IP:        ip,
		UserAgent: userAgent,
		Message:   "User signed up successfully",
	})
}

// LogSignupFailure logs a rejected signup
func LogSignupFailure(username, ip, userAgent, reason string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventSignupFailure,
		Username:  username,
		IP:        ip,
		UserAgent: userAgent,
		Message:   fmt.Sprintf("Signup failed: %s", reason),
	})
}

// LogLoginSuccess logs a successful login event
func LogLoginSuccess(username, ip, userAgent string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventLoginSuccess,
		Username:  username,
		IP:        ip,
		UserAgent: userAgent,
		Message:   "User logged in successfully",
	})
}

// LogLoginFailure logs a failed login attempt
func LogLoginFailure(username, ip, userAgent, reason string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventLoginFailure,
		Username:  username,
		IP:        ip,
		UserAgent: userAgent,
		Message:   fmt.Sprintf("Login failed: %s", reason),
	})
}

// LogLogout logs a logout event
func LogLogout(username, ip, userAgent string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventLogout,
		Username:  username,
		IP:        ip,
		UserAgent: userAgent,
		Message:   "User logged out",
	})
}

// LogUnauthorizedAccess logs unauthorized access attempts
func LogUnauthorizedAccess(ip, resource, reason string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventUnauthorizedAccess,
		IP:        ip,
		Message:   fmt.Sprintf("Unauthorized access to %s: %s", resource, reason),
	})
}

// LogRateLimitExceeded logs when rate limit is exceeded
func LogRateLimitExceeded(ip, endpoint string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventRateLimitExceeded,
		IP:        ip,
		Message:   fmt.Sprintf("Rate limit exceeded for endpoint: %s", endpoint),
	})
}
