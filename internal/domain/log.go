package domain

import (
	"fmt"
	"strings"
)

// LogType is the category of log data an operator can export
type LogType string

const (
	LogTypeAccess   LogType = "access"
	LogTypeAudit    LogType = "audit"
	LogTypeSecurity LogType = "security"
)

// LogTypes lists the log types in the order they are offered
var LogTypes = []LogType{LogTypeAccess, LogTypeAudit, LogTypeSecurity}

// String returns the string representation of LogType
func (t LogType) String() string {
	return string(t)
}

// Label returns the human-readable name of the log type
func (t LogType) Label() string {
	switch t {
	case LogTypeAccess:
		return "Access Logs"
	case LogTypeAudit:
		return "Audit Logs"
	case LogTypeSecurity:
		return "Security Events"
	default:
		return string(t)
	}
}

// RequiresLoadBalancer returns true if records of this type are scoped to a
// load balancer. Audit records carry no load-balancer dimension.
func (t LogType) RequiresLoadBalancer() bool {
	return t != LogTypeAudit
}

// SupportsIndex returns true if the search index accepts this log type
func (t LogType) SupportsIndex() bool {
	return t == LogTypeAccess
}

// ParseLogType parses a log type, accepting any case and surrounding space.
// An empty string yields LogTypeAccess, the form default.
func ParseLogType(s string) (LogType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return LogTypeAccess, nil
	}
	for _, t := range LogTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLogType, s)
}

// Query identifies one log export or index push
type Query struct {
	LogType      LogType
	Tenant       string
	Namespace    string
	LoadBalancer string // ignored for audit logs
	Hours        int
}

// Validate checks required fields in form order: tenant, namespace, then
// load balancer when the log type needs one.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Tenant) == "" {
		return &MissingFieldError{Field: FieldTenant}
	}
	if q.Namespace == "" {
		return &MissingFieldError{Field: FieldNamespace}
	}
	if q.LogType.RequiresLoadBalancer() && q.LoadBalancer == "" {
		return &MissingFieldError{Field: FieldLoadBalancer}
	}
	if q.Hours <= 0 {
		return ErrInvalidHours
	}
	return nil
}
