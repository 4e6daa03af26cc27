// Package constants provides shared configuration values used across the logdesk application.
package constants

import "time"

// Configuration file defaults
const (
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "logdesk.yaml"

	// DefaultHost is the default host the web console binds to
	DefaultHost = "127.0.0.1"

	// DefaultPort is the default port for the web console
	DefaultPort = 8088

	// DefaultAPIURL is the default base URL of the remote log API
	DefaultAPIURL = "http://127.0.0.1:8000"

	// EnvPrefix prefixes every environment override (LOGDESK_API_URL, ...)
	EnvPrefix = "LOGDESK_"
)

// Timeout and duration defaults
const (
	// DefaultRequestTimeout bounds every call to the remote log API.
	// Log exports can take minutes on the remote side.
	DefaultRequestTimeout = 5 * time.Minute

	// DefaultListTimeout bounds the dropdown lookups (namespaces, load balancers)
	DefaultListTimeout = 30 * time.Second

	// DefaultShutdownTimeout is the default timeout for graceful shutdown
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultSessionTTL is how long a login stays valid
	DefaultSessionTTL = 12 * time.Hour

	// DefaultIdleTimeout is how long an unused browser workspace is kept
	DefaultIdleTimeout = 2 * time.Hour
)

// Session storage
const (
	// SessionKey is the fixed storage key of the session record
	SessionKey = "logdesk_session"

	// ClientCookie names the cookie that identifies a browser workspace
	ClientCookie = "logdesk_client"

	// StorageMemory keeps sessions in process memory
	StorageMemory = "memory"

	// StorageSQLite keeps sessions in a SQLite database
	StorageSQLite = "sqlite"

	// DefaultSQLitePath is used when sqlite storage is selected without a path
	DefaultSQLitePath = "logdesk-sessions.db"
)

// Selection defaults
const (
	// DefaultHours is the time window preselected in the form (one day)
	DefaultHours = 24

	// MaxHours caps custom time windows (30 days)
	MaxHours = 720
)

// HourPresets are the quick-select time windows offered by the form
var HourPresets = []int{1, 6, 24, 72, 168}

// ANSI-free terminal palette indices used by the TUI
const (
	ColorInfo    = "12"
	ColorSuccess = "10"
	ColorWarning = "11"
	ColorDanger  = "9"
	ColorDim     = "8"
)
