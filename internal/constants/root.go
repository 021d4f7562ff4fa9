package constants

import "time"

const (
	AppName            = "callboard"
	DefaultKeyringUser = "database-connection"
	DefaultDBPath      = "~/.config/callboard/callboard.db"
	DefaultConfigPath  = "~/.config/callboard/config.yaml"
	Version            = "v0.3.0"

	// ConnectionEnvVar overrides the keyring when resolving a PostgreSQL connection string
	ConnectionEnvVar = "CALLBOARD_DB_CONNECTION"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "callboard-"
	BackupFileSuffix = ".db"

	// Export constants
	ICSMimeType        = "text/calendar"
	ICSFileSuffix      = "_calendar.ics"
	ICSProductID       = "-//callboard//Production Calendar//EN"
	PDFMimeType        = "application/pdf"
	PDFFileSuffix      = "_calendar.pdf"
	ResumeFileSuffix   = "_resume.pdf"
	DefaultTimedLength = time.Hour

	// PDF layout, in points (1in = 72pt)
	PDFPageSize     = "Letter"
	PDFMarginPt     = 54.0
	PDFFooterOffset = 30.0

	// Server constants
	DefaultListen         = "127.0.0.1:8686"
	DefaultRateLimit      = 10 // requests per second
	DefaultRateBurst      = 20
	ServerReadTimeout     = 10 * time.Second
	ServerWriteTimeout    = 30 * time.Second
	ServerShutdownTimeout = 5 * time.Second
	LogoFetchTimeout      = 5 * time.Second

	// Scheduler constants
	DefaultHorizonDays      = 180
	MaxRecurrenceExpansions = 500
)
