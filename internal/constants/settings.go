package constants

const (
	// Default Settings Values
	DefaultTimezone         = "Local" // Use system local timezone by default
	DefaultCalendarName     = "Callboard"
	DefaultRefreshCron      = "*/30 * * * *"
	DefaultExportDir        = "~/.config/callboard/exports"
	DefaultBranding         = "Generated with callboard"
	DefaultWatermarkOpacity = 0.12

	// Watermark modes
	WatermarkNone = "none"
	WatermarkText = "text"
	WatermarkLogo = "logo"
)
