package config

import "time"

// Application constants
const (
	AppName    = "OpenGeoCity Tanzania"
	AppVersion = "1.0.0"
	Executable = "ogctz"

	// Site defaults, overridable through SiteConfig
	DefaultSiteName     = "OpenGeoCity Tanzania"
	DefaultSiteEmail    = "info@ogctz.org"
	DefaultSitePhone    = "+255 700 000 000"
	DefaultSiteLocation = "Dar es Salaam, Tanzania"
	DefaultSiteFounded  = "2023"

	// Session defaults
	DefaultSecretKey     = "dev-secret-key"
	DefaultCookieName    = "ogctz_session"
	DefaultCookieMaxAge  = 30 * 24 * time.Hour
	DefaultFlashTTL      = 10 * time.Minute
	DefaultSweepInterval = time.Minute

	DefaultLogFile = "logs/app.log"
)
