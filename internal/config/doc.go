// Package config provides configuration management for the OpenGeoCity
// Tanzania website. It loads configuration from multiple sources, validates
// it, and exposes the immutable site-wide template context.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// Environment variables follow the pattern OGCTZ_<SECTION>_<FIELD>:
//
//	OGCTZ_SERVER_PORT=8080
//	OGCTZ_SESSION_SECRET_KEY=change-me
//	OGCTZ_PATHS_TEMPLATE_DIR=web/templates
//	OGCTZ_LOGGING_LEVEL=debug
//
// The bare PORT, SECRET_KEY and ENVIRONMENT variables are honoured as
// fallbacks, which keeps platform-provided values working.
//
// # Site Context
//
// SiteContext freezes the site name, contact email, phone, location and
// founding year at startup. Every page render receives a copy of it.
//
//	site := config.NewSiteContext(cfg.Site)
//	vars := site.Map()
//
// # Paths
//
// Template and static roots are explicit configuration values. Empty roots
// select the assets embedded in the binary; relative roots resolve against
// Paths.BaseDir or the executable directory.
package config
