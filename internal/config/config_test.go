package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears the given variables for the duration of the test
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		if val, ok := os.LookupEnv(key); ok {
			require.NoError(t, os.Unsetenv(key))
			t.Cleanup(func() { os.Setenv(key, val) })
		}
	}
}

var fallbackVars = []string{"PORT", "SECRET_KEY", "ENVIRONMENT"}

func TestLoad(t *testing.T) {
	unsetEnv(t, fallbackVars...)

	tests := []struct {
		name        string
		setupEnv    func(t *testing.T)
		fileContent string
		wantErr     string
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env vars or file",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
				assert.Equal(t, DefaultSecretKey, cfg.Session.SecretKey)
				assert.Equal(t, DefaultCookieName, cfg.Session.CookieName)
				assert.Equal(t, DefaultSiteName, cfg.Site.Name)
				assert.Equal(t, DefaultSiteEmail, cfg.Site.Email)
				assert.Equal(t, DefaultSitePhone, cfg.Site.Phone)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
				assert.True(t, cfg.Render.Minify)
				assert.True(t, cfg.UsesDefaultSecret())
			},
		},
		{
			name: "prefixed env vars override defaults",
			setupEnv: func(t *testing.T) {
				t.Setenv("OGCTZ_SERVER_PORT", "9090")
				t.Setenv("OGCTZ_SESSION_SECRET_KEY", "s3cret")
				t.Setenv("OGCTZ_SESSION_FLASH_TTL", "2m")
				t.Setenv("OGCTZ_SITE_PHONE", "+255 711 111 111")
				t.Setenv("OGCTZ_RENDER_EXPOSE_ERRORS", "true")
				t.Setenv("OGCTZ_LOGGING_LEVEL", "DEBUG")
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, "s3cret", cfg.Session.SecretKey)
				assert.Equal(t, 2*time.Minute, cfg.Session.FlashTTL)
				assert.Equal(t, "+255 711 111 111", cfg.Site.Phone)
				assert.True(t, cfg.Render.ExposeErrors)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.False(t, cfg.UsesDefaultSecret())
			},
		},
		{
			name: "bare SECRET_KEY and PORT are honoured",
			setupEnv: func(t *testing.T) {
				t.Setenv("SECRET_KEY", "from-platform")
				t.Setenv("PORT", "3000")
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "from-platform", cfg.Session.SecretKey)
				assert.Equal(t, 3000, cfg.Server.Port)
			},
		},
		{
			name: "file values override defaults",
			fileContent: `
server:
  port: 7070
site:
  location: Arusha, Tanzania
render:
  minify: false
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, "Arusha, Tanzania", cfg.Site.Location)
				assert.Equal(t, DefaultSiteName, cfg.Site.Name)
				assert.False(t, cfg.Render.Minify)
			},
		},
		{
			name: "env overrides file",
			setupEnv: func(t *testing.T) {
				t.Setenv("OGCTZ_SERVER_PORT", "6060")
			},
			fileContent: "server:\n  port: 7070\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 6060, cfg.Server.Port)
			},
		},
		{
			name: "invalid port is rejected",
			setupEnv: func(t *testing.T) {
				t.Setenv("OGCTZ_SERVER_PORT", "70000")
			},
			wantErr: "invalid server port",
		},
		{
			name: "unparseable duration is rejected",
			setupEnv: func(t *testing.T) {
				t.Setenv("OGCTZ_SESSION_FLASH_TTL", "soon")
			},
			wantErr: "failed to load config from env",
		},
		{
			name:        "malformed yaml is rejected",
			fileContent: "server: [",
			wantErr:     "failed to load config from file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setupEnv != nil {
				tt.setupEnv(t)
			}

			// run from an empty directory so no stray config.yaml is found
			t.Chdir(t.TempDir())

			path := ""
			if tt.fileContent != "" {
				path = filepath.Join(t.TempDir(), "config.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.fileContent), 0644))
			}

			cfg, err := Load(path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config from file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "default is valid", modify: func(*Config) {}},
		{name: "empty secret", modify: func(c *Config) { c.Session.SecretKey = "" }, wantErr: "secret key"},
		{name: "zero flash ttl", modify: func(c *Config) { c.Session.FlashTTL = 0 }, wantErr: "flash ttl"},
		{name: "negative cookie max age", modify: func(c *Config) { c.Session.CookieMaxAge = -time.Second }, wantErr: "max age"},
		{name: "empty site name", modify: func(c *Config) { c.Site.Name = "" }, wantErr: "site name"},
		{name: "bad log level", modify: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "log level"},
		{name: "bad log output", modify: func(c *Config) { c.Logging.Output = "syslog" }, wantErr: "log output"},
		{name: "bad trace exporter", modify: func(c *Config) { c.Telemetry.TraceExporter = "otlp" }, wantErr: "trace exporter"},
		{name: "bad metric exporter", modify: func(c *Config) { c.Telemetry.MetricExporter = "statsd" }, wantErr: "metric exporter"},
		{name: "sample ratio above one", modify: func(c *Config) { c.Telemetry.SampleRatio = 1.5 }, wantErr: "sample ratio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_NormalisesLogging(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "XML"
	cfg.Logging.Output = "FILE"
	cfg.Logging.FilePath = ""

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "file", cfg.Logging.Output)
	assert.Equal(t, DefaultLogFile, cfg.Logging.FilePath)
}
