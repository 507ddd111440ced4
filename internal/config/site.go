package config

// Global context keys injected into every rendered page
const (
	KeySiteName = "site_name"
	KeyEmail    = "email"
	KeyPhone    = "phone"
	KeyLocation = "location"
	KeyFounded  = "founded"
)

// SiteContext is the immutable set of site-wide template variables.
// It is built once at startup and shared by all requests without locking.
type SiteContext struct {
	values map[string]string
}

// NewSiteContext freezes the values of cfg into a SiteContext
func NewSiteContext(cfg SiteConfig) *SiteContext {
	return &SiteContext{
		values: map[string]string{
			KeySiteName: cfg.Name,
			KeyEmail:    cfg.Email,
			KeyPhone:    cfg.Phone,
			KeyLocation: cfg.Location,
			KeyFounded:  cfg.Founded,
		},
	}
}

// Map returns a fresh copy of the global context, safe for the caller to modify
func (s *SiteContext) Map() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Get returns a single value
func (s *SiteContext) Get(key string) string {
	return s.values[key]
}
