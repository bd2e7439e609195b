package layoutkit

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eringen/layoutkit/layout"
)

// SiteConfig holds all configuration for a layoutkit site.
type SiteConfig struct {
	Name string `yaml:"name"` // Site name (default "layoutkit")
	URL  string `yaml:"url"`  // Canonical URL (default "http://localhost:8000")

	Addr         string `yaml:"addr"`          // Listen address (default ":8000")
	ProcessGroup string `yaml:"process_group"` // Logger prefix (default "layoutkit")
	DatabasePath string `yaml:"database_path"` // SQLite path (default "data/pages.db")

	StaticURL string            `yaml:"static_url"` // Base URL of stylesheets and scripts (default "/static/")
	Aliases   map[string]string `yaml:"aliases"`    // URL prefix -> directory (default /static/ and /tests/)

	Debug       bool     `yaml:"debug"`        // Show the debug panel to internal clients
	InternalIPs []string `yaml:"internal_ips"` // CIDRs allowed to see the debug panel (default loopback)

	AuthRealm    string   `yaml:"auth_realm"`    // Basic auth realm (default "Restricted")
	AuthUser     string   `yaml:"auth_user"`     // Single basic auth user
	AuthPassword string   `yaml:"auth_password"` // Password of AuthUser
	HtpasswdFile string   `yaml:"htpasswd_file"` // bcrypt htpasswd file
	AuthExempt   []string `yaml:"auth_exempt"`   // Glob patterns served without auth (default "/rest/**", "/*/rest/**")

	SessionSecret string `yaml:"session_secret"` // Required: session encryption secret
	CookieSecure  bool   `yaml:"cookie_secure"`  // Set true for HTTPS

	StrictTemplates bool `yaml:"strict_templates"` // Fail on overrides of unknown blocks
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "layoutkit"
	}
	if c.URL == "" {
		c.URL = "http://localhost:8000"
	}
	if c.Addr == "" {
		c.Addr = ":8000"
	}
	if c.ProcessGroup == "" {
		c.ProcessGroup = "layoutkit"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/pages.db"
	}
	if c.StaticURL == "" {
		c.StaticURL = "/static/"
	}
	if !strings.HasSuffix(c.StaticURL, "/") {
		c.StaticURL += "/"
	}
	if c.Aliases == nil {
		c.Aliases = map[string]string{
			"/static/": "static",
			"/tests/":  "tests",
		}
	}
	if len(c.InternalIPs) == 0 {
		c.InternalIPs = []string{"127.0.0.1/32", "::1/128"}
	}
	if c.AuthRealm == "" {
		c.AuthRealm = "Restricted"
	}
	if c.AuthExempt == nil {
		c.AuthExempt = []string{"/rest/**", "/*/rest/**"}
	}
}

func (c *SiteConfig) validate() error {
	var errs []error
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SessionSecret is required"))
	}
	if c.HtpasswdFile == "" && (c.AuthUser == "" || c.AuthPassword == "") {
		errs = append(errs, errors.New("HtpasswdFile or AuthUser and AuthPassword are required"))
	}
	for prefix := range c.Aliases {
		if !strings.HasPrefix(prefix, "/") || !strings.HasSuffix(prefix, "/") {
			errs = append(errs, fmt.Errorf("alias %q must start and end with /", prefix))
		}
	}
	return errors.Join(errs...)
}

// LoadConfig reads a YAML configuration file. Unknown keys are rejected.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("layoutkit: read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("layoutkit: parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ConfigFromEnv builds a configuration from LAYOUTKIT_* environment variables.
func ConfigFromEnv() SiteConfig {
	return SiteConfig{
		Name:          EnvOr("LAYOUTKIT_SITE_NAME", ""),
		URL:           EnvOr("LAYOUTKIT_SITE_URL", ""),
		Addr:          EnvOr("LAYOUTKIT_ADDR", ""),
		ProcessGroup:  EnvOr("LAYOUTKIT_PROCESS_GROUP", ""),
		DatabasePath:  EnvOr("LAYOUTKIT_DATABASE", ""),
		StaticURL:     EnvOr("LAYOUTKIT_STATIC_URL", ""),
		Debug:         EnvOr("LAYOUTKIT_DEBUG", "") == "true",
		InternalIPs:   FilterEmpty(strings.Split(EnvOr("LAYOUTKIT_INTERNAL_IPS", ""), ",")),
		AuthUser:      EnvOr("LAYOUTKIT_AUTH_USER", ""),
		AuthPassword:  EnvOr("LAYOUTKIT_AUTH_PASSWORD", ""),
		HtpasswdFile:  EnvOr("LAYOUTKIT_HTPASSWD", ""),
		SessionSecret: EnvOr("LAYOUTKIT_SESSION_SECRET", ""),
		CookieSecure:  EnvOr("LAYOUTKIT_COOKIE_SECURE", "") == "true",
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithAlias maps a URL prefix to a directory, replacing any existing mapping.
func WithAlias(prefix, dir string) Option {
	return func(a *App) {
		if a.Config.Aliases == nil {
			a.Config.Aliases = make(map[string]string)
		}
		a.Config.Aliases[prefix] = dir
	}
}

// WithPages replaces the embedded templates with reg.
func WithPages(reg *layout.Registry) Option {
	return func(a *App) {
		a.Pages = reg
	}
}
