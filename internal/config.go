package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/sitemapd/internal/content"
	"github.com/starford/sitemapd/internal/models"
	"github.com/starford/sitemapd/internal/routes"
	"github.com/starford/sitemapd/internal/sitemap"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Content drivers.
const (
	DriverFS = "fs"
)

// Config represents the application configuration.
type Config struct {
	App          ApplicationConfig        `yaml:"app"`
	Site         SiteConfig               `yaml:"site"`
	Content      ContentConfig            `yaml:"content"`
	ContentTypes []models.ContentCategory `yaml:"contenttypes"`
	Routes       map[string]string        `yaml:"routes"`
	Sitemap      SitemapConfig            `yaml:"sitemap"`
	Auth         AuthConfig               `yaml:"auth"`
	Export       ExportConfig             `yaml:"export"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Site.Validate(); err != nil {
		return fmt.Errorf("site: %w", err)
	}
	if err := c.Content.Validate(); err != nil {
		return fmt.Errorf("content: %w", err)
	}
	if err := validation.Validate(c.ContentTypes, validation.Required, validation.By(uniqueSlugs)); err != nil {
		return fmt.Errorf("contenttypes: %w", err)
	}
	tbl, err := routes.NewTable(c.Routes, c.Site.BaseURL)
	if err != nil {
		return err
	}
	if err := c.Sitemap.Validate(tbl); err != nil {
		return fmt.Errorf("sitemap: %w", err)
	}
	if err := c.Export.Validate(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return c.Auth.Validate()
}

// CategorySlugs returns the declared content type slugs in order.
func (c *Config) CategorySlugs() []string {
	out := make([]string, len(c.ContentTypes))
	for i, ct := range c.ContentTypes {
		out[i] = ct.Slug
	}
	return out
}

func uniqueSlugs(value interface{}) error {
	cats, _ := value.([]models.ContentCategory)
	seen := make(map[string]struct{}, len(cats))
	for i, c := range cats {
		if c.Slug == "" {
			return fmt.Errorf("entry %d: slug is required", i)
		}
		if _, dup := seen[c.Slug]; dup {
			return fmt.Errorf("duplicate slug %q", c.Slug)
		}
		seen[c.Slug] = struct{}{}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SiteConfig describes the site the sitemap is generated for.
type SiteConfig struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required),
	)
}

// ContentConfig selects where entries are read from.
//
// Driver "fs" queries the Markdown tree under Root directly. Drivers
// "sqlite" and "postgres" keep an index of Root in the database at DSN and
// query that instead.
type ContentConfig struct {
	Driver string `yaml:"driver"`
	Root   string `yaml:"root"`
	DSN    string `yaml:"dsn"`
	Watch  bool   `yaml:"watch"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(DriverFS, content.DriverSQLite, content.DriverPostgres)),
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.DSN, validation.When(c.Driver != DriverFS, validation.Required)),
	)
}

// Indexed reports whether queries go through a SQL index.
func (c *ContentConfig) Indexed() bool {
	return c.Driver != DriverFS
}

// SitemapConfig holds the link collection and rendering options.
type SitemapConfig struct {
	Ignore            []string          `yaml:"ignore"`
	IgnoreContentType []string          `yaml:"ignore_contenttype"`
	RemoveLink        []string          `yaml:"remove_link"`
	IgnoreListing     bool              `yaml:"ignore_listing"`
	IgnoreImages      bool              `yaml:"ignore_images"`
	ListingRoutes     map[string]string `yaml:"listing_routes"`
	Template          string            `yaml:"template"`
	XMLTemplate       string            `yaml:"xml_template"`
	Concurrency       int               `yaml:"concurrency"`
	Dedupe            bool              `yaml:"dedupe"`
	CacheTTL          time.Duration     `yaml:"cache_ttl"`
	CacheSize         int               `yaml:"cache_size"`
}

// Validate checks ignore patterns and listing routes against the route table.
func (c *SitemapConfig) Validate(tbl *routes.Table) error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Concurrency, validation.Min(0), validation.Max(64)),
		validation.Field(&c.CacheSize, validation.Min(0)),
		validation.Field(&c.CacheTTL, validation.Min(time.Duration(0))),
	); err != nil {
		return err
	}
	for _, p := range c.Ignore {
		if _, err := sitemap.CompilePattern(p); err != nil {
			return err
		}
	}
	for slug, route := range c.ListingRoutes {
		if !tbl.Has(route) {
			return fmt.Errorf("listing route %q for %q is not defined", route, slug)
		}
	}
	return nil
}

// Options converts the configuration into collector options.
func (c *SitemapConfig) Options(siteName string, logger *slog.Logger) sitemap.Options {
	return sitemap.Options{
		SiteName:          siteName,
		Ignore:            c.Ignore,
		IgnoreContentType: c.IgnoreContentType,
		RemoveLink:        c.RemoveLink,
		IgnoreListing:     c.IgnoreListing,
		ListingRoutes:     c.ListingRoutes,
		Concurrency:       c.Concurrency,
		Logger:            logger,
	}
}

// ExportConfig controls periodic writing of a static sitemap.xml.
// An empty Path disables the export.
type ExportConfig struct {
	Path     string        `yaml:"path"`
	Interval time.Duration `yaml:"interval"`
}

// Enabled reports whether the export is configured.
func (c *ExportConfig) Enabled() bool {
	return c.Path != ""
}

// Validate validates the export configuration.
func (c *ExportConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Interval, validation.When(c.Enabled(), validation.Required, validation.Min(time.Second))),
	)
}

// AuthConfig protects the JSON and event endpoints; the sitemap itself is public.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Site: SiteConfig{
			Name: "My Site",
		},
		Content: ContentConfig{
			Driver: DriverFS,
			Root:   "./content",
			Watch:  true,
		},
		Sitemap: SitemapConfig{
			Concurrency: 1,
			CacheTTL:    5 * time.Minute,
			CacheSize:   8,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Export: ExportConfig{
			Interval: time.Hour,
		},
	}
}
