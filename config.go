package spacetraveling

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// SiteConfig holds all configuration for a spacetraveling site.
type SiteConfig struct {
	Name        string // Site name (default "spacetraveling")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for feeds and meta tags

	Addr     string // Listen address (default ":3000")
	Locale   string // Date locale (default "pt-BR")
	Timezone string // IANA zone used to format dates (default "UTC")

	PrismicEndpoint    string // Required: content API endpoint, e.g. https://repo.cdn.prismic.io/api/v2
	PrismicAccessToken string

	PageSize          int           // Posts per listing page (default 3)
	ListingRevalidate time.Duration // Listing revalidation window (default 60s)
	PostRevalidate    time.Duration // Post revalidation window (default 30m)
	FallbackWait      time.Duration // How long a first request waits before the placeholder (default 2s)
	BuildTimeout      time.Duration // Upper bound for one page build (default 30s)
	PrebuildLimit     int           // Newest posts pre-rendered ahead of requests (default 20)
	MaxSitemapPages   int           // Listing pages walked for the sitemap (default 50)

	SessionSecret string // Required: preview session secret
	CookieSecure  bool   // Set true for HTTPS

	PageStorePath string // SQLite path for built pages (default "data/pages.db")

	CommentsRepo  string // GitHub repo for utterances; empty disables comments
	CommentsTheme string // utterances theme (default "github-dark")
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "spacetraveling"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.Locale == "" {
		c.Locale = "pt-BR"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.PageSize <= 0 {
		c.PageSize = 3
	}
	if c.ListingRevalidate == 0 {
		c.ListingRevalidate = 60 * time.Second
	}
	if c.PostRevalidate == 0 {
		c.PostRevalidate = 30 * time.Minute
	}
	if c.FallbackWait == 0 {
		c.FallbackWait = 2 * time.Second
	}
	if c.BuildTimeout == 0 {
		c.BuildTimeout = 30 * time.Second
	}
	if c.PrebuildLimit <= 0 {
		c.PrebuildLimit = 20
	}
	if c.MaxSitemapPages <= 0 {
		c.MaxSitemapPages = 50
	}
	if c.PageStorePath == "" {
		c.PageStorePath = "data/pages.db"
	}
	if c.CommentsTheme == "" {
		c.CommentsTheme = "github-dark"
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

// WithViews replaces the default page templates.
func WithViews(v ViewFuncs) Option {
	return func(a *App) {
		a.Views = v
	}
}

// ConfigLoader reads SiteConfig from an optional YAML file and the
// environment. Environment variables use the SPACETRAVELING_ prefix with dots
// replaced by underscores; PRISMIC_API_ENDPOINT and PRISMIC_ACCESS_TOKEN are
// also honored.
type ConfigLoader struct {
	v *viper.Viper
}

// NewConfigLoader creates a loader. An empty path looks for ./config.yaml.
func NewConfigLoader(path string) *ConfigLoader {
	v := viper.New()

	v.SetDefault("name", "spacetraveling")
	v.SetDefault("url", "http://localhost:3000")
	v.SetDefault("addr", ":3000")
	v.SetDefault("locale", "pt-BR")
	v.SetDefault("timezone", "UTC")
	v.SetDefault("page_size", 3)
	v.SetDefault("listing_revalidate", "60s")
	v.SetDefault("post_revalidate", "30m")
	v.SetDefault("fallback_wait", "2s")
	v.SetDefault("build_timeout", "30s")
	v.SetDefault("prebuild_limit", 20)
	v.SetDefault("max_sitemap_pages", 50)
	v.SetDefault("page_store_path", "data/pages.db")
	v.SetDefault("comments.theme", "github-dark")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("SPACETRAVELING")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	_ = v.BindEnv("prismic.endpoint", "SPACETRAVELING_PRISMIC_ENDPOINT", "PRISMIC_API_ENDPOINT")
	_ = v.BindEnv("prismic.access_token", "SPACETRAVELING_PRISMIC_ACCESS_TOKEN", "PRISMIC_ACCESS_TOKEN")

	return &ConfigLoader{v: v}
}

// Load reads the config file, if any, and returns the merged configuration.
// A missing default config file is not an error.
func (l *ConfigLoader) Load() (SiteConfig, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return SiteConfig{}, fmt.Errorf("spacetraveling: read config: %w", err)
		}
	}
	return l.decode(), nil
}

// File returns the config file in use, or "" when only defaults and the
// environment apply.
func (l *ConfigLoader) File() string {
	return l.v.ConfigFileUsed()
}

// Watch calls fn with the reloaded configuration whenever the config file
// changes. It reports false when there is no file to watch.
func (l *ConfigLoader) Watch(fn func(SiteConfig, fsnotify.Event)) bool {
	if l.File() == "" {
		return false
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		fn(l.decode(), e)
	})
	l.v.WatchConfig()
	return true
}

func (l *ConfigLoader) decode() SiteConfig {
	v := l.v
	cfg := SiteConfig{
		Name:               v.GetString("name"),
		URL:                v.GetString("url"),
		Description:        v.GetString("description"),
		Addr:               v.GetString("addr"),
		Locale:             v.GetString("locale"),
		Timezone:           v.GetString("timezone"),
		PrismicEndpoint:    v.GetString("prismic.endpoint"),
		PrismicAccessToken: v.GetString("prismic.access_token"),
		PageSize:           v.GetInt("page_size"),
		ListingRevalidate:  v.GetDuration("listing_revalidate"),
		PostRevalidate:     v.GetDuration("post_revalidate"),
		FallbackWait:       v.GetDuration("fallback_wait"),
		BuildTimeout:       v.GetDuration("build_timeout"),
		PrebuildLimit:      v.GetInt("prebuild_limit"),
		MaxSitemapPages:    v.GetInt("max_sitemap_pages"),
		SessionSecret:      v.GetString("session_secret"),
		CookieSecure:       v.GetBool("cookie_secure"),
		PageStorePath:      v.GetString("page_store_path"),
		CommentsRepo:       v.GetString("comments.repo"),
		CommentsTheme:      v.GetString("comments.theme"),
	}
	cfg.setDefaults()
	return cfg
}
