package spacetraveling

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigLoaderDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := NewConfigLoader("").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "spacetraveling" || cfg.Addr != ":3000" || cfg.Locale != "pt-BR" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.ListingRevalidate != time.Minute || cfg.PostRevalidate != 30*time.Minute {
		t.Errorf("revalidate = %v / %v", cfg.ListingRevalidate, cfg.PostRevalidate)
	}
	if cfg.PageSize != 3 {
		t.Errorf("PageSize = %d, want 3", cfg.PageSize)
	}
}

func TestConfigLoaderFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `name: Space Traveling
url: https://blog.example.com
page_size: 5
post_revalidate: 1h
prismic:
  endpoint: https://file.cdn.prismic.io/api/v2
comments:
  repo: owner/comments
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PRISMIC_API_ENDPOINT", "https://env.cdn.prismic.io/api/v2")
	t.Setenv("SPACETRAVELING_SESSION_SECRET", "s3cret")

	l := NewConfigLoader(path)
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if l.File() != path {
		t.Errorf("File = %q", l.File())
	}
	if cfg.Name != "Space Traveling" || cfg.PageSize != 5 || cfg.PostRevalidate != time.Hour {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.PrismicEndpoint != "https://env.cdn.prismic.io/api/v2" {
		t.Errorf("PrismicEndpoint = %q, want the environment value", cfg.PrismicEndpoint)
	}
	if cfg.SessionSecret != "s3cret" {
		t.Errorf("SessionSecret = %q", cfg.SessionSecret)
	}
	if cfg.CommentsRepo != "owner/comments" || cfg.CommentsTheme != "github-dark" {
		t.Errorf("comments = %q %q", cfg.CommentsRepo, cfg.CommentsTheme)
	}
}

func TestConfigLoaderMissingExplicitFile(t *testing.T) {
	if _, err := NewConfigLoader(filepath.Join(t.TempDir(), "nope.yaml")).Load(); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}
