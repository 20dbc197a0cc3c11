package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Env       string
	HTTP      HTTPConfig
	RateLimit RateLimitConfig
	DB        DBConfig
	S3        S3Config
	Auth      AuthConfig
	Scraper   ScraperConfig
	Scheduler SchedulerConfig
	LogFile   string
	LogLevel  string
	Sites     map[string]*SiteConfig
}

type HTTPConfig struct {
	Addr           string
	AllowedOrigins []string
	// TrustProxyHeaders takes the client address from X-Forwarded-For / X-Real-IP.
	// Only enable behind a proxy that overwrites those headers.
	TrustProxyHeaders bool
}

type RateLimitConfig struct {
	Window   time.Duration
	Max      int
	RedisURL string
}

type DBConfig struct {
	Driver         string // sqlite or postgres
	URL            string
	Path           string
	ListingsTable  string
	InquiriesTable string
}

// S3Config holds configuration for S3-compatible storage
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // Optional: for MinIO, R2, etc.
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
}

type AuthConfig struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

type ScraperConfig struct {
	Timeout     time.Duration
	DefaultSite string
}

type SchedulerConfig struct {
	RefreshCron string
	SweepEvery  time.Duration
}

// SiteConfig describes how to scrape one external listing portal.
type SiteConfig struct {
	ID                string            `yaml:"id"`
	Name              string            `yaml:"name"`
	Handler           string            `yaml:"handler"` // http or browser
	UserAgent         string            `yaml:"user_agent"`
	Referer           string            `yaml:"referer"`
	PlaceholderFilter string            `yaml:"placeholder_filter"`
	ImageAttrs        []string          `yaml:"image_attrs"`
	Selectors         map[string]string `yaml:"selectors"`
}

// Selector keys understood by the scraper.
const (
	SelAddress     = "address"
	SelPrice       = "price"
	SelBedrooms    = "bedrooms"
	SelBathrooms   = "bathrooms"
	SelSquareFeet  = "square_feet"
	SelMLS         = "mls"
	SelDescription = "description"
	SelImages      = "images"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultSite is the built-in OneHome profile. The selectors are best guesses at the
// portal markup; override them with config/sites/onehome.yaml after inspecting the live page.
func DefaultSite() *SiteConfig {
	return &SiteConfig{
		ID:                "onehome",
		Name:              "OneHome",
		Handler:           "http",
		UserAgent:         defaultUserAgent,
		Referer:           "https://portal.onehome.com/",
		PlaceholderFilter: "placeholder",
		ImageAttrs:        []string{"src", "data-src"},
		Selectors: map[string]string{
			SelAddress:     ".property-address",
			SelPrice:       ".property-price",
			SelBedrooms:    ".property-beds",
			SelBathrooms:   ".property-baths",
			SelSquareFeet:  ".property-sqft",
			SelMLS:         ".property-mls",
			SelDescription: ".property-description",
			SelImages:      ".property-gallery img",
		},
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env: getEnv("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Addr:              getEnv("HTTP_ADDR", ":8080"),
			AllowedOrigins:    splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
			TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),
		},
		RateLimit: RateLimitConfig{
			Window:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
			Max:      getEnvInt("RATE_LIMIT_MAX", 100),
			RedisURL: os.Getenv("REDIS_URL"),
		},
		DB: DBConfig{
			Driver:         getEnv("DB_DRIVER", "sqlite"),
			URL:            os.Getenv("DATABASE_URL"),
			Path:           getEnv("DB_PATH", "realty.db"),
			ListingsTable:  getEnv("LISTINGS_TABLE", "Listings"),
			InquiriesTable: getEnv("INQUIRIES_TABLE", "Inquiries"),
		},
		S3: S3Config{
			Bucket:          getEnv("S3_BUCKET", "realty-listing-images"),
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			PublicBaseURL:   os.Getenv("PUBLIC_BASE_URL"),
		},
		Auth: AuthConfig{
			Secret:   os.Getenv("AUTH_SECRET"),
			Issuer:   getEnv("AUTH_ISSUER", "realty-backoffice"),
			TokenTTL: getEnvDuration("AUTH_TOKEN_TTL", time.Hour),
		},
		Scraper: ScraperConfig{
			Timeout:     getEnvDuration("SCRAPE_TIMEOUT", 30*time.Second),
			DefaultSite: getEnv("SCRAPE_SITE", "onehome"),
		},
		Scheduler: SchedulerConfig{
			RefreshCron: os.Getenv("REFRESH_CRON"),
			SweepEvery:  getEnvDuration("RATE_LIMIT_SWEEP", time.Minute),
		},
		LogFile:  getEnv("LOG_FILE", "server.log"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Sites:    map[string]*SiteConfig{"onehome": DefaultSite()},
	}

	if err := cfg.loadSiteConfigs(getEnv("SITES_DIR", "config/sites")); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Site returns the profile for id, falling back to the default scrape site.
func (c *Config) Site(id string) *SiteConfig {
	if site, ok := c.Sites[id]; ok {
		return site
	}
	if site, ok := c.Sites[c.Scraper.DefaultSite]; ok {
		return site
	}
	return DefaultSite()
}

func (c *Config) loadSiteConfigs(configDir string) error {
	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		path := filepath.Join(configDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		site := DefaultSite()
		site.Selectors = map[string]string{}
		if err := yaml.Unmarshal(data, site); err != nil {
			return err
		}
		site.fillDefaults()

		c.Sites[site.ID] = site
	}

	return nil
}

// fillDefaults backfills any selector or header a yaml profile left out.
func (s *SiteConfig) fillDefaults() {
	def := DefaultSite()
	for key, sel := range def.Selectors {
		if s.Selectors[key] == "" {
			s.Selectors[key] = sel
		}
	}
	if s.Handler == "" {
		s.Handler = def.Handler
	}
	if s.UserAgent == "" {
		s.UserAgent = def.UserAgent
	}
	if len(s.ImageAttrs) == 0 {
		s.ImageAttrs = def.ImageAttrs
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
