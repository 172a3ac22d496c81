package global

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	GatewayStorefront = "storefront"
	GatewayLocal      = "local"
)

type Config struct {
	Port           string
	Env            string
	AllowedOrigins []string

	// GatewayMode picks the backend: the hosted storefront API, or the
	// local MongoDB catalog with Redis carts.
	GatewayMode          string
	StorefrontDomain     string
	StorefrontToken      string
	StorefrontAPIVersion string

	MongoURI      string
	MongoDatabase string

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	CatalogPageSize int
	CatalogMaxPages int
	CartIDTTL       time.Duration
	ProductCacheTTL time.Duration
	CheckoutBaseURL string
	RequestTimeout  time.Duration
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// LoadEnvFile reads .env into the process environment. A missing file is only
// an error in production.
func LoadEnvFile(production bool, files ...string) error {
	err := godotenv.Load(files...)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) && !production {
		return nil
	}
	return fmt.Errorf("load env file: %w", err)
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port: GetEnvOrDefault("PORT", "8000"),
		Env:  GetEnvOrDefault("ENV", "development"),
		AllowedOrigins: GetEnvList("ALLOWED_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),
		GatewayMode:          strings.ToLower(GetEnvOrDefault("GATEWAY_MODE", GatewayStorefront)),
		StorefrontDomain:     GetEnvOrDefault("STOREFRONT_DOMAIN", ""),
		StorefrontToken:      GetEnvOrDefault("STOREFRONT_ACCESS_TOKEN", ""),
		StorefrontAPIVersion: GetEnvOrDefault("STOREFRONT_API_VERSION", "2024-10"),
		MongoURI:             GetEnvOrDefault("MONGODB_URI", ""),
		MongoDatabase:        GetEnvOrDefault("MONGODB_DATABASE", "storefront"),
		RedisAddress:         GetEnvOrDefault("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword:        GetEnvOrDefault("REDIS_PASSWORD", ""),
		CheckoutBaseURL:      GetEnvOrDefault("CHECKOUT_BASE_URL", "http://localhost:8000/checkout"),
	}

	var errs []error
	var err error
	if cfg.RedisDB, err = GetEnvInt("REDIS_DB", 0); err != nil {
		errs = append(errs, err)
	}
	if cfg.CatalogPageSize, err = GetEnvInt("CATALOG_PAGE_SIZE", 50); err != nil {
		errs = append(errs, err)
	}
	if cfg.CatalogMaxPages, err = GetEnvInt("CATALOG_MAX_PAGES", 20); err != nil {
		errs = append(errs, err)
	}
	if cfg.CartIDTTL, err = GetEnvDuration("CART_ID_TTL", 30*24*time.Hour); err != nil {
		errs = append(errs, err)
	}
	if cfg.ProductCacheTTL, err = GetEnvDuration("PRODUCT_CACHE_TTL", 24*time.Hour); err != nil {
		errs = append(errs, err)
	}
	if cfg.RequestTimeout, err = GetEnvDuration("REQUEST_TIMEOUT", 10*time.Second); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.GatewayMode {
	case GatewayStorefront:
		if c.StorefrontDomain == "" {
			errs = append(errs, errors.New("STOREFRONT_DOMAIN is required in storefront mode"))
		}
		if c.StorefrontToken == "" {
			errs = append(errs, errors.New("STOREFRONT_ACCESS_TOKEN is required in storefront mode"))
		}
	case GatewayLocal:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_URI is required in local mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("GATEWAY_MODE must be %q or %q, got %q", GatewayStorefront, GatewayLocal, c.GatewayMode))
	}
	if c.CatalogPageSize < 1 || c.CatalogPageSize > 250 {
		errs = append(errs, fmt.Errorf("CATALOG_PAGE_SIZE must be between 1 and 250, got %d", c.CatalogPageSize))
	}
	if c.CatalogMaxPages < 1 {
		errs = append(errs, fmt.Errorf("CATALOG_MAX_PAGES must be positive, got %d", c.CatalogMaxPages))
	}
	if c.CartIDTTL <= 0 {
		errs = append(errs, errors.New("CART_ID_TTL must be positive"))
	}
	return errors.Join(errs...)
}
