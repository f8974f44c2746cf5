package blogpanel

import "time"

// Config holds all configuration for a blogpanel service.
type Config struct {
	Addr         string // Listen address (default ":8080")
	DatabasePath string // SQLite path (default "data/blog.db")

	// PublicBaseURL is the URL prefix under which stored blobs are reachable,
	// e.g. "https://cdn.example.com". Required unless a BlobStore is injected.
	PublicBaseURL string
	// BlobDir is the local directory backing the filesystem blob store
	// (default "public"). Ignored when a BlobStore is injected.
	BlobDir string

	// IdentityAPIKey authenticates calls to the token verification endpoint of
	// the identity provider. Required unless a TokenVerifier is injected.
	IdentityAPIKey string
	// IdentityEndpoint overrides the provider's accounts:lookup URL. Mainly
	// for tests.
	IdentityEndpoint string

	// AllowedOrigins are the origins of the admin SPA for CORS (default "*").
	AllowedOrigins []string

	PageSize          int           // Records per page (default 9)
	MaxUploadBytes    int64         // Upload size ceiling (default 10 MiB)
	MaxImageWidth     int           // Downscale wider uploads, 0 disables (default 1600)
	PublishedCacheTTL time.Duration // Published-list cache TTL (default 5min)

	// Production suppresses internal error detail in 5xx responses.
	Production bool
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/blog.db"
	}
	if c.BlobDir == "" {
		c.BlobDir = "public"
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.PageSize == 0 {
		c.PageSize = 9
	}
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = maxUploadSize
	}
	if c.MaxImageWidth == 0 {
		c.MaxImageWidth = 1600
	}
	if c.PublishedCacheTTL == 0 {
		c.PublishedCacheTTL = 5 * time.Minute
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithTokenVerifier replaces the default identity-provider verifier. Tests use
// this to substitute a fake; deployments can plug in a vendor SDK.
func WithTokenVerifier(v TokenVerifier) Option {
	return func(a *App) {
		a.Verifier = v
	}
}

// WithBlobStore replaces the default filesystem blob store.
func WithBlobStore(b BlobStore) Option {
	return func(a *App) {
		a.Blobs = b
	}
}

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}
