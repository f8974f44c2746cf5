// Package blogpanel is the API backend for an authenticated blog admin panel.
// It serves cursor-paginated blog content from SQLite and ingests editor
// image uploads into a blob store in two representations (original + WebP),
// behind bearer-token authentication against an external identity provider.
package blogpanel

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	_ "modernc.org/sqlite"
)

// App is the central blogpanel application. It wires together the store, the
// blob store, the identity verifier, the upload pipeline, handlers, and
// middleware. All collaborators are injected at construction so tests can
// substitute fakes.
type App struct {
	Config   Config
	Echo     *echo.Echo
	Store    *Store
	Uploader *Uploader
	Verifier TokenVerifier
	Blobs    BlobStore

	published    *publishedCache
	authLimiter  *authLimiter
	customRoutes []func(*App)
}

// New creates a blogpanel App with the given configuration.
func New(cfg Config, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start initializes the store, default collaborators, middleware, and routes,
// then starts the server. Required configuration is validated up front so a
// misconfigured process fails fast instead of on the first request.
func (a *App) Start() error {
	if err := a.setup(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setup() error {
	if a.Verifier == nil && a.Config.IdentityAPIKey == "" {
		return fmt.Errorf("blogpanel: IdentityAPIKey is required")
	}
	if a.Blobs == nil && a.Config.PublicBaseURL == "" {
		return fmt.Errorf("blogpanel: PublicBaseURL is required")
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("blogpanel: init store: %w", err)
	}
	a.Store = store

	if a.Verifier == nil {
		a.Verifier = newIdentityVerifier(a.Config.IdentityEndpoint, a.Config.IdentityAPIKey)
	}
	if a.Blobs == nil {
		a.Blobs = NewFSBlobStore(a.Config.BlobDir, a.Config.PublicBaseURL)
	}

	a.Uploader = NewUploader(a.Verifier, a.Blobs)
	a.Uploader.MaxBytes = a.Config.MaxUploadBytes
	a.Uploader.MaxWidth = a.Config.MaxImageWidth

	a.published = newPublishedCache(a.Store, a.Config.PublishedCacheTTL)
	a.authLimiter = newAuthLimiter(10, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// The upload pipeline performs its own authentication step so the
	// verifier is called exactly once per request.
	e.POST("/api/upload-image", a.handleImageUpload)
	e.POST("/api/verify-token", a.handleVerifyToken)

	admin := e.Group("/api/contents", a.requireAuth)
	admin.GET("", a.handleListContents)
	admin.POST("", a.handleCreateContent)
	admin.GET("/:id", a.handleGetContent)
	admin.PUT("/:id", a.handleUpdateContent)

	e.GET("/api/published", a.handlePublished)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("blogpanel: required environment variable %s is not set", key)
	}
	return v
}
