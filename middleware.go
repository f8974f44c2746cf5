package blogpanel

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const uidContextKey = "uid"

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.HTTPErrorHandler = a.httpErrorHandler

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			c.Logger().Infof("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))

	// The admin SPA lives on another origin.
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: a.Config.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
	}))

	// Outer guard only; the upload pipeline enforces its own 10MiB ceiling
	// with a stable error message.
	e.Use(middleware.BodyLimit("32M"))
}

// requireAuth guards admin routes with the shared bearer-credential check and
// stashes the verified subject id in the request context.
func (a *App) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, err := a.authenticate(c)
		if err != nil {
			return err
		}
		c.Set(uidContextKey, uid)
		return next(c)
	}
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var ae *apiError
	if errors.As(err, &ae) {
		if ae.Status >= 500 {
			c.Logger().Errorf("server error: %v", err)
		}
		body := map[string]string{"error": ae.Message}
		if !a.Config.Production && ae.Status >= 500 && ae.Detail != "" {
			body["details"] = ae.Detail
		}
		_ = c.JSON(ae.Status, body)
		return
	}

	code := http.StatusInternalServerError
	message := "internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		}
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		message = "internal server error"
	}
	body := map[string]string{"error": message}
	if !a.Config.Production && code >= 500 {
		body["details"] = err.Error()
	}
	_ = c.JSON(code, body)
}
