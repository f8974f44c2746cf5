package blogpanel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// TokenVerifier validates a bearer credential against an identity provider and
// returns the verified subject id. Implementations must treat every rejection
// (expired, malformed, revoked) as an error.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (uid string, err error)
}

const defaultIdentityEndpoint = "https://identitytoolkit.googleapis.com/v1/accounts:lookup"

// identityVerifier verifies ID tokens by posting them to the provider's
// accounts:lookup endpoint.
type identityVerifier struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func newIdentityVerifier(endpoint, apiKey string) *identityVerifier {
	if endpoint == "" {
		endpoint = defaultIdentityEndpoint
	}
	return &identityVerifier{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *identityVerifier) Verify(ctx context.Context, token string) (string, error) {
	body, err := json.Marshal(map[string]string{"idToken": token})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint+"?key="+v.apiKey, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("identity lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("identity lookup: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out struct {
		Users []struct {
			LocalID string `json:"localId"`
		} `json:"users"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("identity lookup: decode response: %w", err)
	}
	if len(out.Users) == 0 || out.Users[0].LocalID == "" {
		return "", fmt.Errorf("identity lookup: token resolved to no user")
	}
	return out.Users[0].LocalID, nil
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. A missing or malformed header fails before any token is inspected.
func bearerToken(c echo.Context) (string, error) {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if h == "" || !strings.HasPrefix(h, "Bearer ") {
		return "", errUnauthenticated
	}
	return strings.TrimPrefix(h, "Bearer "), nil
}

var errTooManyAttempts = &apiError{
	Kind:    "too_many_attempts",
	Status:  http.StatusTooManyRequests,
	Message: "too many failed authentication attempts",
}

// authenticate runs the shared bearer-credential check: parse the header,
// rate-limit repeat offenders per IP, then call the verifier exactly once.
func (a *App) authenticate(c echo.Context) (string, error) {
	token, err := bearerToken(c)
	if err != nil {
		return "", err
	}
	ip := c.RealIP()
	if !a.authLimiter.Check(ip) {
		return "", errTooManyAttempts
	}
	uid, err := a.Verifier.Verify(c.Request().Context(), token)
	if err != nil {
		a.authLimiter.Record(ip)
		return "", errInvalidCredential
	}
	return uid, nil
}
