package blogpanel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func newTestApp(t *testing.T, verifier TokenVerifier, production bool) *App {
	t.Helper()
	a := New(Config{
		DatabasePath: filepath.Join(t.TempDir(), "blog.db"),
		Production:   production,
	}, WithTokenVerifier(verifier), WithBlobStore(&fakeBlobStore{}))
	if err := a.setup(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	a.Store.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return a
}

func doJSON(a *App, method, target, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, "application/json")
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestVerifyTokenEndpoint(t *testing.T) {
	a := newTestApp(t, &fakeVerifier{uid: "user-7"}, false)

	rec := doJSON(a, http.MethodPost, "/api/verify-token", "good-token", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["uid"] != "user-7" {
		t.Errorf("uid = %v, want user-7", body["uid"])
	}

	rec = doJSON(a, http.MethodPost, "/api/verify-token", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing header: status = %d, want 401", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "authentication required" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestVerifyTokenRejected(t *testing.T) {
	a := newTestApp(t, &fakeVerifier{err: fmt.Errorf("revoked")}, false)

	rec := doJSON(a, http.MethodPost, "/api/verify-token", "revoked-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "invalid authentication token" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestContentCRUD(t *testing.T) {
	a := newTestApp(t, &fakeVerifier{uid: "editor"}, false)

	rec := doJSON(a, http.MethodPost, "/api/contents", "tok", map[string]any{
		"title":       "First Post",
		"description": "desc",
		"content":     "# hello",
		"publish":     true,
		"tags":        []string{"go", "web"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d (%s)", rec.Code, rec.Body.String())
	}
	id, _ := decodeBody(t, rec)["id"].(string)
	if id == "" {
		t.Fatal("create should return an id")
	}

	rec = doJSON(a, http.MethodGet, "/api/contents/"+id, "tok", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["title"] != "First Post" || body["publish"] != true {
		t.Errorf("record = %v", body)
	}

	rec = doJSON(a, http.MethodPut, "/api/contents/"+id, "tok", map[string]any{"title": "Renamed"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("update status = %d (%s)", rec.Code, rec.Body.String())
	}
	rec = doJSON(a, http.MethodGet, "/api/contents/"+id, "tok", nil)
	body = decodeBody(t, rec)
	if body["title"] != "Renamed" {
		t.Errorf("title after update = %v", body["title"])
	}
	if body["description"] != "desc" {
		t.Errorf("partial update touched description: %v", body["description"])
	}

	rec = doJSON(a, http.MethodGet, "/api/contents/no-such-id", "tok", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", rec.Code)
	}
}

func TestContentRoutesRequireAuth(t *testing.T) {
	a := newTestApp(t, &fakeVerifier{uid: "editor"}, false)

	for _, route := range []struct{ method, target string }{
		{http.MethodGet, "/api/contents"},
		{http.MethodPost, "/api/contents"},
		{http.MethodGet, "/api/contents/x"},
		{http.MethodPut, "/api/contents/x"},
	} {
		rec := doJSON(a, route.method, route.target, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: status = %d, want 401", route.method, route.target, rec.Code)
		}
	}
}

func TestListContentsPaginated(t *testing.T) {
	a := newTestApp(t, &fakeVerifier{uid: "editor"}, false)
	seedRecords(t, a.Store, 20)

	var all []any
	cursor := ""
	for {
		target := "/api/contents?pageSize=9"
		if cursor != "" {
			target += "&cursor=" + cursor
		}
		rec := doJSON(a, http.MethodGet, target, "tok", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("list status = %d (%s)", rec.Code, rec.Body.String())
		}
		body := decodeBody(t, rec)
		items := body["items"].([]any)
		all = append(all, items...)
		if body["has_more"] != true {
			if len(items) != 2 {
				t.Errorf("final page items = %d, want 2", len(items))
			}
			break
		}
		if len(items) != 9 {
			t.Errorf("page items = %d, want 9", len(items))
		}
		cursor = body["cursor"].(string)
	}
	if len(all) != 20 {
		t.Errorf("total items = %d, want 20", len(all))
	}
}

func TestListContentsBadPageSize(t *testing.T) {
	a := newTestApp(t, &fakeVerifier{uid: "editor"}, false)

	for _, q := range []string{"0", "-3", "101", "abc"} {
		rec := doJSON(a, http.MethodGet, "/api/contents?pageSize="+q, "tok", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("pageSize=%s: status = %d, want 400", q, rec.Code)
		}
	}
}

func TestPublishedEndpointAndCacheInvalidation(t *testing.T) {
	a := newTestApp(t, &fakeVerifier{uid: "editor"}, false)

	rec := doJSON(a, http.MethodGet, "/api/published", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("published status = %d", rec.Code)
	}
	if items := decodeBody(t, rec)["items"].([]any); len(items) != 0 {
		t.Errorf("expected no published items, got %d", len(items))
	}

	rec = doJSON(a, http.MethodPost, "/api/contents", "tok", map[string]any{
		"title": "Live", "publish": true,
	})
	id, _ := decodeBody(t, rec)["id"].(string)

	rec = doJSON(a, http.MethodGet, "/api/published", "", nil)
	if items := decodeBody(t, rec)["items"].([]any); len(items) != 1 {
		t.Fatalf("expected 1 published item after create, got %d", len(items))
	}

	// Unpublishing must invalidate the cache immediately, not after TTL.
	doJSON(a, http.MethodPut, "/api/contents/"+id, "tok", map[string]any{"publish": false})
	rec = doJSON(a, http.MethodGet, "/api/published", "", nil)
	if items := decodeBody(t, rec)["items"].([]any); len(items) != 0 {
		t.Errorf("expected no published items after unpublish, got %d", len(items))
	}
}

func uploadForm(t *testing.T, fieldContentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="test.jpg"`)
	h.Set("Content-Type", fieldContentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestUploadEndpoint(t *testing.T) {
	a := newTestApp(t, &fakeVerifier{uid: "editor"}, false)
	a.Uploader.newID = func() string { return "test-uuid-1234" }
	a.Uploader.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }

	body, contentType := uploadForm(t, "image/jpeg", testImageBytes(t))
	req := httptest.NewRequest(http.MethodPost, "/api/upload-image", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	req.Header.Set(echo.HeaderAuthorization, "Bearer tok")
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	out := decodeBody(t, rec)
	if out["success"] != true {
		t.Error("success should be true")
	}
	if out["fileName"] != "test-uuid-1234_20240101120000" {
		t.Errorf("fileName = %v", out["fileName"])
	}
	url, _ := out["url"].(string)
	if !strings.HasSuffix(url, "webp/test-uuid-1234_20240101120000.webp") {
		t.Errorf("url = %q, want the converted object's public URL", url)
	}
}

func TestUploadEndpointUnauthenticated(t *testing.T) {
	a := newTestApp(t, &fakeVerifier{uid: "editor"}, false)

	body, contentType := uploadForm(t, "image/jpeg", testImageBytes(t))
	req := httptest.NewRequest(http.MethodPost, "/api/upload-image", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestUploadDetailSuppressedInProduction(t *testing.T) {
	run := func(production bool) map[string]any {
		a := newTestApp(t, &fakeVerifier{uid: "editor"}, production)

		body, contentType := uploadForm(t, "image/jpeg", []byte("garbage payload"))
		req := httptest.NewRequest(http.MethodPost, "/api/upload-image", body)
		req.Header.Set(echo.HeaderContentType, contentType)
		req.Header.Set(echo.HeaderAuthorization, "Bearer tok")
		rec := httptest.NewRecorder()
		a.Echo.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
		return decodeBody(t, rec)
	}

	dev := run(false)
	if dev["error"] != "image upload failed" {
		t.Errorf("error = %v", dev["error"])
	}
	if _, ok := dev["details"]; !ok {
		t.Error("development mode should attach details")
	}

	prod := run(true)
	if _, ok := prod["details"]; ok {
		t.Error("production mode must not leak details")
	}
	if prod["error"] != "image upload failed" {
		t.Errorf("production error = %v", prod["error"])
	}
}
