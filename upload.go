package blogpanel

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// allowedMediaTypes is an exact allow-list; "image/*" prefixes outside it are
// rejected.
var allowedMediaTypes = map[string]bool{
	"image/jpeg":    true,
	"image/jpg":     true,
	"image/png":     true,
	"image/gif":     true,
	"image/webp":    true,
	"image/svg+xml": true,
}

var allowedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
	"svg":  true,
}

// UploadRequest is the ephemeral input of one pipeline run.
type UploadRequest struct {
	Authorization string // raw Authorization header value
	Filename      string
	ContentType   string
	Data          []byte // nil when no file field was submitted
}

// Uploader orchestrates the image ingestion pipeline: identity check,
// validation, deterministic naming, dual-format storage, and public URL
// derivation. It is stateless between runs.
type Uploader struct {
	Verifier TokenVerifier
	Blobs    BlobStore
	MaxBytes int64
	MaxWidth int

	// now and newID are injectable so tests can pin exact object paths.
	now   func() time.Time
	newID func() string
}

// NewUploader creates an Uploader with production naming (random UUID plus
// request-processing timestamp).
func NewUploader(v TokenVerifier, b BlobStore) *Uploader {
	return &Uploader{
		Verifier: v,
		Blobs:    b,
		MaxBytes: maxUploadSize,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Run executes the pipeline. Each step short-circuits on failure; no step
// runs before authentication succeeds, and the verifier is called exactly
// once per run. If the converted write fails after the original write
// succeeded, the original blob is left in place: the two representations are
// not a transaction.
func (u *Uploader) Run(ctx context.Context, req UploadRequest) (*StoredImageResult, error) {
	if req.Authorization == "" || !strings.HasPrefix(req.Authorization, "Bearer ") {
		return nil, errUnauthenticated
	}
	token := strings.TrimPrefix(req.Authorization, "Bearer ")
	if _, err := u.Verifier.Verify(ctx, token); err != nil {
		return nil, errInvalidCredential
	}

	if req.Data == nil {
		return nil, errMissingFile
	}
	if int64(len(req.Data)) > u.MaxBytes {
		return nil, errFileTooLarge(u.MaxBytes)
	}
	if !allowedMediaTypes[req.ContentType] {
		return nil, errUnsupportedMediaType
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(req.Filename), "."))
	if !allowedExtensions[ext] {
		return nil, errUnsupportedExtension
	}

	baseName := u.newID() + "_" + u.now().UTC().Format("20060102150405")
	originalPath := "img/" + baseName + "." + ext
	webpPath := "webp/" + baseName + ".webp"

	if err := u.Blobs.Put(ctx, originalPath, req.Data, req.ContentType); err != nil {
		return nil, errUploadFailed(err)
	}
	if err := u.Blobs.SetPublic(ctx, originalPath); err != nil {
		return nil, errUploadFailed(err)
	}

	converted, err := convertToWebP(req.Data, u.MaxWidth)
	if err != nil {
		return nil, errUploadFailed(err)
	}

	if err := u.Blobs.Put(ctx, webpPath, converted, "image/webp"); err != nil {
		return nil, errUploadFailed(err)
	}
	if err := u.Blobs.SetPublic(ctx, webpPath); err != nil {
		return nil, errUploadFailed(err)
	}

	return &StoredImageResult{
		BaseName:     baseName,
		OriginalPath: originalPath,
		WebPPath:     webpPath,
		PublicURL:    u.Blobs.PublicURL(webpPath),
	}, nil
}

type uploadResponse struct {
	Success  bool   `json:"success"`
	URL      string `json:"url"`
	FileName string `json:"fileName"`
}

func (a *App) handleImageUpload(c echo.Context) error {
	req := UploadRequest{
		Authorization: c.Request().Header.Get(echo.HeaderAuthorization),
	}
	if fh, err := c.FormFile("file"); err == nil {
		src, err := fh.Open()
		if err != nil {
			return err
		}
		defer src.Close()
		data, err := io.ReadAll(src)
		if err != nil {
			return err
		}
		req.Filename = fh.Filename
		req.ContentType = fh.Header.Get("Content-Type")
		req.Data = data
	}

	result, err := a.Uploader.Run(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, uploadResponse{
		Success:  true,
		URL:      result.PublicURL,
		FileName: result.BaseName,
	})
}
