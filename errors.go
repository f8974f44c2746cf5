package blogpanel

import (
	"fmt"
	"net/http"
)

// Failure kinds. Client-input kinds map to stable 4xx messages; server-side
// kinds collapse to a generic message with internal detail attached only
// outside production.
const (
	KindUnauthenticated      = "unauthenticated"
	KindInvalidCredential    = "invalid_credential"
	KindMissingFile          = "missing_file"
	KindFileTooLarge         = "file_too_large"
	KindUnsupportedMediaType = "unsupported_media_type"
	KindUnsupportedExtension = "unsupported_extension"
	KindUploadFailed         = "upload_failed"
	KindStoreError           = "store_error"
	KindNotFound             = "not_found"
	KindBadRequest           = "bad_request"
)

// apiError is the error type every handler and the upload pipeline return.
// Message is the stable user-facing string; Detail never reaches clients in
// production mode.
type apiError struct {
	Kind    string
	Status  int
	Message string
	Detail  string
}

func (e *apiError) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

var (
	errUnauthenticated = &apiError{
		Kind:    KindUnauthenticated,
		Status:  http.StatusUnauthorized,
		Message: "authentication required",
	}
	errInvalidCredential = &apiError{
		Kind:    KindInvalidCredential,
		Status:  http.StatusUnauthorized,
		Message: "invalid authentication token",
	}
	errMissingFile = &apiError{
		Kind:    KindMissingFile,
		Status:  http.StatusBadRequest,
		Message: "no file provided",
	}
	errUnsupportedMediaType = &apiError{
		Kind:    KindUnsupportedMediaType,
		Status:  http.StatusBadRequest,
		Message: "unsupported image type",
	}
	errUnsupportedExtension = &apiError{
		Kind:    KindUnsupportedExtension,
		Status:  http.StatusBadRequest,
		Message: "unsupported file extension",
	}
)

func errFileTooLarge(limit int64) *apiError {
	return &apiError{
		Kind:    KindFileTooLarge,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("file too large (max %dMB)", limit>>20),
	}
}

// errUploadFailed wraps a server-side pipeline failure. The cause's text is
// carried as Detail for non-production diagnostics.
func errUploadFailed(cause error) *apiError {
	e := &apiError{
		Kind:    KindUploadFailed,
		Status:  http.StatusInternalServerError,
		Message: "image upload failed",
	}
	if cause != nil {
		e.Detail = cause.Error()
	}
	return e
}

func errStore(cause error) *apiError {
	e := &apiError{
		Kind:    KindStoreError,
		Status:  http.StatusInternalServerError,
		Message: "content store error",
	}
	if cause != nil {
		e.Detail = cause.Error()
	}
	return e
}

func errNotFound(what string) *apiError {
	return &apiError{
		Kind:    KindNotFound,
		Status:  http.StatusNotFound,
		Message: what + " not found",
	}
}

func errBadRequest(msg string) *apiError {
	return &apiError{
		Kind:    KindBadRequest,
		Status:  http.StatusBadRequest,
		Message: msg,
	}
}
