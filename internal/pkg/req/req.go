/*
Package req provides helpers for HTTP request parsing.

It encapsulates multipart form handling with size enforcement so upload
handlers share one constrained parsing path.
*/
package req

import (
	"net/http"
	"strings"

	"parley/internal/pkg/errs"
)

const (
	// MaxFormMemory is the memory budget (32 MB) ParseMultipartForm uses
	// for non-file fields; larger file parts spill to temporary files.
	MaxFormMemory int64 = 32 << 20

	// MaxRequestFileSize caps the entire multipart request body (20 MB),
	// enforced through http.MaxBytesReader.
	MaxRequestFileSize int64 = 20 << 20
)

// SetupMultipart wraps the body in a size-limited reader and parses the
// multipart form.
func SetupMultipart(w http.ResponseWriter, r *http.Request) *errs.CustomError {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestFileSize)

	if err := r.ParseMultipartForm(MaxFormMemory); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}
		return errs.NewError(errs.ErrFormParseFailed)
	}

	return nil
}
