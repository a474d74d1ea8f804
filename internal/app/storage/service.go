/*
Package storage implements the attachment and avatar resolvers on top of an
S3-compatible object store.

The messaging core never sees raw file bytes: a resolver accepts an
uploaded file and produces either the attachment url/metadata triple or an
avatar URL.
*/
package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"parley/internal/app/message"
	"parley/internal/pkg/errs"
)

const (
	// MaxAttachmentSizeMB / MaxAttachmentSize bound a single attachment.
	MaxAttachmentSizeMB = 5
	MaxAttachmentSize   = MaxAttachmentSizeMB * 1024 * 1024

	// MaxAvatarSizeMB / MaxAvatarSize bound an avatar image.
	MaxAvatarSizeMB = 2
	MaxAvatarSize   = MaxAvatarSizeMB * 1024 * 1024

	uploadTimeout = 30 * time.Second
)

// imageMIMETypes are the types accepted for avatars.
var imageMIMETypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// attachmentMIMETypes are the types accepted for message attachments:
// images plus a few common document formats.
var attachmentMIMETypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/webp":      {},
	"image/gif":       {},
	"application/pdf": {},
	"text/plain":      {},
}

// extToMIME maps permitted file extensions to their MIME types.
var extToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".pdf":  "application/pdf",
	".txt":  "text/plain",
}

// ServiceConfig holds the settings for the object store connection.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// Service is the resolver contract consumed by the HTTP handlers.
type Service interface {
	// UploadAttachment stores the file and returns the url/metadata
	// triple the messaging core attaches to a message.
	UploadAttachment(ctx context.Context, fileName, mimeType string, size int64, body io.Reader) (message.Attachment, error)

	// UploadAvatar stores an avatar image for username and returns its URL.
	UploadAvatar(ctx context.Context, username, fileName, mimeType string, size int64, body io.Reader) (string, error)
}

// NewService builds the S3-backed resolver implementation.
func NewService(cfg ServiceConfig) (Service, error) {
	return newS3Client(cfg)
}

// ValidateAttachment rejects files outside the allowed types or size.
func ValidateAttachment(fileName, mimeType string, size int64) *errs.CustomError {
	if size <= 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if size > MaxAttachmentSize {
		return errs.NewError(errs.ErrFileSizeTooLarge, MaxAttachmentSizeMB)
	}
	return validateFileType(fileName, mimeType, attachmentMIMETypes)
}

// ValidateAvatar rejects non-image avatars and oversized files.
func ValidateAvatar(fileName, mimeType string, size int64) *errs.CustomError {
	if size <= 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if size > MaxAvatarSize {
		return errs.NewError(errs.ErrFileSizeTooLarge, MaxAvatarSizeMB)
	}
	return validateFileType(fileName, mimeType, imageMIMETypes)
}

// validateFileType checks the declared MIME type against the allow set and
// requires the file extension to agree with it.
func validateFileType(fileName, mimeType string, allowed map[string]struct{}) *errs.CustomError {
	lowerMIME := strings.ToLower(mimeType)

	if _, ok := allowed[lowerMIME]; !ok {
		return errs.NewError(errs.ErrFileTypeNotAllowed)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	expectedMIME, ok := extToMIME[ext]
	if !ok || expectedMIME != lowerMIME {
		return errs.NewError(errs.ErrFileTypeNotAllowed)
	}

	return nil
}
