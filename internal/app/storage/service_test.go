package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/internal/pkg/errs"
)

func TestValidateAttachment(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		mimeType string
		size     int64
		wantCode int
	}{
		{"valid png", "photo.png", "image/png", 1024, 0},
		{"valid pdf", "doc.pdf", "application/pdf", 2048, 0},
		{"mime case insensitive", "photo.PNG", "IMAGE/PNG", 1024, 0},
		{"zero size", "photo.png", "image/png", 0, errs.ErrInvalidParams},
		{"oversized", "photo.png", "image/png", MaxAttachmentSize + 1, errs.ErrFileSizeTooLarge},
		{"disallowed mime", "run.exe", "application/octet-stream", 10, errs.ErrFileTypeNotAllowed},
		{"extension mime mismatch", "photo.png", "image/jpeg", 10, errs.ErrFileTypeNotAllowed},
		{"missing extension", "photo", "image/png", 10, errs.ErrFileTypeNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAttachment(tt.fileName, tt.mimeType, tt.size)
			if tt.wantCode == 0 {
				assert.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			assert.Equal(t, tt.wantCode, err.Code)
		})
	}
}

func TestValidateAvatarAcceptsImagesOnly(t *testing.T) {
	assert.Nil(t, ValidateAvatar("me.jpg", "image/jpeg", 1024))

	err := ValidateAvatar("me.pdf", "application/pdf", 1024)
	require.NotNil(t, err)
	assert.Equal(t, errs.ErrFileTypeNotAllowed, err.Code)

	err = ValidateAvatar("me.jpg", "image/jpeg", MaxAvatarSize+1)
	require.NotNil(t, err)
	assert.Equal(t, errs.ErrFileSizeTooLarge, err.Code)
}
