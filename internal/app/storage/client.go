package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"parley/internal/app/message"
	"parley/internal/pkg/logx"
)

// s3Client implements Service against any S3-compatible endpoint.
type s3Client struct {
	cfg      ServiceConfig
	uploader *manager.Uploader
}

// newS3Client initializes the S3 client with static credentials and a
// custom path-style endpoint.
func newS3Client(cfg ServiceConfig) (*s3Client, error) {
	sdkCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		logx.Error(err, "Failed to load AWS SDK config")
		return nil, errors.New("failed to initialize S3 client configuration")
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		o.UsePathStyle = true
	})

	return &s3Client{
		cfg:      cfg,
		uploader: manager.NewUploader(client),
	}, nil
}

// UploadAttachment stores the file under a unique key and returns the
// attachment triple consumed by the messaging core.
func (c *s3Client) UploadAttachment(ctx context.Context, fileName, mimeType string, size int64, body io.Reader) (message.Attachment, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	key := fmt.Sprintf("attachments/%s%s", uuid.New().String(), strings.ToLower(filepath.Ext(fileName)))

	url, err := c.put(ctx, key, mimeType, body)
	if err != nil {
		return message.Attachment{}, err
	}

	return message.Attachment{
		URL:      url,
		Name:     fileName,
		Size:     size,
		MimeType: mimeType,
	}, nil
}

// UploadAvatar stores the avatar under a per-user key, replacing any
// previous avatar for that user.
func (c *s3Client) UploadAvatar(ctx context.Context, username, fileName, mimeType string, _ int64, body io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	key := fmt.Sprintf("avatars/%s%s", username, strings.ToLower(filepath.Ext(fileName)))

	return c.put(ctx, key, mimeType, body)
}

// put uploads one object and returns its public path-style URL.
func (c *s3Client) put(ctx context.Context, key, mimeType string, body io.Reader) (string, error) {
	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      &c.cfg.S3BucketName,
		Key:         &key,
		ContentType: &mimeType,
		Body:        body,
	})
	if err != nil {
		logx.Error(err, "S3 upload failed", "key", key)
		return "", errors.New("failed to upload file to S3")
	}

	return fmt.Sprintf("%s/%s/%s",
		strings.TrimRight(c.cfg.S3Endpoint, "/"),
		c.cfg.S3BucketName,
		key,
	), nil
}
