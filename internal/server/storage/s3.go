// Package storage issues presigned S3 upload URLs for vehicle images so
// browsers can upload directly to the object store.
package storage

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/csemotors/internal/common"
	"github.com/dmitrijs2005/csemotors/internal/server/config"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}

	timeNow = time.Now
)

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {}, ".gif": {},
}

// ImageUpload describes a single presigned PUT.
type ImageUpload struct {
	Key       string      `json:"key"`
	URL       string      `json:"url"`
	Method    string      `json:"method"`
	Headers   http.Header `json:"headers"`
	ExpiresAt time.Time   `json:"expires_at"`
}

type Presigner struct {
	client   *s3.PresignClient
	bucket   string
	validity time.Duration
}

// NewS3Presigner builds a presigner for an S3-compatible endpoint using the
// static credentials from cfg.
func NewS3Presigner(ctx context.Context, cfg *config.Config) (*Presigner, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newPresigner(awsCfg, cfg.S3BaseEndpoint, cfg.S3Bucket, cfg.UploadURLValidity), nil
}

func newPresigner(awsCfg aws.Config, endpoint, bucket string, validity time.Duration) *Presigner {
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = true
	})
	if validity <= 0 {
		validity = 15 * time.Minute
	}
	return &Presigner{client: s3.NewPresignClient(client), bucket: bucket, validity: validity}
}

// ImageKey returns a fresh object key for filename, keeping its extension.
func ImageKey(filename string, now time.Time) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	if _, ok := imageExtensions[ext]; !ok {
		return "", fmt.Errorf("%w: unsupported image type %q", common.ErrorValidation, ext)
	}
	return fmt.Sprintf("vehicles/%d/%02d/%02d/%s%s", now.Year(), now.Month(), now.Day(), uuid.New(), ext), nil
}

// PresignVehicleImage returns a PUT URL for a new vehicle image.
func (p *Presigner) PresignVehicleImage(ctx context.Context, filename, contentType string) (*ImageUpload, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: content type %q is not an image", common.ErrorValidation, contentType)
	}

	now := timeNow()
	key, err := ImageKey(filename, now)
	if err != nil {
		return nil, err
	}

	req, err := presignPutObject(p.client, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(p.validity))
	if err != nil {
		return nil, fmt.Errorf("presign put: %w", err)
	}

	return &ImageUpload{
		Key:       key,
		URL:       req.URL,
		Method:    req.Method,
		Headers:   req.SignedHeader,
		ExpiresAt: now.Add(p.validity),
	}, nil
}
