package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/anonto42/findit/backend/internal/apperr"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const presignExpiry = 5 * time.Minute

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// MediaConfig describes the S3-compatible bucket item photos go to
type MediaConfig struct {
	Region    string
	Bucket    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PublicURL string
	MaxBytes  int64
}

// MediaObject is an uploaded photo
type MediaObject struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// PresignedUpload lets the browser PUT a photo straight to the bucket
type PresignedUpload struct {
	UploadURL string `json:"upload_url"`
	Key       string `json:"key"`
	PublicURL string `json:"public_url"`
	ExpiresIn int    `json:"expires_in"`
}

// MediaService stores item photos in object storage
type MediaService struct {
	client    *s3.Client
	presigner *s3.PresignClient
	cfg       MediaConfig
}

// NewS3Client builds an S3 client for cfg. A custom endpoint switches to
// path-style addressing for MinIO and similar stores.
func NewS3Client(ctx context.Context, cfg MediaConfig) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func NewMediaService(client *s3.Client, cfg MediaConfig) *MediaService {
	return &MediaService{client: client, presigner: s3.NewPresignClient(client), cfg: cfg}
}

// Upload validates that r holds an image within the size limit and stores it
// under items/<uuid><ext>
func (s *MediaService) Upload(ctx context.Context, filename string, r io.Reader) (*MediaObject, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty file: %w", apperr.ErrInvalidInput)
	}
	if int64(len(data)) > s.cfg.MaxBytes {
		return nil, fmt.Errorf("file exceeds %d bytes: %w", s.cfg.MaxBytes, apperr.ErrInvalidInput)
	}

	contentType := http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, fmt.Errorf("unsupported content type %s: %w", contentType, apperr.ErrInvalidInput)
	}
	if e := strings.ToLower(filepath.Ext(filename)); contentType == "image/jpeg" && (e == ".jpeg" || e == ".jpg") {
		ext = e
	}

	key := "items/" + uuid.New().String() + ext
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to object storage: %w", err)
	}

	log.Info().Str("key", key).Int("size", len(data)).Msg("media uploaded")
	return &MediaObject{Key: key, URL: s.publicURL(key), ContentType: contentType, Size: int64(len(data))}, nil
}

// PresignUpload returns a short-lived PUT URL for an image of contentType
func (s *MediaService) PresignUpload(ctx context.Context, contentType string) (*PresignedUpload, error) {
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, fmt.Errorf("unsupported content type %q: %w", contentType, apperr.ErrInvalidInput)
	}

	key := "items/" + uuid.New().String() + ext
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = presignExpiry
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	return &PresignedUpload{
		UploadURL: req.URL,
		Key:       key,
		PublicURL: s.publicURL(key),
		ExpiresIn: int(presignExpiry.Seconds()),
	}, nil
}

func (s *MediaService) publicURL(key string) string {
	switch {
	case s.cfg.PublicURL != "":
		return strings.TrimRight(s.cfg.PublicURL, "/") + "/" + key
	case s.cfg.Endpoint != "":
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.cfg.Endpoint, "/"), s.cfg.Bucket, key)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
	}
}
