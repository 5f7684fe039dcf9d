// Package media issues presigned upload URLs for post attachments on
// S3-compatible object storage. Uploads go straight from the client to the bucket.
package media

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"

	MaxImageBytes = 10 << 20
	MaxVideoBytes = 50 << 20

	defaultPresignTTL = 15 * time.Minute
	defaultRegion     = "auto"
)

var (
	ErrUnsupportedType = errors.New("only image and video uploads are supported")
	ErrFileTooLarge    = errors.New("file exceeds the size limit for its type")
	ErrEmptyFile       = errors.New("file size must be positive")
	ErrMissingBucket   = errors.New("media: bucket is required")
	ErrMissingEndpoint = errors.New("media: endpoint is required")

	extensionPattern = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)
)

type Config struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// PublicBaseURL prefixes object keys in returned URLs. Empty uses the path-style endpoint URL.
	PublicBaseURL string
	PresignTTL    time.Duration
}

// UploadRequest describes the file a client intends to upload.
type UploadRequest struct {
	FileName    string
	ContentType string
	Size        int64
}

// Upload is a presigned PUT target and the URL the object will be served from.
type Upload struct {
	UploadURL string    `json:"uploadUrl"`
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	MediaType string    `json:"mediaType"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Presigner struct {
	bucket  string
	baseURL string
	ttl     time.Duration
	client  *s3.PresignClient
	clock   func() time.Time
	newKey  func() string
}

// NewPresigner builds an S3 presign client for cfg. Bucket and Endpoint are required.
func NewPresigner(ctx context.Context, cfg Config) (*Presigner, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, ErrMissingBucket
	}
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, ErrMissingEndpoint
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}
	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = defaultPresignTTL
	}

	sdkCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("media: load sdk config: %w", err)
	}
	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	baseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		baseURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}

	return &Presigner{
		bucket:  cfg.Bucket,
		baseURL: baseURL,
		ttl:     ttl,
		client:  s3.NewPresignClient(client),
		clock:   time.Now,
		newKey:  uuid.NewString,
	}, nil
}

// PresignUpload validates the request and returns a presigned PUT URL for a fresh key.
func (p *Presigner) PresignUpload(ctx context.Context, request UploadRequest) (Upload, error) {
	mediaType, err := Classify(request.ContentType, request.Size)
	if err != nil {
		return Upload{}, err
	}
	key := fmt.Sprintf("%ss/%s%s", mediaType, p.newKey(), extension(request.FileName))
	contentType := strings.ToLower(strings.TrimSpace(request.ContentType))

	presigned, err := p.client.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(request.Size),
	}, s3.WithPresignExpires(p.ttl))
	if err != nil {
		return Upload{}, fmt.Errorf("media: presign upload: %w", err)
	}

	return Upload{
		UploadURL: presigned.URL,
		URL:       p.baseURL + "/" + key,
		Key:       key,
		MediaType: mediaType,
		ExpiresAt: p.clock().UTC().Add(p.ttl),
	}, nil
}

// Classify maps a content type to image or video and enforces its size limit.
func Classify(contentType string, size int64) (string, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if size <= 0 {
		return "", ErrEmptyFile
	}
	switch {
	case strings.HasPrefix(contentType, "image/"):
		if size > MaxImageBytes {
			return "", ErrFileTooLarge
		}
		return MediaTypeImage, nil
	case strings.HasPrefix(contentType, "video/"):
		if size > MaxVideoBytes {
			return "", ErrFileTooLarge
		}
		return MediaTypeVideo, nil
	default:
		return "", ErrUnsupportedType
	}
}

// IsValidationError reports whether err stems from a rejected upload request.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrUnsupportedType) || errors.Is(err, ErrFileTooLarge) || errors.Is(err, ErrEmptyFile)
}

func extension(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !extensionPattern.MatchString(ext) {
		return ""
	}
	return ext
}
