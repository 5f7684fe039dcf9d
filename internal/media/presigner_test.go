package media

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"
)

func newTestPresigner(t *testing.T, publicBaseURL string) *Presigner {
	t.Helper()
	presigner, err := NewPresigner(context.Background(), Config{
		Bucket:          "echo-media",
		Endpoint:        "http://127.0.0.1:9000",
		Region:          "us-east-1",
		AccessKeyID:     "test-access",
		SecretAccessKey: "test-secret",
		PublicBaseURL:   publicBaseURL,
		PresignTTL:      5 * time.Minute,
	})
	if err != nil {
		t.Fatalf("failed to build presigner: %v", err)
	}
	presigner.newKey = func() string { return "fixed-key" }
	return presigner
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		size        int64
		want        string
		err         error
	}{
		{name: "png", contentType: "image/png", size: 1024, want: MediaTypeImage},
		{name: "image at limit", contentType: "IMAGE/JPEG", size: MaxImageBytes, want: MediaTypeImage},
		{name: "image too large", contentType: "image/png", size: MaxImageBytes + 1, err: ErrFileTooLarge},
		{name: "video", contentType: "video/mp4", size: MaxImageBytes + 1, want: MediaTypeVideo},
		{name: "video too large", contentType: "video/mp4", size: MaxVideoBytes + 1, err: ErrFileTooLarge},
		{name: "pdf", contentType: "application/pdf", size: 10, err: ErrUnsupportedType},
		{name: "empty", contentType: "image/png", size: 0, err: ErrEmptyFile},
	}
	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			got, err := Classify(testCase.contentType, testCase.size)
			if testCase.err != nil {
				if !errors.Is(err, testCase.err) || !IsValidationError(err) {
					t.Fatalf("expected %v, got %v", testCase.err, err)
				}
				return
			}
			if err != nil || got != testCase.want {
				t.Fatalf("expected %s, got %s err=%v", testCase.want, got, err)
			}
		})
	}
}

func TestPresignUploadBuildsSignedPut(t *testing.T) {
	presigner := newTestPresigner(t, "")

	upload, err := presigner.PresignUpload(context.Background(), UploadRequest{FileName: "Holiday.JPG", ContentType: "image/jpeg", Size: 2048})
	if err != nil {
		t.Fatalf("presign failed: %v", err)
	}
	if upload.Key != "images/fixed-key.jpg" {
		t.Fatalf("unexpected key %s", upload.Key)
	}
	if upload.MediaType != MediaTypeImage {
		t.Fatalf("unexpected media type %s", upload.MediaType)
	}
	if upload.URL != "http://127.0.0.1:9000/echo-media/images/fixed-key.jpg" {
		t.Fatalf("unexpected public url %s", upload.URL)
	}

	parsed, err := url.Parse(upload.UploadURL)
	if err != nil {
		t.Fatalf("invalid upload url: %v", err)
	}
	if parsed.Path != "/echo-media/images/fixed-key.jpg" {
		t.Fatalf("expected path-style upload url, got %s", parsed.Path)
	}
	if parsed.Query().Get("X-Amz-Signature") == "" {
		t.Fatalf("expected signed url, got %s", upload.UploadURL)
	}
}

func TestPresignUploadUsesPublicBaseURL(t *testing.T) {
	presigner := newTestPresigner(t, "https://cdn.example.com/")

	upload, err := presigner.PresignUpload(context.Background(), UploadRequest{FileName: "clip", ContentType: "video/mp4", Size: 4096})
	if err != nil {
		t.Fatalf("presign failed: %v", err)
	}
	if upload.URL != "https://cdn.example.com/videos/fixed-key" {
		t.Fatalf("unexpected public url %s", upload.URL)
	}
	if !strings.Contains(upload.UploadURL, "videos/fixed-key") {
		t.Fatalf("unexpected upload url %s", upload.UploadURL)
	}
}

func TestPresignUploadRejectsInvalidFiles(t *testing.T) {
	presigner := newTestPresigner(t, "")
	if _, err := presigner.PresignUpload(context.Background(), UploadRequest{FileName: "doc.pdf", ContentType: "application/pdf", Size: 10}); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected unsupported type, got %v", err)
	}
}

func TestNewPresignerRequiresBucketAndEndpoint(t *testing.T) {
	if _, err := NewPresigner(context.Background(), Config{Endpoint: "http://localhost"}); !errors.Is(err, ErrMissingBucket) {
		t.Fatalf("expected missing bucket error, got %v", err)
	}
	if _, err := NewPresigner(context.Background(), Config{Bucket: "b"}); !errors.Is(err, ErrMissingEndpoint) {
		t.Fatalf("expected missing endpoint error, got %v", err)
	}
}
