package helpers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// NewGCSClient creates a Google Cloud Storage client. If credsPath is empty, ADC is used.
func NewGCSClient(ctx context.Context, credsPath string) (*storage.Client, error) {
	if credsPath == "" {
		return storage.NewClient(ctx)
	}
	return storage.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

// UploadObject uploads bytes from r into bucket/objectPath with the provided contentType
func UploadObject(ctx context.Context, client *storage.Client, bucket, objectPath, contentType string, r io.Reader) (string, error) {
	wc := client.Bucket(bucket).Object(objectPath).NewWriter(ctx)
	wc.ContentType = contentType
	wc.ChunkSize = 0 // disable chunking for small files
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", err
	}
	return PublicURL(bucket, objectPath), nil
}

// PublicURL builds a public URL for an object (assuming public read access or signed URLs)
func PublicURL(bucket, objectPath string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, objectPath)
}

// GCSUploader pushes temp files written by the multipart layer to a bucket.
// The local file is removed once the upload finishes, whether it succeeded or not.
type GCSUploader struct {
	Client *storage.Client
	Bucket string
	Prefix string
}

func NewGCSUploader(client *storage.Client, bucket, prefix string) *GCSUploader {
	return &GCSUploader{Client: client, Bucket: bucket, Prefix: prefix}
}

func (u *GCSUploader) Upload(ctx context.Context, localPath string) (string, error) {
	if localPath == "" {
		return "", errors.New("no file to upload")
	}
	defer func() { _ = os.Remove(localPath) }()

	if u == nil || u.Client == nil || u.Bucket == "" {
		return "", errors.New("gcs not configured")
	}
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	return UploadObject(ctx, u.Client, u.Bucket, ObjectPath(u.Prefix, localPath), ContentTypeOf(localPath), f)
}

// ObjectPath names the stored object by a fresh uuid, keeping the file extension.
func ObjectPath(prefix, localPath string) string {
	ext := strings.ToLower(filepath.Ext(localPath))
	return path.Join(prefix, uuid.NewString()+ext)
}

func ContentTypeOf(localPath string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(localPath))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
