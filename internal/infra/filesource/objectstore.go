package filesource

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yanqian/multimodal-summarizer/internal/domain/form"
	apperrors "github.com/yanqian/multimodal-summarizer/pkg/errors"
)

// ObjectStore reads files from S3-compatible storage (S3, R2, MinIO).
// References have the form "bucket/key".
type ObjectStore struct {
	client *minio.Client
	logger *slog.Logger
}

// NewObjectStore constructs the storage adapter.
func NewObjectStore(endpoint, accessKey, secretKey, region string, logger *slog.Logger) (*ObjectStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cleanEndpoint := sanitizeEndpoint(endpoint)
	if cleanEndpoint == "" {
		return nil, fmt.Errorf("object storage endpoint cannot be empty")
	}
	useSSL := !strings.HasPrefix(strings.ToLower(strings.TrimSpace(endpoint)), "http://")
	client, err := minio.New(cleanEndpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       useSSL,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init object storage client: %w", err)
	}
	return &ObjectStore{client: client, logger: logger.With("component", "filesource.objectstore")}, nil
}

// Open downloads the object named by ref.
func (s *ObjectStore) Open(ctx context.Context, ref string) (form.SelectedFile, error) {
	bucket, key, err := splitRef(ref)
	if err != nil {
		return form.SelectedFile{}, err
	}
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return form.SelectedFile{}, apperrors.Wrap(apperrors.CodeFileUnreadable, "open object "+ref, err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return form.SelectedFile{}, apperrors.Wrap(apperrors.CodeFileUnreadable, "object not found: "+ref, err)
		}
		return form.SelectedFile{}, apperrors.Wrap(apperrors.CodeFileUnreadable, "stat object "+ref, err)
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return form.SelectedFile{}, apperrors.Wrap(apperrors.CodeFileUnreadable, "read object "+ref, err)
	}
	s.logger.Debug("object selected", "bucket", bucket, "key", key, "size", info.Size)

	return form.SelectedFile{
		Name:     path.Base(key),
		MimeType: resolveMimeType(info.ContentType, data),
		Size:     int64(len(data)),
		Content:  data,
	}, nil
}

var _ Source = (*ObjectStore)(nil)

func splitRef(ref string) (string, string, error) {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), "/")
	bucket, key, ok := strings.Cut(ref, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", apperrors.Wrap(apperrors.CodeInvalidRequest, fmt.Sprintf("object reference %q must look like bucket/key", ref), nil)
	}
	return bucket, key, nil
}

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if strings.Contains(raw, "/") {
		parts := strings.Split(raw, "/")
		raw = parts[0]
	}
	return raw
}
