package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

const gcsScheme = "gs://"

type GCSStorage struct {
	client *storage.Client
}

func NewGCSStorage(ctx context.Context) (*GCSStorage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSStorage{client: client}, nil
}

func (s *GCSStorage) Close() error {
	return s.client.Close()
}

// ReadObject reads gs://<bucket>/<object>.
func (s *GCSStorage) ReadObject(ctx context.Context, url string) ([]byte, error) {
	bucket, object, err := ParseGCSURL(url)
	if err != nil {
		return nil, err
	}

	r, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create reader: %w", err)
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", url, err)
	}

	return data, nil
}

func IsGCSURL(s string) bool {
	return strings.HasPrefix(s, gcsScheme)
}

func ParseGCSURL(url string) (bucket, object string, err error) {
	if !IsGCSURL(url) {
		return "", "", fmt.Errorf("invalid GCS URL %s", url)
	}
	rest := url[len(gcsScheme):]
	sep := strings.IndexByte(rest, '/')
	if sep <= 0 || sep == len(rest)-1 {
		return "", "", fmt.Errorf("invalid GCS URL %s", url)
	}
	return rest[:sep], rest[sep+1:], nil
}
