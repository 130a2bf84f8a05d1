package auth

import (
	"context"
	"errors"
	"strings"

	"reuploader/internal/storage"
)

// Resolver turns the value of the credential environment variable into a
// bundle. The value may hold the JSON itself, a gs:// object URL or a Secret
// Manager resource name. An empty value falls back to the local token file.
type Resolver struct {
	TokenPath string

	ReadObject   func(ctx context.Context, url string) ([]byte, error)
	AccessSecret func(ctx context.Context, name string) ([]byte, error)
}

func NewResolver(tokenPath string) *Resolver {
	return &Resolver{
		TokenPath:    tokenPath,
		ReadObject:   readGCSObject,
		AccessSecret: AccessSecret,
	}
}

func (r *Resolver) Resolve(ctx context.Context, value string) (*Bundle, error) {
	value = strings.TrimSpace(value)

	switch {
	case value == "":
		return LoadBundleFile(r.TokenPath)

	case strings.HasPrefix(value, "{"):
		return ParseBundle([]byte(value))

	case storage.IsGCSURL(value):
		data, err := r.ReadObject(ctx, value)
		if err != nil {
			return nil, err
		}
		return ParseBundle(data)

	case IsSecretName(value):
		data, err := r.AccessSecret(ctx, value)
		if err != nil {
			return nil, err
		}
		return ParseBundle(data)

	default:
		return nil, errors.New("unrecognised credential value: want JSON, gs:// URL or secret name")
	}
}

func readGCSObject(ctx context.Context, url string) ([]byte, error) {
	gcs, err := storage.NewGCSStorage(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = gcs.Close() }()

	return gcs.ReadObject(ctx, url)
}
