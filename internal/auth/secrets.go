package auth

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// IsSecretName reports whether s looks like a Secret Manager resource name,
// either a secret (projects/P/secrets/S) or one of its versions.
func IsSecretName(s string) bool {
	parts := strings.Split(s, "/")
	if len(parts) != 4 && len(parts) != 6 {
		return false
	}
	if parts[0] != "projects" || parts[2] != "secrets" {
		return false
	}
	return len(parts) == 4 || parts[4] == "versions"
}

// QualifySecretName expands a bare secret id such as "youtube-token" to
// projects/<project>/secrets/youtube-token. Full resource names, and bare ids
// when no project is configured, are returned unchanged.
func QualifySecretName(name, project string) string {
	if project == "" || strings.Contains(name, "/") {
		return name
	}
	return "projects/" + project + "/secrets/" + name
}

func secretVersionName(name string) string {
	if strings.Contains(name, "/versions/") {
		return name
	}
	return name + "/versions/latest"
}

func AccessSecret(ctx context.Context, name string) ([]byte, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}
	defer func() { _ = client.Close() }()

	resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretVersionName(name),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access secret %s: %w", name, err)
	}

	return resp.GetPayload().GetData(), nil
}

// PublishBundle stores the bundle as a new version of an existing secret and
// returns the version's resource name.
func PublishBundle(ctx context.Context, secret string, b *Bundle) (string, error) {
	data, err := b.JSON()
	if err != nil {
		return "", err
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create secret manager client: %w", err)
	}
	defer func() { _ = client.Close() }()

	version, err := client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent:  secret,
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(data)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to add secret version: %w", err)
	}

	return version.GetName(), nil
}
