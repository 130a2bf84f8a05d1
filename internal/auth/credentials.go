package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var ErrNoCredentials = errors.New("no credential bundle available")

// Bundle is the serialized credential set produced by the consent flow and
// consumed by the uploader. The JSON field names are shared with the token
// files other tooling writes, so existing CI secrets keep working.
type Bundle struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	TokenURI     string    `json:"token_uri"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	Scopes       []string  `json:"scopes"`
	Expiry       time.Time `json:"expiry,omitzero"`
}

func NewBundle(cfg *oauth2.Config, token *oauth2.Token) *Bundle {
	scopes := cfg.Scopes
	if granted, ok := token.Extra("scope").(string); ok && granted != "" {
		scopes = strings.Fields(granted)
	}

	return &Bundle{
		Token:        token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenURI:     cfg.Endpoint.TokenURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       scopes,
		Expiry:       token.Expiry,
	}
}

func ParseBundle(data []byte) (*Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse credential bundle: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

func LoadBundleFile(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrNoCredentials, path)
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	return ParseBundle(data)
}

func (b *Bundle) Validate() error {
	if b.Token == "" && b.RefreshToken == "" {
		return errors.New("credential bundle has neither token nor refresh_token")
	}
	if b.RefreshToken != "" && (b.ClientID == "" || b.ClientSecret == "") {
		return errors.New("credential bundle has a refresh_token but no client_id/client_secret")
	}
	return nil
}

func (b *Bundle) Save(path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// JSON returns the bundle as a single line, suitable for pasting into a
// CI secret.
func (b *Bundle) JSON() (string, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("failed to marshal token: %w", err)
	}
	return string(data), nil
}

func (b *Bundle) Config() *oauth2.Config {
	endpoint := google.Endpoint
	if b.TokenURI != "" {
		endpoint.TokenURL = b.TokenURI
	}

	return &oauth2.Config{
		ClientID:     b.ClientID,
		ClientSecret: b.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       b.Scopes,
	}
}

// OAuthToken converts the bundle to an oauth2 token. A bundle without an
// expiry is treated as already expired when it can be refreshed, since
// oauth2 otherwise considers a zero expiry to mean "never expires".
func (b *Bundle) OAuthToken() *oauth2.Token {
	token := &oauth2.Token{
		AccessToken:  b.Token,
		TokenType:    "Bearer",
		RefreshToken: b.RefreshToken,
		Expiry:       b.Expiry,
	}
	if token.Expiry.IsZero() && token.RefreshToken != "" {
		token.Expiry = time.Unix(1, 0)
	}
	return token
}

func (b *Bundle) Client(ctx context.Context) *http.Client {
	return b.Config().Client(ctx, b.OAuthToken())
}
