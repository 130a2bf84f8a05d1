package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	orig, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(orig) })
	_ = os.Chdir(tmp)
	return tmp
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"YOUTUBE_TOKEN", "YOUTUBE_CLIENT_SECRETS", "YOUTUBE_TOKEN_PATH", "GOOGLE_CLOUD_PROJECT"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ClientSecretsPath != defaultClientSecretsPath {
		t.Errorf("ClientSecretsPath = %q, want %q", cfg.ClientSecretsPath, defaultClientSecretsPath)
	}
	if cfg.TokenPath != defaultTokenPath {
		t.Errorf("TokenPath = %q, want %q", cfg.TokenPath, defaultTokenPath)
	}
	if cfg.Auth.Port != 8080 {
		t.Errorf("Auth.Port = %d, want 8080", cfg.Auth.Port)
	}
	if cfg.Batch.URLsFile != "urls.txt" {
		t.Errorf("Batch.URLsFile = %q, want urls.txt", cfg.Batch.URLsFile)
	}
	if cfg.Batch.Interval != 30*time.Second {
		t.Errorf("Batch.Interval = %v, want 30s", cfg.Batch.Interval)
	}
	if cfg.Batch.DeleteAfterUpload {
		t.Error("Batch.DeleteAfterUpload = true, want false")
	}
	if cfg.Download.OutputDir != "downloads" {
		t.Errorf("Download.OutputDir = %q, want downloads", cfg.Download.OutputDir)
	}
	if cfg.YouTube.PrivacyStatus != "private" {
		t.Errorf("YouTube.PrivacyStatus = %q, want private", cfg.YouTube.PrivacyStatus)
	}
	if cfg.YouTube.ChunkSize != defaultChunkSize {
		t.Errorf("YouTube.ChunkSize = %d, want %d", cfg.YouTube.ChunkSize, defaultChunkSize)
	}
}

func TestLoadFromYAML(t *testing.T) {
	tmp := chdirTemp(t)
	clearEnv(t)

	yaml := `
auth:
  port: 9090
batch:
  urls_file: list.txt
  interval: 5s
  delete_after_upload: true
download:
  output_dir: media
  executable: /opt/yt-dlp
youtube:
  privacy_status: unlisted
  tags: [archive, mirror]
`
	_ = os.WriteFile(filepath.Join(tmp, "config.yaml"), []byte(yaml), 0644)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Auth.Port != 9090 {
		t.Errorf("Auth.Port = %d, want 9090", cfg.Auth.Port)
	}
	if cfg.Batch.URLsFile != "list.txt" {
		t.Errorf("Batch.URLsFile = %q, want list.txt", cfg.Batch.URLsFile)
	}
	if cfg.Batch.Interval != 5*time.Second {
		t.Errorf("Batch.Interval = %v, want 5s", cfg.Batch.Interval)
	}
	if !cfg.Batch.DeleteAfterUpload {
		t.Error("Batch.DeleteAfterUpload = false, want true")
	}
	if cfg.Download.OutputDir != "media" {
		t.Errorf("Download.OutputDir = %q, want media", cfg.Download.OutputDir)
	}
	if cfg.Download.Executable != "/opt/yt-dlp" {
		t.Errorf("Download.Executable = %q, want /opt/yt-dlp", cfg.Download.Executable)
	}
	if cfg.Download.Format != "best" {
		t.Errorf("Download.Format = %q, want best", cfg.Download.Format)
	}
	if cfg.YouTube.PrivacyStatus != "unlisted" {
		t.Errorf("YouTube.PrivacyStatus = %q, want unlisted", cfg.YouTube.PrivacyStatus)
	}
	if want := []string{"archive", "mirror"}; !reflect.DeepEqual(cfg.YouTube.Tags, want) {
		t.Errorf("YouTube.Tags = %v, want %v", cfg.YouTube.Tags, want)
	}
}

func TestLoadFromEnv(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)

	t.Setenv("YOUTUBE_TOKEN", `{"token":"abc"}`)
	t.Setenv("YOUTUBE_CLIENT_SECRETS", "secrets/client.json")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "test-project")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.YouTubeToken != `{"token":"abc"}` {
		t.Errorf("YouTubeToken = %q", cfg.YouTubeToken)
	}
	if cfg.ClientSecretsPath != "secrets/client.json" {
		t.Errorf("ClientSecretsPath = %q, want secrets/client.json", cfg.ClientSecretsPath)
	}
	if cfg.GCPProject != "test-project" {
		t.Errorf("GCPProject = %q, want test-project", cfg.GCPProject)
	}
}

func TestLoadDotEnv(t *testing.T) {
	tmp := chdirTemp(t)
	clearEnv(t)
	_ = os.Unsetenv("YOUTUBE_TOKEN_PATH")

	_ = os.WriteFile(filepath.Join(tmp, ".env"), []byte("YOUTUBE_TOKEN_PATH=creds/token.json\n"), 0644)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.TokenPath != "creds/token.json" {
		t.Errorf("TokenPath = %q, want creds/token.json", cfg.TokenPath)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	tmp := chdirTemp(t)
	clearEnv(t)

	_ = os.WriteFile(filepath.Join(tmp, "config.yaml"), []byte("batch: [unclosed"), 0644)

	if _, err := Load(); err == nil {
		t.Error("Load() should fail on malformed config.yaml")
	}
}
