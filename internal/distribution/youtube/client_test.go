package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"reuploader/internal/distribution"
)

// resumableServer implements the session-initiation POST and chunk PUTs of
// the resumable upload protocol.
type resumableServer struct {
	*httptest.Server

	initStatus int
	finalBody  string

	mu         sync.Mutex
	events     []string
	part       []string
	uploadType string
	video      youtube.Video
	content    bytes.Buffer
}

func newResumableServer(t *testing.T, finalBody string) *resumableServer {
	t.Helper()
	s := &resumableServer{initStatus: http.StatusOK, finalBody: finalBody}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *resumableServer) record(event string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *resumableServer) handle(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/upload/youtube/v3/videos"):
		s.mu.Lock()
		s.part = r.URL.Query()["part"]
		s.uploadType = r.URL.Query().Get("uploadType")
		_ = json.NewDecoder(r.Body).Decode(&s.video)
		s.mu.Unlock()

		if s.initStatus != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(s.initStatus)
			_, _ = w.Write([]byte(s.finalBody))
			return
		}
		w.Header().Set("Location", s.URL+"/session")
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodPut && r.URL.Path == "/session":
		s.record("chunk")
		data, _ := io.ReadAll(r.Body)

		s.mu.Lock()
		s.content.Write(data)
		received := s.content.Len()
		s.mu.Unlock()

		// "bytes a-b/total" on the last chunk, "bytes a-b/*" before it.
		contentRange := r.Header.Get("Content-Range")
		total := contentRange[strings.LastIndex(contentRange, "/")+1:]
		if total == "*" {
			w.Header().Set("Range", fmt.Sprintf("bytes=0-%d", received-1))
			if r.Header.Get("X-GUploader-No-308") == "yes" {
				w.Header().Set("X-Http-Status-Code-Override", "308")
				w.WriteHeader(http.StatusOK)
				return
			}
			w.WriteHeader(http.StatusPermanentRedirect)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(s.finalBody))

	default:
		http.NotFound(w, r)
	}
}

// progressRecorder turns progress log lines into server events so they can be
// ordered against the chunk requests.
type progressRecorder struct {
	server *resumableServer
}

func (p progressRecorder) Write(b []byte) (int, error) {
	if bytes.Contains(b, []byte("Upload progress")) {
		p.server.record("progress")
	}
	return len(b), nil
}

func captureProgress(t *testing.T, server *resumableServer) {
	t.Helper()
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(progressRecorder{server: server}, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func newTestClient(t *testing.T, server *resumableServer, chunkSize int) *Client {
	t.Helper()
	client, err := NewClient(context.Background(), server.Client(), chunkSize, option.WithEndpoint(server.URL+"/"))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write video: %v", err)
	}
	return path
}

func writeVideo(t *testing.T) string {
	t.Helper()
	return writeFile(t, "20240101_120000_Clip.mp4", []byte("fake video bytes"))
}

func TestClientUpload(t *testing.T) {
	server := newResumableServer(t, `{"kind":"youtube#video","id":"vid123"}`)
	client := newTestClient(t, server, 0)

	resp, err := client.Upload(context.Background(), distribution.UploadRequest{
		FilePath:    writeVideo(t),
		Title:       "Clip",
		Description: "Originally published at: https://example.com/v",
		Tags:        []string{"reupload"},
		Privacy:     "unlisted",
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if resp.ID != "vid123" {
		t.Errorf("ID = %q, want vid123", resp.ID)
	}
	if resp.URL != "https://youtube.com/watch?v=vid123" {
		t.Errorf("URL = %q", resp.URL)
	}
	if resp.Platform != platform {
		t.Errorf("Platform = %q, want %q", resp.Platform, platform)
	}

	if !reflect.DeepEqual(server.part, []string{"snippet", "status"}) {
		t.Errorf("part = %v, want [snippet status]", server.part)
	}
	if server.uploadType != "resumable" {
		t.Errorf("uploadType = %q, want resumable", server.uploadType)
	}
	if server.video.Snippet == nil || server.video.Snippet.Title != "Clip" {
		t.Errorf("uploaded snippet = %+v, want title Clip", server.video.Snippet)
	}
	if server.video.Snippet != nil && server.video.Snippet.CategoryId != defaultCategoryID {
		t.Errorf("CategoryId = %q, want %q", server.video.Snippet.CategoryId, defaultCategoryID)
	}
	if server.video.Status == nil || server.video.Status.PrivacyStatus != "unlisted" {
		t.Errorf("uploaded status = %+v, want unlisted", server.video.Status)
	}
	if server.content.String() != "fake video bytes" {
		t.Errorf("uploaded media = %q", server.content.String())
	}
}

func TestClientUploadInChunks(t *testing.T) {
	server := newResumableServer(t, `{"kind":"youtube#video","id":"big1"}`)
	captureProgress(t, server)
	client := newTestClient(t, server, googleapi.MinUploadChunkSize)

	data := bytes.Repeat([]byte("v"), 3*googleapi.MinUploadChunkSize+100)
	resp, err := client.Upload(context.Background(), distribution.UploadRequest{
		FilePath: writeFile(t, "20240101_120000_Big.mp4", data),
		Title:    "Big",
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if resp.ID != "big1" {
		t.Errorf("ID = %q, want big1", resp.ID)
	}

	if server.uploadType != "resumable" {
		t.Errorf("uploadType = %q, want resumable", server.uploadType)
	}
	if !bytes.Equal(server.content.Bytes(), data) {
		t.Errorf("uploaded %d bytes, want %d", server.content.Len(), len(data))
	}

	var chunks int
	for i, event := range server.events {
		if event != "chunk" {
			continue
		}
		chunks++
		if i > 0 && server.events[i-1] != "progress" {
			t.Errorf("chunk %d was not preceded by a progress update: %v", chunks, server.events)
		}
	}
	if chunks != 4 {
		t.Errorf("chunk requests = %d, want 4 (events %v)", chunks, server.events)
	}
	if len(server.events) == 0 {
		t.Fatal("no chunk requests or progress updates recorded")
	}
	if last := server.events[len(server.events)-1]; last != "progress" {
		t.Errorf("last event = %q, want final progress update", last)
	}
}

func TestNewClientRoundsChunkSize(t *testing.T) {
	tests := []struct {
		chunkSize int
		want      int
	}{
		{chunkSize: 0, want: defaultChunkSize},
		{chunkSize: 1000, want: googleapi.MinUploadChunkSize},
		{chunkSize: googleapi.MinUploadChunkSize, want: googleapi.MinUploadChunkSize},
		{chunkSize: googleapi.MinUploadChunkSize + 1, want: 2 * googleapi.MinUploadChunkSize},
	}

	for _, tt := range tests {
		client, err := NewClient(context.Background(), http.DefaultClient, tt.chunkSize)
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}
		if client.chunkSize != tt.want {
			t.Errorf("NewClient(%d) chunkSize = %d, want %d", tt.chunkSize, client.chunkSize, tt.want)
		}
	}
}

func TestClientUploadAPIError(t *testing.T) {
	server := newResumableServer(t, `{"error":{"code":400,"message":"invalid title","errors":[{"reason":"invalidTitle"}]}}`)
	server.initStatus = http.StatusBadRequest
	client := newTestClient(t, server, 0)

	resp, err := client.Upload(context.Background(), distribution.UploadRequest{
		FilePath: writeVideo(t),
		Title:    "Clip",
	})
	if err == nil {
		t.Fatal("Upload() should fail on an API error")
	}
	if resp != nil {
		t.Errorf("Upload() resp = %+v, want nil", resp)
	}
}

func TestClientUploadBadFile(t *testing.T) {
	server := newResumableServer(t, `{"id":"unused"}`)
	client := newTestClient(t, server, 0)

	_, err := client.Upload(context.Background(), distribution.UploadRequest{
		FilePath: "/nonexistent/video.mp4",
		Title:    "Test",
	})
	if err == nil {
		t.Error("Upload() should fail with nonexistent file")
	}
}

func TestClientUploadMissingID(t *testing.T) {
	server := newResumableServer(t, `{"kind":"youtube#video"}`)
	client := newTestClient(t, server, 0)

	_, err := client.Upload(context.Background(), distribution.UploadRequest{
		FilePath: writeVideo(t),
		Title:    "Clip",
	})
	if err == nil {
		t.Error("Upload() should fail when the response has no id")
	}
}

func TestPlatform(t *testing.T) {
	client := &Client{}
	if got := client.Platform(); got != platform {
		t.Errorf("Platform() = %q, want %q", got, platform)
	}
}

func TestNewVideo(t *testing.T) {
	tests := []struct {
		name        string
		req         distribution.UploadRequest
		wantErr     bool
		wantPrivacy string
		wantTitle   string
	}{
		{
			name:        "defaultsPrivacy",
			req:         distribution.UploadRequest{Title: "Clip"},
			wantPrivacy: "private",
			wantTitle:   "Clip",
		},
		{
			name:        "keepsPrivacy",
			req:         distribution.UploadRequest{Title: "Clip", Privacy: "public"},
			wantPrivacy: "public",
			wantTitle:   "Clip",
		},
		{
			name:    "invalidPrivacy",
			req:     distribution.UploadRequest{Title: "Clip", Privacy: "secret"},
			wantErr: true,
		},
		{
			name:    "emptyTitle",
			req:     distribution.UploadRequest{},
			wantErr: true,
		},
		{
			name:        "longTitle",
			req:         distribution.UploadRequest{Title: strings.Repeat("é", 120)},
			wantPrivacy: "private",
			wantTitle:   strings.Repeat("é", 100),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			video, err := newVideo(tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("newVideo() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if video.Status.PrivacyStatus != tt.wantPrivacy {
				t.Errorf("PrivacyStatus = %q, want %q", video.Status.PrivacyStatus, tt.wantPrivacy)
			}
			if video.Snippet.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", video.Snippet.Title, tt.wantTitle)
			}
		})
	}
}

func TestProgressLogger(t *testing.T) {
	p := newProgressLogger("Clip", 1000)

	steps := []struct {
		current int64
		total   int64
		want    int64
	}{
		{current: 50, total: 0, want: 0},
		{current: 100, total: 0, want: 10},
		{current: 150, total: 1000, want: 10},
		{current: 550, total: 1000, want: 50},
		{current: 500, total: 1000, want: 50},
		{current: 1200, total: 1000, want: 100},
	}

	for _, s := range steps {
		p.Update(s.current, s.total)
		if p.reported != s.want {
			t.Errorf("after Update(%d, %d) reported = %d, want %d", s.current, s.total, p.reported, s.want)
		}
	}

	empty := newProgressLogger("Empty", 0)
	empty.Update(10, 0)
	if empty.reported != 0 {
		t.Errorf("reported = %d for unknown size, want 0", empty.reported)
	}
}
