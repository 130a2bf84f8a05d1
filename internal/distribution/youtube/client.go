package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"reuploader/internal/distribution"
)

const (
	defaultCategoryID = "22"
	defaultPrivacy    = "private"
	defaultChunkSize  = googleapi.DefaultUploadChunkSize
	platform          = "youtube"
	watchURL          = "https://youtube.com/watch?v=%s"
)

var _ distribution.Uploader = (*Client)(nil)

type Client struct {
	service   *youtube.Service
	chunkSize int
}

// NewClient builds an uploader on top of an already authenticated HTTP
// client. Extra options are passed to the YouTube service, mainly so tests
// can point it at a local endpoint.
func NewClient(ctx context.Context, httpClient *http.Client, chunkSize int, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)

	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	// The upload protocol only accepts whole multiples of the minimum chunk.
	if rem := chunkSize % googleapi.MinUploadChunkSize; rem != 0 {
		chunkSize += googleapi.MinUploadChunkSize - rem
	}

	return &Client{service: svc, chunkSize: chunkSize}, nil
}

// Upload sends the file as a new video using a resumable upload, in chunks
// of chunkSize, and returns the id YouTube assigns to it.
func (c *Client) Upload(ctx context.Context, req distribution.UploadRequest) (*distribution.UploadResponse, error) {
	video, err := newVideo(req)
	if err != nil {
		return nil, err
	}

	videoFile, err := os.Open(req.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open video file: %w", err)
	}
	defer func() { _ = videoFile.Close() }()

	info, err := videoFile.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat video file: %w", err)
	}

	progress := newProgressLogger(req.Title, info.Size())

	slog.Info("Uploading", "title", req.Title, "path", req.FilePath, "bytes", info.Size())
	call := c.service.Videos.Insert([]string{"snippet", "status"}, video)
	if info.Size() > int64(c.chunkSize) {
		call = call.Media(videoFile, googleapi.ChunkSize(c.chunkSize))
	} else {
		// Media sends a file that fits in one chunk as a plain multipart
		// request. Force a resumable session for those too.
		call = call.ResumableMedia(ctx, videoFile, info.Size(), "")
	}

	uploaded, err := call.
		ProgressUpdater(progress.Update).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to upload video: %w", err)
	}
	if uploaded.Id == "" {
		return nil, fmt.Errorf("upload response has no video id")
	}

	return &distribution.UploadResponse{
		ID:       uploaded.Id,
		URL:      fmt.Sprintf(watchURL, uploaded.Id),
		Platform: platform,
	}, nil
}

func (c *Client) Platform() string {
	return platform
}

func newVideo(req distribution.UploadRequest) (*youtube.Video, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("title cannot be empty")
	}

	privacy := req.Privacy
	if privacy == "" {
		privacy = defaultPrivacy
	}
	if !validPrivacy(privacy) {
		return nil, fmt.Errorf("invalid privacy status: %s", privacy)
	}

	categoryID := req.CategoryID
	if categoryID == "" {
		categoryID = defaultCategoryID
	}

	return &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       truncateTitle(req.Title),
			Description: req.Description,
			Tags:        req.Tags,
			CategoryId:  categoryID,
		},
		Status: &youtube.VideoStatus{PrivacyStatus: privacy},
	}, nil
}

// YouTube rejects titles longer than 100 characters.
func truncateTitle(title string) string {
	const maxTitle = 100
	runes := []rune(title)
	if len(runes) <= maxTitle {
		return title
	}
	return string(runes[:maxTitle])
}

func validPrivacy(privacy string) bool {
	switch privacy {
	case "public", "unlisted", "private":
		return true
	}
	return false
}
