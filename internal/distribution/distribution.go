package distribution

import "context"

type UploadRequest struct {
	FilePath    string
	Title       string
	Description string
	Tags        []string
	Privacy     string
	CategoryID  string
}

type UploadResponse struct {
	ID       string
	URL      string
	Platform string
}

type Uploader interface {
	Upload(ctx context.Context, req UploadRequest) (*UploadResponse, error)
	Platform() string
}
