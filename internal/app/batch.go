package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"reuploader/internal/distribution"
	"reuploader/internal/storage"
)

type Downloader interface {
	Download(ctx context.Context, url string) (string, error)
}

// Result is the outcome for one URL. VideoID is empty unless the upload
// succeeded.
type Result struct {
	URL     string
	Path    string
	VideoID string
	Err     error
}

type Summary struct {
	Results  []Result
	Uploaded int
	Failed   int
}

// Batch downloads and re-uploads a list of URLs one at a time, pausing a
// fixed interval between items.
type Batch struct {
	downloader        Downloader
	uploader          distribution.Uploader
	metadata          distribution.Metadata
	storage           *storage.LocalStorage
	interval          time.Duration
	deleteAfterUpload bool
	sleep             func(ctx context.Context, d time.Duration) error
}

type BatchOptions struct {
	Downloader        Downloader
	Uploader          distribution.Uploader
	Metadata          distribution.Metadata
	Storage           *storage.LocalStorage
	Interval          time.Duration
	DeleteAfterUpload bool
}

func NewBatch(opts BatchOptions) *Batch {
	return &Batch{
		downloader:        opts.Downloader,
		uploader:          opts.Uploader,
		metadata:          opts.Metadata,
		storage:           opts.Storage,
		interval:          opts.Interval,
		deleteAfterUpload: opts.DeleteAfterUpload,
		sleep:             sleepContext,
	}
}

// Run processes every URL exactly once, in order. Per-URL failures are
// logged and recorded in the summary; only cancellation of ctx stops the
// loop early.
func (b *Batch) Run(ctx context.Context, urls []string) (*Summary, error) {
	summary := &Summary{}
	if len(urls) == 0 {
		slog.Info("No URLs found")
		return summary, nil
	}

	log := slog.With("run", uuid.NewString())
	log.Info("Starting batch", "urls", len(urls), "interval", b.interval)

	for i, url := range urls {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result := b.process(ctx, log, url)
		summary.Results = append(summary.Results, result)
		if result.Err != nil {
			summary.Failed++
		} else {
			summary.Uploaded++
		}

		if i < len(urls)-1 {
			log.Info("Waiting before next upload", "interval", b.interval)
			if err := b.sleep(ctx, b.interval); err != nil {
				return summary, err
			}
		}
	}

	log.Info("Batch complete", "processed", len(summary.Results), "uploaded", summary.Uploaded, "failed", summary.Failed)
	return summary, nil
}

func (b *Batch) process(ctx context.Context, log *slog.Logger, url string) Result {
	result := Result{URL: url}

	path, err := b.downloader.Download(ctx, url)
	if err != nil {
		log.Error("Download failed, skipping upload", "url", url, "error", err)
		result.Err = err
		return result
	}
	result.Path = path

	resp, err := b.uploader.Upload(ctx, b.metadata.Request(path, url))
	if err != nil {
		log.Error("Upload failed", "url", url, "path", path, "error", err)
		result.Err = err
		return result
	}
	result.VideoID = resp.ID

	log.Info("Upload complete", "url", url, "video_id", resp.ID, "watch_url", resp.URL)

	if b.deleteAfterUpload && b.storage != nil {
		if err := b.storage.Remove(path); err != nil {
			log.Warn("Failed to remove uploaded file", "path", path, "error", err)
		} else {
			log.Debug("Removed uploaded file", "path", path)
		}
	}

	return result
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
