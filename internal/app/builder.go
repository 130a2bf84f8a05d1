package app

import (
	"context"
	"fmt"

	"reuploader/internal/auth"
	"reuploader/internal/distribution"
	"reuploader/internal/distribution/youtube"
	"reuploader/internal/download"
	"reuploader/internal/storage"
	"reuploader/pkg/config"
)

// BuildBatch wires the batch uploader from configuration. The credential
// bundle is resolved once and its client reused for every upload.
func BuildBatch(ctx context.Context, cfg *config.Config) (*Batch, error) {
	bundle, err := auth.NewResolver(cfg.TokenPath).Resolve(ctx, cfg.YouTubeToken)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	ytClient, err := youtube.NewClient(ctx, bundle.Client(ctx), cfg.YouTube.ChunkSize)
	if err != nil {
		return nil, err
	}

	localStorage := storage.NewLocalStorage(cfg.Download.OutputDir)

	downloader := download.New(download.Options{
		Storage: localStorage,
		Command: download.NewYTDLP(cfg.Download.Executable),
		Format:  cfg.Download.Format,
	})

	return NewBatch(BatchOptions{
		Downloader: downloader,
		Uploader:   ytClient,
		Metadata: distribution.Metadata{
			DescriptionTemplate: cfg.YouTube.DescriptionTemplate,
			Tags:                cfg.YouTube.Tags,
			Privacy:             cfg.YouTube.PrivacyStatus,
			CategoryID:          cfg.YouTube.CategoryID,
		},
		Storage:           localStorage,
		Interval:          cfg.Batch.Interval,
		DeleteAfterUpload: cfg.Batch.DeleteAfterUpload,
	}), nil
}
