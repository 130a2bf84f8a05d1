package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"reuploader/internal/storage"
)

// StampLayout is the run timestamp put in front of every downloaded file.
// It is always 15 characters of digits and an underscore.
const StampLayout = "20060102_150405"

var ErrNoFile = errors.New("no file produced")

// ExitError reports a failed downloader run along with what it printed.
type ExitError struct {
	URL    string
	Output string
	Err    error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *ExitError) Unwrap() []error {
	return []error{ErrNoFile, e.Err}
}

type Downloader struct {
	storage *storage.LocalStorage
	cmd     Command
	format  string
	now     func() time.Time
}

type Options struct {
	Storage *storage.LocalStorage
	Command Command
	Format  string
}

func New(opts Options) *Downloader {
	format := opts.Format
	if format == "" {
		format = "best"
	}

	return &Downloader{
		storage: opts.Storage,
		cmd:     opts.Command,
		format:  format,
		now:     time.Now,
	}
}

// Download fetches a single URL into the output directory and returns the
// path of the produced file. Every failure wraps ErrNoFile.
func (d *Downloader) Download(ctx context.Context, url string) (string, error) {
	if err := d.storage.EnsureDirectories(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoFile, err)
	}

	dir := d.storage.Dir()
	req := Request{
		URL:            url,
		Format:         d.format,
		OutputTemplate: OutputTemplate(dir, d.now().Format(StampLayout)),
	}

	slog.Info("Downloading", "url", url)
	output, err := d.cmd.Run(ctx, req)
	if err != nil {
		slog.Error("Download failed", "url", url, "error", err, "output", output)
		return "", &ExitError{URL: url, Output: output, Err: err}
	}

	if path := FindDestination(output, dir); path != "" {
		slog.Debug("Found destination in downloader output", "path", path)
		return path, nil
	}

	path, err := d.storage.NewestFile()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoFile, err)
	}
	if path == "" {
		return "", ErrNoFile
	}

	slog.Debug("No destination line, using newest file", "path", path)
	return path, nil
}
