package download

import (
	"context"

	"github.com/lrstanley/go-ytdlp"
)

// Request is a single invocation of the external downloader.
type Request struct {
	URL            string
	Format         string
	OutputTemplate string
}

// Command runs the external downloader and returns everything it printed.
// The output is returned even when the run fails.
type Command interface {
	Run(ctx context.Context, req Request) (string, error)
}

type YTDLP struct {
	executable string
}

func NewYTDLP(executable string) *YTDLP {
	return &YTDLP{executable: executable}
}

// Run is equivalent to `yt-dlp -f <format> -o <template> --no-playlist <url>`.
func (y *YTDLP) Run(ctx context.Context, req Request) (string, error) {
	cmd := ytdlp.New().
		Format(req.Format).
		Output(req.OutputTemplate).
		NoPlaylist()
	if y.executable != "" {
		cmd.SetExecutable(y.executable)
	}

	res, err := cmd.Run(ctx, req.URL)

	var output string
	if res != nil {
		output = res.Stdout
		if res.Stderr != "" {
			output += "\n" + res.Stderr
		}
	}

	return output, err
}
