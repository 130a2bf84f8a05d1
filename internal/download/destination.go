package download

import (
	"path/filepath"
	"strings"
)

const destinationMarker = "Destination: "

// FindDestination scans downloader output for the line announcing where the
// media is being written, e.g.
//
//	[download] Destination: downloads/20240101_120000_Title.mp4
//
// Only lines that mention dir are considered. It returns "" when no such
// line exists. The wording is yt-dlp's informational output, not a stable
// interface.
func FindDestination(output, dir string) string {
	dir = filepath.Clean(dir)

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if !strings.Contains(line, "Destination") || !strings.Contains(line, dir) {
			continue
		}
		if _, path, ok := strings.Cut(line, destinationMarker); ok {
			return strings.TrimSpace(path)
		}
	}

	return ""
}

// OutputTemplate prefixes the source title with the run stamp and keeps the
// source's own extension.
func OutputTemplate(dir, stamp string) string {
	return filepath.Join(dir, stamp+"_%(title)s.%(ext)s")
}
