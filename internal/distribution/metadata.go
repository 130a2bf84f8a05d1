package distribution

import (
	"fmt"
	"path/filepath"
	"strings"
)

// stampLength is the length of the YYYYMMDD_HHMMSS prefix the downloader
// puts in front of every file name.
const stampLength = 15

// Metadata holds the fixed parts of every upload.
type Metadata struct {
	DescriptionTemplate string
	Tags                []string
	Privacy             string
	CategoryID          string
}

// Request builds the upload request for a downloaded file.
func (m Metadata) Request(filePath, sourceURL string) UploadRequest {
	return UploadRequest{
		FilePath:    filePath,
		Title:       TitleFromFilename(filePath),
		Description: Description(m.DescriptionTemplate, sourceURL),
		Tags:        m.Tags,
		Privacy:     m.Privacy,
		CategoryID:  m.CategoryID,
	}
}

func Description(template, sourceURL string) string {
	if !strings.Contains(template, "%s") {
		return template + "\n\n" + sourceURL
	}
	return fmt.Sprintf(template, sourceURL)
}

// TitleFromFilename derives a display title from a downloaded file: the
// extension is dropped, and a leading 15-character run of digits and
// underscores is treated as the download stamp and removed together with
// the one character that follows it, whatever that character is. A name
// that would end up empty is returned unchanged.
func TitleFromFilename(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	if len(stem) <= stampLength || !isStamp(stem[:stampLength]) {
		return stem
	}

	title := stem[stampLength+1:]
	if title == "" {
		return stem
	}
	return title
}

func isStamp(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return true
}
