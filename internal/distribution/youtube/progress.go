package youtube

import "log/slog"

const progressStep = 10

// progressLogger logs upload progress in coarse steps so a large file does
// not flood the log with one line per chunk.
type progressLogger struct {
	title    string
	size     int64
	reported int64
}

func newProgressLogger(title string, size int64) *progressLogger {
	return &progressLogger{title: title, size: size}
}

func (p *progressLogger) Update(current, total int64) {
	if total <= 0 {
		total = p.size
	}
	if total <= 0 {
		return
	}

	percent := current * 100 / total
	if percent > 100 {
		percent = 100
	}
	step := percent / progressStep * progressStep
	if step <= p.reported {
		return
	}

	p.reported = step
	slog.Info("Upload progress", "title", p.title, "percent", step)
}
