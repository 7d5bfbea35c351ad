package catalog

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// Build phases reported through Progress.Phase.
const (
	PhaseDownload = "download"
	PhaseLibrary  = "library"
	PhaseUpload   = "upload"
	PhaseDone     = "done"
	PhaseError    = "error"
)

// Progress tracks build progress.
type Progress struct {
	Phase           string
	Library         string
	BytesDownloaded int64
	BytesTotal      int64
	LibrariesDone   int
	LibrariesTotal  int
	SetsWritten     int
	StartTime       time.Time
	Error           error
}

// ProgressFunc is called with progress updates. Builders call it from
// worker goroutines one update at a time.
type ProgressFunc func(Progress)

// progressWriter wraps an io.Writer to track bytes written.
type progressWriter struct {
	w       io.Writer
	written *atomic.Int64
}

func newProgressWriter(w io.Writer, counter *atomic.Int64) *progressWriter {
	return &progressWriter{w: w, written: counter}
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	pw.written.Add(int64(n))
	return n, err
}

// FormatBytes formats bytes as human-readable string.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatDuration formats duration as human-readable string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

// PrintProgress returns a ProgressFunc that writes one line per update to w.
func PrintProgress(w io.Writer) ProgressFunc {
	return func(p Progress) {
		switch p.Phase {
		case PhaseDownload:
			if p.BytesTotal > 0 {
				fmt.Fprintf(w, "[download] %s %s / %s\n", p.Library,
					FormatBytes(p.BytesDownloaded), FormatBytes(p.BytesTotal))
			}
		case PhaseLibrary:
			fmt.Fprintf(w, "[library] %d / %d %s (%d sets)\n",
				p.LibrariesDone, p.LibrariesTotal, p.Library, p.SetsWritten)
		case PhaseUpload:
			fmt.Fprintf(w, "[upload] %d / %d files\n", p.LibrariesDone, p.LibrariesTotal)
		case PhaseDone:
			fmt.Fprintf(w, "[done] %d libraries, %d sets (%s)\n",
				p.LibrariesDone, p.SetsWritten, FormatDuration(time.Since(p.StartTime)))
		case PhaseError:
			fmt.Fprintf(w, "[error] %v\n", p.Error)
		}
	}
}
