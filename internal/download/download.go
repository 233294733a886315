// Package download fetches model weight files over HTTPS with resume
// support and checksum verification.
package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Progress reports download state to a callback.
type Progress struct {
	BytesDownloaded int64
	TotalBytes      int64 // -1 when the server does not report a length
}

// ProgressFunc receives periodic progress updates.
type ProgressFunc func(Progress)

// Options configures a download.
type Options struct {
	// SHA256 is the expected hex digest of the complete file. Empty skips
	// verification.
	SHA256 string
	// Resume continues a partial download at dest if the server supports
	// range requests.
	Resume bool
	// Progress is called as data arrives. May be nil.
	Progress ProgressFunc
	// Client overrides the HTTP client (mainly for tests).
	Client *http.Client
	// Logger may be nil.
	Logger *slog.Logger
}

const progressInterval = 64 * 1024

// Fetch downloads url to dest. The file is written to dest+".part" and
// renamed into place only after the checksum (if any) verifies, so dest is
// never left holding a corrupt file.
func Fetch(ctx context.Context, url, dest string, opts Options) error {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 0}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	partPath := dest + ".part"

	var offset int64
	if opts.Resume {
		if info, err := os.Stat(partPath); err == nil {
			offset = info.Size()
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Server ignored the range request; start over.
		offset = 0
	case http.StatusPartialContent:
	default:
		return fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if offset > 0 {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	out, err := os.OpenFile(partPath, flags, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", partPath, err)
	}

	total := int64(-1)
	if resp.ContentLength >= 0 {
		total = offset + resp.ContentLength
	}
	logger.Info("download started", "url", url, "dest", dest, "offset", offset, "total_bytes", total)
	start := time.Now()

	written, err := copyWithProgress(ctx, out, resp.Body, offset, total, opts.Progress)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("downloading %s: %w", url, err)
	}

	if opts.SHA256 != "" {
		if err := verifyChecksum(partPath, opts.SHA256); err != nil {
			os.Remove(partPath)
			return err
		}
	}

	if err := os.Rename(partPath, dest); err != nil {
		return fmt.Errorf("moving download into place: %w", err)
	}

	logger.Info("download finished",
		"dest", dest, "bytes", offset+written, "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, offset, total int64, progress ProgressFunc) (int64, error) {
	var written int64
	var sinceReport int64
	buf := make([]byte, 32*1024)

	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, err
			}
			written += int64(n)
			sinceReport += int64(n)
			if progress != nil && sinceReport >= progressInterval {
				progress(Progress{BytesDownloaded: offset + written, TotalBytes: total})
				sinceReport = 0
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return written, readErr
		}
	}

	if progress != nil {
		progress(Progress{BytesDownloaded: offset + written, TotalBytes: total})
	}
	return written, nil
}

func verifyChecksum(path, wantHex string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s for checksum: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("hashing %s: %w", path, err)
	}

	got := hex.EncodeToString(h.Sum(nil))
	if got != wantHex {
		return fmt.Errorf("checksum mismatch: got %s, want %s", got, wantHex)
	}
	return nil
}
