package service

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

type ytDlpFetcher struct{}

// NewYtDlpFetcher returns a MediaFetcher backed by the yt-dlp binary.
func NewYtDlpFetcher() MediaFetcher {
	return &ytDlpFetcher{}
}

// FetchAudio extracts the best audio track and transcodes it to mp3 through
// yt-dlp's ffmpeg postprocessor. outputTemplate is a yt-dlp -o template.
func (f *ytDlpFetcher) FetchAudio(ctx context.Context, url, outputTemplate string) error {
	args := []string{
		"--no-playlist",
		"-f", "bestaudio/best",
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "192K",
		"-o", outputTemplate,
		url,
	}

	cmd := exec.CommandContext(ctx, "yt-dlp", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("yt-dlp failed: %w: %s", err, tail(stderr.String(), 300))
	}
	return nil
}

func tail(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[len(s)-max:]
}
