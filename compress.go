package livegan

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// SafeCommand wraps exec.Cmd with a buffer that keeps the child's stderr for error reports.
type SafeCommand struct {
	*exec.Cmd
	Stderr *bytes.Buffer
}

func NewSafeCommand(ctx context.Context, name string, args ...string) *SafeCommand {
	cmd := exec.CommandContext(ctx, name, args...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	return &SafeCommand{Cmd: cmd, Stderr: stderr}
}

// CompressedPath is where CompressVideo writes the re-encoded copy of path.
func CompressedPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-compressed" + ext
}

// CompressVideo re-encodes an mp4 with libx264 at the same resolution and a lower bitrate.
func CompressVideo(ctx context.Context, path string) (string, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return "", fmt.Errorf("ffmpeg not found: %w", err)
	}
	out := CompressedPath(path)
	cmd := NewSafeCommand(ctx, "ffmpeg", "-hide_banner", "-loglevel", "error", "-y",
		"-i", path, "-c:v", "libx264", "-crf", "23", "-preset", "medium", "-pix_fmt", "yuv420p", out)
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg failed: %w: %s", err, strings.TrimSpace(cmd.Stderr.String()))
	}
	return out, nil
}
