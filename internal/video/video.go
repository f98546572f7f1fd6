// Package video turns a snapshot sequence into an mp4 preview with ffmpeg.
package video

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

type Encoder interface {
	// Encode reads dir/pattern as an image sequence at fps and writes out.
	Encode(ctx context.Context, dir, pattern string, fps int, out string) error
}

// FFmpegEncoder shells out to the ffmpeg binary.
type FFmpegEncoder struct {
	Codec   string
	Quality int
}

// NewFFmpegEncoder picks the codec and quality. An empty codec is detected
// from the local ffmpeg build; zero quality uses the codec's default.
func NewFFmpegEncoder(codec string, quality int) *FFmpegEncoder {
	if codec == "" {
		codec = BestH264Encoder()
	}
	if quality == 0 {
		quality = DefaultQuality(codec)
	}
	return &FFmpegEncoder{Codec: codec, Quality: quality}
}

func (e *FFmpegEncoder) Encode(ctx context.Context, dir, pattern string, fps int, out string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", e.buildFFmpegArgs(dir, pattern, fps, out)...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg encode error: %v, output: %s", err, string(output))
	}
	return nil
}

func (e *FFmpegEncoder) buildFFmpegArgs(dir, pattern string, fps int, out string) []string {
	args := []string{
		"-y",
		"-framerate", fmt.Sprintf("%d", fps),
		"-i", filepath.Join(dir, pattern),
		// yuv420p needs even dimensions.
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
		"-pix_fmt", "yuv420p",
		"-c:v", e.Codec,
	}

	switch e.Codec {
	case "h264_videotoolbox":
		args = append(args, "-b:v", fmt.Sprintf("%dk", e.Quality*100))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", e.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", e.Quality), "-preset", "medium")
	}

	return append(args, out)
}

// DefaultQuality is the quality setting used when none is configured:
// a bitrate factor for VideoToolbox, CQ for NVENC, CRF for x264.
func DefaultQuality(codec string) int {
	switch codec {
	case "h264_videotoolbox":
		return 75
	case "h264_nvenc":
		return 28
	default:
		return 23
	}
}

// BestH264Encoder prefers hardware encoders the local ffmpeg offers and
// falls back to libx264.
func BestH264Encoder() string {
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	return pickEncoder(string(out))
}

func pickEncoder(listing string) string {
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(listing, name) {
			return name
		}
	}
	return "libx264"
}
