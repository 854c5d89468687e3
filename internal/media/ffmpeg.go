// Package media wraps the ffmpeg/ffprobe command line tools for the file
// level audio handling the pipeline needs: duration probing, window
// extraction and output assembly.
package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// SampleRate is what every ASR backend expects.
	SampleRate = 16000
	// TTSSampleRate is used when converting synthesized mp3 output.
	TTSSampleRate = 22050
)

// Duration probes the audio duration in seconds via ffprobe. A failed probe
// returns 0 with no error: the segmenter degrades to a single window for
// unknown durations, so a broken probe must not abort the job.
func Duration(ctx context.Context, path string) float64 {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// ExtractWindow cuts [start, start+duration) out of src into dst as 16 kHz
// mono WAV. A non-positive duration extracts to the end of the input.
func ExtractWindow(ctx context.Context, src string, start, duration float64, dst string) error {
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-ss", fmt.Sprintf("%.3f", max(0, start)),
	}
	if duration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.3f", duration))
	}
	args = append(args,
		"-i", src,
		"-ar", strconv.Itoa(SampleRate), "-ac", "1", "-vn",
		dst,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg extract failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// ExtractAudio demuxes the audio track of a video container into 16 kHz mono
// WAV next to dstDir and returns the new path.
func ExtractAudio(ctx context.Context, videoPath, dstDir string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	dst := filepath.Join(dstDir, base+"_audio_16k.wav")
	if err := ExtractWindow(ctx, videoPath, 0, 0, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// ConvertToWav transcodes an mp3 (or any ffmpeg-readable file) to mono WAV
// at the TTS sample rate.
func ConvertToWav(ctx context.Context, src, dst string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", src,
		"-ar", strconv.Itoa(TTSSampleRate), "-ac", "1",
		dst,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg convert failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Concat joins audio parts into a single output file using the ffmpeg concat
// demuxer. All parts must share a format.
func Concat(ctx context.Context, parts []string, dst string) error {
	if len(parts) == 0 {
		return fmt.Errorf("no audio parts to assemble")
	}
	if len(parts) == 1 {
		data, err := os.ReadFile(parts[0])
		if err != nil {
			return fmt.Errorf("failed to read part: %w", err)
		}
		return os.WriteFile(dst, data, 0600)
	}

	list, err := os.CreateTemp(filepath.Dir(dst), "concat_*.txt")
	if err != nil {
		return fmt.Errorf("failed to create concat list: %w", err)
	}
	defer os.Remove(list.Name())

	for _, p := range parts {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if _, err := fmt.Fprintf(list, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`)); err != nil {
			list.Close()
			return fmt.Errorf("failed to write concat list: %w", err)
		}
	}
	if err := list.Close(); err != nil {
		return fmt.Errorf("failed to close concat list: %w", err)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "concat", "-safe", "0",
		"-i", list.Name(),
		"-c", "copy",
		dst,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg concat failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
