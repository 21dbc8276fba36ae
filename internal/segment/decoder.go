package segment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"

	"github.com/duskwave/condense/internal/ffmpeg"
)

// gracefulRunner is the subset of ffmpeg.RunGraceful this package depends
// on, extracted as an interface so tests can substitute a fake subprocess.
type gracefulRunner interface {
	RunGraceful(ctx context.Context, ffmpegPath string, args []string, timeout time.Duration) error
}

// ffmpegGracefulRunner delegates to the package-level ffmpeg.RunGraceful.
type ffmpegGracefulRunner struct{}

func (ffmpegGracefulRunner) RunGraceful(ctx context.Context, ffmpegPath string, args []string, timeout time.Duration) error {
	return ffmpeg.RunGraceful(ctx, ffmpegPath, args, timeout)
}

// defaultGracefulShutdownTimeout bounds how long the decoder waits for
// FFmpeg to finalize a file after a 'q' shutdown request before killing it.
const defaultGracefulShutdownTimeout = 10 * time.Second

// Decoder normalizes an arbitrary source audio file to canonical PCM and
// reports exact durations from the canonical file's own header. Modeled
// as a small interface per the condensation core's "dynamic dispatch over
// decoder backends" design note, so the planner and renderer never know
// which backend produced a WAV.
type Decoder interface {
	// DecodeToCanonical converts inputPath to 16kHz mono 16-bit PCM WAV at
	// outputPath. Fails with *AudioDecodeError.
	DecodeToCanonical(ctx context.Context, inputPath, outputPath string) error
	// DurationSeconds returns the exact duration of a canonical WAV file.
	DurationSeconds(path string) (float64, error)
}

// Compile-time interface check.
var _ Decoder = (*FFmpegDecoder)(nil)

// FFmpegDecoder is the production Decoder: it shells out to FFmpeg for
// format/codec normalization and reads duration back from the decoded
// WAV's own RIFF header rather than re-probing with a second subprocess,
// resolving the core's open question about the original's risky
// sentinel-duration fallback.
type FFmpegDecoder struct {
	ffmpegPath string
	runner     gracefulRunner
	timeout    time.Duration
}

// DecoderOption configures an FFmpegDecoder.
type DecoderOption func(*FFmpegDecoder)

// WithDecoderRunner sets the subprocess runner (for testing).
func WithDecoderRunner(r gracefulRunner) DecoderOption {
	return func(d *FFmpegDecoder) { d.runner = r }
}

// WithDecoderTimeout sets the graceful-shutdown timeout.
func WithDecoderTimeout(t time.Duration) DecoderOption {
	return func(d *FFmpegDecoder) { d.timeout = t }
}

// NewFFmpegDecoder creates an FFmpegDecoder bound to a resolved ffmpeg
// binary path (see internal/ffmpeg.Resolve).
func NewFFmpegDecoder(ffmpegPath string, opts ...DecoderOption) (*FFmpegDecoder, error) {
	if ffmpegPath == "" {
		return nil, &DependencyMissingError{Binary: "ffmpeg", Suggestion: "install ffmpeg or set FFMPEG_PATH"}
	}

	d := &FFmpegDecoder{
		ffmpegPath: ffmpegPath,
		runner:     ffmpegGracefulRunner{},
		timeout:    defaultGracefulShutdownTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// DecodeToCanonical converts inputPath to canonical PCM WAV at outputPath
// using FFmpeg, preserving total duration within +/-1 sample (no lossy
// resampling beyond the mandated sample-rate conversion).
func (d *FFmpegDecoder) DecodeToCanonical(ctx context.Context, inputPath, outputPath string) error {
	args := []string{
		"-y",
		"-i", inputPath,
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-f", "wav",
		outputPath,
	}

	if err := d.runner.RunGraceful(ctx, d.ffmpegPath, args, d.timeout); err != nil {
		return newSubprocessDecodeError("decode", inputPath, err,
			"check that ffmpeg supports the input's container/codec; try converting it manually with ffmpeg -i <input> -c:a pcm_s16le test.wav to isolate the failure")
	}

	if _, err := os.Stat(outputPath); err != nil {
		return &AudioDecodeError{Stage: "decode", Path: inputPath, ExitCode: noExitCode, Err: err,
			Suggestion: "ffmpeg reported success but wrote no output file; check that the output directory is writable and has free space"}
	}

	return nil
}

// DurationSeconds reads the canonical WAV's RIFF header and returns its
// exact duration, computed from frame count and sample rate rather than a
// second ffprobe subprocess.
func (d *FFmpegDecoder) DurationSeconds(path string) (float64, error) {
	f, err := os.Open(path) // #nosec G304 -- path is the decoder's own output
	if err != nil {
		return 0, &AudioDecodeError{Stage: "duration", Path: path, ExitCode: noExitCode, Err: err,
			Suggestion: "the canonical WAV is missing or unreadable; re-run decode"}
	}
	defer func() { _ = f.Close() }()

	decoder := wav.NewDecoder(f)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return 0, &AudioDecodeError{Stage: "duration", Path: path, ExitCode: noExitCode,
			Err:        fmt.Errorf("not a valid canonical WAV file"),
			Suggestion: "the canonical WAV header is malformed; delete it and re-run decode"}
	}

	duration, err := decoder.Duration()
	if err != nil {
		return 0, &AudioDecodeError{Stage: "duration", Path: path, ExitCode: noExitCode, Err: err,
			Suggestion: "the canonical WAV header is malformed; delete it and re-run decode"}
	}

	return duration.Seconds(), nil
}
