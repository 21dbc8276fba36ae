package segment

import (
	"errors"
	"fmt"

	"github.com/duskwave/condense/internal/ffmpeg"
)

// Sentinel errors for errors.Is checks at call sites.
var (
	// ErrConfiguration wraps any SegmentationProfile construction failure.
	ErrConfiguration = errors.New("invalid segmentation profile")

	// ErrAudioDecode wraps any decoder/renderer subprocess failure.
	ErrAudioDecode = errors.New("audio decode failed")

	// ErrNoSpeechDetected indicates the VAD produced an empty timeline.
	ErrNoSpeechDetected = errors.New("no speech detected")

	// ErrUnsplittableSegment indicates a single voiced interval alone
	// exceeds the configured ceiling.
	ErrUnsplittableSegment = errors.New("segment cannot be split under ceiling")

	// ErrDependencyMissing indicates a required external binary is absent.
	ErrDependencyMissing = errors.New("required external dependency missing")
)

// ConfigurationError carries the offending SegmentationProfile field and
// its permitted range.
type ConfigurationError struct {
	Field   string
	Value   float64
	Min     float64
	Max     float64
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", ErrConfiguration, e.Message)
	}
	return fmt.Sprintf("%s: field %q = %v, must be in [%v, %v]",
		ErrConfiguration, e.Field, e.Value, e.Min, e.Max)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// noExitCode marks an AudioDecodeError whose failure did not come from a
// subprocess exiting with a code at all (a file-read error, a missing
// output file, a malformed WAV header) and so has no real exit code to
// report.
const noExitCode = -1

// AudioDecodeError carries the subprocess stage, input path, exit code, and
// a remediation suggestion for a failed decode or render step. ExitCode is
// noExitCode when the failure happened outside a subprocess invocation.
type AudioDecodeError struct {
	Stage      string // "decode", "duration", "render", or "vad-read"
	Path       string
	ExitCode   int
	Suggestion string
	Err        error
}

func (e *AudioDecodeError) Error() string {
	msg := fmt.Sprintf("%s: %s stage failed for %q (exit %d): %v",
		ErrAudioDecode, e.Stage, e.Path, e.ExitCode, e.Err)
	if e.Suggestion != "" {
		msg += "; " + e.Suggestion
	}
	return msg
}

func (e *AudioDecodeError) Unwrap() error {
	return ErrAudioDecode
}

// newSubprocessDecodeError builds an AudioDecodeError from a failed FFmpeg
// invocation, recovering the real exit code from err's *ffmpeg.SubprocessError
// chain when present instead of reporting noExitCode for a failure that did
// carry one.
func newSubprocessDecodeError(stage, path string, err error, suggestion string) *AudioDecodeError {
	exitCode := noExitCode
	var subErr *ffmpeg.SubprocessError
	if errors.As(err, &subErr) {
		exitCode = subErr.ExitCode
	}
	return &AudioDecodeError{Stage: stage, Path: path, ExitCode: exitCode, Suggestion: suggestion, Err: err}
}

// UnsplittableSegmentError carries the offending interval and ceiling.
type UnsplittableSegmentError struct {
	SegmentStart float64
	SegmentEnd   float64
	MaxChunkS    float64
}

func (e *UnsplittableSegmentError) Error() string {
	return fmt.Sprintf("%s: interval [%.3f, %.3f) exceeds max_chunk_s=%.3f",
		ErrUnsplittableSegment, e.SegmentStart, e.SegmentEnd, e.MaxChunkS)
}

func (e *UnsplittableSegmentError) Unwrap() error {
	return ErrUnsplittableSegment
}

// DependencyMissingError names the missing binary and a suggested fix.
type DependencyMissingError struct {
	Binary     string
	Suggestion string
}

func (e *DependencyMissingError) Error() string {
	return fmt.Sprintf("%s: %q not found on PATH; %s",
		ErrDependencyMissing, e.Binary, e.Suggestion)
}

func (e *DependencyMissingError) Unwrap() error {
	return ErrDependencyMissing
}
