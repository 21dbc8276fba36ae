// Package pipeline sequences the condensation core's four stages —
// decode, detect, plan, render — into a single CLI-agnostic entry point.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/duskwave/condense/internal/ffmpeg"
	"github.com/duskwave/condense/internal/segment"
)

// Result is everything a caller needs after a successful run: the
// rendered chunks, the speech timeline that produced them, and the plan
// itself (useful for diagnostics and for property-testing callers).
type Result struct {
	Chunks   []segment.RenderedChunk
	Timeline segment.SpeechTimeline
	Plan     segment.ChunkPlan
}

// Run decodes sourcePath, detects speech, plans chunks, and renders them
// to outDir, in that strict sequential order (§5's single-threaded
// cooperative scheduling model — only the render stage parallelizes
// internally, across chunks).
//
// engine selects the VAD backend: pass segment.NewStubEngine() for the
// default build or a native engine from segment.NewNativeEngine() when
// built with -tags silero. Engine ownership passes to Run, which closes
// it before returning.
func Run(ctx context.Context, sourcePath string, profile segment.SegmentationProfile, outDir string, policy segment.ArtifactPolicy, engine segment.Engine) (Result, error) {
	defer func() { _ = engine.Close() }()

	ffmpegPath, err := ffmpeg.Resolve(ctx)
	if err != nil {
		return Result{}, err
	}
	ffmpeg.CheckVersion(ctx, ffmpegPath)

	decoder, err := segment.NewFFmpegDecoder(ffmpegPath)
	if err != nil {
		return Result{}, err
	}

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return Result{}, fmt.Errorf("create output directory: %w", err)
	}

	canonicalPath := filepath.Join(outDir, stem(sourcePath)+"_canonical.wav")

	if err := decoder.DecodeToCanonical(ctx, sourcePath, canonicalPath); err != nil {
		return Result{}, err
	}
	cleanupCanonical := func(success bool) {
		if policy == segment.CleanupOnSuccess && success {
			_ = os.Remove(canonicalPath)
		}
	}

	totalDuration, err := decoder.DurationSeconds(canonicalPath)
	if err != nil {
		cleanupCanonical(false)
		return Result{}, err
	}

	detector := segment.NewDetector(engine)

	timeline, err := detector.DetectSpeech(canonicalPath, profile)
	if err != nil {
		cleanupCanonical(false)
		return Result{}, err
	}
	if len(timeline) == 0 {
		cleanupCanonical(false)
		return Result{}, segment.ErrNoSpeechDetected
	}

	plan, err := segment.Plan(timeline, profile)
	if err != nil {
		cleanupCanonical(false)
		return Result{}, err
	}

	renderer, err := segment.NewRenderer(ffmpegPath)
	if err != nil {
		cleanupCanonical(false)
		return Result{}, err
	}

	chunks, err := renderer.Render(ctx, canonicalPath, plan, profile, outDir, totalDuration)
	if err != nil {
		cleanupCanonical(false)
		// A render-stage error from a graceful interrupt can still carry
		// the chunks that finished before cancellation; hand those back
		// alongside the error instead of discarding them, so a caller
		// can decide whether to keep partial output.
		return Result{Chunks: chunks, Timeline: timeline, Plan: plan}, err
	}

	cleanupCanonical(true)

	return Result{Chunks: chunks, Timeline: timeline, Plan: plan}, nil
}

// stem returns the filename without its directory or extension.
func stem(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
