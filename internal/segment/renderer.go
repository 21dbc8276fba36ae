package segment

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// defaultRenderTimeout bounds how long a single chunk's concat-render
// subprocess is given to finish its graceful shutdown sequence once
// canceled.
const defaultRenderTimeout = 30 * time.Second

// boundary is one interval's clamped, gap-preserved render window within
// a chunk, in source-audio seconds.
type boundary struct {
	start float64
	end   float64
}

// Renderer converts a ChunkPlan into on-disk canonical WAV files by
// driving the external decoder's concat demuxer, one subprocess per
// chunk, run concurrently up to GOMAXPROCS.
type Renderer struct {
	ffmpegPath string
	runner     gracefulRunner
	files      fileWriter
	timeout    time.Duration
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithRendererRunner sets the subprocess runner (for testing).
func WithRendererRunner(r gracefulRunner) RendererOption {
	return func(rd *Renderer) { rd.runner = r }
}

// WithRendererFileWriter sets the file writer used for concat lists (for
// testing).
func WithRendererFileWriter(w fileWriter) RendererOption {
	return func(rd *Renderer) { rd.files = w }
}

// WithRendererTimeout sets the graceful-shutdown timeout per chunk.
func WithRendererTimeout(t time.Duration) RendererOption {
	return func(rd *Renderer) { rd.timeout = t }
}

// NewRenderer creates a Renderer bound to a resolved ffmpeg binary path.
func NewRenderer(ffmpegPath string, opts ...RendererOption) (*Renderer, error) {
	if ffmpegPath == "" {
		return nil, &DependencyMissingError{Binary: "ffmpeg", Suggestion: "install ffmpeg or set FFMPEG_PATH"}
	}

	r := &Renderer{
		ffmpegPath: ffmpegPath,
		runner:     ffmpegGracefulRunner{},
		files:      osFileWriter{},
		timeout:    defaultRenderTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Render emits one WAV file per chunk in plan. sourcePath must be the
// canonical (16kHz mono 16-bit PCM) decoder output; totalDurationS is its
// exact duration, from Decoder.DurationSeconds. Output filenames follow
// {stem}_condensed.wav for a single chunk or
// {stem}_condensed_part_{NNN}.wav (1-indexed, zero-padded to 3 digits)
// for multiple chunks. Results preserve plan order regardless of which
// chunk's subprocess finishes first.
//
// On a context cancellation mid-render (a graceful interrupt), Render
// still returns every chunk that had already finished writing before the
// cancellation reached it, alongside the error, rather than discarding
// them. A caller handling an interrupt (internal/interrupt.Handler) can
// offer the user those chunks instead of losing completed render work.
func (r *Renderer) Render(ctx context.Context, sourcePath string, plan ChunkPlan, profile SegmentationProfile, outDir string, totalDurationS float64) ([]RenderedChunk, error) {
	if len(plan.Chunks) == 0 {
		return nil, nil
	}

	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	results := make([]RenderedChunk, len(plan.Chunks))
	done := make([]bool, len(plan.Chunks))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, chunk := range plan.Chunks {
		g.Go(func() error {
			outPath := outputPath(outDir, stem, i, len(plan.Chunks))
			rendered, err := r.renderChunk(gctx, sourcePath, chunk, profile, outPath, totalDurationS)
			if err != nil {
				return err
			}
			// RunGraceful reports a subprocess stopped with 'q' as success, so a
			// chunk still rendering when the caller canceled is removed and not
			// counted as finished.
			if ctx.Err() != nil {
				_ = r.files.Remove(outPath)
				return ctx.Err()
			}
			rendered.Index = i
			mu.Lock()
			results[i] = rendered
			done[i] = true
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return completedChunks(results, done), err
	}

	return results, nil
}

// completedChunks compacts a partially filled results slice down to the
// chunks that finished rendering before the rest were abandoned.
func completedChunks(results []RenderedChunk, done []bool) []RenderedChunk {
	out := make([]RenderedChunk, 0, len(results))
	for i, ok := range done {
		if ok {
			out = append(out, results[i])
		}
	}
	return out
}

// outputPath builds the output filename per the single-vs-multi-chunk
// naming rule.
func outputPath(outDir, stem string, index, total int) string {
	if total == 1 {
		return filepath.Join(outDir, stem+"_condensed.wav")
	}
	return filepath.Join(outDir, fmt.Sprintf("%s_condensed_part_%03d.wav", stem, index+1))
}

// renderChunk computes per-interval boundaries, writes a concat list, and
// invokes the external decoder to produce one output WAV.
func (r *Renderer) renderChunk(ctx context.Context, sourcePath string, chunk Chunk, profile SegmentationProfile, outPath string, totalDurationS float64) (RenderedChunk, error) {
	boundaries := chunkBoundaries(chunk.Intervals, profile, totalDurationS)
	if len(boundaries) == 0 {
		return RenderedChunk{}, fmt.Errorf("%w: chunk produced no renderable segments", ErrAudioDecode)
	}

	listPath := outPath + ".concat.txt"
	if err := r.files.WriteFile(listPath, []byte(concatList(sourcePath, boundaries)), 0644); err != nil {
		return RenderedChunk{}, fmt.Errorf("write concat list: %w", err)
	}
	defer func() { _ = r.files.Remove(listPath) }()

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-ar", strconv.Itoa(profile.SampleRate()),
		"-ac", "1",
		"-c:a", "pcm_s16le",
		outPath,
	}

	if err := r.runner.RunGraceful(ctx, r.ffmpegPath, args, r.timeout); err != nil {
		_ = r.files.Remove(outPath)
		return RenderedChunk{}, newSubprocessDecodeError("render", outPath, err,
			"check that the concat demuxer's inpoint/outpoint list stays within the source file's duration")
	}

	return RenderedChunk{
		Path:  outPath,
		Start: boundaries[0].start,
		End:   boundaries[len(boundaries)-1].end,
	}, nil
}

// chunkBoundaries computes the clamped, gap-preserved render window for
// every interval in a chunk, per the renderer's per-interval formulas.
// Segments that collapse to zero or negative width after clamping are
// skipped (should not occur for valid inputs).
func chunkBoundaries(intervals SpeechTimeline, profile SegmentationProfile, totalDurationS float64) []boundary {
	var out []boundary
	previousEnd := math.Inf(-1)

	for i, iv := range intervals {
		var start float64
		if i == 0 {
			start = math.Max(0, iv.Start-profile.BoundaryMarginS())
		} else {
			start = math.Max(iv.Start, previousEnd)
		}

		var tail float64
		if i == len(intervals)-1 {
			tail = profile.BoundaryMarginS()
		} else {
			gap := intervals[i+1].Start - iv.End
			if gap < 0 {
				gap = 0
			}
			tail = math.Min(gap, profile.MaxIntraGapS())
		}
		end := math.Min(iv.End+tail, totalDurationS)

		if start >= end {
			continue
		}

		out = append(out, boundary{start: start, end: end})
		previousEnd = end
	}

	return out
}

// concatList renders the newline-separated file/inpoint/outpoint triplets
// the external decoder's concat demuxer expects.
func concatList(sourcePath string, boundaries []boundary) string {
	var b strings.Builder
	for _, seg := range boundaries {
		fmt.Fprintf(&b, "file '%s'\n", sourcePath)
		fmt.Fprintf(&b, "inpoint %s\n", strconv.FormatFloat(seg.start, 'f', 6, 64))
		fmt.Fprintf(&b, "outpoint %s\n", strconv.FormatFloat(seg.end, 'f', 6, 64))
	}
	return b.String()
}

