package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/duskwave/condense/internal/asrclient"
	"github.com/duskwave/condense/internal/interrupt"
	"github.com/duskwave/condense/internal/pipeline"
	"github.com/duskwave/condense/internal/segment"
)

// condenseCmd builds the condense subcommand. handler lets a first Ctrl+C
// during rendering be offered a choice — keep the chunks already rendered
// or abort entirely — rather than silently losing in-flight render work.
func condenseCmd(handler *interrupt.Handler) *cobra.Command {
	var (
		outDir        string
		maxChunkS     float64
		searchStartS  float64
		minGapSplitS  float64
		boundaryMS    float64
		maxIntraGapS  float64
		threshold     float64
		keepArtifacts bool
		transcribe    bool
	)

	cmd := &cobra.Command{
		Use:   "condense <audio-file>",
		Short: "Decode, detect speech, and render speech-dense chunks",
		Long: `Decode an audio or video file, detect speech with voice activity
detection, plan chunk boundaries that respect a maximum duration ceiling,
and render each chunk to its own WAV file.

The output is condensed audio, not a transcript: run with --transcribe to
additionally hand the rendered chunks to an OpenAI-compatible ASR backend.`,
		Example: `  condense condense session.wav -o out/
  condense condense meeting.mp4 --max-chunk-s 90 --transcribe`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCondense(cmd, handler, args[0], runOptions{
				outDir:        outDir,
				maxChunkS:     maxChunkS,
				searchStartS:  searchStartS,
				minGapSplitS:  minGapSplitS,
				boundaryMS:    boundaryMS,
				maxIntraGapS:  maxIntraGapS,
				threshold:     threshold,
				keepArtifacts: keepArtifacts,
				transcribe:    transcribe,
			})
		},
	}

	cmd.Flags().StringVarP(&outDir, "output", "o", "", "Output directory (default: alongside input)")
	cmd.Flags().Float64Var(&maxChunkS, "max-chunk-s", 60.0, "Hard ceiling on a chunk's reconstructed duration")
	cmd.Flags().Float64Var(&searchStartS, "chunk-search-start-s", 30.0, "Duration after which natural splits become eligible")
	cmd.Flags().Float64Var(&minGapSplitS, "min-gap-for-split-s", 3.0, "Minimum silence gap qualifying as a natural split")
	cmd.Flags().Float64Var(&boundaryMS, "boundary-margin-s", 0.30, "Silence padding added to each chunk's head and tail")
	cmd.Flags().Float64Var(&maxIntraGapS, "max-intra-gap-s", 0.8, "Per-gap cap on silence preserved inside a chunk")
	cmd.Flags().Float64Var(&threshold, "threshold", 0.5, "VAD speech-probability threshold")
	cmd.Flags().BoolVar(&keepArtifacts, "keep-artifacts", false, "Keep the intermediate canonical WAV instead of deleting it on success")
	cmd.Flags().BoolVar(&transcribe, "transcribe", false, "Transcribe rendered chunks with OPENAI_API_KEY after rendering")

	return cmd
}

type runOptions struct {
	outDir        string
	maxChunkS     float64
	searchStartS  float64
	minGapSplitS  float64
	boundaryMS    float64
	maxIntraGapS  float64
	threshold     float64
	keepArtifacts bool
	transcribe    bool
}

func runCondense(cmd *cobra.Command, handler *interrupt.Handler, inputPath string, opts runOptions) error {
	ctx := cmd.Context()

	if _, err := os.Stat(inputPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("input file not found: %s", inputPath)
		}
		return fmt.Errorf("cannot access input file: %w", err)
	}

	outDir := opts.outDir
	if outDir == "" {
		outDir = filepath.Dir(inputPath)
	}

	profile, err := segment.NewSegmentationProfile(
		segment.WithMaxChunkS(opts.maxChunkS),
		segment.WithChunkSearchStartS(opts.searchStartS),
		segment.WithMinGapForSplitS(opts.minGapSplitS),
		segment.WithBoundaryMarginS(opts.boundaryMS),
		segment.WithMaxIntraGapS(opts.maxIntraGapS),
		segment.WithThreshold(opts.threshold),
	)
	if err != nil {
		return err
	}

	policy := segment.CleanupOnSuccess
	if opts.keepArtifacts {
		policy = segment.AlwaysKeep
	}

	engine, err := selectEngine(opts.threshold)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, "Decoding and detecting speech...")

	result, err := pipeline.Run(ctx, inputPath, profile, outDir, policy, engine)
	if err != nil {
		if !errors.Is(err, context.Canceled) || len(result.Chunks) == 0 || !handler.WasInterrupted() {
			return err
		}

		decision := handler.WaitForDecision(fmt.Sprintf(
			"Interrupted with %d chunk(s) already rendered. Press Ctrl+C again within 2s to discard them, or wait to keep them.",
			len(result.Chunks)))
		if decision == interrupt.Abort {
			return err
		}

		fmt.Fprintf(os.Stderr, "Keeping %d chunk(s) rendered before the interrupt.\n", len(result.Chunks))
		opts.transcribe = false
	}

	fmt.Fprintf(os.Stderr, "Rendered %d chunk(s) from %.1fs of speech\n",
		len(result.Chunks), result.Timeline.TotalSpeechSeconds())
	for _, c := range result.Chunks {
		fmt.Fprintf(os.Stderr, "  %s (%.1fs-%.1fs, %.1fs)\n", c.Path, c.Start, c.End, c.Duration())
	}

	if !opts.transcribe {
		return nil
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("%w (set it with: export OPENAI_API_KEY=sk-...)", segment.ErrDependencyMissing)
	}

	fmt.Fprintln(os.Stderr, "Transcribing rendered chunks...")
	client := asrclient.New(apiKey)
	transcripts, err := client.TranscribeAll(ctx, result.Chunks)
	if err != nil {
		return err
	}

	for _, t := range transcripts {
		fmt.Printf("--- chunk %d ---\n%s\n\n", t.Index, t.Text)
	}

	return nil
}

// selectEngine picks the native VAD engine whenever the binary was built
// with -tags silero, and the deterministic stub engine otherwise. A silero
// build does not fall back to the stub: if the native engine cannot be
// created (for example, no model path is configured), the error is returned.
func selectEngine(threshold float64) (segment.Engine, error) {
	if segment.NativeAvailable() {
		return segment.NewNativeEngine(threshold)
	}
	return segment.NewStubEngine(), nil
}
