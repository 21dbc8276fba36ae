package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/duskwave/condense/internal/interrupt"
	"github.com/duskwave/condense/internal/segment"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes. ExitSetup through ExitNoSpeech map to the core's error
// families (missing dependency, configuration, audio decode, unsplittable
// segment, no speech); ExitUsage covers flag errors, ExitInterrupt a
// canceled context, and ExitGeneral anything else.
const (
	ExitOK            = 0
	ExitGeneral       = 1
	ExitUsage         = 2
	ExitSetup         = 3
	ExitConfiguration = 4
	ExitAudioDecode   = 5
	ExitUnsplittable  = 6
	ExitNoSpeech      = 7
	ExitInterrupt     = 130
)

func main() {
	_ = godotenv.Load()

	handler, ctx := interrupt.NewHandler(context.Background())
	defer handler.Stop()

	rootCmd := &cobra.Command{
		Use:     "condense",
		Short:   "Condense long recordings into speech-dense chunks for downstream ASR",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),

		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(condenseCmd(handler))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps errors from the condensation core to process exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	errMsg := err.Error()
	if strings.Contains(errMsg, "required flag") ||
		strings.Contains(errMsg, "unknown flag") ||
		strings.Contains(errMsg, "unknown shorthand") ||
		strings.Contains(errMsg, "flag needs an argument") ||
		strings.Contains(errMsg, "invalid argument") {
		return ExitUsage
	}

	if errors.Is(err, segment.ErrDependencyMissing) {
		return ExitSetup
	}
	if errors.Is(err, segment.ErrConfiguration) {
		return ExitConfiguration
	}
	if errors.Is(err, segment.ErrAudioDecode) {
		return ExitAudioDecode
	}
	if errors.Is(err, segment.ErrUnsplittableSegment) {
		return ExitUnsplittable
	}
	if errors.Is(err, segment.ErrNoSpeechDetected) {
		return ExitNoSpeech
	}

	return ExitGeneral
}
