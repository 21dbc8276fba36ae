package segment

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// Detector adapts an Engine to the condensation core's batch contract:
// detect_speech(wav_path, profile) -> SpeechTimeline. It is the only place
// in the core, besides the Decoder, that touches raw PCM bytes.
type Detector struct {
	engine Engine
	reader fileReader
	writer fileWriter
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithDetectorFileReader overrides the cache file reader (for testing).
func WithDetectorFileReader(r fileReader) DetectorOption {
	return func(d *Detector) { d.reader = r }
}

// WithDetectorFileWriter overrides the cache file writer (for testing).
func WithDetectorFileWriter(w fileWriter) DetectorOption {
	return func(d *Detector) { d.writer = w }
}

// NewDetector creates a Detector bound to the given Engine. Use
// NewStubEngine() for the default, dependency-free backend or
// NewNativeEngine() when built with -tags silero.
func NewDetector(engine Engine, opts ...DetectorOption) *Detector {
	d := &Detector{
		engine: engine,
		reader: osFileReader{},
		writer: osFileWriter{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectSpeech reads wavPath (canonical 16kHz mono 16-bit PCM), consults
// the profile-keyed sidecar cache, and otherwise runs the Engine,
// returning a normalized, non-empty-checked SpeechTimeline. An empty
// result is returned as-is; callers treat that as ErrNoSpeechDetected.
func (d *Detector) DetectSpeech(wavPath string, profile SegmentationProfile) (SpeechTimeline, error) {
	if cached, ok := loadCachedTimeline(d.reader, wavPath, profile); ok {
		return cached, nil
	}

	pcm, sampleRate, err := readPCM16(wavPath)
	if err != nil {
		return nil, &AudioDecodeError{Stage: "vad-read", Path: wavPath, ExitCode: noExitCode, Err: err,
			Suggestion: "the canonical WAV is missing or unreadable; re-run decode"}
	}

	spans, err := d.engine.DetectSpans(pcm, sampleRate, profile)
	if err != nil {
		return nil, fmt.Errorf("vad detect: %w", err)
	}

	timeline := make(SpeechTimeline, len(spans))
	for i, s := range spans {
		timeline[i] = SpeechInterval{
			Start: float64(s.StartSample) / float64(sampleRate),
			End:   float64(s.EndSample) / float64(sampleRate),
		}
	}
	timeline = NormalizeTimeline(timeline)

	if len(timeline) > 0 {
		// Cache failures are not fatal: the cache is advisory per the VAD
		// contract, never authoritative.
		_ = saveCachedTimeline(d.writer, wavPath, profile, timeline)
	}

	return timeline, nil
}

// readPCM16 decodes a canonical WAV file's full sample buffer as int16
// PCM, along with its sample rate.
func readPCM16(wavPath string) ([]int16, int, error) {
	f, err := os.Open(wavPath) // #nosec G304 -- wavPath is the decoder's own output
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = f.Close() }()

	decoder := wav.NewDecoder(f)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("not a valid canonical WAV file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("read pcm buffer: %w", err)
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}

	return samples, int(decoder.SampleRate), nil
}
